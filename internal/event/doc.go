// Package event provides the Happenr event record and the conversion of the
// service's XML responses into it.
//
// ParseDocument decodes a getEvents.php or getEventDetails.php response body,
// transcoding any declared character set to UTF-8 and normalizing text once.
// A Mapper then turns each raw Node into a flat Event with unix timestamps,
// booleans and nested location, price and schedule values. Snapshots of mapped
// events can be diffed to find events that are new or changed since a
// previous run.
package event
