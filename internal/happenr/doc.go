// Package happenr is a client for the Happenr events web service.
//
// A Client authenticates every call with a login and password, sends the
// parameters as a query string to getEvents.php or getEventDetails.php and
// maps the XML answer into event.Event records. Each call is a single
// synchronous GET: there are no retries, no caching and no rate limiting.
//
// Failures are reported as typed errors that can be inspected with errors.As:
// ValidationError (rejected before any request is made), TransportError,
// HTTPStatusError, ParseError and NotFoundError.
package happenr
