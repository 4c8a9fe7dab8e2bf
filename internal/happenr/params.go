package happenr

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultLanguage = "EN"
	maxLimit        = 500
	dateLayout      = "2006-01-02"
)

// Validate checks the options against the service's constraints.
func (o SearchOptions) Validate() error {
	if o.Sorting != "" && !o.Sorting.Valid() {
		return &ValidationError{Field: "sorting", Message: fmt.Sprintf("%q is not one of %v", o.Sorting, Sortings)}
	}
	if o.Limit != nil && *o.Limit > maxLimit {
		return &ValidationError{Field: "limit", Message: fmt.Sprintf("%d exceeds %d", *o.Limit, maxLimit)}
	}
	if o.Longitude != "" && o.Latitude == "" {
		return &ValidationError{Field: "latitude", Message: "required when longitude is given"}
	}
	if o.Latitude != "" && o.Longitude == "" {
		return &ValidationError{Field: "longitude", Message: "required when latitude is given"}
	}
	if err := validateTimestamp("date", o.Date); err != nil {
		return err
	}
	if err := validateTimestamp("fromDate", o.FromDate); err != nil {
		return err
	}
	return validateTimestamp("toDate", o.ToDate)
}

func validateTimestamp(field string, t time.Time) error {
	if !t.IsZero() && t.Unix() <= 0 {
		return &ValidationError{Field: field, Message: "timestamp must be positive"}
	}
	return nil
}

// buildSearchParams validates the options and turns them into getEvents.php
// query parameters.
//
// IncludePermanentEvents is sent as includeeventdetails=1 and overrides
// OmitEventDetails.
func buildSearchParams(o SearchOptions) (url.Values, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}

	language := o.Language
	if language == "" {
		language = defaultLanguage
	}
	params.Set("language", language)

	setString(params, "channelid", o.ChannelID)
	setString(params, "sorting", string(o.Sorting))
	if o.SourceID != nil {
		params.Set("sourceid", strconv.Itoa(*o.SourceID))
	}
	if o.FirstRecord != 0 {
		params.Set("firstrecord", strconv.Itoa(o.FirstRecord))
	}
	if o.Limit != nil {
		params.Set("limit", strconv.Itoa(*o.Limit))
	}

	if o.IncludeDatesXML {
		params.Set("includedatesxml", "1")
	}
	if o.OmitEvents {
		params.Set("includeevents", "0")
	}
	if o.OmitEventDetails {
		params.Set("includeeventdetails", "0")
	}
	if o.IncludeFilters {
		params.Set("includefilters", "1")
	}
	if o.IncludeDoubles {
		params.Set("includedoubles", "1")
	}
	if o.IncludePermanentEvents {
		params.Set("includeeventdetails", "1")
	}

	setString(params, "country", o.Country)
	setString(params, "region", o.Region)
	setString(params, "town", o.Town)
	setString(params, "longitude", o.Longitude)
	setString(params, "latitude", o.Latitude)
	if o.MaxDistance != 0 {
		params.Set("maxdistance", strconv.Itoa(o.MaxDistance))
	}
	setString(params, "category", o.Category)
	setDate(params, "date", o.Date)
	setDate(params, "fromdate", o.FromDate)
	setDate(params, "todate", o.ToDate)
	setString(params, "period", o.Period)
	setString(params, "searchtext", o.SearchText)
	setString(params, "venue", o.Venue)

	return params, nil
}

// buildDetailParams turns a detail lookup into getEventDetails.php query parameters.
func buildDetailParams(eventID string, o DetailOptions) url.Values {
	params := url.Values{}
	params.Set("eventid", eventID)
	setString(params, "channelid", o.ChannelID)
	if o.IncludeDatesXML {
		params.Set("includedatesxml", "1")
	}
	return params
}

func setString(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func setDate(params url.Values, key string, t time.Time) {
	if !t.IsZero() {
		params.Set(key, t.Format(dateLayout))
	}
}
