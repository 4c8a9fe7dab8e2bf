package happenr

import "time"

// Sorting selects the order of search results.
type Sorting string

const (
	SortAlphabetical Sorting = "alphabetical"
	SortDate         Sorting = "date"
	SortDistance     Sorting = "distance"
	SortEventRanking Sorting = "eventranking"
	SortRandom       Sorting = "random"
	SortImages       Sorting = "images"
)

// Sortings lists every sorting the service accepts.
var Sortings = []Sorting{
	SortAlphabetical,
	SortDate,
	SortDistance,
	SortEventRanking,
	SortRandom,
	SortImages,
}

// Valid reports whether s is a sorting the service accepts.
func (s Sorting) Valid() bool {
	for _, v := range Sortings {
		if s == v {
			return true
		}
	}
	return false
}

// SearchOptions are the filters of a getEvents.php call.
// Zero values mean "not set" and are left out of the request.
type SearchOptions struct {
	// Language for categories, both in the query and in the output. Defaults to "EN".
	Language string
	// ChannelID selects the database that is queried.
	ChannelID string
	Sorting   Sorting
	// SourceID restricts results to one content source.
	SourceID *int
	// FirstRecord is the offset of the first result.
	FirstRecord int
	// Limit caps the number of results; at most 500.
	Limit *int

	// IncludeDatesXML adds a <dates> entry for each day the event takes place.
	IncludeDatesXML bool
	// OmitEvents asks for filters only, without events.
	OmitEvents bool
	// OmitEventDetails drops the extended event fields (dates, content, ...).
	OmitEventDetails bool
	// IncludeFilters adds every possible filter with its event count.
	IncludeFilters bool
	// IncludeDoubles keeps duplicate events.
	IncludeDoubles bool
	// IncludePermanentEvents keeps permanent events.
	// The service receives this as includeeventdetails=1, see buildSearchParams.
	IncludePermanentEvents bool

	Country string
	Region  string
	Town    string

	// Longitude and Latitude must be given together; results are ordered by
	// distance to that point. Kept as text to preserve precision.
	Longitude string
	Latitude  string
	// MaxDistance in km from the coordinates. Zero means no limit.
	MaxDistance int

	Category string

	// Date filters on one day; FromDate and ToDate on an inclusive period.
	// Only the calendar day in the value's own location is sent.
	Date     time.Time
	FromDate time.Time
	ToDate   time.Time
	Period   string

	// SearchText is a free text search on title and content.
	SearchText string
	// Venue is a free text search on the venue.
	Venue string
}

// DetailOptions are the optional parameters of a getEventDetails.php call.
type DetailOptions struct {
	ChannelID       string
	IncludeDatesXML bool
}
