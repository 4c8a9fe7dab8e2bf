package event

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
)

// Document is a parsed Happenr response. Search responses carry their
// events under <events>, detail responses carry a single <event>.
type Document struct {
	XMLName xml.Name
	Events  []Node `xml:"events>event"`
	Event   *Node  `xml:"event"`
}

// Node is an <event> element as the service sends it.
type Node struct {
	ID           string       `xml:"id,attr"`
	RecordDate   string       `xml:"recorddate,attr"`
	Geocode      string       `xml:"geocode"`
	Langcode     string       `xml:"langcode"`
	SourceLink   string       `xml:"sourcelink"`
	DetailLink   string       `xml:"detaillink"`
	Title        string       `xml:"title"`
	Content      string       `xml:"content"`
	ImageURL     string       `xml:"imageurl"`
	Location     LocationNode `xml:"location"`
	Longitude    string       `xml:"longitude"`
	Latitude     string       `xml:"latitude"`
	DateFrom     string       `xml:"datefrom"`
	DateTo       string       `xml:"dateto"`
	URL          string       `xml:"url"`
	Email        string       `xml:"email"`
	Performer    string       `xml:"performer"`
	Organizer    string       `xml:"organizer"`
	Venue        string       `xml:"venue"`
	DatesText    string       `xml:"datestext"`
	Dates        []DateNode   `xml:"dates>date"`
	Price        PriceNode    `xml:"price"`
	TicketingURL string       `xml:"ticketingurl"`
	Free         string       `xml:"free"`
	Cancelled    string       `xml:"cancelled"`
	Postponed    string       `xml:"postponed"`
	SoldOut      string       `xml:"soldout"`
	Tags         []string     `xml:"tags>tag"`
}

// LocationNode is the <location> child of an event.
type LocationNode struct {
	Town     string `xml:"town"`
	Region   string `xml:"region"`
	Country  string `xml:"country"`
	Accuracy string `xml:"accuracy"`
}

// PriceNode is the <price> child of an event.
type PriceNode struct {
	Text     string `xml:"text"`
	Min      string `xml:"min"`
	Max      string `xml:"max"`
	Currency string `xml:"currency"`
}

// DateNode is one <date> entry of an event's <dates> list.
// Dates are DD-MM-YYYY and times HH:MM.
type DateNode struct {
	StartDate string `xml:"startdate"`
	StartTime string `xml:"starttime"`
	EndDate   string `xml:"enddate"`
	EndTime   string `xml:"endtime"`
}

// ParseDocument decodes a response body. A declared non-UTF-8 encoding is
// transcoded while decoding, and every text value is NFC-normalized once
// here so that mapped records are consistently UTF-8.
func ParseDocument(body []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charsetReader

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding XML: %w", err)
	}
	if err := checkTrailing(dec); err != nil {
		return nil, fmt.Errorf("decoding XML: %w", err)
	}

	for i := range doc.Events {
		doc.Events[i].normalize()
	}
	if doc.Event != nil {
		doc.Event.normalize()
	}

	return &doc, nil
}

// checkTrailing rejects anything but whitespace, comments and processing
// instructions after the root element.
func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return fmt.Errorf("extra content at end of document: %q", string(t))
			}
		default:
			return fmt.Errorf("extra content at end of document: %T", tok)
		}
	}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	r, err := charset.NewReaderLabel(label, input)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return r, nil
}

// normalize rewrites every text value of the node in Unicode NFC form.
func (n *Node) normalize() {
	fields := []*string{
		&n.ID, &n.RecordDate, &n.Geocode, &n.Langcode, &n.SourceLink, &n.DetailLink,
		&n.Title, &n.Content, &n.ImageURL,
		&n.Location.Town, &n.Location.Region, &n.Location.Country, &n.Location.Accuracy,
		&n.Longitude, &n.Latitude, &n.DateFrom, &n.DateTo,
		&n.URL, &n.Email, &n.Performer, &n.Organizer, &n.Venue, &n.DatesText,
		&n.Price.Text, &n.Price.Min, &n.Price.Max, &n.Price.Currency,
		&n.TicketingURL, &n.Free, &n.Cancelled, &n.Postponed, &n.SoldOut,
	}
	for _, f := range fields {
		*f = norm.NFC.String(*f)
	}
	for i := range n.Tags {
		n.Tags[i] = norm.NFC.String(n.Tags[i])
	}
}
