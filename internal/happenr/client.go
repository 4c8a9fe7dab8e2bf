package happenr

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pfrederiksen/happenr/internal/event"
	"github.com/pfrederiksen/happenr/internal/logger"
)

const (
	APIURL     = "http://happenr.com/webservices"
	APIPort    = 80
	Version    = "1.0.0"
	ClientName = "happenr-go"

	// DefaultTimeOut is the request timeout in seconds.
	DefaultTimeOut = 60

	EndpointEvents       = "getEvents.php"
	EndpointEventDetails = "getEventDetails.php"
)

// Client talks to the Happenr web service.
//
// The credentials are fixed at construction. TimeOut and UserAgent can be
// changed between calls; a Client is not meant to be reconfigured while a
// call is running.
type Client struct {
	login    string
	password string

	timeOut   int
	userAgent string

	baseURL    string
	port       int
	httpClient *http.Client
	logger     *logger.Logger
	metrics    *Metrics
	mapper     event.Mapper
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another service root, for example a test
// server. The URL's own port is used as given.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
		c.port = 0
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records request counts and latencies in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLocation sets the time zone used for service dates that carry none.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		c.mapper.Location = loc
	}
}

// New creates a client that authenticates with login and password.
func New(login, password string, opts ...Option) *Client {
	c := &Client{
		login:      login,
		password:   password,
		timeOut:    DefaultTimeOut,
		baseURL:    APIURL,
		port:       APIPort,
		httpClient: &http.Client{},
		logger:     logger.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Fields{"component": "happenr"})

	return c
}

// TimeOut returns the request timeout in seconds.
func (c *Client) TimeOut() int {
	return c.timeOut
}

// SetTimeOut sets the request timeout in seconds. Zero or a negative value
// disables the client's own timeout.
func (c *Client) SetTimeOut(seconds int) {
	c.timeOut = seconds
}

// UserAgent returns the User-Agent header sent with every request:
// "happenr-go/<version> <your-user-agent>". The separating space is kept
// even when no agent was set.
func (c *Client) UserAgent() string {
	return ClientName + "/" + Version + " " + c.userAgent
}

// SetUserAgent sets the application part of the User-Agent header.
// It should look like <app-name>/<app-version>.
func (c *Client) SetUserAgent(userAgent string) {
	c.userAgent = userAgent
}

// SearchEvents queries getEvents.php. An empty result is not an error.
func (c *Client) SearchEvents(ctx context.Context, opts SearchOptions) ([]*event.Event, error) {
	params, err := buildSearchParams(opts)
	if err != nil {
		return nil, err
	}

	doc, err := c.doCall(ctx, EndpointEvents, params)
	if err != nil {
		return nil, fmt.Errorf("searching events: %w", err)
	}

	events := c.mapper.MapAll(doc.Events)
	c.metrics.addEvents(len(events))

	return events, nil
}

// GetEventDetails fetches a single event from getEventDetails.php.
// It returns a *NotFoundError when the service answers without an event id.
func (c *Client) GetEventDetails(ctx context.Context, eventID string, opts DetailOptions) (*event.Event, error) {
	doc, err := c.doCall(ctx, EndpointEventDetails, buildDetailParams(eventID, opts))
	if err != nil {
		return nil, fmt.Errorf("getting event %s: %w", eventID, err)
	}

	if doc.Event == nil || doc.Event.ID == "" {
		return nil, &NotFoundError{EventID: eventID}
	}

	evt := c.mapper.Map(doc.Event)
	c.metrics.addEvents(1)

	return evt, nil
}
