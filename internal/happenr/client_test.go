package happenr

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/happenr/internal/logger"
)

const threeEvents = `<?xml version="1.0" encoding="UTF-8"?>
<happenr>
  <events count="3">
    <event id="1" recorddate="2009-03-12 10:22:00"><title>Alpha</title><datefrom>2009-05-01 20:00:00</datefrom><free>1</free></event>
    <event id="2"><title>Bravo</title><datefrom></datefrom></event>
    <event id="3"><title>Charlie</title><tags><tag>music</tag></tags></event>
  </events>
</happenr>`

const oneEvent = `<?xml version="1.0" encoding="UTF-8"?>
<happenr>
  <event id="4711"><title>Gentse Feesten</title><venue>Sint-Baafsplein</venue></event>
</happenr>`

// testServer records the last request and answers with a fixed status and body.
type testServer struct {
	*httptest.Server
	hits    atomic.Int32
	lastReq atomic.Pointer[http.Request]
}

func newTestServer(t *testing.T, status int, body string) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		ts.lastReq.Store(r)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(ts *testServer, opts ...Option) *Client {
	opts = append([]Option{
		WithBaseURL(ts.URL + "/webservices"),
		WithLogger(logger.Discard()),
		WithLocation(time.UTC),
	}, opts...)
	return New("alice", "s3cret", opts...)
}

func TestNew_Defaults(t *testing.T) {
	c := New("alice", "s3cret")

	assert.Equal(t, 60, c.TimeOut())
	assert.Equal(t, APIURL, c.baseURL)
	assert.Equal(t, APIPort, c.port)
	assert.Equal(t, "alice", c.login)
	assert.Equal(t, "s3cret", c.password)
	assert.NotNil(t, c.httpClient)
}

func TestClient_TimeOut(t *testing.T) {
	c := New("alice", "s3cret")

	c.SetTimeOut(5)
	assert.Equal(t, 5, c.TimeOut())

	c.SetTimeOut(0)
	assert.Equal(t, 0, c.TimeOut())

	c.SetTimeOut(-1)
	assert.Equal(t, -1, c.TimeOut())
}

func TestClient_UserAgent(t *testing.T) {
	c := New("alice", "s3cret")

	assert.Equal(t, "happenr-go/1.0.0 ", c.UserAgent())

	c.SetUserAgent("my-app/2.1")
	assert.Equal(t, "happenr-go/1.0.0 my-app/2.1", c.UserAgent())
	assert.True(t, strings.HasPrefix(c.UserAgent(), ClientName+"/"+Version))
}

func TestSearchEvents(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, threeEvents)
	c := newTestClient(ts)
	c.SetUserAgent("tests/1.0")

	events, err := c.SearchEvents(context.Background(), SearchOptions{
		Town:  "Gent",
		Limit: intPtr(3),
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, "1", events[0].ID)
	assert.Equal(t, "Alpha", events[0].Title)
	assert.True(t, events[0].Free)
	require.NotNil(t, events[0].DateNext)
	assert.Equal(t, int64(1241208000), *events[0].DateNext)
	assert.Equal(t, "2", events[1].ID)
	assert.Nil(t, events[1].DateNext)
	assert.Equal(t, "3", events[2].ID)
	assert.Equal(t, []string{"music"}, events[2].Tags)

	req := ts.lastReq.Load()
	require.NotNil(t, req)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/webservices/getEvents.php", req.URL.Path)
	assert.Equal(t, "happenr-go/1.0.0 tests/1.0", req.Header.Get("User-Agent"))

	q := req.URL.Query()
	assert.Equal(t, "alice", q.Get("username"))
	assert.Equal(t, "s3cret", q.Get("password"))
	assert.Equal(t, "EN", q.Get("language"))
	assert.Equal(t, "Gent", q.Get("town"))
	assert.Equal(t, "3", q.Get("limit"))
}

func TestSearchEvents_NoEvents(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty events element", `<happenr><events count="0"/></happenr>`},
		{"no events element", `<happenr/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, http.StatusOK, tt.body)
			c := newTestClient(ts)

			events, err := c.SearchEvents(context.Background(), SearchOptions{})
			require.NoError(t, err)
			assert.NotNil(t, events)
			assert.Empty(t, events)
		})
	}
}

func TestSearchEvents_ValidationSkipsRequest(t *testing.T) {
	tests := []struct {
		name string
		opts SearchOptions
	}{
		{"invalid sorting", SearchOptions{Sorting: "newest"}},
		{"limit too high", SearchOptions{Limit: intPtr(501)}},
		{"longitude only", SearchOptions{Longitude: "3.72"}},
		{"latitude only", SearchOptions{Latitude: "51.05"}},
		{"non-positive date", SearchOptions{ToDate: time.Unix(0, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, http.StatusOK, threeEvents)
			c := newTestClient(ts)

			events, err := c.SearchEvents(context.Background(), tt.opts)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Nil(t, events)
			assert.Equal(t, int32(0), ts.hits.Load(), "no request should be made")
		})
	}
}

func TestSearchEvents_HTTPStatus(t *testing.T) {
	ts := newTestServer(t, http.StatusNotFound, threeEvents)
	c := newTestClient(ts)

	events, err := c.SearchEvents(context.Background(), SearchOptions{})

	var serr *HTTPStatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 404, serr.Code)
	assert.Nil(t, events)
}

func TestSearchEvents_ParseError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"plain text", "Invalid username or password"},
		{"junk after document", threeEvents + "garbage<<"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, http.StatusOK, tt.body)
			c := newTestClient(ts)

			events, err := c.SearchEvents(context.Background(), SearchOptions{})

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.body, perr.Body)
			assert.Nil(t, events)
		})
	}
}

func TestSearchEvents_TransportError(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, threeEvents)
	c := newTestClient(ts)
	ts.Close()

	events, err := c.SearchEvents(context.Background(), SearchOptions{})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.NotEmpty(t, terr.Message)
	assert.Nil(t, events)
}

func TestSearchEvents_TimeOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New("alice", "s3cret", WithBaseURL(srv.URL), WithLogger(logger.Discard()))
	c.SetTimeOut(1)

	start := time.Now()
	_, err := c.SearchEvents(context.Background(), SearchOptions{})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestGetEventDetails(t *testing.T) {
	ts := newTestServer(t, http.StatusOK, oneEvent)
	c := newTestClient(ts)

	evt, err := c.GetEventDetails(context.Background(), "4711", DetailOptions{ChannelID: "be", IncludeDatesXML: true})
	require.NoError(t, err)

	assert.Equal(t, "4711", evt.ID)
	assert.Equal(t, "Gentse Feesten", evt.Title)
	assert.Equal(t, "Sint-Baafsplein", evt.Venue)

	req := ts.lastReq.Load()
	require.NotNil(t, req)
	assert.Equal(t, "/webservices/getEventDetails.php", req.URL.Path)
	q := req.URL.Query()
	assert.Equal(t, "4711", q.Get("eventid"))
	assert.Equal(t, "be", q.Get("channelid"))
	assert.Equal(t, "1", q.Get("includedatesxml"))
	assert.Equal(t, "alice", q.Get("username"))
	assert.Equal(t, "s3cret", q.Get("password"))
}

func TestGetEventDetails_NotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty id", `<happenr><event id=""><title>Ghost</title></event></happenr>`},
		{"missing id", `<happenr><event><title>Ghost</title></event></happenr>`},
		{"no event node", `<happenr><error>unknown event</error></happenr>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, http.StatusOK, tt.body)
			c := newTestClient(ts)

			evt, err := c.GetEventDetails(context.Background(), "999", DetailOptions{})

			var nerr *NotFoundError
			require.ErrorAs(t, err, &nerr)
			assert.Equal(t, "999", nerr.EventID)
			assert.Nil(t, evt)
		})
	}
}

func TestGetEventDetails_HTTPStatus(t *testing.T) {
	ts := newTestServer(t, http.StatusInternalServerError, "")
	c := newTestClient(ts)

	evt, err := c.GetEventDetails(context.Background(), "4711", DetailOptions{})

	var serr *HTTPStatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 500, serr.Code)
	assert.Nil(t, evt)
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	ok := newTestServer(t, http.StatusOK, threeEvents)
	c := newTestClient(ok, WithMetrics(m))
	_, err := c.SearchEvents(context.Background(), SearchOptions{})
	require.NoError(t, err)

	missing := newTestServer(t, http.StatusNotFound, "")
	c = newTestClient(missing, WithMetrics(m))
	_, err = c.SearchEvents(context.Background(), SearchOptions{})
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues(EndpointEvents, outcomeOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues(EndpointEvents, outcomeStatus)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.EventsMapped))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestClient_LogsWithoutPassword(t *testing.T) {
	var buf bytes.Buffer
	ts := newTestServer(t, http.StatusOK, threeEvents)
	c := newTestClient(ts, WithLogger(logger.New(logger.LevelDebug, &buf)))

	_, err := c.SearchEvents(context.Background(), SearchOptions{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "happenr request")
	assert.Contains(t, out, "getEvents.php")
	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, redacted)
	assert.Contains(t, out, `"component":"happenr"`)
}

func TestEndpointURL(t *testing.T) {
	params := url.Values{"eventid": {"1"}}

	tests := []struct {
		name    string
		baseURL string
		port    int
		want    string
		wantErr bool
	}{
		{"default service", APIURL, APIPort, "http://happenr.com/webservices/getEventDetails.php?eventid=1", false},
		{"non-default port", APIURL, 8080, "http://happenr.com:8080/webservices/getEventDetails.php?eventid=1", false},
		{"base URL port wins", "http://127.0.0.1:9999/ws/", 8080, "http://127.0.0.1:9999/ws/getEventDetails.php?eventid=1", false},
		{"https default port", "https://happenr.com", 443, "https://happenr.com/getEventDetails.php?eventid=1", false},
		{"relative base URL", "happenr.com/webservices", 80, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{baseURL: tt.baseURL, port: tt.port}

			got, err := c.endpointURL(EndpointEventDetails, params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ValidationError{Field: "limit", Message: "501 exceeds 500"}, "invalid value for limit: 501 exceeds 500"},
		{&HTTPStatusError{Code: 404}, "invalid status code (404)"},
		{&NotFoundError{EventID: "42"}, "no event found: 42"},
		{&TransportError{Message: "connection refused", Code: 111}, "transport error (111): connection refused"},
		{&TransportError{Message: "timeout"}, "transport error: timeout"},
		{&ParseError{Body: "nope", Err: errors.New("EOF")}, "invalid XML response: EOF"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}
