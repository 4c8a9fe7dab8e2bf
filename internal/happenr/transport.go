package happenr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/happenr/internal/event"
	"github.com/pfrederiksen/happenr/internal/logger"
)

const redacted = "REDACTED"

// doCall sends one authenticated GET to endpoint and parses the XML answer.
func (c *Client) doCall(ctx context.Context, endpoint string, params url.Values) (*event.Document, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("username", c.login)
	params.Set("password", c.password)

	reqURL, err := c.endpointURL(endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("building request URL: %w", err)
	}

	if c.timeOut > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.timeOut)*time.Second)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent())

	fields := logger.Fields{"endpoint": endpoint}
	if c.logger.Enabled(logger.LevelDebug) {
		c.logger.Debug("happenr request", logger.Fields{
			"endpoint": endpoint,
			"query":    redactedQuery(params),
		})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observeRequest(endpoint, outcomeTransport, start)
		terr := newTransportError(err)
		c.logger.Warn("happenr request failed", fields, terr)
		return nil, terr
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.metrics.observeRequest(endpoint, outcomeStatus, start)
		serr := &HTTPStatusError{Code: resp.StatusCode}
		c.logger.Warn("happenr request failed", fields, serr)
		return nil, serr
	}

	if readErr != nil {
		c.metrics.observeRequest(endpoint, outcomeTransport, start)
		terr := newTransportError(readErr)
		c.logger.Warn("happenr response read failed", fields, terr)
		return nil, terr
	}

	doc, err := event.ParseDocument(body)
	if err != nil {
		c.metrics.observeRequest(endpoint, outcomeParse, start)
		perr := &ParseError{Body: string(body), Err: err}
		c.logger.Warn("happenr response is not XML", fields, perr)
		return nil, perr
	}

	c.metrics.observeRequest(endpoint, outcomeOK, start)
	c.logger.Debug("happenr response", logger.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	})

	return doc, nil
}

// endpointURL joins the base URL, the endpoint path and the encoded query.
// The configured port is applied unless the base URL names its own or the
// port is the scheme default.
func (c *Client) endpointURL(endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL %q is not absolute", c.baseURL)
	}

	if c.port > 0 && u.Port() == "" && !isDefaultPort(u.Scheme, c.port) {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(c.port))
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/" + endpoint
	u.RawQuery = params.Encode()

	return u.String(), nil
}

func isDefaultPort(scheme string, port int) bool {
	return (scheme == "http" && port == 80) || (scheme == "https" && port == 443)
}

func newTransportError(err error) *TransportError {
	terr := &TransportError{Message: err.Error(), Err: err}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		terr.Code = int(errno)
	}

	return terr
}

// redactedQuery renders params for logging with the password hidden.
func redactedQuery(params url.Values) string {
	safe := make(url.Values, len(params))
	for k, v := range params {
		safe[k] = v
	}
	if _, ok := safe["password"]; ok {
		safe.Set("password", redacted)
	}
	return safe.Encode()
}
