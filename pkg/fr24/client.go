// Package fr24 provides a client for the Flightradar24 historical data API.
// It covers the three operations the pipeline consumes: recent flights by
// airport, flight summaries, and historic position snapshots.
package fr24

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/listerineh/flights-cli/internal/resilience"
)

// ErrNotFound reports that the service has no record for the requested flight.
var ErrNotFound = eris.New("fr24: not found")

// Client defines the upstream flight-data operations.
type Client interface {
	// AirportFlights returns one page of recent flights for an airport.
	AirportFlights(ctx context.Context, icao string, page, limit int) (*AirportFlightsPage, error)
	// Summary returns the summary for a single flight identifier.
	Summary(ctx context.Context, flightID string) (*FlightSummary, error)
	// Snapshot returns all positions within bounds at the given timestamp.
	Snapshot(ctx context.Context, ts int64, bounds string) ([]Position, error)
}

// FlightRef is a flight identifier with its display designators.
type FlightRef struct {
	FR24ID   string `json:"fr24_id"`
	Callsign string `json:"callsign,omitempty"`
	Flight   string `json:"flight,omitempty"`
}

// AirportFlightsPage is one page of the airport flights listing.
type AirportFlightsPage struct {
	Flights []FlightRef
	HasMore bool
}

// SummaryStatus is the nested status block of a flight summary.
type SummaryStatus struct {
	Text string `json:"text"`
}

// FlightSummary is the raw wire summary record.
type FlightSummary struct {
	FR24ID          string        `json:"fr24_id"`
	Flight          string        `json:"flight"`
	Callsign        string        `json:"callsign"`
	Type            string        `json:"type"`
	Reg             string        `json:"reg"`
	OrigICAO        string        `json:"orig_icao"`
	DestICAO        string        `json:"dest_icao"`
	DatetimeTakeoff string        `json:"datetime_takeoff"`
	DatetimeLanded  string        `json:"datetime_landed"`
	FirstSeen       string        `json:"first_seen"`
	LastSeen        string        `json:"last_seen"`
	FlightTime      float64       `json:"flight_time"`
	CircleDistance  float64       `json:"circle_distance"`
	Status          SummaryStatus `json:"status"`
}

// UnixTime decodes the service's timestamp field, which arrives either as
// unix seconds or as an RFC 3339 string depending on the endpoint.
type UnixTime int64

// UnmarshalJSON implements json.Unmarshaler.
func (u *UnixTime) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*u = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "fr24: decode timestamp")
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return eris.Wrapf(err, "fr24: parse timestamp %q", s)
		}
		*u = UnixTime(t.Unix())
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return eris.Wrapf(err, "fr24: parse timestamp %q", string(data))
	}
	*u = UnixTime(n)
	return nil
}

// Position is one raw position record from a snapshot response.
type Position struct {
	FR24ID       string   `json:"fr24_id"`
	Callsign     string   `json:"callsign"`
	Flight       string   `json:"flight"`
	Latitude     float64  `json:"lat"`
	Longitude    float64  `json:"lon"`
	Altitude     float64  `json:"alt"`
	GroundSpeed  float64  `json:"gspeed"`
	VerticalRate float64  `json:"vspeed"`
	Timestamp    UnixTime `json:"timestamp"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit sets the request pacing in requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

type httpClient struct {
	apiKey       string
	baseURL      string
	http         *http.Client
	limiter      *rate.Limiter
	retryBackoff time.Duration
}

// NewClient creates a Flightradar24 API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://fr24api.flightradar24.com/api",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		// The standard plan allows roughly one call every two seconds.
		limiter:      rate.NewLimiter(rate.Limit(0.5), 1),
		retryBackoff: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get executes a rate-limited GET with bounded backoff retries on transient
// failures. Returns the body and status code of the final response. When the
// attempts are spent on a transient condition the error is a
// resilience.TransientError, so callers layering their own retry see it.
func (c *httpClient) get(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := c.retryBackoff

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, eris.Wrap(err, "fr24: rate limiter")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, 0, eris.Wrap(err, "fr24: create request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Version", "v1")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, resilience.NewTransientError(lastErr, 0)
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "fr24: read response body")
		}

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			lastErr = eris.Errorf("fr24: status %d: %s", resp.StatusCode, string(body))
			if attempt == maxAttempts {
				return nil, resp.StatusCode, resilience.NewTransientError(lastErr, resp.StatusCode)
			}
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

type airportFlightsEnvelope struct {
	Data []FlightRef `json:"data"`
}

func (c *httpClient) AirportFlights(ctx context.Context, icao string, page, limit int) (*AirportFlightsPage, error) {
	q := url.Values{}
	q.Set("airport", icao)
	q.Set("direction", "any")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))

	body, status, err := c.get(ctx, "/flights/", q)
	if err != nil {
		return nil, eris.Wrapf(err, "fr24: airport flights %s page %d", icao, page)
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("fr24: airport flights %s: unexpected status %d: %s", icao, status, string(body))
	}

	var env airportFlightsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrapf(err, "fr24: unmarshal airport flights %s", icao)
	}

	return &AirportFlightsPage{
		Flights: env.Data,
		HasMore: len(env.Data) >= limit,
	}, nil
}

type summaryEnvelope struct {
	Data []FlightSummary `json:"data"`
}

func (c *httpClient) Summary(ctx context.Context, flightID string) (*FlightSummary, error) {
	q := url.Values{}
	q.Set("flight_ids", flightID)

	body, status, err := c.get(ctx, "/flight-summary/full", q)
	if err != nil {
		return nil, eris.Wrapf(err, "fr24: summary %s", flightID)
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("fr24: summary %s: unexpected status %d: %s", flightID, status, string(body))
	}

	// The endpoint wraps results in a data array; some deployments return a
	// bare object for single-flight queries.
	var env summaryEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return &env.Data[0], nil
	}
	var single FlightSummary
	if err := json.Unmarshal(body, &single); err == nil && single.FR24ID != "" {
		return &single, nil
	}
	return nil, ErrNotFound
}

type snapshotEnvelope struct {
	Positions []Position `json:"positions"`
	Data      []Position `json:"data"`
}

func (c *httpClient) Snapshot(ctx context.Context, ts int64, bounds string) ([]Position, error) {
	q := url.Values{}
	q.Set("timestamp", strconv.FormatInt(ts, 10))
	if bounds != "" {
		q.Set("bounds", bounds)
	}

	body, status, err := c.get(ctx, "/historic/flight-positions/full", q)
	if err != nil {
		return nil, eris.Wrapf(err, "fr24: snapshot at %d", ts)
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("fr24: snapshot at %d: unexpected status %d: %s", ts, status, string(body))
	}

	var env snapshotEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrapf(err, "fr24: unmarshal snapshot at %d", ts)
	}
	if len(env.Positions) > 0 {
		return env.Positions, nil
	}
	return env.Data, nil
}

// String renders a compact reference for logs.
func (r FlightRef) String() string {
	return fmt.Sprintf("%s(%s)", r.FR24ID, r.Callsign)
}
