package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.tomtom.com/routing/1/calculateRoute"
	defaultTimeout = 25 * time.Second
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// Summary is the normalized outcome of one routing request.
//
// When OK is true: TravelSec > 0, NoTrafficSec > 0 (substituted with
// TravelSec if the provider omitted or zeroed it) and DelaySec >= 0.
// When OK is false, Reason holds a human-readable explanation and the
// numeric fields are zero.
type Summary struct {
	OK           bool
	TravelSec    int
	NoTrafficSec int
	DelaySec     int
	Reason       string
}

// Fetcher is implemented by anything that can produce a route summary.
// The check orchestrator depends on this interface rather than on Client
// so tests can substitute a fake.
type Fetcher interface {
	Fetch(ctx context.Context) (Summary, error)
}

// Client fetches traffic-aware travel times between a fixed origin and
// destination. The HTTP client is built once and reused across calls.
type Client struct {
	apiKey  string
	origin  Point
	dest    Point
	baseURL string
	client  *http.Client
}

// New creates a Client for the given API key and coordinate pair.
func New(apiKey string, origin, dest Point) *Client {
	return &Client{
		apiKey:  apiKey,
		origin:  origin,
		dest:    dest,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// apiResponse mirrors the subset of the TomTom calculateRoute response the
// fetcher needs. TrafficDelayInSeconds is a pointer so a provider-supplied
// zero can be told apart from an absent field.
type apiResponse struct {
	Routes []struct {
		Summary struct {
			TravelTimeInSeconds          int  `json:"travelTimeInSeconds"`
			NoTrafficTravelTimeInSeconds int  `json:"noTrafficTravelTimeInSeconds"`
			TrafficDelayInSeconds        *int `json:"trafficDelayInSeconds"`
		} `json:"summary"`
	} `json:"routes"`
}

// Fetch issues a single routing request and normalizes the first route's
// summary. A non-200 status or transport failure is returned as an error;
// a well-formed response that carries no usable route comes back as a
// Summary with OK false and a reason. No retries.
func (c *Client) Fetch(ctx context.Context) (Summary, error) {
	locs := fmt.Sprintf("%s,%s:%s,%s",
		coord(c.origin.Lat), coord(c.origin.Lng),
		coord(c.dest.Lat), coord(c.dest.Lng))

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("traffic", "true")
	q.Set("computeTravelTimeFor", "all")
	q.Set("routeRepresentation", "polyline")
	u := fmt.Sprintf("%s/%s/json?%s", c.baseURL, locs, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("route: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("route: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("route: unexpected status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Summary{}, fmt.Errorf("route: decode response: %w", err)
	}
	return normalize(body), nil
}

// normalize applies the sanity rules to a decoded response.
func normalize(body apiResponse) Summary {
	if len(body.Routes) == 0 {
		return Summary{Reason: "No routes returned"}
	}
	s := body.Routes[0].Summary

	travel := s.TravelTimeInSeconds
	if travel <= 0 {
		return Summary{Reason: "Invalid travel time in response"}
	}

	noTraffic := s.NoTrafficTravelTimeInSeconds
	if noTraffic <= 0 {
		noTraffic = travel
	}

	delay := travel - noTraffic
	if s.TrafficDelayInSeconds != nil {
		delay = *s.TrafficDelayInSeconds
	}
	if delay < 0 {
		delay = 0
	}

	return Summary{
		OK:           true,
		TravelSec:    travel,
		NoTrafficSec: noTraffic,
		DelaySec:     delay,
	}
}

// coord formats a coordinate component without trailing zeros.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
