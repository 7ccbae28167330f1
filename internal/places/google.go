package places

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

// DefaultBaseURL is the Google Maps web services host.
const DefaultBaseURL = "https://maps.googleapis.com"

var detailsFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMask("formatted_phone_number"),
	maps.PlaceDetailsFieldMask("website"),
	maps.PlaceDetailsFieldMask("opening_hours"),
}

// Client is a Provider backed by the Google Maps web services.
type Client struct {
	maps *maps.Client
	log  zerolog.Logger
}

type clientOptions struct {
	baseURL   string
	hc        *http.Client
	rateLimit *int
	log       zerolog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.hc.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.hc = hc }
}

// WithRateLimit caps requests per second. Zero disables the limiter.
func WithRateLimit(qps int) Option {
	return func(o *clientOptions) { o.rateLimit = &qps }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// NewClient returns a Client using apiKey. An empty key is allowed; every call
// then fails with ErrMissingKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	o := clientOptions{
		baseURL: DefaultBaseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Client{log: o.log}
	if apiKey == "" {
		return c, nil
	}
	mopts := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithBaseURL(o.baseURL),
		maps.WithHTTPClient(o.hc),
	}
	if o.rateLimit != nil {
		mopts = append(mopts, maps.WithRateLimit(*o.rateLimit))
	}
	mc, err := maps.NewClient(mopts...)
	if err != nil {
		return nil, fmt.Errorf("places: %w", err)
	}
	c.maps = mc
	return c, nil
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.maps != nil }

func (c *Client) Geocode(ctx context.Context, address string) (LatLng, error) {
	if c.maps == nil {
		return LatLng{}, ErrMissingKey
	}
	start := time.Now()
	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	c.trace("geocode", start, err)
	if err != nil {
		return LatLng{}, apiError("geocode", err)
	}
	if len(results) == 0 {
		return LatLng{}, ErrNotFound
	}
	loc := results[0].Geometry.Location
	return LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (c *Client) Nearby(ctx context.Context, req NearbyRequest) ([]Place, error) {
	if c.maps == nil {
		return nil, ErrMissingKey
	}
	start := time.Now()
	resp, err := c.maps.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: req.Location.Lat, Lng: req.Location.Lng},
		Radius:   uint(max(req.Radius, 0)),
		Keyword:  req.Keyword,
		Type:     maps.PlaceTypeRestaurant,
	})
	c.trace("nearby", start, err)
	if err != nil {
		return nil, apiError("nearby", err)
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	out := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		p := Place{
			PlaceID:    r.PlaceID,
			Name:       r.Name,
			Vicinity:   r.Vicinity,
			Rating:     rating(r.Rating),
			PriceLevel: r.PriceLevel,
			Types:      r.Types,
		}
		if p.Name == "" {
			p.Name = "Unknown"
		}
		if r.OpeningHours != nil {
			p.OpenNow = r.OpeningHours.OpenNow
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) Details(ctx context.Context, placeID string) (Details, error) {
	if c.maps == nil {
		return Details{}, ErrMissingKey
	}
	if placeID == "" {
		return Details{}, ErrNotFound
	}
	start := time.Now()
	res, err := c.maps.PlaceDetails(ctx, &maps.PlaceDetailsRequest{PlaceID: placeID, Fields: detailsFields})
	c.trace("details", start, err)
	if err != nil {
		return Details{}, apiError("details", err)
	}
	d := Details{Phone: res.FormattedPhoneNumber, Website: res.Website}
	if res.OpeningHours != nil {
		d.WeekdayText = res.OpeningHours.WeekdayText
	}
	return d, nil
}

func (c *Client) trace(op string, start time.Time, err error) {
	c.log.Debug().Str("op", op).Dur("duration", time.Since(start)).Err(err).Msg("places request")
}

// apiError maps the "no match" statuses to ErrNotFound. The maps client reports
// statuses as "maps: STATUS - message".
func apiError(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NOT_FOUND") {
		return ErrNotFound
	}
	return fmt.Errorf("places: %s: %w", op, err)
}

// rating widens the API's float32 rating without picking up binary noise (4.7, not 4.699999809).
func rating(f float32) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'f', -1, 32), 64)
	return v
}

var _ Provider = (*Client)(nil)
