// Package places talks to the Google Geocoding and Places (nearby search, details) JSON APIs.
package places

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the provider answered but had nothing for the query.
	ErrNotFound = errors.New("places: no results")
	// ErrMissingKey means no API key was configured.
	ErrMissingKey = errors.New("places: api key not configured")
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is one nearby-search hit.
type Place struct {
	PlaceID    string
	Name       string
	Vicinity   string
	Rating     float64
	PriceLevel int
	Types      []string
	// OpenNow is nil when the provider does not know.
	OpenNow *bool
}

// Details is the contact and hours metadata for a place.
type Details struct {
	Phone       string
	Website     string
	WeekdayText []string
}

// NearbyRequest searches restaurants around Location. An empty Keyword searches
// every restaurant.
type NearbyRequest struct {
	Location LatLng
	Radius   int
	Keyword  string
}

// Provider is the geocoding and places collaborator used by restaurant search.
type Provider interface {
	// Geocode resolves a free-text address. Returns ErrNotFound when nothing matches.
	Geocode(ctx context.Context, address string) (LatLng, error)
	// Nearby lists restaurants around a point, in provider order.
	Nearby(ctx context.Context, req NearbyRequest) ([]Place, error)
	// Details fetches contact and hours metadata for one place.
	Details(ctx context.Context, placeID string) (Details, error)
}
