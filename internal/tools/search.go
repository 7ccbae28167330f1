package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/skosovsky/reservy"
	"github.com/skosovsky/reservy/internal/places"
)

// SearchArgs are the search_restaurants inputs.
type SearchArgs struct {
	Location            string  `json:"location,omitempty" jsonschema:"Location to search, e.g. New York, NY" default:"Los Angeles, CA"`
	CuisineType         string  `json:"cuisine_type,omitempty" jsonschema:"Type of cuisine, e.g. italian or sushi; restaurant searches every cuisine" default:"Italian"`
	Radius              int     `json:"radius,omitempty" jsonschema:"Search radius in meters" default:"5000"`
	MinRating           float64 `json:"min_rating,omitempty" jsonschema:"Minimum rating filter" default:"4.0"`
	MaxResults          int     `json:"max_results,omitempty" jsonschema:"Maximum number of results" default:"10"`
	SpecialRequirements string  `json:"special_requirements,omitempty" jsonschema:"Special requirements (informational, not filtered on)"`
	PartySize           int     `json:"party_size,omitempty" jsonschema:"Number of people (informational, not filtered on)" default:"2"`
}

func (a *SearchArgs) SetDefaults() {
	a.Location = "Los Angeles, CA"
	a.CuisineType = "Italian"
	a.Radius = 5000
	a.MinRating = 4.0
	a.MaxResults = 10
	a.PartySize = 2
}

func (a SearchArgs) Validate() error {
	if a.Radius <= 0 {
		return reservy.Invalid("radius must be positive")
	}
	if a.MaxResults <= 0 {
		return reservy.Invalid("max_results must be positive")
	}
	return nil
}

// Restaurant is one search hit.
type Restaurant struct {
	PlaceID    string   `json:"place_id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Rating     float64  `json:"rating"`
	PriceLevel int      `json:"price_level"`
	Types      []string `json:"types"`
	// OpenNow is null when unknown.
	OpenNow      *bool    `json:"open_now"`
	Phone        string   `json:"phone,omitempty"`
	Website      string   `json:"website,omitempty"`
	OpeningHours []string `json:"opening_hours,omitempty"`
}

// SearchResult is the search_restaurants output.
type SearchResult struct {
	Restaurants    []Restaurant  `json:"restaurants"`
	TotalFound     int           `json:"total_found"`
	SearchLocation string        `json:"search_location"`
	Coordinates    places.LatLng `json:"coordinates"`
}

func (s *Service) search(ctx context.Context, args SearchArgs) (SearchResult, error) {
	if s.places == nil {
		return SearchResult{}, reservy.NotConfigured("Google Places API key not configured")
	}
	loc, err := s.places.Geocode(ctx, args.Location)
	if err != nil {
		if errors.Is(err, places.ErrNotFound) {
			return SearchResult{}, reservy.NotFound("Could not find location: %s", args.Location)
		}
		return SearchResult{}, searchError(err)
	}

	req := places.NearbyRequest{Location: loc, Radius: args.Radius}
	if !strings.EqualFold(args.CuisineType, "restaurant") {
		req.Keyword = args.CuisineType
	}
	found, err := s.places.Nearby(ctx, req)
	if err != nil {
		if errors.Is(err, places.ErrNotFound) {
			return SearchResult{}, reservy.NotFound("No restaurants found")
		}
		return SearchResult{}, searchError(err)
	}
	if len(found) == 0 {
		return SearchResult{}, reservy.NotFound("No restaurants found")
	}

	if len(found) > args.MaxResults {
		found = found[:args.MaxResults]
	}
	restaurants := make([]Restaurant, 0, len(found))
	for _, p := range found {
		if p.Rating < args.MinRating {
			continue
		}
		types := p.Types
		if types == nil {
			types = []string{}
		}
		restaurants = append(restaurants, Restaurant{
			PlaceID:    p.PlaceID,
			Name:       p.Name,
			Address:    p.Vicinity,
			Rating:     p.Rating,
			PriceLevel: p.PriceLevel,
			Types:      types,
			OpenNow:    p.OpenNow,
		})
	}
	s.enrich(ctx, restaurants)

	return SearchResult{
		Restaurants:    restaurants,
		TotalFound:     len(restaurants),
		SearchLocation: args.Location,
		Coordinates:    loc,
	}, nil
}

// enrich fills phone, website and hours for the leading results. A failed
// details lookup leaves the entry as it was.
func (s *Service) enrich(ctx context.Context, rs []Restaurant) {
	n := min(s.detailsLimit, len(rs))
	if n <= 0 {
		return
	}
	it := iter.Iterator[Restaurant]{MaxGoroutines: s.detailsWorkers}
	it.ForEach(rs[:n], func(r *Restaurant) {
		if r.PlaceID == "" {
			return
		}
		d, err := s.places.Details(ctx, r.PlaceID)
		if err != nil {
			s.log.Warn().Err(err).Str("place_id", r.PlaceID).Msg("place details failed")
			return
		}
		r.Phone = d.Phone
		r.Website = d.Website
		r.OpeningHours = d.WeekdayText
	})
}

func searchError(err error) error {
	if errors.Is(err, places.ErrMissingKey) {
		return reservy.NotConfigured("Google Places API key not configured")
	}
	return reservy.Upstream("Search failed: %v", err)
}
