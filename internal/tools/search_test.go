package tools

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/reservy/internal/places"
)

type fakePlaces struct {
	mu         sync.Mutex
	loc        places.LatLng
	geocodeErr error
	nearby     []places.Place
	nearbyErr  error
	details    map[string]places.Details
	lastReq    places.NearbyRequest
	detailsFor []string
}

func (f *fakePlaces) Geocode(_ context.Context, _ string) (places.LatLng, error) {
	return f.loc, f.geocodeErr
}

func (f *fakePlaces) Nearby(_ context.Context, req places.NearbyRequest) ([]places.Place, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	return f.nearby, f.nearbyErr
}

func (f *fakePlaces) Details(_ context.Context, id string) (places.Details, error) {
	f.mu.Lock()
	f.detailsFor = append(f.detailsFor, id)
	f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		return places.Details{}, places.ErrNotFound
	}
	return d, nil
}

func ptr[T any](v T) *T { return &v }

func samplePlaces() *fakePlaces {
	return &fakePlaces{
		loc: places.LatLng{Lat: 34.05, Lng: -118.24},
		nearby: []places.Place{
			{PlaceID: "p1", Name: "Alpha", Vicinity: "1 A St", Rating: 4.8, PriceLevel: 3, Types: []string{"restaurant"}, OpenNow: ptr(true)},
			{PlaceID: "p2", Name: "Beta", Vicinity: "2 B St", Rating: 3.9},
			{PlaceID: "p3", Name: "Gamma", Vicinity: "3 C St", Rating: 4.2, OpenNow: ptr(false)},
			{PlaceID: "p4", Name: "Delta", Vicinity: "4 D St", Rating: 4.5},
		},
		details: map[string]places.Details{
			"p1": {Phone: "555-0101", Website: "https://alpha.example", WeekdayText: []string{"Monday: 5-10 PM"}},
			"p4": {Phone: "555-0104"},
		},
	}
}

func TestSearch(t *testing.T) {
	fp := samplePlaces()
	f := newFixture(t, WithPlaces(fp))
	out := f.call(t, SearchRestaurants, `{"location":"Los Angeles, CA","cuisine_type":"italian","min_rating":4.0}`)
	require.NotContains(t, out, "error")

	assert.Equal(t, "Los Angeles, CA", out["search_location"])
	assert.Equal(t, map[string]any{"lat": 34.05, "lng": -118.24}, out["coordinates"])
	assert.InDelta(t, 3, out["total_found"], 0)
	assert.Equal(t, "italian", fp.lastReq.Keyword)
	assert.Equal(t, 5000, fp.lastReq.Radius)

	rs := out["restaurants"].([]any)
	require.Len(t, rs, 3)
	first := rs[0].(map[string]any)
	assert.Equal(t, "Alpha", first["name"])
	assert.Equal(t, "1 A St", first["address"])
	assert.Equal(t, true, first["open_now"])
	assert.Equal(t, "555-0101", first["phone"])
	assert.Equal(t, []any{"Monday: 5-10 PM"}, first["opening_hours"])

	gamma := rs[1].(map[string]any)
	assert.Equal(t, "Gamma", gamma["name"])
	assert.Equal(t, false, gamma["open_now"])
	assert.NotContains(t, gamma, "phone")
	assert.Equal(t, []any{}, gamma["types"])

	delta := rs[2].(map[string]any)
	assert.Nil(t, delta["open_now"])
	assert.Equal(t, "555-0104", delta["phone"])
}

func TestSearch_RespectsLimits(t *testing.T) {
	for _, tc := range []struct {
		args       string
		maxResults int
		minRating  float64
	}{
		{`{"max_results":2,"min_rating":0}`, 2, 0},
		{`{"max_results":10,"min_rating":4.6}`, 10, 4.6},
		{`{"max_results":1,"min_rating":4.9}`, 1, 4.9},
	} {
		f := newFixture(t, WithPlaces(samplePlaces()))
		out := f.call(t, SearchRestaurants, tc.args)
		require.NotContains(t, out, "error", tc.args)
		rs := out["restaurants"].([]any)
		assert.LessOrEqual(t, len(rs), tc.maxResults, tc.args)
		for _, r := range rs {
			assert.GreaterOrEqual(t, r.(map[string]any)["rating"].(float64), tc.minRating, tc.args)
		}
	}
}

func TestSearch_AllFilteredIsNotAnError(t *testing.T) {
	f := newFixture(t, WithPlaces(samplePlaces()))
	out := f.call(t, SearchRestaurants, `{"min_rating":5}`)
	require.NotContains(t, out, "error")
	assert.Equal(t, []any{}, out["restaurants"])
	assert.InDelta(t, 0, out["total_found"], 0)
}

func TestSearch_DetailsLimit(t *testing.T) {
	fp := samplePlaces()
	f := newFixture(t, WithPlaces(fp), WithDetails(1, 1))
	out := f.call(t, SearchRestaurants, `{"min_rating":0}`)
	require.NotContains(t, out, "error")
	assert.Equal(t, []string{"p1"}, fp.detailsFor)
}

func TestSearch_RestaurantMeansNoKeyword(t *testing.T) {
	fp := samplePlaces()
	f := newFixture(t, WithPlaces(fp))
	f.call(t, SearchRestaurants, `{"cuisine_type":"restaurant"}`)
	assert.Empty(t, fp.lastReq.Keyword)
}

func TestSearch_Failures(t *testing.T) {
	for name, tc := range map[string]struct {
		provider places.Provider
		args     string
		want     string
	}{
		"not configured": {nil, `{}`, "Google Places API key not configured"},
		"missing key":    {&fakePlaces{geocodeErr: places.ErrMissingKey}, `{}`, "Google Places API key not configured"},
		"geocode miss":   {&fakePlaces{geocodeErr: places.ErrNotFound}, `{"location":"Atlantis"}`, "Could not find location: Atlantis"},
		"no results":     {&fakePlaces{nearbyErr: places.ErrNotFound}, `{}`, "No restaurants found"},
		"empty results":  {&fakePlaces{}, `{}`, "No restaurants found"},
		"upstream":       {&fakePlaces{nearbyErr: errors.New("places: OVER_QUERY_LIMIT")}, `{}`, "Search failed: places: OVER_QUERY_LIMIT"},
		"bad radius":     {samplePlaces(), `{"radius":0}`, "radius must be positive"},
	} {
		t.Run(name, func(t *testing.T) {
			var opts []Option
			if tc.provider != nil {
				opts = append(opts, WithPlaces(tc.provider))
			}
			f := newFixture(t, opts...)
			out := f.call(t, SearchRestaurants, tc.args)
			assert.Equal(t, map[string]any{"error": tc.want}, out)
		})
	}
}
