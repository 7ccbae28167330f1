// Package tools implements the restaurant tool set (search, slots, booking, invites, listing)
// on top of the reservy tool engine.
package tools

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skosovsky/reservy"
	"github.com/skosovsky/reservy/internal/calendar"
	"github.com/skosovsky/reservy/internal/places"
	"github.com/skosovsky/reservy/internal/reservation"
	"github.com/skosovsky/reservy/internal/slots"
)

// Tool names as published over the protocol.
const (
	SearchRestaurants      = "search_restaurants"
	GetAvailableSlots      = "get_available_slots"
	MakeReservation        = "make_reservation"
	GenerateCalendarInvite = "generate_calendar_invite"
	ListReservations       = "list_reservations"
)

// Service holds the collaborators shared by every tool handler.
type Service struct {
	store   reservation.Store
	places  places.Provider
	slots   *slots.Generator
	invites *calendar.Writer

	now            func() time.Time
	detailsLimit   int
	detailsWorkers int
	searchTimeout  time.Duration
	log            zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPlaces sets the places provider. Without one, search reports a configuration error.
func WithPlaces(p places.Provider) Option {
	return func(s *Service) { s.places = p }
}

// WithSlots sets the slot generator.
func WithSlots(g *slots.Generator) Option {
	return func(s *Service) { s.slots = g }
}

// WithInviteWriter sets where invite files are stored.
func WithInviteWriter(w *calendar.Writer) Option {
	return func(s *Service) { s.invites = w }
}

// WithClock overrides time.Now (invite DTSTAMP).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDetails sets how many leading search results are enriched with place
// details and how many details requests run at once.
func WithDetails(limit, workers int) Option {
	return func(s *Service) {
		s.detailsLimit = limit
		s.detailsWorkers = workers
	}
}

// WithSearchTimeout overrides the registry timeout for search_restaurants.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Service) { s.searchTimeout = d }
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService returns a Service backed by store.
func NewService(store reservation.Store, opts ...Option) *Service {
	s := &Service{
		store:          store,
		now:            time.Now,
		detailsLimit:   5,
		detailsWorkers: 5,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.slots == nil {
		s.slots = slots.NewSeeded(0)
	}
	if s.invites == nil {
		s.invites = calendar.NewWriter(nil, "")
	}
	return s
}

// Tools builds the five restaurant tools.
func (s *Service) Tools() ([]reservy.Tool, error) {
	searchOpts := []reservy.ToolOption{reservy.WithReadOnly(), reservy.WithTags("places", "search")}
	if s.searchTimeout > 0 {
		searchOpts = append(searchOpts, reservy.WithTimeout(s.searchTimeout))
	}
	search, err := reservy.NewTool(SearchRestaurants,
		"Search for restaurants near a location, filtered by cuisine and minimum rating.",
		s.search, searchOpts...)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", SearchRestaurants, err)
	}
	available, err := reservy.NewTool(GetAvailableSlots,
		"Get available reservation time slots for a restaurant on a date (mock availability).",
		s.availableSlots, reservy.WithReadOnly(), reservy.WithTags("booking"))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", GetAvailableSlots, err)
	}
	reserve, err := reservy.NewTool(MakeReservation,
		"Make a restaurant reservation and return the confirmation.",
		s.makeReservation, reservy.WithTags("booking"))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", MakeReservation, err)
	}
	invite, err := reservy.NewTool(GenerateCalendarInvite,
		"Generate a calendar invite (.ics file) for an existing reservation.",
		s.generateInvite, reservy.WithTags("booking", "calendar"))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", GenerateCalendarInvite, err)
	}
	list, err := reservy.NewTool(ListReservations,
		"List reservations, optionally filtered by customer email.",
		s.listReservations, reservy.WithReadOnly(), reservy.WithTags("booking"))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", ListReservations, err)
	}
	return []reservy.Tool{search, available, reserve, invite, list}, nil
}

// Register adds every tool to reg.
func (s *Service) Register(reg *reservy.Registry) error {
	ts, err := s.Tools()
	if err != nil {
		return err
	}
	for _, t := range ts {
		reg.Register(t)
	}
	return nil
}
