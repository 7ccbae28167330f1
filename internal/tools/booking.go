package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/skosovsky/reservy"
	"github.com/skosovsky/reservy/internal/reservation"
)

const slotsNote = "These are mock time slots. In a real implementation, this would connect to the restaurant's booking system."

// SlotsArgs are the get_available_slots inputs.
type SlotsArgs struct {
	RestaurantName string `json:"restaurant_name" jsonschema:"Name of the restaurant"`
	Date           string `json:"date" jsonschema:"Date in YYYY-MM-DD format"`
	PartySize      int    `json:"party_size,omitempty" jsonschema:"Number of people" default:"2"`
}

func (a *SlotsArgs) SetDefaults() { a.PartySize = 2 }

func (a SlotsArgs) Validate() error {
	if _, err := time.Parse(reservation.DateLayout, a.Date); err != nil {
		return reservy.Invalid("Invalid date format. Use YYYY-MM-DD")
	}
	return nil
}

// SlotsResult is the get_available_slots output.
type SlotsResult struct {
	RestaurantName string   `json:"restaurant_name"`
	Date           string   `json:"date"`
	PartySize      int      `json:"party_size"`
	AvailableSlots []string `json:"available_slots"`
	Note           string   `json:"note"`
}

func (s *Service) availableSlots(_ context.Context, args SlotsArgs) (SlotsResult, error) {
	return SlotsResult{
		RestaurantName: args.RestaurantName,
		Date:           args.Date,
		PartySize:      args.PartySize,
		AvailableSlots: s.slots.Available(),
		Note:           slotsNote,
	}, nil
}

// ReservationArgs are the make_reservation inputs.
type ReservationArgs struct {
	RestaurantName    string `json:"restaurant_name" jsonschema:"Name of the restaurant"`
	RestaurantAddress string `json:"restaurant_address" jsonschema:"Restaurant address"`
	Date              string `json:"date" jsonschema:"Date in YYYY-MM-DD format"`
	Time              string `json:"time" jsonschema:"Time in HH:MM format"`
	PartySize         int    `json:"party_size" jsonschema:"Number of people"`
	CustomerName      string `json:"customer_name" jsonschema:"Customer's full name"`
	CustomerEmail     string `json:"customer_email" jsonschema:"Customer's email address"`
	SpecialRequests   string `json:"special_requests,omitempty" jsonschema:"Any special requests or notes"`
}

func (a ReservationArgs) Validate() error {
	if a.PartySize <= 0 {
		return reservy.Invalid("party_size must be positive")
	}
	if _, err := reservation.ParseDateTime(a.Date, a.Time); err != nil {
		return reservy.Invalid("Invalid date/time format: %v", err)
	}
	return nil
}

// ReservationResult is the make_reservation output.
type ReservationResult struct {
	Status            reservation.Status `json:"status"`
	ReservationID     string             `json:"reservation_id"`
	RestaurantName    string             `json:"restaurant_name"`
	RestaurantAddress string             `json:"restaurant_address"`
	DateTime          string             `json:"date_time"`
	PartySize         int                `json:"party_size"`
	CustomerName      string             `json:"customer_name"`
	CustomerEmail     string             `json:"customer_email"`
	SpecialRequests   string             `json:"special_requests"`
	Message           string             `json:"message"`
}

func (s *Service) makeReservation(ctx context.Context, args ReservationArgs) (ReservationResult, error) {
	at, err := reservation.ParseDateTime(args.Date, args.Time)
	if err != nil {
		return ReservationResult{}, reservy.Invalid("Invalid date/time format: %v", err)
	}
	r := reservation.Reservation{
		ID:                reservation.NewID(),
		RestaurantName:    args.RestaurantName,
		RestaurantAddress: args.RestaurantAddress,
		DateTime:          at,
		PartySize:         args.PartySize,
		CustomerName:      args.CustomerName,
		CustomerEmail:     args.CustomerEmail,
		SpecialRequests:   args.SpecialRequests,
		Status:            reservation.StatusConfirmed,
	}
	if err := s.store.Append(ctx, r); err != nil {
		return ReservationResult{}, fmt.Errorf("store reservation: %w", err)
	}
	s.log.Info().Str("reservation_id", r.ID).Str("restaurant", r.RestaurantName).Msg("reservation confirmed")

	return ReservationResult{
		Status:            r.Status,
		ReservationID:     r.ID,
		RestaurantName:    r.RestaurantName,
		RestaurantAddress: r.RestaurantAddress,
		DateTime:          r.DateTime.Format(reservation.DateTimeLayout),
		PartySize:         r.PartySize,
		CustomerName:      r.CustomerName,
		CustomerEmail:     r.CustomerEmail,
		SpecialRequests:   r.SpecialRequests,
		Message: fmt.Sprintf("Reservation confirmed for %s at %s on %s at %s for %d people.",
			args.CustomerName, args.RestaurantName, args.Date, args.Time, args.PartySize),
	}, nil
}

// ListArgs are the list_reservations inputs.
type ListArgs struct {
	CustomerEmail string `json:"customer_email,omitempty" jsonschema:"Filter by customer email (case-insensitive); empty lists all"`
}

// ListResult is the list_reservations output.
type ListResult struct {
	Reservations []reservation.Record `json:"reservations"`
	TotalCount   int                  `json:"total_count"`
	FilterEmail  string               `json:"filter_email"`
}

func (s *Service) listReservations(ctx context.Context, args ListArgs) (ListResult, error) {
	rs, err := s.store.ListByEmail(ctx, args.CustomerEmail)
	if err != nil {
		return ListResult{}, fmt.Errorf("list reservations: %w", err)
	}
	records := make([]reservation.Record, 0, len(rs))
	for _, r := range rs {
		records = append(records, r.Record())
	}
	filter := args.CustomerEmail
	if filter == "" {
		filter = "none"
	}
	return ListResult{Reservations: records, TotalCount: len(records), FilterEmail: filter}, nil
}
