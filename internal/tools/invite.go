package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/skosovsky/reservy"
	"github.com/skosovsky/reservy/internal/calendar"
	"github.com/skosovsky/reservy/internal/reservation"
)

// InviteArgs are the generate_calendar_invite inputs.
type InviteArgs struct {
	ReservationID   string `json:"reservation_id" jsonschema:"The reservation ID"`
	DurationMinutes int    `json:"duration_minutes,omitempty" jsonschema:"Duration of the reservation in minutes" default:"90"`
}

// maxDurationMinutes is the longest duration a time.Duration can hold.
const maxDurationMinutes = math.MaxInt64 / int64(time.Minute)

func (a *InviteArgs) SetDefaults() { a.DurationMinutes = 90 }

func (a InviteArgs) Validate() error {
	if a.DurationMinutes <= 0 {
		return reservy.Invalid("duration_minutes must be positive")
	}
	if int64(a.DurationMinutes) > maxDurationMinutes {
		return reservy.Invalid("duration_minutes must be at most %d", maxDurationMinutes)
	}
	return nil
}

// InviteResult is the generate_calendar_invite output.
type InviteResult struct {
	Status        string `json:"status"`
	ReservationID string `json:"reservation_id"`
	Filename      string `json:"filename"`
	Path          string `json:"path"`
	EventTitle    string `json:"event_title"`
	EventStart    string `json:"event_start"`
	EventEnd      string `json:"event_end"`
	Location      string `json:"location"`
	ICSContent    string `json:"ics_content"`
	Message       string `json:"message"`
}

func (s *Service) generateInvite(ctx context.Context, args InviteArgs) (InviteResult, error) {
	r, err := s.store.Get(ctx, args.ReservationID)
	if err != nil {
		if errors.Is(err, reservation.ErrNotFound) {
			return InviteResult{}, reservy.NotFound("Reservation %s not found", args.ReservationID)
		}
		return InviteResult{}, fmt.Errorf("load reservation: %w", err)
	}

	inv := calendar.NewInvite(r, time.Duration(args.DurationMinutes)*time.Minute)
	content := calendar.Render(inv, s.now())
	filename := calendar.Filename(r.ID)
	path, err := s.invites.Write(filename, content)
	if err != nil {
		return InviteResult{}, err
	}
	s.log.Info().Str("reservation_id", r.ID).Str("path", path).Msg("calendar invite written")

	return InviteResult{
		Status:        "success",
		ReservationID: r.ID,
		Filename:      filename,
		Path:          path,
		EventTitle:    inv.Title,
		EventStart:    inv.Start.Format(reservation.DateTimeLayout),
		EventEnd:      inv.End.Format(reservation.DateTimeLayout),
		Location:      inv.Location,
		ICSContent:    content,
		Message:       "Calendar invite generated: " + filename,
	}, nil
}
