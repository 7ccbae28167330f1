// Package calendar renders reservations as RFC 5545 invites and stores them as .ics files.
package calendar

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/spf13/afero"

	"github.com/skosovsky/reservy/internal/reservation"
)

const (
	productID = "-//reservy//Restaurant Reservations//EN"
	// floating local time: the reservation is at the restaurant's wall clock.
	icsLocalLayout = "20060102T150405"
)

// Invite is a single calendar event derived from a reservation.
type Invite struct {
	ReservationID string
	Title         string
	Start         time.Time
	End           time.Time
	Location      string
	Description   string
	AttendeeName  string
	AttendeeEmail string
}

// NewInvite builds the dinner event for r lasting duration.
func NewInvite(r reservation.Reservation, duration time.Duration) Invite {
	return Invite{
		ReservationID: r.ID,
		Title:         "Dinner at " + r.RestaurantName,
		Start:         r.DateTime,
		End:           r.DateTime.Add(duration),
		Location:      r.RestaurantAddress,
		Description:   describe(r),
		AttendeeName:  r.CustomerName,
		AttendeeEmail: r.CustomerEmail,
	}
}

func describe(r reservation.Reservation) string {
	var b strings.Builder
	b.WriteString("Reservation Details:\n")
	fmt.Fprintf(&b, "- Restaurant: %s\n", r.RestaurantName)
	fmt.Fprintf(&b, "- Address: %s\n", r.RestaurantAddress)
	fmt.Fprintf(&b, "- Party Size: %d people\n", r.PartySize)
	fmt.Fprintf(&b, "- Reservation ID: %s\n", r.ID)
	fmt.Fprintf(&b, "- Special Requests: %s\n", r.SpecialRequests)
	b.WriteString("\nPlease arrive 5-10 minutes early.")
	return b.String()
}

// Filename is the invite file name for a reservation id.
func Filename(reservationID string) string {
	return "reservation_" + reservationID + ".ics"
}

// Render serializes inv as an iCalendar document. stamp becomes DTSTAMP.
func Render(inv Invite, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)

	ev := cal.AddEvent(inv.ReservationID + "@reservy")
	ev.SetDtStampTime(stamp)
	ev.SetProperty(ics.ComponentPropertyDtStart, inv.Start.Format(icsLocalLayout))
	ev.SetProperty(ics.ComponentPropertyDtEnd, inv.End.Format(icsLocalLayout))
	ev.SetSummary(inv.Title)
	if inv.Location != "" {
		ev.SetLocation(inv.Location)
	}
	ev.SetDescription(inv.Description)
	if inv.AttendeeEmail != "" {
		ev.AddAttendee(inv.AttendeeEmail, ics.WithCN(inv.AttendeeName), ics.ParticipationStatusAccepted)
	}
	return cal.Serialize()
}

// Writer stores invite documents under a directory of fs.
type Writer struct {
	fs  afero.Fs
	dir string
}

// NewWriter returns a Writer rooted at dir. An empty dir means the working
// directory; a nil fs means the OS filesystem.
func NewWriter(fs afero.Fs, dir string) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = "."
	}
	return &Writer{fs: fs, dir: dir}
}

// Write stores content as name inside the writer's directory and returns the file path.
func (w *Writer) Write(name, content string) (string, error) {
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create invite dir %s: %w", w.dir, err)
	}
	path := filepath.Join(w.dir, name)
	if err := afero.WriteFile(w.fs, path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write invite %s: %w", path, err)
	}
	return path, nil
}
