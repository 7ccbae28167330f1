// Package reservation holds the reservation record and the append-only stores it lives in.
package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status of a reservation. Records are created confirmed and never mutated.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Layouts used on the wire and in storage.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// ErrNotFound is returned by Store.Get for unknown identifiers.
var ErrNotFound = errors.New("reservation not found")

// Reservation is a confirmed booking.
type Reservation struct {
	ID                string
	RestaurantName    string
	RestaurantAddress string
	DateTime          time.Time
	PartySize         int
	CustomerName      string
	CustomerEmail     string
	SpecialRequests   string
	Status            Status
}

// Record is the flat JSON view of a reservation as listed to callers.
type Record struct {
	ReservationID     string `json:"reservation_id"`
	RestaurantName    string `json:"restaurant_name"`
	RestaurantAddress string `json:"restaurant_address"`
	DateTime          string `json:"date_time"`
	PartySize         int    `json:"party_size"`
	CustomerName      string `json:"customer_name"`
	CustomerEmail     string `json:"customer_email"`
	SpecialRequests   string `json:"special_requests"`
	Status            Status `json:"status"`
}

// Record converts r to its wire view.
func (r Reservation) Record() Record {
	return Record{
		ReservationID:     r.ID,
		RestaurantName:    r.RestaurantName,
		RestaurantAddress: r.RestaurantAddress,
		DateTime:          r.DateTime.Format(DateTimeLayout),
		PartySize:         r.PartySize,
		CustomerName:      r.CustomerName,
		CustomerEmail:     r.CustomerEmail,
		SpecialRequests:   r.SpecialRequests,
		Status:            r.Status,
	}
}

// EmailKey is the form both stores compare customer emails in.
func EmailKey(email string) string {
	return strings.ToLower(email)
}

// NewID returns an 8-character upper-case token cut from a random UUID.
// Uniqueness against the store is not checked.
func NewID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// ParseDateTime combines a YYYY-MM-DD date and an HH:MM time at minute precision.
func ParseDateTime(date, clock string) (time.Time, error) {
	return time.Parse(DateLayout+" "+TimeLayout, date+" "+clock)
}

// Store is the append-only reservation sequence. Implementations must be safe
// for concurrent use.
type Store interface {
	// Append adds r at the end of the sequence.
	Append(ctx context.Context, r Reservation) error
	// Get returns the first reservation whose ID equals id exactly, or ErrNotFound.
	Get(ctx context.Context, id string) (Reservation, error)
	// ListByEmail returns reservations whose customer email matches email
	// case-insensitively, in insertion order. An empty email matches all.
	ListByEmail(ctx context.Context, email string) ([]Reservation, error)
	Close() error
}
