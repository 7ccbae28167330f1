// Package assistant is the interactive booking client: free-text search, then
// restaurant, slot and customer prompts, then reservation and calendar invite.
package assistant

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skosovsky/reservy/internal/reservation"
	"github.com/skosovsky/reservy/internal/tools"
)

// Client is the tool-calling surface the session drives (mcp.Client or mcp.InProcess).
type Client interface {
	ToolLister
	CallTool(ctx context.Context, name string, args any) (json.RawMessage, error)
}

// Manual fallback defaults.
const (
	DefaultLocation = "New York, NY"
	DefaultCuisine  = "restaurant"
	DefaultName     = "Guest"
	DefaultEmail    = "guest@example.com"
	DefaultParty    = 2
)

var errExit = errors.New("exit requested")

// Session runs the prompt loop over in/out.
type Session struct {
	client    Client
	extractor *ParamExtractor
	in        *bufio.Scanner
	out       io.Writer
	now       func() time.Time
	log       zerolog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides time.Now (default reservation date).
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession returns a session. extractor may be built with a nil generator, in
// which case every search falls back to manual prompts.
func NewSession(client Client, extractor *ParamExtractor, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		client:    client,
		extractor: extractor,
		in:        bufio.NewScanner(in),
		out:       out,
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loops until the user types exit, submits an empty query, or input ends.
// Tool failures are printed and the loop continues; only transport failures
// and context cancellation end the session with an error.
func (s *Session) Run(ctx context.Context) error {
	s.println("Restaurant Reservation Assistant")
	s.println("Type 'exit' at any prompt to quit.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		query, err := s.ask("Enter your restaurant search (e.g. 'Find a sushi place near me for 2 tonight'): \n> ")
		if err == nil && query == "" {
			err = errExit
		}
		if err == nil {
			err = s.book(ctx, query)
		}
		switch {
		case errors.Is(err, errExit), errors.Is(err, io.EOF):
			s.println("Goodbye!")
			return nil
		case err != nil:
			return err
		}
	}
}

// book runs one search-to-invite round. A nil return means "next query".
func (s *Session) book(ctx context.Context, query string) error {
	params, err := s.searchParams(ctx, query)
	if err != nil {
		return err
	}

	s.println("Searching for restaurants..")
	var found tools.SearchResult
	if msg, err := s.call(ctx, tools.SearchRestaurants, params, &found); err != nil {
		return err
	} else if msg != "" {
		s.println(msg)
		return nil
	}
	if len(found.Restaurants) == 0 {
		s.println("No restaurants found. Try a different search.")
		return nil
	}
	for i, r := range found.Restaurants {
		s.printf("%d. %s (Rating: %s) - %s\n", i+1, r.Name, strconv.FormatFloat(r.Rating, 'f', -1, 64), r.Address)
		s.printf("   Phone: %s, Website: %s\n", orDash(r.Phone), orDash(r.Website))
		if len(r.OpeningHours) > 0 {
			s.println("   Hours:")
			for _, h := range r.OpeningHours {
				s.printf("     %s\n", h)
			}
		}
		s.println("")
	}

	idx, err := s.choose(fmt.Sprintf("Choose a restaurant to reserve (1-%d, or 0 to skip): \n> ", len(found.Restaurants)), len(found.Restaurants))
	if err != nil || idx < 0 {
		return err
	}
	chosen := found.Restaurants[idx]

	party := DefaultParty
	line, err := s.ask("How many people? (default 2): \n> ")
	if err != nil {
		return err
	}
	if line != "" {
		n, convErr := strconv.Atoi(line)
		if convErr != nil || n <= 0 {
			s.println("Invalid party size.")
			return nil
		}
		party = n
	}
	date, err := s.ask("Date for reservation (YYYY-MM-DD; default=tonight): \n> ")
	if err != nil {
		return err
	}
	if date == "" {
		date = s.now().Format(reservation.DateLayout)
	}

	var avail tools.SlotsResult
	msg, err := s.call(ctx, tools.GetAvailableSlots, tools.SlotsArgs{RestaurantName: chosen.Name, Date: date, PartySize: party}, &avail)
	if err != nil {
		return err
	}
	if msg != "" || len(avail.AvailableSlots) == 0 {
		if msg != "" {
			s.println(msg)
		}
		s.println("No slots available. Try a different restaurant or date.")
		return nil
	}
	s.println("Available reservation times:")
	for i, t := range avail.AvailableSlots {
		s.printf("%d. %s\n", i+1, t)
	}
	slot, err := s.choose(fmt.Sprintf("Choose a time slot (1-%d, or 0 to skip): \n> ", len(avail.AvailableSlots)), len(avail.AvailableSlots))
	if err != nil || slot < 0 {
		return err
	}

	name, err := s.askDefault("Your name: > ", DefaultName)
	if err != nil {
		return err
	}
	email, err := s.askDefault("Your email: > ", DefaultEmail)
	if err != nil {
		return err
	}
	requests, err := s.ask("Any special requests? (optional): > ")
	if err != nil {
		return err
	}

	args := tools.ReservationArgs{
		RestaurantName:    chosen.Name,
		RestaurantAddress: chosen.Address,
		Date:              date,
		Time:              avail.AvailableSlots[slot],
		PartySize:         party,
		CustomerName:      name,
		CustomerEmail:     email,
		SpecialRequests:   requests,
	}
	raw, err := s.client.CallTool(ctx, tools.MakeReservation, args)
	if err != nil {
		return err
	}
	s.println("Reservation:")
	s.printObject(raw)

	var booked tools.ReservationResult
	if err := json.Unmarshal(raw, &booked); err != nil || booked.ReservationID == "" {
		s.println("---")
		return nil
	}
	var invite tools.InviteResult
	msg, err = s.call(ctx, tools.GenerateCalendarInvite, tools.InviteArgs{ReservationID: booked.ReservationID, DurationMinutes: 90}, &invite)
	if err != nil {
		return err
	}
	if msg == "" && invite.Filename != "" {
		s.printf("Calendar invite saved as: %s\n", invite.Filename)
	} else {
		s.println("Could not create calendar invite.")
	}
	s.println("---")
	return nil
}

// searchParams extracts parameters with the model, falling back to asking
// for a location and cuisine.
func (s *Session) searchParams(ctx context.Context, query string) (map[string]any, error) {
	params, err := s.extractor.Extract(ctx, query)
	if err == nil {
		return params, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.log.Debug().Err(err).Msg("parameter extraction failed")
	s.printf("Could not extract parameters automatically: %v\n", err)
	location, err := s.askDefault("Enter a city/area (e.g. New York, NY): > ", DefaultLocation)
	if err != nil {
		return nil, err
	}
	cuisine, err := s.askDefault("Cuisine type (e.g. italian, sushi, etc): > ", DefaultCuisine)
	if err != nil {
		return nil, err
	}
	return map[string]any{"location": location, "cuisine_type": cuisine}, nil
}

// call invokes a tool and decodes a successful result into out. It returns the
// tool's error message when the result carries one.
func (s *Session) call(ctx context.Context, name string, args, out any) (string, error) {
	raw, err := s.client.CallTool(ctx, name, args)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}
	var failure struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &failure); err == nil && failure.Error != "" {
		return failure.Error, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return "", fmt.Errorf("decode %s result: %w", name, err)
	}
	return "", nil
}

// choose reads a 1-based choice. It returns -1 for skip or an invalid entry.
func (s *Session) choose(prompt string, n int) (int, error) {
	line, err := s.ask(prompt)
	if err != nil {
		return -1, err
	}
	choice, convErr := strconv.Atoi(line)
	if convErr != nil || choice < 0 || choice > n {
		s.println("Invalid selection.")
		return -1, nil
	}
	return choice - 1, nil
}

func (s *Session) ask(prompt string) (string, error) {
	_, _ = io.WriteString(s.out, prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.TrimSpace(s.in.Text())
	if strings.EqualFold(line, "exit") {
		return "", errExit
	}
	return line, nil
}

func (s *Session) askDefault(prompt, def string) (string, error) {
	line, err := s.ask(prompt)
	if err != nil || line != "" {
		return line, err
	}
	return def, nil
}

var resultKeyOrder = []string{
	"status", "reservation_id", "restaurant_name", "restaurant_address", "date_time",
	"party_size", "customer_name", "customer_email", "special_requests", "message", "error",
}

func (s *Session) printObject(raw json.RawMessage) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		s.printf("  %s\n", raw)
		return
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ia, ib := slices.Index(resultKeyOrder, a), slices.Index(resultKeyOrder, b)
		switch {
		case ia >= 0 && ib >= 0:
			return ia - ib
		case ia >= 0:
			return -1
		case ib >= 0:
			return 1
		}
		return strings.Compare(a, b)
	})
	for _, k := range keys {
		s.printf("  %s: %v\n", k, obj[k])
	}
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func (s *Session) println(line string) { _, _ = fmt.Fprintln(s.out, line) }

func (s *Session) printf(format string, args ...any) { _, _ = fmt.Fprintf(s.out, format, args...) }
