package reservation

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // database/sql driver "sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

// SQLiteStore persists reservations in a SQLite database so they survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dsn and applies migrations.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", dsn, err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, r Reservation) error {
	status := r.Status
	if status == "" {
		status = StatusConfirmed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reservations (id, restaurant_name, restaurant_address, date_time, party_size,
			customer_name, customer_email, email_key, special_requests, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RestaurantName, r.RestaurantAddress, r.DateTime.Format(DateTimeLayout), r.PartySize,
		r.CustomerName, r.CustomerEmail, EmailKey(r.CustomerEmail), r.SpecialRequests, string(status),
	)
	if err != nil {
		return fmt.Errorf("insert reservation %s: %w", r.ID, err)
	}
	return nil
}

const selectColumns = `id, restaurant_name, restaurant_address, date_time, party_size,
	customer_name, customer_email, special_requests, status`

func (s *SQLiteStore) Get(ctx context.Context, id string) (Reservation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM reservations WHERE id = ? ORDER BY seq LIMIT 1`, id)
	r, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Reservation{}, ErrNotFound
	}
	if err != nil {
		return Reservation{}, fmt.Errorf("get reservation %s: %w", id, err)
	}
	return r, nil
}

// ListByEmail matches on email_key, folded in Go at insert time so the
// comparison is the same as MemoryStore's.
func (s *SQLiteStore) ListByEmail(ctx context.Context, email string) ([]Reservation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM reservations
		WHERE ? = '' OR email_key = ?
		ORDER BY seq`, email, EmailKey(email))
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	out := []Reservation{}
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (Reservation, error) {
	var (
		r        Reservation
		dateTime string
		status   string
	)
	err := sc.Scan(&r.ID, &r.RestaurantName, &r.RestaurantAddress, &dateTime, &r.PartySize,
		&r.CustomerName, &r.CustomerEmail, &r.SpecialRequests, &status)
	if err != nil {
		return Reservation{}, err
	}
	r.DateTime, err = time.Parse(DateTimeLayout, dateTime)
	if err != nil {
		return Reservation{}, fmt.Errorf("parse date_time %q: %w", dateTime, err)
	}
	r.Status = Status(status)
	return r, nil
}

var _ Store = (*SQLiteStore)(nil)
