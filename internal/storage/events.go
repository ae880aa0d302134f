package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nikolag/summit/internal/domain"
)

// CreateEvent inserts a new event. It fails when the EID already exists.
func (s *Storage) CreateEvent(ctx context.Context, e domain.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (eid, title, location, date_from, date_to, host_country, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.EID, e.Title, e.Location, e.DateFrom.String(), e.DateTo.String(), e.HostCountry, time.Now().Unix())
	return err
}

// UpdateEvent replaces an existing event's fields.
func (s *Storage) UpdateEvent(ctx context.Context, e domain.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET title = ?, location = ?, date_from = ?, date_to = ?, host_country = ?
		WHERE eid = ?
	`, e.Title, e.Location, e.DateFrom.String(), e.DateTo.String(), e.HostCountry, e.EID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", e.EID, ErrNotFound)
	}
	return nil
}

func scanEvent(row interface{ Scan(...any) error }) (domain.Event, error) {
	var e domain.Event
	var from, to string

	if err := row.Scan(&e.EID, &e.Title, &e.Location, &from, &to, &e.HostCountry); err != nil {
		return e, err
	}

	var err error
	if e.DateFrom, err = domain.ParseDate(from); err != nil {
		return e, err
	}
	if e.DateTo, err = domain.ParseDate(to); err != nil {
		return e, err
	}
	return e, nil
}

// GetEvent retrieves an event by EID.
func (s *Storage) GetEvent(ctx context.Context, eid string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT eid, title, location, date_from, date_to, host_country FROM events WHERE eid = ?`, eid)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("event %s: %w", eid, ErrNotFound)
	}
	return e, err
}

// ListEvents returns all events, most recent first.
func (s *Storage) ListEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT eid, title, location, date_from, date_to, host_country
		 FROM events ORDER BY date_from DESC, eid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteEvent removes an event and its participant snapshots.
func (s *Storage) DeleteEvent(ctx context.Context, eid string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE eid = ?`, eid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", eid, ErrNotFound)
	}
	return nil
}

// NextEID allocates the next free event ID in the "E0001" sequence.
func (s *Storage) NextEID(ctx context.Context) (string, error) {
	var maxEID sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(eid) FROM events`).Scan(&maxEID)
	if err != nil {
		return "", err
	}

	next := 1
	if maxEID.Valid && len(maxEID.String) > 1 {
		var n int
		if _, err := fmt.Sscanf(maxEID.String, "E%d", &n); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("E%04d", next), nil
}
