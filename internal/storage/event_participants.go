package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nikolag/summit/internal/domain"
)

// AssignParticipant stores (or replaces) the snapshot of a participant on
// an event. Both records must already exist.
func (s *Storage) AssignParticipant(ctx context.Context, snapshot domain.EventParticipant) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	if _, err := s.GetEvent(ctx, snapshot.EventID); err != nil {
		return err
	}
	if _, err := s.GetParticipant(ctx, snapshot.ParticipantID); err != nil {
		return err
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO event_participants (eid, pid, role, snapshot)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(eid, pid) DO UPDATE SET role = excluded.role, snapshot = excluded.snapshot
	`, snapshot.EventID, snapshot.ParticipantID, string(snapshot.Role), string(payload))
	return err
}

// UnassignParticipant removes a participant from an event.
func (s *Storage) UnassignParticipant(ctx context.Context, eid, pid string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM event_participants WHERE eid = ? AND pid = ?`, eid, pid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event participant %s/%s: %w", eid, pid, ErrNotFound)
	}
	return nil
}

// GetSnapshot retrieves the stored snapshot for one participant on one
// event.
func (s *Storage) GetSnapshot(ctx context.Context, eid, pid string) (domain.EventParticipant, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM event_participants WHERE eid = ? AND pid = ?`, eid, pid,
	).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.EventParticipant{}, fmt.Errorf("event participant %s/%s: %w", eid, pid, ErrNotFound)
	}
	if err != nil {
		return domain.EventParticipant{}, err
	}

	var snapshot domain.EventParticipant
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return domain.EventParticipant{}, fmt.Errorf("event participant %s/%s: bad snapshot payload: %w", eid, pid, err)
	}
	return snapshot, nil
}

// ListEventParticipants returns all snapshots stored for an event.
func (s *Storage) ListEventParticipants(ctx context.Context, eid string) ([]domain.EventParticipant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT snapshot FROM event_participants WHERE eid = ? ORDER BY pid`, eid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []domain.EventParticipant
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var snapshot domain.EventParticipant
		if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
			return nil, fmt.Errorf("event %s: bad snapshot payload: %w", eid, err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

// ListEventsForParticipant returns the events a participant is assigned
// to, most recent first.
func (s *Storage) ListEventsForParticipant(ctx context.Context, pid string) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.eid, e.title, e.location, e.date_from, e.date_to, e.host_country
		FROM events e
		JOIN event_participants ep ON ep.eid = e.eid
		WHERE ep.pid = ?
		ORDER BY e.date_from DESC
	`, pid)
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
