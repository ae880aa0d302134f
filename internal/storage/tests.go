package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nikolag/summit/internal/domain"
)

// SaveTestScore inserts or replaces a participant's score for one
// attempt of an event's training test. Both records must already exist.
func (s *Storage) SaveTestScore(ctx context.Context, tt domain.TrainingTest) error {
	if err := tt.Validate(); err != nil {
		return err
	}

	if _, err := s.GetEvent(ctx, tt.EventID); err != nil {
		return err
	}
	if _, err := s.GetParticipant(ctx, tt.ParticipantID); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tests (eid, pid, attempt, score) VALUES (?, ?, ?, ?)
		ON CONFLICT(eid, pid, attempt) DO UPDATE SET score = excluded.score
	`, tt.EventID, tt.ParticipantID, string(tt.Type), tt.Score)
	return err
}

// GetTestScore retrieves one score by its composite key.
func (s *Storage) GetTestScore(ctx context.Context, eid, pid string, attempt domain.AttemptType) (domain.TrainingTest, error) {
	tt := domain.TrainingTest{EventID: eid, ParticipantID: pid, Type: attempt}
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM tests WHERE eid = ? AND pid = ? AND attempt = ?`,
		eid, pid, string(attempt),
	).Scan(&tt.Score)

	if errors.Is(err, sql.ErrNoRows) {
		return tt, fmt.Errorf("test score %s/%s/%s: %w", eid, pid, attempt, ErrNotFound)
	}
	return tt, err
}

// ListEventTests returns every score recorded for an event.
func (s *Storage) ListEventTests(ctx context.Context, eid string) ([]domain.TrainingTest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT eid, pid, attempt, score FROM tests WHERE eid = ? ORDER BY pid, attempt`, eid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []domain.TrainingTest
	for rows.Next() {
		var tt domain.TrainingTest
		var attempt string
		if err := rows.Scan(&tt.EventID, &tt.ParticipantID, &attempt, &tt.Score); err != nil {
			return nil, err
		}
		tt.Type = domain.AttemptType(attempt)
		tests = append(tests, tt)
	}
	return tests, rows.Err()
}

// EventScoreAverages returns the mean pre- and post-training scores for
// an event. Attempts without any score report zero.
func (s *Storage) EventScoreAverages(ctx context.Context, eid string) (avgPre, avgPost float64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(AVG(CASE WHEN attempt = 'pre' THEN score END), 0),
			COALESCE(AVG(CASE WHEN attempt = 'post' THEN score END), 0)
		FROM tests WHERE eid = ?
	`, eid).Scan(&avgPre, &avgPost)
	return avgPre, avgPost, err
}
