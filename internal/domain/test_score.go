package domain

import (
	"fmt"
	"strings"
)

// AttemptType distinguishes the test taken before a training from the
// one taken after it.
type AttemptType string

const (
	AttemptPre  AttemptType = "pre"
	AttemptPost AttemptType = "post"
)

// ParseAttemptType normalizes a raw attempt value.
func ParseAttemptType(s string) (AttemptType, error) {
	switch AttemptType(strings.ToLower(strings.TrimSpace(s))) {
	case AttemptPre:
		return AttemptPre, nil
	case AttemptPost:
		return AttemptPost, nil
	}
	return "", fmt.Errorf("unknown attempt type %q", s)
}

// TrainingTest records one participant's score on an event's pre- or
// post-training test.
type TrainingTest struct {
	EventID       string      `json:"eid"`
	ParticipantID string      `json:"pid"`
	Type          AttemptType `json:"type"`
	Score         float64     `json:"score"`
}

// Validate checks the score record invariants.
func (tt TrainingTest) Validate() error {
	if strings.TrimSpace(tt.EventID) == "" || strings.TrimSpace(tt.ParticipantID) == "" {
		return fmt.Errorf("test score needs both event and participant references")
	}
	if tt.Type != AttemptPre && tt.Type != AttemptPost {
		return fmt.Errorf("%s/%s: unknown attempt type %q", tt.EventID, tt.ParticipantID, tt.Type)
	}
	if tt.Score < 0 {
		return fmt.Errorf("%s/%s: score must be non-negative", tt.EventID, tt.ParticipantID)
	}
	return nil
}
