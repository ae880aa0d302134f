package domain

import (
	"fmt"
	"strings"
)

// Role describes why a participant attends an event.
type Role string

const (
	RoleParticipant Role = "Participant"
	RoleInstructor  Role = "Instructor"
	RoleGuest       Role = "Guest"
	RoleOrganizer   Role = "Organizer"
	RoleSponsor     Role = "Sponsor"
	RoleObserver    Role = "Observer"
)

// IBANType is the currency class of a participant's bank account.
type IBANType string

const (
	IBANEuro  IBANType = "EURO"
	IBANUSD   IBANType = "USD"
	IBANMulti IBANType = "Multi-Currency"
)

// EventParticipant is the per-event snapshot of a participant's mutable
// travel and banking details. Assigning a participant to an event copies
// these fields so later profile edits do not rewrite history.
type EventParticipant struct {
	EventID       string `json:"eid"`
	ParticipantID string `json:"participant_id"`
	Role          Role   `json:"role"`

	Transportation Transport `json:"transportation"`
	TransportOther string    `json:"transport_other,omitempty"`
	TravellingFrom string    `json:"travelling_from"`
	ReturningTo    string    `json:"returning_to"`

	TravelDocType       DocType `json:"travel_doc_type"`
	TravelDocTypeOther  string  `json:"travel_doc_type_other,omitempty"`
	TravelDocIssueDate  Date    `json:"travel_doc_issue_date,omitempty"`
	TravelDocExpiryDate Date    `json:"travel_doc_expiry_date,omitempty"`
	TravelDocIssuedBy   string  `json:"travel_doc_issued_by,omitempty"`

	BankName string   `json:"bank_name,omitempty"`
	IBAN     string   `json:"iban,omitempty"`
	IBANType IBANType `json:"iban_type,omitempty"`
	SWIFT    string   `json:"swift,omitempty"`
}

// Validate checks the snapshot invariants.
func (ep EventParticipant) Validate() error {
	if strings.TrimSpace(ep.EventID) == "" || strings.TrimSpace(ep.ParticipantID) == "" {
		return fmt.Errorf("event participant needs both event and participant references")
	}
	if ep.Role == "" {
		return fmt.Errorf("%s/%s: role is required", ep.EventID, ep.ParticipantID)
	}
	if ep.Transportation == TransportOther && strings.TrimSpace(ep.TransportOther) == "" {
		return fmt.Errorf("%s/%s: transportation 'Other' needs a description", ep.EventID, ep.ParticipantID)
	}
	return nil
}

// SnapshotFrom builds an event snapshot from a participant's current profile.
func SnapshotFrom(eventID string, p Participant, role Role) EventParticipant {
	return EventParticipant{
		EventID:             eventID,
		ParticipantID:       p.PID,
		Role:                role,
		Transportation:      p.Transportation,
		TransportOther:      p.TransportOther,
		TravellingFrom:      p.TravellingFrom,
		ReturningTo:         p.ReturningTo,
		TravelDocType:       p.TravelDocType,
		TravelDocTypeOther:  p.TravelDocTypeOther,
		TravelDocIssueDate:  p.TravelDocIssueDate,
		TravelDocExpiryDate: p.TravelDocExpiryDate,
		TravelDocIssuedBy:   p.TravelDocIssuedBy,
	}
}
