package domain

import (
	"fmt"
	"strings"
)

// Gender values accepted on participant records.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Grade classifies a participant for future invitations.
type Grade int

const (
	GradeBlackList Grade = 0
	GradeNormal    Grade = 1
	GradeExcellent Grade = 2
)

// DocType is the kind of travel document a participant holds.
type DocType string

const (
	DocPassport           DocType = "Passport"
	DocIDCard             DocType = "ID Card"
	DocDiplomaticPassport DocType = "Diplomatic Passport"
	DocServicePassport    DocType = "Service Passport"
	DocOther              DocType = "Other"
)

// Transport is how a participant travels to an event.
type Transport string

const (
	TransportPOV      Transport = "Personal Vehicle (POV)"
	TransportGOV      Transport = "Government (Official) Vehicle (GOV)"
	TransportAirplane Transport = "Airplane"
	TransportOther    Transport = "Other"
)

// Participant is the canonical participant record. Country fields hold
// Country CID references, not display names.
type Participant struct {
	PID                 string   `json:"pid"`
	Name                string   `json:"name"`
	Gender              Gender   `json:"gender"`
	Grade               Grade    `json:"grade"`
	RepresentingCountry string   `json:"representing_country"`
	DOB                 Date     `json:"dob"`
	POB                 string   `json:"pob"`
	BirthCountry        string   `json:"birth_country"`
	Citizenships        []string `json:"citizenships"`
	Email               string   `json:"email,omitempty"`
	Phone               string   `json:"phone,omitempty"`

	TravelDocType       DocType `json:"travel_doc_type"`
	TravelDocTypeOther  string  `json:"travel_doc_type_other,omitempty"`
	TravelDocIssueDate  Date    `json:"travel_doc_issue_date"`
	TravelDocExpiryDate Date    `json:"travel_doc_expiry_date"`
	TravelDocIssuedBy   string  `json:"travel_doc_issued_by"`

	Transportation Transport `json:"transportation"`
	TransportOther string    `json:"transport_other,omitempty"`
	TravellingFrom string    `json:"travelling_from"`
	ReturningTo    string    `json:"returning_to"`
}

// Validate checks the participant invariants.
func (p Participant) Validate() error {
	if len(p.PID) < 3 {
		return fmt.Errorf("pid too short: %q", p.PID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("participant %s: name is required", p.PID)
	}
	switch p.Gender {
	case GenderMale, GenderFemale:
	default:
		return fmt.Errorf("participant %s: unknown gender %q", p.PID, p.Gender)
	}
	if p.Grade < GradeBlackList || p.Grade > GradeExcellent {
		return fmt.Errorf("participant %s: grade out of range: %d", p.PID, p.Grade)
	}
	if p.RepresentingCountry == "" {
		return fmt.Errorf("participant %s: representing country is required", p.PID)
	}
	if len(p.Citizenships) == 0 {
		return fmt.Errorf("participant %s: at least one citizenship is required", p.PID)
	}
	for _, cid := range p.Citizenships {
		if strings.TrimSpace(cid) == "" {
			return fmt.Errorf("participant %s: blank citizenship reference", p.PID)
		}
	}
	if p.TravelDocType == DocOther && strings.TrimSpace(p.TravelDocTypeOther) == "" {
		return fmt.Errorf("participant %s: travel document type 'Other' needs a description", p.PID)
	}
	if !p.TravelDocIssueDate.IsZero() && !p.TravelDocExpiryDate.IsZero() &&
		p.TravelDocExpiryDate.Before(p.TravelDocIssueDate.Time) {
		return fmt.Errorf("participant %s: travel document expires before it was issued", p.PID)
	}
	if p.Transportation == TransportOther && strings.TrimSpace(p.TransportOther) == "" {
		return fmt.Errorf("participant %s: transportation 'Other' needs a description", p.PID)
	}
	return nil
}
