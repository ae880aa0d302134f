package domain

import (
	"fmt"
	"strings"
)

// Event is a training or conference hosted by a country.
type Event struct {
	EID         string `json:"eid"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	DateFrom    Date   `json:"date_from"`
	DateTo      Date   `json:"date_to"`
	HostCountry string `json:"host_country"`
}

// Validate checks the event invariants.
func (e Event) Validate() error {
	if strings.TrimSpace(e.EID) == "" {
		return fmt.Errorf("event eid is required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("event %s: title is required", e.EID)
	}
	if e.DateFrom.IsZero() || e.DateTo.IsZero() {
		return fmt.Errorf("event %s: both dates are required", e.EID)
	}
	if e.DateFrom.After(e.DateTo.Time) {
		return fmt.Errorf("event %s: date_from must be on or before date_to", e.EID)
	}
	if strings.TrimSpace(e.HostCountry) == "" {
		return fmt.Errorf("event %s: host country is required", e.EID)
	}
	return nil
}
