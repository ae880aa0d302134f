// Package domain holds the core entities of the event management system.
package domain

import (
	"fmt"
	"strings"
)

// Country is a catalog entry referenced by participants and events.
// CID is the 4-character primary key, e.g. "C003".
type Country struct {
	CID    string `json:"cid"`
	Name   string `json:"country"`
	Region string `json:"region,omitempty"`
}

// Validate checks the country invariants.
func (c Country) Validate() error {
	if len(c.CID) != 4 {
		return fmt.Errorf("country cid must be 4 characters, got %q", c.CID)
	}
	if len(strings.TrimSpace(c.Name)) < 2 {
		return fmt.Errorf("country name too short: %q", c.Name)
	}
	return nil
}
