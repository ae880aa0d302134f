// Package countries resolves noisy country input (local spellings,
// abbreviations, adjectival forms) to catalog entries.
package countries

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nikolag/summit/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogEntry struct {
	CID     string `yaml:"cid"`
	Country string `yaml:"country"`
	Region  string `yaml:"region"`
}

type catalogFile struct {
	Countries []catalogEntry `yaml:"countries"`
}

// Catalog returns the embedded country seed catalog.
func Catalog() ([]domain.Country, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("parse country catalog: %w", err)
	}

	out := make([]domain.Country, 0, len(file.Countries))
	seen := make(map[string]bool, len(file.Countries))
	for _, e := range file.Countries {
		c := domain.Country{CID: e.CID, Name: e.Country, Region: e.Region}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("country catalog: %w", err)
		}
		if seen[c.CID] {
			return nil, fmt.Errorf("country catalog: duplicate cid %s", c.CID)
		}
		seen[c.CID] = true
		out = append(out, c)
	}

	return out, nil
}
