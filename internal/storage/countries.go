package storage

import (
	"context"

	"github.com/nikolag/summit/internal/domain"
)

// UpsertCountries inserts or updates catalog entries in one transaction.
func (s *Storage) UpsertCountries(ctx context.Context, countries []domain.Country) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range countries {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO countries (cid, name, region) VALUES (?, ?, ?)
			ON CONFLICT(cid) DO UPDATE SET name = excluded.name, region = excluded.region
		`, c.CID, c.Name, c.Region); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListCountries returns the catalog ordered by name.
func (s *Storage) ListCountries(ctx context.Context) ([]domain.Country, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cid, name, region FROM countries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []domain.Country
	for rows.Next() {
		var c domain.Country
		if err := rows.Scan(&c.CID, &c.Name, &c.Region); err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// CountryLookup returns a CID -> display name map.
func (s *Storage) CountryLookup(ctx context.Context) (map[string]string, error) {
	countries, err := s.ListCountries(ctx)
	if err != nil {
		return nil, err
	}

	lookup := make(map[string]string, len(countries))
	for _, c := range countries {
		lookup[c.CID] = c.Name
	}
	return lookup, nil
}
