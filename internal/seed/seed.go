// Package seed populates an empty database with the country catalog and
// the default operator accounts.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nikolag/summit/internal/auth"
	"github.com/nikolag/summit/internal/countries"
	"github.com/nikolag/summit/internal/domain"
	"github.com/nikolag/summit/internal/storage"
)

// defaultUsers are the operator accounts created on first start. The
// passwords are meant to be rotated immediately after deployment.
var defaultUsers = []struct {
	username string
	password string
}{
	{"nikola", "N1k0l!ca"},
	{"marija", "Marij@ci"},
	{"andrej", "m@sterMind"},
}

// Run seeds countries and users. It is idempotent and safe to call on
// every server start.
func Run(ctx context.Context, store *storage.Storage, log *zap.SugaredLogger) error {
	if err := seedCountries(ctx, store, log); err != nil {
		return err
	}
	return seedUsers(ctx, store, log)
}

// seedCountries loads the embedded catalog when the table is empty.
func seedCountries(ctx context.Context, store *storage.Storage, log *zap.SugaredLogger) error {
	existing, err := store.ListCountries(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	catalog, err := countries.Catalog()
	if err != nil {
		return err
	}
	if err := store.UpsertCountries(ctx, catalog); err != nil {
		return fmt.Errorf("failed to seed countries: %w", err)
	}

	log.Infow("seeded country catalog", "count", len(catalog))
	return nil
}

// seedUsers creates the default accounts that do not exist yet.
func seedUsers(ctx context.Context, store *storage.Storage, log *zap.SugaredLogger) error {
	for _, u := range defaultUsers {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return err
		}

		created, err := store.CreateUser(ctx, domain.User{
			Username:     u.username,
			PasswordHash: hash,
			Active:       true,
		})
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.username, err)
		}
		if created {
			log.Infow("created default user", "username", u.username)
		}
	}
	return nil
}
