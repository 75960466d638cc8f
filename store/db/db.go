// Package db selects the concrete store driver for a profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/adsight/adsight/internal/profile"
	"github.com/adsight/adsight/store"
	"github.com/adsight/adsight/store/db/postgres"
	"github.com/adsight/adsight/store/db/sqlite"
)

// NewDBDriver creates a new DB driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported driver: %s", profile.Driver)
	}
}
