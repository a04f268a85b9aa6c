package main

import (
	"fmt"

	"github.com/az-math/azmath/internal/config"
	"github.com/az-math/azmath/internal/database"
	"github.com/az-math/azmath/internal/store"
)

// openStore loads the configuration and opens the MySQL-backed document
// store. The returned close function must be deferred.
func openStore() (*store.MySQLStore, func() error, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("config.Load() > %w", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database.Open() > %w", err)
	}
	return store.NewMySQLStore(db), db.Close, nil
}
