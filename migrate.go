package main

import (
	"errors"
	"log"
	"scrimrank/internal/config"
	"scrimrank/internal/util"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const migrationsSource = "file://resources/migrations"

func migrateUp(conf *config.Config) error {
	m, err := migrate.New(migrationsSource, "sqlite3://"+conf.DatabasePath)
	if err != nil {
		return err
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Print("info: database is up to date")
		err = nil
	case err == nil:
		version, _, _ := m.Version()
		log.Printf("info: database migrated to version %d", version)
	}

	srcErr, dbErr := m.Close()
	if err != nil || srcErr != nil || dbErr != nil {
		return util.ConcatErrors([]error{err, srcErr, dbErr})
	}

	return nil
}
