package main

import (
	"context"
	"log"
	"scrimrank/internal/config"
)

func loadFixtures(conf *config.Config) error {
	b, err := newBack(conf)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.LoadFixtures(context.Background()); err != nil {
		return err
	}

	log.Printf("info: fixtures loaded into %s", conf.DatabasePath)
	return nil
}
