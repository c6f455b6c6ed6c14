package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"scrimrank/internal/config"
	"scrimrank/internal/util"
	"time"
)

const defaultSignatureTTL = 24 * time.Hour

func rate(conf *config.Config, arg string) error {
	id, err := util.ParseUUIDAsBlob(arg)
	if err != nil {
		return err
	}

	b, err := newBack(conf)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), conf.ProcessTimeout.Duration())
	defer cancel()

	outcome, err := b.ProcessMatch(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, outcome)
	return nil
}

func sign(conf *config.Config, arg, ttl string) error {
	id, err := util.ParseUUIDAsBlob(arg)
	if err != nil {
		return err
	}

	d := defaultSignatureTTL
	if ttl != "" {
		if d, err = time.ParseDuration(ttl); err != nil {
			return err
		}
	}

	path, err := conf.SignPath(fmt.Sprintf("/v1/match/%s/rate", id), d)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, path)
	return nil
}

func scan(conf *config.Config) error {
	b, err := newBack(conf)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	report, err := b.Scan(ctx)
	fmt.Fprintf(
		os.Stdout, "found %d, processed %d, already processed %d, skipped %d, failed %d\n",
		report.Found, report.Processed, report.AlreadyProcessed, report.Skipped, report.Failed,
	)

	closeErr := b.Close()
	if err != nil || closeErr != nil {
		return util.ConcatErrors([]error{err, closeErr})
	}

	if report.Failed > 0 {
		return errors.New("some matches could not be processed")
	}

	return nil
}
