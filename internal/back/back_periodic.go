package back

import (
	"context"
	"fmt"
	"log"
	"scrimrank/internal/util"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// ScanReport counts what happened to the matches found by a Scan.
type ScanReport struct {
	Found            int
	Processed        int
	AlreadyProcessed int
	Skipped          int
	Failed           int
}

func (r *ScanReport) add(outcome Outcome, err error) {
	if err != nil {
		r.Failed++
		return
	}

	switch outcome {
	case OutcomeProcessed:
		r.Processed++
	case OutcomeAlreadyProcessed:
		r.AlreadyProcessed++
	case OutcomeSkippedIncompleteTeams:
		r.Skipped++
	}
}

// Scan processes every completed match with a winner that was not rated yet.
// A failing match is logged and does not prevent the others from being
// processed. Canceling ctx stops dispatching new matches, matches already
// being processed run to completion.
func (b *Back) Scan(ctx context.Context) (ScanReport, error) {
	start := time.Now()

	var ids []util.UUIDAsBlob
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		ids, err = b.matches.GetUnprocessedMatchIDs(tx, 0)
		return err
	}); err != nil {
		return ScanReport{}, fmt.Errorf("unable to list unprocessed matches: %w", err)
	}

	report := ScanReport{Found: len(ids)}
	if len(ids) == 0 {
		b.recorder.ObserveScan(0, time.Since(start))
		return report, nil
	}
	log.Printf("debug: found %d unprocessed matches", len(ids))

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, b.scanConcurrency)
		err error
	)

	for _, id := range ids {
		if err = b.scanLimiter.Wait(ctx); err != nil {
			break
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			err = ctx.Err()
		}
		if err != nil {
			break
		}

		wg.Add(1)
		go func(id util.UUIDAsBlob) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, procErr := b.processWithTimeout(id)
			mu.Lock()
			report.add(outcome, procErr)
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	b.recorder.ObserveScan(len(ids), time.Since(start))
	log.Printf(
		"info: scanned %d matches in %s: %d processed, %d skipped, %d failed",
		report.Found, time.Since(start), report.Processed, report.Skipped, report.Failed,
	)

	if err != nil {
		return report, fmt.Errorf("scan interrupted: %w", err)
	}

	return report, nil
}

// processWithTimeout detaches the match from the scan context, in-flight
// transactions are never canceled, they can only time out.
func (b *Back) processWithTimeout(id util.UUIDAsBlob) (Outcome, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.processTimeout)
	defer cancel()

	return b.ProcessMatch(ctx, id)
}
