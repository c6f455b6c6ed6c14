package back

import (
	"time"

	"golang.org/x/time/rate"
)

// Default values for the periodic scan.
const (
	DefaultPollInterval    = 60 * time.Second
	DefaultProcessTimeout  = 30 * time.Second
	DefaultScanConcurrency = 1
)

// Option applies a configuration option to a Back.
type Option func(*Back)

// WithPollInterval sets the delay between two scans of unprocessed matches.
func WithPollInterval(d time.Duration) Option {
	return func(b *Back) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// WithProcessTimeout bounds the duration of each match processed by a scan.
func WithProcessTimeout(d time.Duration) Option {
	return func(b *Back) {
		if d > 0 {
			b.processTimeout = d
		}
	}
}

// WithScanConcurrency sets how many matches a scan processes in parallel.
func WithScanConcurrency(n int) Option {
	return func(b *Back) {
		if n > 0 {
			b.scanConcurrency = n
		}
	}
}

// WithScanRateLimit caps how many matches per second a scan starts
// processing, zero means no limit.
func WithScanRateLimit(perSecond float64) Option {
	return func(b *Back) {
		if perSecond > 0 {
			b.scanLimiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithRecorder sets where processing outcomes are reported.
func WithRecorder(r Recorder) Option {
	return func(b *Back) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithMatchRegistry replaces the SQL match registry.
func WithMatchRegistry(r MatchRegistry) Option {
	return func(b *Back) {
		if r != nil {
			b.matches = r
		}
	}
}

// WithRatingStore replaces the SQL rating store.
func WithRatingStore(s RatingStore) Option {
	return func(b *Back) {
		if s != nil {
			b.ratings = s
		}
	}
}

// WithHistoryLedger replaces the SQL history ledger.
func WithHistoryLedger(l HistoryLedger) Option {
	return func(b *Back) {
		if l != nil {
			b.ledger = l
		}
	}
}
