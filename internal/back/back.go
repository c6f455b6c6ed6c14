package back

import (
	"context"
	"log"
	"net/url"
	"scrimrank/internal/util"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/time/rate"
)

// Recorder receives an observation for every match processed and every scan.
type Recorder interface {
	// ObserveMatch is called with an Outcome string or a failure reason.
	ObserveMatch(result string, d time.Duration)
	ObserveScan(found int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveMatch(string, time.Duration) {}
func (nopRecorder) ObserveScan(int, time.Duration)     {}

type Back struct {
	db *sqlx.DB

	matches MatchRegistry
	ratings RatingStore
	ledger  HistoryLedger

	recorder        Recorder
	pollInterval    time.Duration
	processTimeout  time.Duration
	scanConcurrency int
	scanLimiter     *rate.Limiter
}

func New(sqlDriver string, sqlDSN string, opts ...Option) (*Back, error) {
	// Why even bother converting names? A single greppable string across all
	// your source code is better than any odd conversion scheme you could ever
	// come up with.
	// HACK: This is global but putting this in init() makes test ugly.
	// As only the Back relies on the DB, this seems like an okay-ish place.
	sqlx.NameMapper = func(v string) string { return v }

	db, err := sqlx.Connect(sqlDriver, sqlDSN)
	if err != nil {
		return nil, err
	}

	b := &Back{
		db:              db,
		matches:         sqlStore{},
		ratings:         sqlStore{},
		ledger:          sqlStore{},
		recorder:        nopRecorder{},
		pollInterval:    DefaultPollInterval,
		processTimeout:  DefaultProcessTimeout,
		scanConcurrency: DefaultScanConcurrency,
		scanLimiter:     rate.NewLimiter(rate.Inf, 1),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// SQLiteDSN returns the DSN to open the sqlite database at path. Transactions
// take the write lock when they begin so two of them can't both read a match
// as unprocessed, the second one waits for the first to finish.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Set("_txlock", "immediate")
	q.Set("_busy_timeout", "10000")
	q.Set("_foreign_keys", "1")

	return path + "?" + q.Encode()
}

func (b *Back) Close() error {
	return b.db.Close()
}

// Run scans for unprocessed matches every poll interval until done is closed.
// The caller must have added 1 to wg.
func (b *Back) Run(wg *sync.WaitGroup, done <-chan struct{}) {
	defer wg.Done()
	log.Printf("info: starting Back dæmon, scanning every %s", b.pollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		if _, err := b.Scan(ctx); err != nil {
			log.Printf("error: scan: %s", err)
		}

		select {
		case <-time.After(b.pollInterval):
		case <-done:
			log.Print("info: Back dæmon stopped")
			return
		}
	}
}

func (b *Back) transaction(ctx context.Context, cb util.TransactionCallback) error {
	return util.Transaction(ctx, b.db, nil, cb)
}
