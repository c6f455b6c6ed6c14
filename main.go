package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"scrimrank/internal/back"
	"scrimrank/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// Version holds the build-time version string.
var Version = "unknown" // nolint:gochecknoglobals

func main() {
	flag.Parse()

	var err error
	switch flag.Arg(0) {
	case "version":
		fmt.Fprintf(os.Stdout, "scrimrank %s\n", Version)
	case "help":
		fmt.Fprint(os.Stdout, help())
	case "serve":
		err = withConfig(serve)
	case "rate":
		err = withConfig(func(conf *config.Config) error { return rate(conf, flag.Arg(1)) })
	case "sign":
		err = withConfig(func(conf *config.Config) error { return sign(conf, flag.Arg(1), flag.Arg(2)) })
	case "scan":
		err = withConfig(scan)
	case "migrate":
		err = withConfig(migrateUp)
	case "config:init":
		err = withConfig(func(conf *config.Config) error { return conf.Write() })
	case "dev:fixtures":
		err = withConfig(loadFixtures)
	default:
		fmt.Fprint(os.Stderr, help())
		os.Exit(1)
	}

	if err != nil {
		log.Printf("error: %s", err)
		os.Exit(1)
	}
}

func withConfig(cmd func(*config.Config) error) error {
	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}

	return cmd(conf)
}

func newBack(conf *config.Config, opts ...back.Option) (*back.Back, error) {
	opts = append([]back.Option{
		back.WithPollInterval(conf.PollInterval.Duration()),
		back.WithProcessTimeout(conf.ProcessTimeout.Duration()),
		back.WithScanConcurrency(conf.ScanConcurrency),
		back.WithScanRateLimit(conf.ScanRate),
	}, opts...)

	return back.New("sqlite3", back.SQLiteDSN(conf.DatabasePath), opts...)
}

func help() string {
	return fmt.Sprintf(`
scrimrank computes per-league Elo ratings of team scrims, exactly once per
match.

Usage: %[1]s COMMAND [ARGS…]

COMMANDS
    config:init           write the current configuration to the user config dir
    dev:fixtures          create default data for quick testing during development
    help                  display this help
    migrate               apply database migrations
    rate MATCH_ID         rate a single completed match
    scan                  rate every completed match not rated yet, once
    serve                 run the periodic scan and the HTTP API
    sign MATCH_ID [TTL]   print a signed HTTP trigger path for a match (TTL: 24h)
    version               display the current version

ENVIRONMENT
    SCRIMRANK_DB, SCRIMRANK_WEB_TOKEN, SCRIMRANK_WEB_ADDR,
    SCRIMRANK_POLL_INTERVAL, SCRIMRANK_SCAN_CONCURRENCY, SCRIMRANK_SCAN_RATE
    override the values of the configuration file.
`,
		os.Args[0],
	)
}
