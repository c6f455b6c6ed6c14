package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Default values applied to unset fields.
const (
	DefaultDatabasePath    = "./scrimrank.db"
	DefaultWebListenAddr   = "127.0.0.1:3001"
	DefaultPollInterval    = Duration(60 * time.Second)
	DefaultProcessTimeout  = Duration(30 * time.Second)
	DefaultScanConcurrency = 1
)

type Config struct {
	// DatabasePath is the path to the sqlite database file.
	DatabasePath string

	// WebListenAddr is the host:port the HTTP API listens on.
	WebListenAddr string

	// WebToken is the HMAC key used to sign trigger URLs, ≥ 32 chars.
	WebToken string

	// PollInterval is the delay between two scans of unprocessed matches.
	PollInterval Duration

	// ProcessTimeout bounds the processing of a single match during a scan.
	ProcessTimeout Duration

	// ScanConcurrency is how many matches a scan processes in parallel.
	ScanConcurrency int

	// ScanRate caps how many matches per second a scan starts, 0 is unlimited.
	ScanRate float64
}

// Duration is a time.Duration written as a string ("90s", "5m") in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}

	v, err := time.ParseDuration(str)
	if err != nil {
		return err
	}

	*d = Duration(v)
	return nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func NewFromUserConfigDir() (*Config, error) {
	c := &Config{}
	if err := c.ReloadFromUserConfigDir(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) ReloadFromUserConfigDir() error {
	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}

	return c.ReloadFromPath(path)
}

// ReloadFromPath reads the config file at path, a missing file yields the
// default config. Environment variables always take precedence.
func (c *Config) ReloadFromPath(path string) error {
	log.Printf("debug: reading conf from %s", path)
	*c = Config{}

	if _, err := os.Stat(path); err != nil && !os.IsNotExist(err) {
		return err
	} else if err == nil {
		if err := c.decodeFile(path); err != nil {
			return fmt.Errorf("unable to read %s: %w", path, err)
		}
	}

	if err := c.expandFromEnv(); err != nil {
		return err
	}
	c.setDefaults()

	return c.Validate()
}

func (c *Config) decodeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(c)
}

func (c *Config) expandFromEnv() error {
	vars := []struct {
		src string
		dst *string
	}{
		{"SCRIMRANK_DB", &c.DatabasePath},
		{"SCRIMRANK_WEB_TOKEN", &c.WebToken},
		{"SCRIMRANK_WEB_ADDR", &c.WebListenAddr},
	}

	for _, v := range vars {
		if str := os.Getenv(v.src); str != "" {
			*v.dst = str
		}
	}

	if str := os.Getenv("SCRIMRANK_POLL_INTERVAL"); str != "" {
		d, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("SCRIMRANK_POLL_INTERVAL: %w", err)
		}
		c.PollInterval = Duration(d)
	}

	if str := os.Getenv("SCRIMRANK_SCAN_CONCURRENCY"); str != "" {
		n, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("SCRIMRANK_SCAN_CONCURRENCY: %w", err)
		}
		c.ScanConcurrency = n
	}

	if str := os.Getenv("SCRIMRANK_SCAN_RATE"); str != "" {
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("SCRIMRANK_SCAN_RATE: %w", err)
		}
		c.ScanRate = f
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	if c.WebListenAddr == "" {
		c.WebListenAddr = DefaultWebListenAddr
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ProcessTimeout == 0 {
		c.ProcessTimeout = DefaultProcessTimeout
	}
	if c.ScanConcurrency == 0 {
		c.ScanConcurrency = DefaultScanConcurrency
	}
}

// Validate returns an error if a value can't be used. The web token is only
// checked when signing as commands not using the API don't need it.
func (c *Config) Validate() error {
	switch {
	case c.PollInterval < 0:
		return errors.New("poll interval must be positive")
	case c.ProcessTimeout < 0:
		return errors.New("process timeout must be positive")
	case c.ScanConcurrency < 0:
		return errors.New("scan concurrency must be positive")
	case c.ScanRate < 0:
		return errors.New("scan rate must be positive")
	}

	return nil
}

func getOrCreateUserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(configDir, "scrimrank")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.json"), nil
}

func (c *Config) Write() error {
	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}

	return c.WriteToPath(path)
}

func (c *Config) WriteToPath(path string) error {
	log.Printf("debug: writing conf to %s", path)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	if err := enc.Encode(c); err != nil {
		if err2 := f.Close(); err2 != nil {
			return fmt.Errorf("unable to close file (%s) after error: %w", err2, err)
		}

		return err
	}

	return f.Close()
}
