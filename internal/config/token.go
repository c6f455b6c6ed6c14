package config

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Query parameters added to signed paths.
const (
	SignatureParam = "sig"
	ExpiresParam   = "expires"
)

var (
	// ErrTokenExpired means the signature is valid, but expired.
	ErrTokenExpired = errors.New("signature expired")
	// ErrInvalidSignature means the path was not signed with our token.
	ErrInvalidSignature = errors.New("invalid signature")
)

// SignPath adds an expiry and a signature to a path with an optional query,
// the signature covers both the path and the query.
func (c *Config) SignPath(str string, d time.Duration) (string, error) {
	u, err := url.Parse(str)
	if err != nil {
		return "", fmt.Errorf("unable to parse path: %w", err)
	}

	q := u.Query()
	q.Del(SignatureParam)
	q.Set(ExpiresParam, strconv.FormatInt(time.Now().Add(d).Unix(), 10))

	sig, err := c.sign(u.EscapedPath(), q)
	if err != nil {
		return "", err
	}

	q.Set(SignatureParam, sig)
	u.RawQuery = q.Encode()

	return u.RequestURI(), nil
}

// CheckPath ensures the given path (as returned by url.URL.RequestURI) is
// properly signed and not expired.
func (c *Config) CheckPath(str string) error {
	u, err := url.Parse(str)
	if err != nil {
		return fmt.Errorf("unable to parse path: %w", err)
	}

	q := u.Query()
	expires, err := strconv.ParseInt(q.Get(ExpiresParam), 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}

	input := q.Get(SignatureParam)
	q.Del(SignatureParam)

	sig, err := c.sign(u.EscapedPath(), q)
	if err != nil {
		return err
	}

	if !hmac.Equal([]byte(sig), []byte(input)) {
		return ErrInvalidSignature
	}

	// Keep this last, this error must be returned _only_ if the signature is valid.
	if time.Unix(expires, 0).Before(time.Now()) {
		return ErrTokenExpired
	}

	return nil
}

func (c *Config) sign(path string, q url.Values) (string, error) {
	if len(c.WebToken) < 32 {
		return "", errors.New("web token must be ≥ 32 chars")
	}

	mac := hmac.New(sha256.New, []byte(c.WebToken))
	if _, err := mac.Write([]byte(path + "?" + q.Encode())); err != nil {
		return "", err
	}

	return hex.EncodeToString(mac.Sum(nil)), nil
}
