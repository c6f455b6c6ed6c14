package util

import (
	"errors"
	"strings"
)

// ErrPublic is an error whose message can be echoed as-is to an operator.
// Values compare by message so they can be used as errors.Is sentinels.
type ErrPublic string

func (e ErrPublic) Error() string {
	return string(e)
}

// IsPublic returns true if an ErrPublic is found in the error chain.
func IsPublic(err error) bool {
	var public ErrPublic
	return errors.As(err, &public)
}

func ConcatErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	filtered := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err.Error())
		}
	}

	if len(filtered) == 0 {
		return nil
	}

	return errors.New(strings.Join(filtered, "; "))
}
