package util

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimeAsTimestamp is stored as an UNIX timestamp but used as a time.Time
type TimeAsTimestamp time.Time

func (t TimeAsTimestamp) Value() (driver.Value, error) {
	return driver.Value(time.Time(t).Unix()), nil
}

func (t TimeAsTimestamp) Time() time.Time {
	return time.Time(t)
}

func (t TimeAsTimestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time().UTC().Format(time.RFC3339))
}

func (t *TimeAsTimestamp) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		tmp, err := strconv.ParseInt(string(src), 10, 64)
		if err != nil {
			return err
		}

		*t = TimeAsTimestamp(time.Unix(tmp, 0))
	case int64:
		*t = TimeAsTimestamp(time.Unix(src, 0))
	default:
		return fmt.Errorf("expected []byte or int64, got %T", src)
	}

	return nil
}

type NullTimeAsTimestamp struct {
	Time  TimeAsTimestamp
	Valid bool // Valid is true if TimeAsTimestamp is not NULL
}

func NewNullTimeAsTimestamp(t time.Time) NullTimeAsTimestamp {
	return NullTimeAsTimestamp{
		Time:  TimeAsTimestamp(t),
		Valid: !t.IsZero(),
	}
}

// Scan implements the Scanner interface.
func (ns *NullTimeAsTimestamp) Scan(value interface{}) error {
	if value == nil {
		ns.Time, ns.Valid = TimeAsTimestamp{}, false
		return nil
	}

	ns.Valid = true

	return ns.Time.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullTimeAsTimestamp) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}

	return ns.Time.Value()
}

func (ns NullTimeAsTimestamp) MarshalJSON() ([]byte, error) {
	if !ns.Valid {
		return json.Marshal(nil)
	}

	return ns.Time.MarshalJSON()
}
