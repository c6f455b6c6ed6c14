package back

import (
	"database/sql/driver"
	"fmt"
	"scrimrank/internal/util"
)

// A League is an independent rating namespace, a player holds one
// PlayerRating per League they played a Match in.
type League string

const ( // this is stored in DB, don't change values
	LeagueBronze League = "bronze"
	LeagueSilver League = "silver"
	LeagueGold   League = "gold"
)

// Leagues returns every known League from the lowest to the highest tier.
func Leagues() []League {
	return []League{LeagueBronze, LeagueSilver, LeagueGold}
}

func (l League) IsValid() bool {
	switch l {
	case LeagueBronze, LeagueSilver, LeagueGold:
		return true
	}

	return false
}

// ParseLeague returns the League with the given name or a public error.
func ParseLeague(str string) (League, error) {
	l := League(str)
	if !l.IsValid() {
		return "", util.ErrPublic(fmt.Sprintf("unknown league %q", str))
	}

	return l, nil
}

func (l League) Value() (driver.Value, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("refusing to store invalid league %q", string(l))
	}

	return driver.Value(string(l)), nil
}

func (l *League) Scan(src interface{}) error {
	var str string
	switch src := src.(type) {
	case []byte:
		str = string(src)
	case string:
		str = src
	default:
		return fmt.Errorf("expected []byte or string, got %T", src)
	}

	tmp := League(str)
	if !tmp.IsValid() {
		return fmt.Errorf("invalid league %q", str)
	}

	*l = tmp
	return nil
}
