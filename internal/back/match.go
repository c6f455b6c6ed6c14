package back

import (
	"database/sql/driver"
	"fmt"
	"scrimrank/internal/util"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

type MatchStatus int

const ( // this is stored in DB, don't change values
	MatchStatusPending   MatchStatus = 0 // still being played or ingested
	MatchStatusCompleted MatchStatus = 1 // final, eligible for rating
	MatchStatusCancelled MatchStatus = 2 // never rated
)

func (s MatchStatus) IsValid() bool {
	return s >= MatchStatusPending && s <= MatchStatusCancelled
}

func (s MatchStatus) String() string {
	switch s {
	case MatchStatusPending:
		return "pending"
	case MatchStatusCompleted:
		return "completed"
	case MatchStatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("MatchStatus(%d)", int(s))
	}
}

func (s MatchStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s MatchStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("refusing to store invalid match status %d", int(s))
	}

	return driver.Value(int64(s)), nil
}

func (s *MatchStatus) Scan(src interface{}) error {
	v, ok := src.(int64)
	if !ok {
		return fmt.Errorf("expected int64, got %T", src)
	}

	tmp := MatchStatus(v)
	if !tmp.IsValid() {
		return fmt.Errorf("invalid match status %d", v)
	}

	*s = tmp
	return nil
}

// A Match is a finalized contest between two teams. Matches are created and
// completed by the ingestion pipeline, the only field we ever write to is
// RatingProcessed and only ever from false to true.
type Match struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	EndedAt   util.NullTimeAsTimestamp
	League    League
	Status    MatchStatus

	// WinningTeam holds a TeamSlot, NULL until a winner is declared.
	WinningTeam     null.Int
	RatingProcessed bool
}

func NewMatch(league League) Match {
	return Match{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.TimeAsTimestamp(time.Now()),
		League:    league,
		Status:    MatchStatusPending,
	}
}

// Winner returns the declared winning team, if any.
func (m *Match) Winner() (TeamSlot, bool) {
	if !m.WinningTeam.Valid {
		return 0, false
	}

	return TeamSlot(m.WinningTeam.Int64), true
}

// Complete ends the match and declares a winner.
func (m *Match) Complete(winner TeamSlot) {
	m.Status = MatchStatusCompleted
	m.EndedAt = util.NewNullTimeAsTimestamp(time.Now())
	m.WinningTeam = null.IntFrom(int64(winner))
}

func (m *Match) validate() error {
	if m.WinningTeam.Valid && !TeamSlot(m.WinningTeam.Int64).IsValid() {
		return fmt.Errorf("match %s has an invalid winning team %d", m.ID, m.WinningTeam.Int64)
	}

	return nil
}

func (m *Match) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Match").SetMap(squirrel.Eq{
		"ID":              m.ID,
		"CreatedAt":       m.CreatedAt,
		"EndedAt":         m.EndedAt,
		"League":          m.League,
		"Status":          m.Status,
		"WinningTeam":     m.WinningTeam,
		"RatingProcessed": m.RatingProcessed,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// update writes the fields owned by the ingestion pipeline, it never touches
// RatingProcessed, see markMatchRatingProcessed.
func (m *Match) update(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Match").SetMap(squirrel.Eq{
		"EndedAt":     m.EndedAt,
		"League":      m.League,
		"Status":      m.Status,
		"WinningTeam": m.WinningTeam,
	}).Where("Match.ID = ?", m.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getMatchByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Match, error) {
	var ret Match
	query := `SELECT * FROM Match WHERE Match.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		return Match{}, err
	}

	if err := ret.validate(); err != nil {
		return Match{}, err
	}

	return ret, nil
}

// markMatchRatingProcessed flips the one-way RatingProcessed flag. It fails if
// the flag was already set, meaning someone else processed the match.
func markMatchRatingProcessed(tx *sqlx.Tx, id util.UUIDAsBlob) error {
	query, args, err := squirrel.Update("Match").
		Set("RatingProcessed", true).
		Where(squirrel.Eq{"ID": id, "RatingProcessed": false}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := tx.Exec(query, args...)
	if err != nil {
		return err
	}

	cnt, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if cnt != 1 {
		return fmt.Errorf("expected to mark 1 match as processed, marked %d", cnt)
	}

	return nil
}

// getUnprocessedMatchIDs returns the oldest completed matches with a winner
// that have not been rated yet.
func getUnprocessedMatchIDs(tx *sqlx.Tx, limit uint64) ([]util.UUIDAsBlob, error) {
	q := squirrel.Select("ID").From("Match").
		Where(squirrel.Eq{
			"Status":          MatchStatusCompleted,
			"RatingProcessed": false,
		}).
		Where(squirrel.NotEq{"WinningTeam": nil}).
		OrderBy("CreatedAt ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var ret []util.UUIDAsBlob
	if err := tx.Select(&ret, query, args...); err != nil {
		return nil, err
	}

	return ret, nil
}
