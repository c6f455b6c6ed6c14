package back

import (
	"scrimrank/internal/util"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// PlayerRatingHistory is an immutable ledger entry recording how a Match
// changed the rating of one of its participants.
type PlayerRatingHistory struct {
	MatchID   util.UUIDAsBlob
	PlayerID  util.UUIDAsBlob
	League    League
	CreatedAt util.TimeAsTimestamp

	RatingBefore int
	RatingAfter  int
	RatingChange int
}

func NewPlayerRatingHistory(
	matchID, playerID util.UUIDAsBlob, league League, before, after int,
) PlayerRatingHistory {
	return PlayerRatingHistory{
		MatchID:      matchID,
		PlayerID:     playerID,
		League:       league,
		CreatedAt:    util.TimeAsTimestamp(time.Now()),
		RatingBefore: before,
		RatingAfter:  after,
		RatingChange: after - before,
	}
}

// insert appends the entry, the (MatchID, PlayerID) primary key makes a second
// insert for the same match and player fail.
func (h *PlayerRatingHistory) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("PlayerRatingHistory").SetMap(squirrel.Eq{
		"MatchID":      h.MatchID,
		"PlayerID":     h.PlayerID,
		"League":       h.League,
		"CreatedAt":    h.CreatedAt,
		"RatingBefore": h.RatingBefore,
		"RatingAfter":  h.RatingAfter,
		"RatingChange": h.RatingChange,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getPlayerRatingHistory(
	tx *sqlx.Tx, playerID util.UUIDAsBlob, league League,
) ([]PlayerRatingHistory, error) {
	var ret []PlayerRatingHistory
	query := `
        SELECT * FROM PlayerRatingHistory
        WHERE PlayerID = ? AND League = ?
        ORDER BY CreatedAt ASC`
	if err := tx.Select(&ret, query, playerID, league); err != nil {
		return nil, err
	}

	return ret, nil
}

func getPlayerRatingHistoryByMatchID(
	tx *sqlx.Tx, matchID util.UUIDAsBlob,
) ([]PlayerRatingHistory, error) {
	var ret []PlayerRatingHistory
	query := `SELECT * FROM PlayerRatingHistory WHERE MatchID = ?`
	if err := tx.Select(&ret, query, matchID); err != nil {
		return nil, err
	}

	return ret, nil
}
