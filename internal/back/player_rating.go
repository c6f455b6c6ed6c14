package back

import (
	"database/sql"
	"errors"
	"scrimrank/internal/util"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// DefaultRating is the rating of a player who never played in a League.
const DefaultRating = 1000

// PlayerRating is the current rating of a Player in a League, there is at most
// one per (PlayerID, League).
type PlayerRating struct {
	PlayerID  util.UUIDAsBlob
	League    League
	CreatedAt util.TimeAsTimestamp
	UpdatedAt util.TimeAsTimestamp

	Rating int
	Wins   int
	Losses int
}

func NewPlayerRating(playerID util.UUIDAsBlob, league League) PlayerRating {
	now := util.TimeAsTimestamp(time.Now())
	return PlayerRating{
		PlayerID:  playerID,
		League:    league,
		CreatedAt: now,
		UpdatedAt: now,
		Rating:    DefaultRating,
	}
}

// getPlayerRating returns the current rating for a player in a league. The
// boolean is false if the player has no rating yet.
func getPlayerRating(
	tx *sqlx.Tx, playerID util.UUIDAsBlob, league League,
) (PlayerRating, bool, error) {
	var ret PlayerRating
	query := `SELECT * FROM PlayerRating WHERE PlayerID = ? AND League = ? LIMIT 1`
	if err := tx.Get(&ret, query, playerID, league); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PlayerRating{}, false, nil
		}
		return PlayerRating{}, false, err
	}

	return ret, true, nil
}

// upsertPlayerRating sets the rating of a player to newRating and increments
// their wins and losses counters.
func upsertPlayerRating(
	tx *sqlx.Tx,
	playerID util.UUIDAsBlob,
	league League,
	newRating, winIncrement, lossIncrement int,
) error {
	now := util.TimeAsTimestamp(time.Now())
	query, args, err := squirrel.Insert("PlayerRating").SetMap(squirrel.Eq{
		"PlayerID":  playerID,
		"League":    league,
		"CreatedAt": now,
		"UpdatedAt": now,
		"Rating":    newRating,
		"Wins":      winIncrement,
		"Losses":    lossIncrement,
	}).Suffix(`
        ON CONFLICT(PlayerID, League) DO UPDATE SET
            Rating = excluded.Rating,
            Wins = PlayerRating.Wins + excluded.Wins,
            Losses = PlayerRating.Losses + excluded.Losses,
            UpdatedAt = excluded.UpdatedAt
    `).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}
