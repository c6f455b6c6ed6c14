package back

// This file contains functions specific to the web frontend.
// Please do not call them outside of the webserver.

import (
	"context"
	"scrimrank/internal/util"

	"github.com/jmoiron/sqlx"
)

type LeaderboardEntry struct {
	PlayerID   util.UUIDAsBlob
	PlayerName string
	Rating     int
	Wins       int
	Losses     int
}

func (b *Back) GetLeaderboard(ctx context.Context, league League, limit int) (out []LeaderboardEntry, _ error) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		query := `
            SELECT
                PlayerRating.PlayerID AS PlayerID,
                COALESCE(Player.Name, '') AS PlayerName,
                PlayerRating.Rating AS Rating,
                PlayerRating.Wins AS Wins,
                PlayerRating.Losses AS Losses
            FROM PlayerRating
            LEFT JOIN Player ON(PlayerRating.PlayerID = Player.ID)
            WHERE PlayerRating.League = ?
            ORDER BY PlayerRating.Rating DESC, PlayerRating.Wins DESC
            LIMIT ?`

		return tx.Select(&out, query, league, limit)
	}); err != nil {
		return nil, err
	}

	return out, nil
}

func (b *Back) GetRatingHistory(
	ctx context.Context, playerID util.UUIDAsBlob, league League,
) (out []PlayerRatingHistory, _ error) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		out, err = getPlayerRatingHistory(tx, playerID, league)
		return err
	}); err != nil {
		return nil, err
	}

	return out, nil
}

// GetMatch returns a match and its participants.
func (b *Back) GetMatch(ctx context.Context, id util.UUIDAsBlob) (
	match Match, participants []Participant, _ error,
) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		match, err = b.matches.GetMatch(tx, id)
		if err != nil {
			return err
		}

		participants, err = b.matches.GetParticipants(tx, id)
		return err
	}); err != nil {
		return Match{}, nil, err
	}

	return match, participants, nil
}
