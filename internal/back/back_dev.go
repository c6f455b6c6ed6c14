package back

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// LoadFixtures creates a few players and completed matches, some of them
// unprocessable, for quick testing during development.
func (b *Back) LoadFixtures(ctx context.Context) error {
	names := []string{
		"Darunia", "Nabooru", "Rauru", "Ruto", "Saria", "Zelda", "Impa", "Kaepora",
	}
	players := make([]Player, len(names))
	for k := range names {
		players[k] = NewPlayer(names[k])
	}

	return b.transaction(ctx, func(tx *sqlx.Tx) error {
		for k := range players {
			if err := players[k].insert(tx); err != nil {
				return fmt.Errorf("unable to insert player: %w", err)
			}
		}

		for k, league := range Leagues() {
			// Rotate players so each league gets different teams.
			rotated := make([]Player, 0, len(players))
			rotated = append(rotated, players[k:]...)
			rotated = append(rotated, players[:k]...)
			if err := insertFixtureMatch(tx, league, rotated[:4], rotated[4:], TeamA); err != nil {
				return err
			}
		}

		// A match the periodic scan will skip until someone fixes its teams.
		return insertFixtureMatch(tx, LeagueGold, players, nil, TeamB)
	})
}

func insertFixtureMatch(tx *sqlx.Tx, league League, a, b []Player, winner TeamSlot) error {
	match := NewMatch(league)
	match.Complete(winner)
	if err := match.insert(tx); err != nil {
		return fmt.Errorf("unable to insert match: %w", err)
	}

	for _, team := range []struct {
		slot    TeamSlot
		players []Player
	}{{TeamA, a}, {TeamB, b}} {
		for _, p := range team.players {
			participant := NewParticipant(match.ID, p.ID, team.slot)
			if err := participant.insert(tx); err != nil {
				return fmt.Errorf("unable to insert participant: %w", err)
			}
		}
	}

	return nil
}
