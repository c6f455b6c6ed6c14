package back // nolint:testpackage

import (
	"context"
	"fmt"
	"path/filepath"
	"scrimrank/internal/util"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/guregu/null.v4"
)

func createTestBack(t *testing.T, opts ...Option) *Back {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	migrator, err := migrate.New(
		"file://../../resources/migrations",
		"sqlite3://"+path,
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatal(err)
	}
	migrator.Close()

	back, err := New("sqlite3", SQLiteDSN(path), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		back.Close()
	})

	return back
}

// completedMatch describes a match to insert, one player is created per slot,
// a zero slot leaves the player without a team.
type completedMatch struct {
	league League
	status MatchStatus
	winner TeamSlot
	slots  []TeamSlot
}

func completed(winner TeamSlot, slots ...TeamSlot) completedMatch {
	return completedMatch{
		league: LeagueSilver,
		status: MatchStatusCompleted,
		winner: winner,
		slots:  slots,
	}
}

func insertMatch(t *testing.T, back *Back, desc completedMatch) (Match, []Player) {
	t.Helper()

	match := NewMatch(desc.league)
	match.Complete(TeamA)
	match.Status = desc.status
	if desc.winner == 0 {
		match.WinningTeam = null.Int{}
	} else {
		match.WinningTeam = null.IntFrom(int64(desc.winner))
	}

	players := make([]Player, len(desc.slots))
	if err := back.transaction(context.Background(), func(tx *sqlx.Tx) error {
		if err := match.insert(tx); err != nil {
			return err
		}

		for k, slot := range desc.slots {
			players[k] = NewPlayer(fmt.Sprintf("player-%s", util.NewUUIDAsBlob()))
			if err := players[k].insert(tx); err != nil {
				return err
			}

			participant := NewParticipant(match.ID, players[k].ID, slot)
			if err := participant.insert(tx); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		t.Fatal(err)
	}

	return match, players
}

func seedRating(t *testing.T, back *Back, playerID util.UUIDAsBlob, league League, rating int) {
	t.Helper()

	if err := back.transaction(context.Background(), func(tx *sqlx.Tx) error {
		return upsertPlayerRating(tx, playerID, league, rating, 0, 0)
	}); err != nil {
		t.Fatal(err)
	}
}

func mustGetRating(t *testing.T, back *Back, playerID util.UUIDAsBlob, league League) (PlayerRating, bool) {
	t.Helper()

	var (
		ret PlayerRating
		ok  bool
	)
	if err := back.transaction(context.Background(), func(tx *sqlx.Tx) (err error) {
		ret, ok, err = getPlayerRating(tx, playerID, league)
		return err
	}); err != nil {
		t.Fatal(err)
	}

	return ret, ok
}

func mustGetMatch(t *testing.T, back *Back, id util.UUIDAsBlob) Match {
	t.Helper()

	match, _, err := back.GetMatch(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}

	return match
}

func mustGetHistory(t *testing.T, back *Back, matchID util.UUIDAsBlob) []PlayerRatingHistory {
	t.Helper()

	var ret []PlayerRatingHistory
	if err := back.transaction(context.Background(), func(tx *sqlx.Tx) (err error) {
		ret, err = getPlayerRatingHistoryByMatchID(tx, matchID)
		return err
	}); err != nil {
		t.Fatal(err)
	}

	return ret
}

// assertUntouched fails if the match was rated in any way.
func assertUntouched(t *testing.T, back *Back, match Match, players []Player) {
	t.Helper()

	if mustGetMatch(t, back, match.ID).RatingProcessed {
		t.Error("expected match not to be marked as processed")
	}

	if history := mustGetHistory(t, back, match.ID); len(history) != 0 {
		t.Errorf("expected no history, got %d entries", len(history))
	}

	for _, p := range players {
		if _, ok := mustGetRating(t, back, p.ID, match.League); ok {
			t.Errorf("expected player %s to have no rating", p.Name)
		}
	}
}
