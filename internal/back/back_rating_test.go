package back // nolint:testpackage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scrimrank/internal/util"

	"github.com/jmoiron/sqlx"
)

func TestProcessMatchEqualAverages(t *testing.T) {
	back := createTestBack(t)
	match, players := insertMatch(t, back, completed(TeamA, TeamA, TeamA, TeamB, TeamB))

	outcome, err := back.ProcessMatch(context.Background(), match.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeProcessed {
		t.Fatalf("expected %s got %s", OutcomeProcessed, outcome)
	}

	cases := []struct {
		player               Player
		rating, wins, losses int
	}{
		{players[0], 1016, 1, 0},
		{players[1], 1016, 1, 0},
		{players[2], 984, 0, 1},
		{players[3], 984, 0, 1},
	}

	for k, v := range cases {
		rating, ok := mustGetRating(t, back, v.player.ID, match.League)
		if !ok {
			t.Fatalf("case #%d: expected a rating to be created", k)
		}

		if rating.Rating != v.rating || rating.Wins != v.wins || rating.Losses != v.losses {
			t.Errorf(
				"case #%d: expected %d (%d/%d) got %d (%d/%d)", k,
				v.rating, v.wins, v.losses,
				rating.Rating, rating.Wins, rating.Losses,
			)
		}
	}

	history := mustGetHistory(t, back, match.ID)
	if len(history) != 4 {
		t.Fatalf("expected 4 history entries, got %d", len(history))
	}
	for _, v := range history {
		if v.RatingBefore != DefaultRating || v.RatingChange != v.RatingAfter-v.RatingBefore {
			t.Errorf("unexpected history entry %+v", v)
		}
		if v.League != match.League {
			t.Errorf("expected league %s got %s", match.League, v.League)
		}
	}

	if !mustGetMatch(t, back, match.ID).RatingProcessed {
		t.Error("expected match to be marked as processed")
	}
}

func TestProcessMatchIsIdempotent(t *testing.T) {
	back := createTestBack(t)
	match, players := insertMatch(t, back, completed(TeamB, TeamA, TeamA, TeamB, TeamB))

	expected := []Outcome{OutcomeProcessed, OutcomeAlreadyProcessed, OutcomeAlreadyProcessed}
	for k, v := range expected {
		outcome, err := back.ProcessMatch(context.Background(), match.ID)
		if err != nil {
			t.Fatal(err)
		}
		if outcome != v {
			t.Errorf("call #%d: expected %s got %s", k, v, outcome)
		}
	}

	if history := mustGetHistory(t, back, match.ID); len(history) != 4 {
		t.Errorf("expected 4 history entries, got %d", len(history))
	}

	for _, p := range players {
		rating, _ := mustGetRating(t, back, p.ID, match.League)
		if rating.Wins+rating.Losses != 1 {
			t.Errorf("expected player %s to have played once, got %d/%d", p.Name, rating.Wins, rating.Losses)
		}
	}
}

func TestProcessMatchUsesPreMatchRatings(t *testing.T) {
	back := createTestBack(t)
	match, players := insertMatch(t, back, completed(TeamB, TeamA, TeamA, TeamB, TeamB))
	seedRating(t, back, players[0].ID, match.League, 1200)
	// A rating in another league must not be used.
	seedRating(t, back, players[2].ID, LeagueGold, 2000)

	if _, err := back.ProcessMatch(context.Background(), match.ID); err != nil {
		t.Fatal(err)
	}

	expected := []int{1176, 984, 1020, 1020}
	for k, p := range players {
		rating, _ := mustGetRating(t, back, p.ID, match.League)
		if rating.Rating != expected[k] {
			t.Errorf("player #%d: expected %d got %d", k, expected[k], rating.Rating)
		}
	}

	gold, _ := mustGetRating(t, back, players[2].ID, LeagueGold)
	if gold.Rating != 2000 || gold.Wins != 0 {
		t.Errorf("expected gold rating to be untouched, got %+v", gold)
	}
}

func TestProcessMatchPreconditions(t *testing.T) {
	recorder := &testRecorder{}
	back := createTestBack(t, WithRecorder(recorder))

	if _, err := back.ProcessMatch(context.Background(), util.NewUUIDAsBlob()); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound, got %v", err)
	}

	pending := completed(TeamA, TeamA, TeamB)
	pending.status = MatchStatusPending
	cancelled := completed(TeamA, TeamA, TeamB)
	cancelled.status = MatchStatusCancelled

	cases := []struct {
		desc     completedMatch
		expected error
	}{
		{pending, ErrInvalidMatchState},
		{cancelled, ErrInvalidMatchState},
		{completed(0, TeamA, TeamB), ErrMissingWinner},
	}

	for k, v := range cases {
		match, players := insertMatch(t, back, v.desc)
		outcome, err := back.ProcessMatch(context.Background(), match.ID)
		if !errors.Is(err, v.expected) {
			t.Errorf("case #%d: expected %s got %v (%s)", k, v.expected, err, outcome)
		}
		if !util.IsPublic(err) {
			t.Errorf("case #%d: expected a public error", k)
		}

		assertUntouched(t, back, match, players)
	}

	expected := []string{"match_not_found", "invalid_match_state", "invalid_match_state", "missing_winner"}
	if results := recorder.results(); !equalStrings(results, expected) {
		t.Errorf("expected observations %v got %v", expected, results)
	}
}

func TestProcessMatchAfterWinnerIsDeclared(t *testing.T) {
	back := createTestBack(t)
	desc := completed(0, TeamA, TeamB)
	desc.status = MatchStatusPending
	match, players := insertMatch(t, back, desc)

	if _, err := back.ProcessMatch(context.Background(), match.ID); !errors.Is(err, ErrInvalidMatchState) {
		t.Fatalf("expected ErrInvalidMatchState, got %v", err)
	}
	assertUntouched(t, back, match, players)

	match.Complete(TeamB)
	if err := back.transaction(context.Background(), match.update); err != nil {
		t.Fatal(err)
	}

	outcome, err := back.ProcessMatch(context.Background(), match.ID)
	if err != nil || outcome != OutcomeProcessed {
		t.Fatalf("expected %s got %s (%v)", OutcomeProcessed, outcome, err)
	}

	winner, _ := mustGetRating(t, back, players[1].ID, match.League)
	if winner.Rating != 1016 || winner.Wins != 1 {
		t.Errorf("expected team B player to win, got %+v", winner)
	}
}

func TestProcessMatchIncompleteTeams(t *testing.T) {
	back := createTestBack(t)

	cases := []completedMatch{
		completed(TeamA, TeamA, TeamA),
		completed(TeamA, 0, 0),
		completed(TeamB, TeamB, 0),
		completed(TeamA),
	}

	for k, v := range cases {
		match, players := insertMatch(t, back, v)
		outcome, err := back.ProcessMatch(context.Background(), match.ID)
		if err != nil {
			t.Fatalf("case #%d: %s", k, err)
		}
		if outcome != OutcomeSkippedIncompleteTeams {
			t.Errorf("case #%d: expected %s got %s", k, OutcomeSkippedIncompleteTeams, outcome)
		}

		assertUntouched(t, back, match, players)
	}
}

func TestProcessMatchAfterTeamsAreFixed(t *testing.T) {
	back := createTestBack(t)
	match, players := insertMatch(t, back, completed(TeamA, TeamA, TeamA, 0))

	if outcome, _ := back.ProcessMatch(context.Background(), match.ID); outcome != OutcomeSkippedIncompleteTeams {
		t.Fatalf("expected %s got %s", OutcomeSkippedIncompleteTeams, outcome)
	}

	if err := back.transaction(context.Background(), func(tx *sqlx.Tx) error {
		p := NewParticipant(match.ID, players[2].ID, TeamB)
		return p.update(tx)
	}); err != nil {
		t.Fatal(err)
	}

	outcome, err := back.ProcessMatch(context.Background(), match.ID)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeProcessed {
		t.Fatalf("expected %s got %s", OutcomeProcessed, outcome)
	}

	if history := mustGetHistory(t, back, match.ID); len(history) != 3 {
		t.Errorf("expected 3 history entries, got %d", len(history))
	}
}

func TestProcessMatchIgnoresUnassignedParticipants(t *testing.T) {
	back := createTestBack(t)
	match, players := insertMatch(t, back, completed(TeamA, TeamA, TeamB, 0))

	if outcome, err := back.ProcessMatch(context.Background(), match.ID); err != nil || outcome != OutcomeProcessed {
		t.Fatalf("expected %s got %s (%v)", OutcomeProcessed, outcome, err)
	}

	if history := mustGetHistory(t, back, match.ID); len(history) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(history))
	}

	if _, ok := mustGetRating(t, back, players[2].ID, match.League); ok {
		t.Error("expected unassigned player not to be rated")
	}
}

func TestProcessMatchRollsBackOnFailure(t *testing.T) {
	ledger := &failingLedger{HistoryLedger: sqlStore{}, failAt: 3}
	registry := &failingRegistry{MatchRegistry: sqlStore{}}
	back := createTestBack(t, WithHistoryLedger(ledger), WithMatchRegistry(registry))

	match, players := insertMatch(t, back, completed(TeamA, TeamA, TeamA, TeamB, TeamB))
	seedRating(t, back, players[0].ID, match.League, 1100)

	assertRolledBack := func() {
		t.Helper()

		if _, err := back.ProcessMatch(context.Background(), match.ID); err == nil {
			t.Fatal("expected an error")
		}

		rating, ok := mustGetRating(t, back, players[0].ID, match.League)
		if !ok || rating.Rating != 1100 || rating.Wins != 0 || rating.Losses != 0 {
			t.Errorf("expected seeded rating to be untouched, got %+v", rating)
		}

		assertUntouched(t, back, match, players[1:])
	}

	// Fails after two players were fully written.
	assertRolledBack()

	// Fails on the very last write.
	ledger.failAt = 0
	registry.failMarkProcessed = true
	assertRolledBack()

	registry.failMarkProcessed = false
	if outcome, err := back.ProcessMatch(context.Background(), match.ID); err != nil || outcome != OutcomeProcessed {
		t.Fatalf("expected %s got %s (%v)", OutcomeProcessed, outcome, err)
	}
	if history := mustGetHistory(t, back, match.ID); len(history) != 4 {
		t.Errorf("expected 4 history entries, got %d", len(history))
	}
}

func TestProcessMatchConcurrently(t *testing.T) {
	back := createTestBack(t)
	match, players := insertMatch(t, back, completed(TeamA, TeamA, TeamA, TeamB, TeamB))

	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[Outcome]int{}
		start    = make(chan struct{})
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			outcome, err := back.ProcessMatch(ctx, match.ID)
			if err != nil {
				// Losing a race against the store lock is acceptable.
				t.Logf("concurrent ProcessMatch failed: %s", err)
				return
			}

			mu.Lock()
			outcomes[outcome]++
			mu.Unlock()
		}()
	}

	close(start)
	wg.Wait()

	if outcomes[OutcomeProcessed] != 1 {
		t.Errorf("expected exactly one %s, got %v", OutcomeProcessed, outcomes)
	}

	if history := mustGetHistory(t, back, match.ID); len(history) != 4 {
		t.Errorf("expected 4 history entries, got %d", len(history))
	}

	for _, p := range players {
		rating, _ := mustGetRating(t, back, p.ID, match.League)
		if rating.Wins+rating.Losses != 1 {
			t.Errorf("expected player %s to have played once, got %d/%d", p.Name, rating.Wins, rating.Losses)
		}
	}
}

// failingLedger fails on the failAt-th append, zero never fails.
type failingLedger struct {
	HistoryLedger
	failAt int
	calls  int
}

func (l *failingLedger) AppendHistory(tx *sqlx.Tx, entry PlayerRatingHistory) error {
	l.calls++
	if l.failAt > 0 && l.calls%l.failAt == 0 {
		return errors.New("simulated ledger failure")
	}

	return l.HistoryLedger.AppendHistory(tx, entry)
}

type failingRegistry struct {
	MatchRegistry
	failMarkProcessed bool
	failGetMatch      map[util.UUIDAsBlob]bool
}

func (r *failingRegistry) GetMatch(tx *sqlx.Tx, id util.UUIDAsBlob) (Match, error) {
	if r.failGetMatch[id] {
		return Match{}, errors.New("simulated registry failure")
	}

	return r.MatchRegistry.GetMatch(tx, id)
}

func (r *failingRegistry) MarkProcessed(tx *sqlx.Tx, matchID util.UUIDAsBlob) error {
	if r.failMarkProcessed {
		return errors.New("simulated registry failure")
	}

	return r.MatchRegistry.MarkProcessed(tx, matchID)
}

type testRecorder struct {
	mu       sync.Mutex
	observed []string
	scans    []int
}

func (r *testRecorder) ObserveMatch(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed = append(r.observed, result)
}

func (r *testRecorder) ObserveScan(found int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans = append(r.scans, found)
}

func (r *testRecorder) results() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.observed...)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}

	return true
}
