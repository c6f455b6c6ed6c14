package back

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"scrimrank/internal/util"
	"time"

	"github.com/jmoiron/sqlx"
)

// ProcessMatch rates every participant of a completed match exactly once.
// All writes happen in a single transaction: either every rating, every
// history entry and the match processed flag are committed together, or
// nothing is. It is safe to call concurrently and repeatedly for the same
// match, calls after the first successful one return OutcomeAlreadyProcessed.
func (b *Back) ProcessMatch(ctx context.Context, matchID util.UUIDAsBlob) (Outcome, error) {
	start := time.Now()

	var outcome Outcome
	err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		outcome, err = b.processMatchTx(tx, matchID)
		if err != nil {
			return err
		}

		// Only a rated match has anything worth committing.
		if outcome != OutcomeProcessed {
			return util.ErrRollback
		}

		return nil
	})

	b.report(matchID, outcome, err, time.Since(start))
	if err != nil {
		return 0, err
	}

	return outcome, nil
}

func (b *Back) processMatchTx(tx *sqlx.Tx, matchID util.UUIDAsBlob) (Outcome, error) {
	match, err := b.matches.GetMatch(tx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		return 0, fmt.Errorf("unable to fetch match: %w", err)
	}

	if match.Status != MatchStatusCompleted {
		return 0, fmt.Errorf("%w: %s is %s", ErrInvalidMatchState, matchID, match.Status)
	}

	if match.RatingProcessed {
		return OutcomeAlreadyProcessed, nil
	}

	winner, ok := match.Winner()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingWinner, matchID)
	}

	participants, err := b.matches.GetParticipants(tx, matchID)
	if err != nil {
		return 0, fmt.Errorf("unable to fetch participants: %w", err)
	}

	t := partitionTeams(participants)
	if !t.complete() {
		log.Printf(
			"warning: skipping match %s, incomplete teams (A: %d, B: %d, unassigned: %d)",
			matchID, len(t.a), len(t.b), len(t.unassigned),
		)
		return OutcomeSkippedIncompleteTeams, nil
	}

	for _, p := range t.unassigned {
		log.Printf("warning: player %s has no team in match %s and won't be rated", p.PlayerID, matchID)
	}

	before, err := b.getPreMatchRatings(tx, match.League, t)
	if err != nil {
		return 0, err
	}

	for _, change := range computeRatingChanges(t, before, winner) {
		if err := b.applyRatingChange(tx, match, change); err != nil {
			return 0, err
		}
	}

	if err := b.matches.MarkProcessed(tx, matchID); err != nil {
		return 0, fmt.Errorf("unable to mark match as processed: %w", err)
	}

	return OutcomeProcessed, nil
}

// getPreMatchRatings reads the rating of every player in both teams before
// anything is written, players without a rating start at DefaultRating.
func (b *Back) getPreMatchRatings(
	tx *sqlx.Tx, league League, t teams,
) (map[util.UUIDAsBlob]int, error) {
	ret := make(map[util.UUIDAsBlob]int, len(t.a)+len(t.b))
	for _, team := range [][]Participant{t.a, t.b} {
		for _, p := range team {
			rating, ok, err := b.ratings.GetRating(tx, p.PlayerID, league)
			if err != nil {
				return nil, fmt.Errorf("unable to fetch rating: %w", err)
			}
			if !ok {
				rating = NewPlayerRating(p.PlayerID, league)
			}

			ret[p.PlayerID] = rating.Rating
		}
	}

	return ret, nil
}

func (b *Back) applyRatingChange(tx *sqlx.Tx, match Match, change ratingChange) error {
	wins, losses := 0, 1
	if change.Won {
		wins, losses = 1, 0
	}

	if err := b.ratings.UpsertRating(
		tx, change.PlayerID, match.League,
		change.After, wins, losses,
	); err != nil {
		return fmt.Errorf("unable to update rating: %w", err)
	}

	entry := NewPlayerRatingHistory(match.ID, change.PlayerID, match.League, change.Before, change.After)
	if err := b.ledger.AppendHistory(tx, entry); err != nil {
		return fmt.Errorf("unable to insert rating history: %w", err)
	}

	return nil
}

func (b *Back) report(matchID util.UUIDAsBlob, outcome Outcome, err error, d time.Duration) {
	if err != nil {
		reason := failureReason(err)
		log.Printf("error: unable to process match %s (%s): %s", matchID, reason, err)
		b.recorder.ObserveMatch(reason, d)
		return
	}

	switch outcome {
	case OutcomeProcessed:
		log.Printf("info: processed ratings of match %s in %s", matchID, d)
	case OutcomeAlreadyProcessed:
		log.Printf("debug: match %s was already processed", matchID)
	}

	b.recorder.ObserveMatch(outcome.String(), d)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrMatchNotFound):
		return "match_not_found"
	case errors.Is(err, ErrInvalidMatchState):
		return "invalid_match_state"
	case errors.Is(err, ErrMissingWinner):
		return "missing_winner"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "store_error"
	}
}
