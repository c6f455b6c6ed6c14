package back

import (
	"scrimrank/internal/util"

	"github.com/jmoiron/sqlx"
)

// All store operations take the transaction they must run in, the caller owns
// the commit or rollback of that unit of work.

// MatchRegistry gives access to the matches and their participants as
// recorded by the ingestion pipeline.
type MatchRegistry interface {
	GetMatch(tx *sqlx.Tx, id util.UUIDAsBlob) (Match, error)
	GetParticipants(tx *sqlx.Tx, matchID util.UUIDAsBlob) ([]Participant, error)
	MarkProcessed(tx *sqlx.Tx, matchID util.UUIDAsBlob) error

	// GetUnprocessedMatchIDs lists completed matches with a declared winner
	// that were not rated yet, oldest first. A zero limit means no limit.
	GetUnprocessedMatchIDs(tx *sqlx.Tx, limit uint64) ([]util.UUIDAsBlob, error)
}

// RatingStore holds the current PlayerRating of every player in every league.
type RatingStore interface {
	// GetRating returns false if the player has no rating in the league.
	GetRating(tx *sqlx.Tx, playerID util.UUIDAsBlob, league League) (PlayerRating, bool, error)

	// UpsertRating overwrites the rating and adds the increments to the
	// win/loss counters, creating the record if needed.
	UpsertRating(
		tx *sqlx.Tx,
		playerID util.UUIDAsBlob, league League,
		newRating, winIncrement, lossIncrement int,
	) error
}

// HistoryLedger is the append-only log of rating changes.
type HistoryLedger interface {
	AppendHistory(tx *sqlx.Tx, entry PlayerRatingHistory) error
}

// sqlStore implements every store on top of the SQL schema.
type sqlStore struct{}

func (sqlStore) GetMatch(tx *sqlx.Tx, id util.UUIDAsBlob) (Match, error) {
	return getMatchByID(tx, id)
}

func (sqlStore) GetParticipants(tx *sqlx.Tx, matchID util.UUIDAsBlob) ([]Participant, error) {
	return getParticipantsByMatchID(tx, matchID)
}

func (sqlStore) MarkProcessed(tx *sqlx.Tx, matchID util.UUIDAsBlob) error {
	return markMatchRatingProcessed(tx, matchID)
}

func (sqlStore) GetUnprocessedMatchIDs(tx *sqlx.Tx, limit uint64) ([]util.UUIDAsBlob, error) {
	return getUnprocessedMatchIDs(tx, limit)
}

func (sqlStore) GetRating(
	tx *sqlx.Tx, playerID util.UUIDAsBlob, league League,
) (PlayerRating, bool, error) {
	return getPlayerRating(tx, playerID, league)
}

func (sqlStore) UpsertRating(
	tx *sqlx.Tx,
	playerID util.UUIDAsBlob, league League,
	newRating, winIncrement, lossIncrement int,
) error {
	return upsertPlayerRating(tx, playerID, league, newRating, winIncrement, lossIncrement)
}

func (sqlStore) AppendHistory(tx *sqlx.Tx, entry PlayerRatingHistory) error {
	return entry.insert(tx)
}
