package back

import (
	"math"
	"scrimrank/internal/util"
)

const (
	// EloKFactor is the maximum rating swing of a single match.
	EloKFactor = 32
	// eloScale is the rating gap at which the stronger side is expected to
	// win ten times out of eleven.
	eloScale = 400
)

// eloExpected is the expected score of a player rated r against an opponent
// rated against.
func eloExpected(r, against float64) float64 {
	return 1 / (1 + math.Pow(10, (against-r)/eloScale))
}

// eloRate returns the rating of a player after a match against an opponent
// rated against, score is 1 for a win and 0 for a loss.
func eloRate(r int, against float64, score float64) int {
	return int(math.Round(float64(r) + EloKFactor*(score-eloExpected(float64(r), against))))
}

// ratingChange is the computed outcome of a Match for one participant.
type ratingChange struct {
	PlayerID util.UUIDAsBlob
	Team     TeamSlot
	Won      bool
	Before   int
	After    int
}

// computeRatingChanges rates every player of both teams against the average
// pre-match rating of the opposing team. before must hold the pre-match rating
// of every player in t.
func computeRatingChanges(
	t teams, before map[util.UUIDAsBlob]int, winner TeamSlot,
) []ratingChange {
	avg := map[TeamSlot]float64{
		TeamA: teamAverage(t.a, before),
		TeamB: teamAverage(t.b, before),
	}

	ret := make([]ratingChange, 0, len(t.a)+len(t.b))
	for _, slot := range []TeamSlot{TeamA, TeamB} {
		against := avg[opponentOf(slot)]
		won := slot == winner
		score := 0.0
		if won {
			score = 1.0
		}

		for _, p := range t.of(slot) {
			r := before[p.PlayerID]
			ret = append(ret, ratingChange{
				PlayerID: p.PlayerID,
				Team:     slot,
				Won:      won,
				Before:   r,
				After:    eloRate(r, against, score),
			})
		}
	}

	return ret
}

func teamAverage(team []Participant, ratings map[util.UUIDAsBlob]int) float64 {
	if len(team) == 0 {
		return 0
	}

	var sum int
	for _, p := range team {
		sum += ratings[p.PlayerID]
	}

	return float64(sum) / float64(len(team))
}

func opponentOf(slot TeamSlot) TeamSlot {
	if slot == TeamA {
		return TeamB
	}

	return TeamA
}
