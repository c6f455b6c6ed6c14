package back

import "scrimrank/internal/util"

// Errors returned by ProcessMatch when a match cannot be rated. None of them
// cause a write, the match can be retried once its data is fixed.
const (
	ErrMatchNotFound     = util.ErrPublic("match not found")
	ErrInvalidMatchState = util.ErrPublic("match is not completed")
	ErrMissingWinner     = util.ErrPublic("match has no declared winner")
)
