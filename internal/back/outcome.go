package back

import "fmt"

// Outcome is the successful result of ProcessMatch.
type Outcome int

const (
	OutcomeProcessed Outcome = iota + 1
	OutcomeAlreadyProcessed
	OutcomeSkippedIncompleteTeams
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeAlreadyProcessed:
		return "already_processed"
	case OutcomeSkippedIncompleteTeams:
		return "skipped_incomplete_teams"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
