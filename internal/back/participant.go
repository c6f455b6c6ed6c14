package back

import (
	"fmt"
	"scrimrank/internal/util"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// TeamSlot is one of the two sides of a Match.
type TeamSlot int

const ( // this is stored in DB, don't change values
	TeamA TeamSlot = 1
	TeamB TeamSlot = 2
)

func (t TeamSlot) IsValid() bool {
	return t == TeamA || t == TeamB
}

func (t TeamSlot) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return fmt.Sprintf("TeamSlot(%d)", int(t))
	}
}

// A Participant is a Player that took part in a Match. The ingestion pipeline
// may not have assigned them a team yet.
type Participant struct {
	MatchID   util.UUIDAsBlob
	PlayerID  util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	Team      null.Int
}

func NewParticipant(matchID, playerID util.UUIDAsBlob, team TeamSlot) Participant {
	p := Participant{
		MatchID:   matchID,
		PlayerID:  playerID,
		CreatedAt: util.TimeAsTimestamp(time.Now()),
	}
	if team != 0 {
		p.Team = null.IntFrom(int64(team))
	}

	return p
}

// TeamSlot returns the team the participant played in, if known.
func (p *Participant) TeamSlot() (TeamSlot, bool) {
	if !p.Team.Valid {
		return 0, false
	}

	return TeamSlot(p.Team.Int64), true
}

func (p *Participant) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("MatchParticipant").SetMap(squirrel.Eq{
		"MatchID":   p.MatchID,
		"PlayerID":  p.PlayerID,
		"CreatedAt": p.CreatedAt,
		"Team":      p.Team,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (p *Participant) update(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("MatchParticipant").SetMap(squirrel.Eq{
		"Team": p.Team,
	}).Where(squirrel.Eq{
		"MatchParticipant.MatchID":  p.MatchID,
		"MatchParticipant.PlayerID": p.PlayerID,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getParticipantsByMatchID(tx *sqlx.Tx, matchID util.UUIDAsBlob) ([]Participant, error) {
	var ret []Participant
	query := `SELECT * FROM MatchParticipant WHERE MatchParticipant.MatchID = ? ORDER BY CreatedAt ASC`
	if err := tx.Select(&ret, query, matchID); err != nil {
		return nil, err
	}

	for k := range ret {
		if slot, ok := ret[k].TeamSlot(); ok && !slot.IsValid() {
			return nil, fmt.Errorf(
				"participant %s of match %s has an invalid team %d",
				ret[k].PlayerID, matchID, slot,
			)
		}
	}

	return ret, nil
}

// teams is the partition of a Match participants by TeamSlot.
type teams struct {
	a, b       []Participant
	unassigned []Participant
}

func partitionTeams(participants []Participant) teams {
	var ret teams
	for _, p := range participants {
		slot, ok := p.TeamSlot()
		switch {
		case !ok:
			ret.unassigned = append(ret.unassigned, p)
		case slot == TeamA:
			ret.a = append(ret.a, p)
		case slot == TeamB:
			ret.b = append(ret.b, p)
		}
	}

	return ret
}

func (t teams) complete() bool {
	return len(t.a) > 0 && len(t.b) > 0
}

func (t teams) of(slot TeamSlot) []Participant {
	if slot == TeamA {
		return t.a
	}

	return t.b
}
