package scoring

import (
	"fmt"

	"github.com/matchpoint-club/matchpoint/internal/apperror"
)

// NewScore returns the opening state: first set, love all, server to serve.
func NewScore(server Side) *Score {
	if !server.Valid() {
		server = SideTeam1
	}
	return &Score{
		Sets:   []SetScore{{}},
		Server: server,
	}
}

// RecordPoint applies a single won point and advances the nested
// point -> game -> set -> match state. It is a pure deterministic transition:
// an invalid call returns an error without mutating the state.
func (sc *Score) RecordPoint(f Format, winner Side) error {
	if !winner.Valid() {
		return apperror.Wrap(apperror.ErrInvalidInput, "unknown side %q", winner)
	}
	if sc.Winner != "" {
		return apperror.Wrap(apperror.ErrMatchAlreadyComplete, "match already won by %s", sc.Winner)
	}

	if sc.InTiebreak {
		sc.recordTiebreakPoint(f, winner)
	} else {
		sc.recordGamePoint(f, winner)
	}
	return nil
}

func (sc *Score) recordGamePoint(f Format, winner Side) {
	if winner == SideTeam1 {
		sc.Game.Team1++
	} else {
		sc.Game.Team2++
	}

	w, l := sc.Game.Team1, sc.Game.Team2
	if winner == SideTeam2 {
		w, l = l, w
	}
	// Game is won at four or more points with a two-point lead; deuce and
	// advantage fall out of the same rule.
	if w >= 4 && w-l >= 2 {
		sc.winGame(f, winner)
	}
}

func (sc *Score) recordTiebreakPoint(f Format, winner Side) {
	if winner == SideTeam1 {
		sc.Game.Team1++
	} else {
		sc.Game.Team2++
	}

	w, l := sc.Game.Team1, sc.Game.Team2
	if winner == SideTeam2 {
		w, l = l, w
	}
	// First to seven with a two-point lead; play continues past seven when
	// level.
	if w >= 7 && w-l >= 2 {
		cur := sc.currentSet()
		cur.Tiebreak = &TiebreakScore{Team1: sc.Game.Team1, Team2: sc.Game.Team2}
		if winner == SideTeam1 {
			cur.Team1Games++
		} else {
			cur.Team2Games++
		}
		sc.winSet(f, winner)
	}
}

// winGame books the game, rotates service, and checks set and tie-break
// boundaries.
func (sc *Score) winGame(f Format, winner Side) {
	cur := sc.currentSet()
	if winner == SideTeam1 {
		cur.Team1Games++
	} else {
		cur.Team2Games++
	}
	sc.Game = GameScore{}
	sc.Server = sc.Server.Opponent()

	g1, g2 := cur.Team1Games, cur.Team2Games
	w, l := g1, g2
	if winner == SideTeam2 {
		w, l = l, w
	}

	switch {
	case w >= 6 && w-l >= 2:
		// Covers 6-0 .. 6-4, 7-5, and any two-game lead in an advantage set.
		sc.winSet(f, winner)
	case g1 == 6 && g2 == 6 && sc.tiebreakAt66(f):
		sc.InTiebreak = true
	}
}

// tiebreakAt66 decides whether 6-6 goes to a tie-break: always in standard
// sets, and in the deciding set only when the format says so.
func (sc *Score) tiebreakAt66(f Format) bool {
	if len(sc.Sets) < f.BestOf {
		return true
	}
	return f.FinalSet == FinalSetTiebreak
}

// winSet books the set and either concludes the match or opens the next set.
func (sc *Score) winSet(f Format, winner Side) {
	cur := sc.currentSet()
	cur.Winner = winner
	sc.Game = GameScore{}
	sc.InTiebreak = false

	won := 0
	for _, set := range sc.Sets {
		if set.Winner == winner {
			won++
		}
	}
	if won >= f.SetsToWin() {
		sc.Winner = winner
		return
	}
	sc.Sets = append(sc.Sets, SetScore{})
}

func (sc *Score) currentSet() *SetScore {
	return &sc.Sets[len(sc.Sets)-1]
}

// GameDisplay renders the current game in tennis terms: "0"/"15"/"30"/"40",
// "40"-"40" at deuce, "Ad" for the side holding advantage. Tie-break games
// display numerically.
func (sc *Score) GameDisplay() (team1, team2 string) {
	if sc.InTiebreak {
		return fmt.Sprintf("%d", sc.Game.Team1), fmt.Sprintf("%d", sc.Game.Team2)
	}
	p1, p2 := sc.Game.Team1, sc.Game.Team2
	if p1 >= 3 && p2 >= 3 {
		switch {
		case p1 == p2:
			return "40", "40"
		case p1 > p2:
			return "Ad", "40"
		default:
			return "40", "Ad"
		}
	}
	return pointName(p1), pointName(p2)
}

func pointName(points int) string {
	switch points {
	case 0:
		return "0"
	case 1:
		return "15"
	case 2:
		return "30"
	default:
		return "40"
	}
}

// ScoreLine renders completed sets the way a draw sheet would:
// "6-4 7-6(4)". The in-progress set is included as it stands.
func (sc *Score) ScoreLine() string {
	line := ""
	for i, set := range sc.Sets {
		if set.Winner == "" && set.Team1Games == 0 && set.Team2Games == 0 && sc.Winner != "" {
			continue
		}
		if i > 0 && line != "" {
			line += " "
		}
		line += fmt.Sprintf("%d-%d", set.Team1Games, set.Team2Games)
		if set.Tiebreak != nil {
			loser := set.Tiebreak.Team2
			if set.Tiebreak.Team2 > set.Tiebreak.Team1 {
				loser = set.Tiebreak.Team1
			}
			line += fmt.Sprintf("(%d)", loser)
		}
	}
	return line
}
