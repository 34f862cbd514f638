/* bracket.go
 * Contains the single elimination bracket rules for custom leagues: seat validation, team and match pairing,
 * round advancement, best of three finals and the final standings
 * Authors: Zachary Bower
 */

package logic

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gamehub/api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinSeats       = 4
	MaxSeats       = 64
	PlayersPerTeam = 2
	FinalBestOf    = 3
)

var (
	ErrRoundIncomplete = errors.New("round has undecided matches")
	ErrNotParticipant  = errors.New("team is not a participant of this match")
	ErrMatchDecided    = errors.New("match already decided")
)

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ValidateSeats checks a league size gives a power of two number of teams
// Preconditions: Receives the max seats requested for a league
// Postconditions: Returns nil if maxSeats is a power of two within [MinSeats, MaxSeats], otherwise an error
func ValidateSeats(maxSeats int) error {
	if maxSeats < MinSeats || maxSeats > MaxSeats {
		return fmt.Errorf("maxSeats must be between %d and %d, got %d", MinSeats, MaxSeats, maxSeats)
	}
	if !IsPowerOfTwo(maxSeats) {
		return fmt.Errorf("maxSeats must be a power of two, got %d", maxSeats)
	}
	return nil
}

// StageName names a round by the number of teams still in it
func StageName(teams int) string {
	if teams == 2 {
		return "Final"
	}
	return fmt.Sprintf("%d Teams", teams)
}

// PairPlayers shuffles players and splits them into teams of two
// Preconditions: Receives an even number of players and the random source to shuffle with
// Postconditions: Returns Team documents for league with ids assigned, in draw order. players is not modified
func PairPlayers(league primitive.ObjectID, players []primitive.ObjectID, rng *rand.Rand) ([]store.Team, error) {
	if len(players) == 0 || len(players)%PlayersPerTeam != 0 {
		return nil, fmt.Errorf("cannot pair %d players into teams of %d", len(players), PlayersPerTeam)
	}

	shuffled := make([]primitive.ObjectID, len(players))
	copy(shuffled, players)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	teams := make([]store.Team, 0, len(shuffled)/PlayersPerTeam)
	for i := 0; i < len(shuffled); i += PlayersPerTeam {
		teams = append(teams, store.Team{
			ID:       primitive.NewObjectID(),
			League:   league,
			TeamName: fmt.Sprintf("Team %d", len(teams)+1),
			Players:  []primitive.ObjectID{shuffled[i], shuffled[i+1]},
		})
	}
	return teams, nil
}

// PairMatches builds one round of matches from teams in the given order: 1 v 2, 3 v 4, ...
// Preconditions: Receives a power of two number of teams (at least 2) and the round number
// Postconditions: Returns matches numbered by position from 1. A two team round is a best of three final
func PairMatches(league primitive.ObjectID, round int, teams []primitive.ObjectID) ([]store.Match, error) {
	if len(teams) < 2 || !IsPowerOfTwo(len(teams)) {
		return nil, fmt.Errorf("cannot build a round from %d teams", len(teams))
	}

	stage := StageName(len(teams))
	final := len(teams) == 2
	matches := make([]store.Match, 0, len(teams)/2)
	for i := 0; i < len(teams); i += 2 {
		m := store.Match{
			ID:           primitive.NewObjectID(),
			League:       league,
			Round:        round,
			Stage:        stage,
			Position:     len(matches) + 1,
			Participants: []primitive.ObjectID{teams[i], teams[i+1]},
			BestOf:       1,
			RoundWinners: []store.RoundWinner{},
		}
		if final {
			m.IsFinal = true
			m.BestOf = FinalBestOf
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// RoundComplete reports whether every match of a round has a winner
func RoundComplete(matches []store.Match) bool {
	if len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if !m.Decided() {
			return false
		}
	}
	return true
}

// NextRound pairs the winners of a finished round in position order
// Preconditions: Receives every match of the current round, all decided
// Postconditions: Returns the matches of round+1, or ErrRoundIncomplete
func NextRound(league primitive.ObjectID, current []store.Match) ([]store.Match, error) {
	if !RoundComplete(current) {
		return nil, ErrRoundIncomplete
	}
	if len(current) < 2 {
		return nil, fmt.Errorf("round of %d matches has no next round", len(current))
	}

	ordered := sortedByPosition(current)
	winners := make([]primitive.ObjectID, len(ordered))
	for i, m := range ordered {
		winners[i] = *m.WinnerTeam
	}
	return PairMatches(league, ordered[0].Round+1, winners)
}

func sortedByPosition(matches []store.Match) []store.Match {
	out := make([]store.Match, len(matches))
	copy(out, matches)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Opponent returns the other participant of a match
func Opponent(m *store.Match, team primitive.ObjectID) (primitive.ObjectID, error) {
	if !m.HasParticipant(team) || len(m.Participants) != 2 {
		return primitive.NilObjectID, ErrNotParticipant
	}
	if m.Participants[0] == team {
		return m.Participants[1], nil
	}
	return m.Participants[0], nil
}

// GameOutcome describes the effect of reporting one game of a best of three match
type GameOutcome struct {
	Game    store.RoundWinner
	Decided bool
	Winner  primitive.ObjectID
	Loser   primitive.ObjectID
}

// WinsNeeded is the number of game wins that decide a best of n match
func WinsNeeded(bestOf int) int {
	if bestOf <= 1 {
		return 1
	}
	return bestOf/2 + 1
}

// ApplyGameWin computes the next game record of a multi game match won by winner
// Preconditions: Receives an undecided match and a participating team
// Postconditions: Returns the game to append and, when this game reaches the win threshold, the decided winner and loser
func ApplyGameWin(m *store.Match, winner primitive.ObjectID) (GameOutcome, error) {
	if m.Decided() {
		return GameOutcome{}, ErrMatchDecided
	}
	loser, err := Opponent(m, winner)
	if err != nil {
		return GameOutcome{}, err
	}

	wins := 1
	for _, g := range m.RoundWinners {
		if g.WinnerTeam == winner {
			wins++
		}
	}

	out := GameOutcome{Game: store.RoundWinner{Round: len(m.RoundWinners) + 1, WinnerTeam: winner}}
	if wins >= WinsNeeded(m.BestOf) {
		out.Decided = true
		out.Winner = winner
		out.Loser = loser
	}
	return out, nil
}

// FinalStandings returns the 1st, 2nd and 3rd place teams of a finished league
// Preconditions: Receives the decided final, the decided matches of the round before it (empty for a two team
// league) and the teams keyed by id
// Postconditions: 3rd is the semi-final loser with more total points. A tie goes to the team beaten by the champion
func FinalStandings(final store.Match, semis []store.Match, teams map[primitive.ObjectID]store.Team) ([]primitive.ObjectID, error) {
	if !final.Decided() || final.LoserTeam == nil {
		return nil, errors.New("final is not decided")
	}
	champion := *final.WinnerTeam
	standings := []primitive.ObjectID{champion, *final.LoserTeam}
	if len(semis) == 0 {
		return standings, nil
	}

	var third *primitive.ObjectID
	var thirdBeatenByChampion bool
	for _, m := range semis {
		if !m.Decided() || m.LoserTeam == nil {
			return nil, ErrRoundIncomplete
		}
		candidate := *m.LoserTeam
		beatenByChampion := *m.WinnerTeam == champion
		if third == nil {
			third, thirdBeatenByChampion = &candidate, beatenByChampion
			continue
		}
		cur, next := teams[*third].TotalPoints, teams[candidate].TotalPoints
		if next > cur || (next == cur && beatenByChampion && !thirdBeatenByChampion) {
			third, thirdBeatenByChampion = &candidate, beatenByChampion
		}
	}
	return append(standings, *third), nil
}
