/* rankings.go
 * Contains the rank ordering used by the ranking jobs and queries, period boundaries and player levels
 * Authors: Zachary Bower
 */

package logic

import (
	"fmt"
	"sort"
	"time"

	"gamehub/api/shared"
	"gamehub/api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Level thresholds on lifetime game points
var levels = []struct {
	name  string
	num   int
	below int
}{
	{"beginner", 1, 500},
	{"intermediate", 2, 2000},
	{"advanced", 3, 5000},
	{"expert", 4, 0},
}

// LevelFor returns the level name and number for a lifetime points total
func LevelFor(totalPoints int) (string, int) {
	for _, l := range levels {
		if l.below == 0 || totalPoints < l.below {
			return l.name, l.num
		}
	}
	last := levels[len(levels)-1]
	return last.name, last.num
}

// Scored is one entry of an ordering
type Scored struct {
	ID       primitive.ObjectID
	Username string
	Points   int
}

// Order sorts entries by points descending then username ascending and returns them with positions from 1
func Order(entries []Scored) []Scored {
	out := make([]Scored, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Username < out[j].Username
	})
	return out
}

func positions(entries []Scored) map[primitive.ObjectID]int {
	ranked := Order(entries)
	pos := make(map[primitive.ObjectID]int, len(ranked))
	for i, e := range ranked {
		pos[e.ID] = i + 1
	}
	return pos
}

func scoreBy(users []store.User, points func(u *store.User) int) []Scored {
	out := make([]Scored, 0, len(users))
	for i := range users {
		out = append(out, Scored{ID: users[i].ID, Username: users[i].Username, Points: points(&users[i])})
	}
	return out
}

func WeekPoints(u *store.User) int { return u.GamePoints.CurrentWeek }
func MonthPoints(u *store.User) int { return u.GamePoints.CurrentMonth }
func TotalPoints(u *store.User) int { return u.Level.TotalGamePoints }

// ComputeRanks assigns week, month and overall ranks to every user, and monthly ranks within each ranked league
// Preconditions: Receives every user
// Postconditions: Returns one RankUpdate per user. Users without a ranked league get no league ranks
func ComputeRanks(users []store.User) []store.RankUpdate {
	week := positions(scoreBy(users, WeekPoints))
	month := positions(scoreBy(users, MonthPoints))
	total := positions(scoreBy(users, TotalPoints))

	byLeague := make(map[primitive.ObjectID][]store.User)
	for _, u := range users {
		if u.League != nil && !u.League.ID.IsZero() {
			byLeague[u.League.ID] = append(byLeague[u.League.ID], u)
		}
	}
	leagueCurrent := make(map[primitive.ObjectID]int)
	leagueLast := make(map[primitive.ObjectID]int)
	for _, members := range byLeague {
		for id, p := range positions(scoreBy(members, func(u *store.User) int { return u.League.CurrentMonthPoints })) {
			leagueCurrent[id] = p
		}
		for id, p := range positions(scoreBy(members, func(u *store.User) int { return u.League.LastMonthPoints })) {
			leagueLast[id] = p
		}
	}

	updates := make([]store.RankUpdate, 0, len(users))
	for _, u := range users {
		up := store.RankUpdate{
			User:      u.ID,
			WeekRank:  week[u.ID],
			MonthRank: month[u.ID],
			TotalRank: total[u.ID],
		}
		if p, ok := leagueCurrent[u.ID]; ok {
			up.HasLeagueRanking = true
			up.LeagueMonthRank = p
			up.LeagueLastMonth = leagueLast[u.ID]
		}
		updates = append(updates, up)
	}
	return updates
}

// Snapshots builds one Ranking per user for a closed period, positioned by the same ordering as ComputeRanks
// Preconditions: Receives every user, the period, its bounds and a function reading the points to snapshot
// Postconditions: Returns the snapshots ordered by position
func Snapshots(users []store.User, period shared.Period, start, end time.Time, points func(u *store.User) int) []store.Ranking {
	ranked := Order(scoreBy(users, points))
	out := make([]store.Ranking, 0, len(ranked))
	for i, e := range ranked {
		out = append(out, store.Ranking{
			User:        e.ID,
			Points:      e.Points,
			Period:      period,
			PeriodStart: start,
			PeriodEnd:   end,
			Position:    i + 1,
		})
	}
	return out
}

// LeagueSnapshots builds the monthly snapshots of each ranked league from the league points of its members
func LeagueSnapshots(users []store.User, start, end time.Time) []store.Ranking {
	byLeague := make(map[primitive.ObjectID][]store.User)
	var order []primitive.ObjectID
	for _, u := range users {
		if u.League == nil || u.League.ID.IsZero() {
			continue
		}
		if _, seen := byLeague[u.League.ID]; !seen {
			order = append(order, u.League.ID)
		}
		byLeague[u.League.ID] = append(byLeague[u.League.ID], u)
	}

	var out []store.Ranking
	for _, id := range order {
		leagueID := id
		rows := Snapshots(byLeague[id], shared.PeriodMonth, start, end, func(u *store.User) int { return u.League.CurrentMonthPoints })
		for i := range rows {
			rows[i].League = &leagueID
		}
		out = append(out, rows...)
	}
	return out
}

// region Period boundaries

// StartOfWeek returns the most recent Sunday 00:00 UTC at or before t
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func StartOfYear(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// StartOfPeriod returns the start of the week, month or year containing t
func StartOfPeriod(period shared.Period, t time.Time) (time.Time, error) {
	switch period {
	case shared.PeriodWeek:
		return StartOfWeek(t), nil
	case shared.PeriodMonth:
		return StartOfMonth(t), nil
	case shared.PeriodYear:
		return StartOfYear(t), nil
	}
	return time.Time{}, fmt.Errorf("invalid period %q", period)
}

// PreviousWeek returns the bounds of the last full week before t
func PreviousWeek(t time.Time) (time.Time, time.Time) {
	end := StartOfWeek(t)
	return end.AddDate(0, 0, -7), end
}

// MonthBounds returns the bounds of the month containing t shifted by offset months
func MonthBounds(t time.Time, offset int) (time.Time, time.Time) {
	start := StartOfMonth(t).AddDate(0, offset, 0)
	return start, start.AddDate(0, 1, 0)
}

// endregion
