/* leagues.go
 * Contains the custom league operations: registration, bracket generation, match reporting with round advancement
 * and the league chat
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gamehub/api/apperr"
	"gamehub/api/auth"
	"gamehub/api/logic"
	"gamehub/api/shared"
	"gamehub/api/store"
	"gamehub/metrics"
	"gamehub/obslog"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var defaultTopThree = [3]int{100, 50, 25}

// region Registration

// CreateCustomLeague creates a league in the coming state with its chat
// Preconditions: Receives the league input. maxSeats must be a power of two in [4, 64]
// Postconditions: Returns the stored league. A private league password is stored hashed
func (a *API) CreateCustomLeague(ctx context.Context, input CustomLeagueInput) (*store.CustomLeague, error) {
	id, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := a.validateInput(input); err != nil {
		return nil, err
	}
	if err := logic.ValidateSeats(input.MaxSeats); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	league := &store.CustomLeague{
		Name:              input.Name,
		CreatedBy:         uid,
		CreatedByAdmin:    id.IsAdmin,
		IsPrivate:         input.IsPrivate,
		MaxSeats:          input.MaxSeats,
		PointsForWin:      input.PointsForWin,
		PointsForTopThree: defaultTopThree,
		PlaySpeed:         input.PlaySpeed,
		PlayType:          input.PlayType,
		LevelName:         input.LevelName,
		RoomBackground:    input.RoomBackground,
		Status:            shared.LeagueComing,
	}
	if len(input.PointsForTopThree) == 3 {
		copy(league.PointsForTopThree[:], input.PointsForTopThree)
	}
	if input.IsPrivate {
		if input.Password == "" {
			return nil, apperr.BadRequest("A private league requires a password")
		}
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		league.Password = hash
	}

	chat := &store.Chat{Name: league.Name, IsGroup: true, Users: []primitive.ObjectID{uid}}
	if err := a.Store.CreateChat(ctx, chat); err != nil {
		return nil, apperr.Internal(err)
	}
	league.Chat = chat.ID

	if err := a.Store.CreateCustomLeague(ctx, league); err != nil {
		return nil, apperr.Internal(err)
	}
	a.emit(ctx, shared.EventLeagueCreated, map[string]interface{}{"leagueId": league.ID.Hex(), "name": league.Name, "maxSeats": league.MaxSeats})
	return league, nil
}

// JoinLeague registers the caller as a player
// Preconditions: The league is coming and not full. A private league needs the right password
// Postconditions: Returns the updated league. The caller is a member of the league chat
func (a *API) JoinLeague(ctx context.Context, leagueID, password string) (*store.CustomLeague, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	league, err := a.loadLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if league.Status != shared.LeagueComing {
		return nil, apperr.BadRequest("League is not open for registration")
	}
	if league.IsPrivate && !auth.CheckPassword(league.Password, password) {
		return nil, apperr.Forbidden("Incorrect league password")
	}
	if league.IsPlayer(uid) {
		return nil, apperr.Conflict("You are already registered in this league")
	}
	if len(league.RegisteredPlayers) >= league.MaxSeats {
		return nil, apperr.Conflict("League is full")
	}

	if err := a.Store.AddLeaguePlayer(ctx, league.ID, uid, league.MaxSeats); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("League is full or registration has closed")
		}
		return nil, storeErr(err, "League not found")
	}
	a.joinLeagueChat(ctx, league, uid)
	return a.reloadLeague(ctx, league.ID)
}

// LeaveLeague removes the caller from a league that has not started
func (a *API) LeaveLeague(ctx context.Context, leagueID string) (*store.CustomLeague, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	league, err := a.loadLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if league.Status != shared.LeagueComing {
		return nil, apperr.BadRequest("You cannot leave a league once it has started")
	}
	if !league.IsPlayer(uid) {
		return nil, apperr.BadRequest("You are not registered in this league")
	}
	if err := a.Store.RemoveLeaguePlayer(ctx, league.ID, uid); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("League has already started")
		}
		return nil, storeErr(err, "League not found")
	}
	return a.reloadLeague(ctx, league.ID)
}

// AddSpectatorToLeague adds a user who is not a player to the league spectators and its chat
func (a *API) AddSpectatorToLeague(ctx context.Context, leagueID, userID string) (*store.CustomLeague, error) {
	if _, _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	league, err := a.loadLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	target, err := parseID(userID, "user id")
	if err != nil {
		return nil, err
	}
	if _, err := a.Store.GetUserByID(ctx, target); err != nil {
		return nil, storeErr(err, "User not found")
	}
	if league.IsSpectator(target) {
		return nil, apperr.Conflict("User is already a spectator of this league")
	}
	if league.IsPlayer(target) {
		return nil, apperr.BadRequest("A registered player cannot be a spectator")
	}

	if err := a.Store.AddLeagueSpectator(ctx, league.ID, target); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("User is already in this league")
		}
		return nil, storeErr(err, "League not found")
	}
	a.joinLeagueChat(ctx, league, target)
	return a.reloadLeague(ctx, league.ID)
}

func (a *API) joinLeagueChat(ctx context.Context, league *store.CustomLeague, user primitive.ObjectID) {
	if league.Chat.IsZero() {
		return
	}
	if err := a.Store.AddChatMember(ctx, league.Chat, user); err != nil {
		obslog.L().Warn("failed to add league chat member", zap.String("league", league.ID.Hex()), zap.Error(err))
	}
}

// endregion

// region Bracket

// GenerateMatches draws the teams and the first round of a full league and starts it
// Preconditions: The caller created the league or is an admin. The league is coming and full
// Postconditions: Returns the active league with its teams and round 1 matches
func (a *API) GenerateMatches(ctx context.Context, leagueID string) (*store.CustomLeague, error) {
	id, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	league, err := a.loadLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if league.CreatedBy != uid && !id.IsAdmin {
		return nil, apperr.Forbidden("Only the league creator or an admin can generate matches")
	}
	if league.Status != shared.LeagueComing {
		return nil, apperr.Conflict("Matches have already been generated for this league")
	}
	if len(league.RegisteredPlayers) != league.MaxSeats {
		return nil, apperr.BadRequest(fmt.Sprintf("League is not full: %d of %d seats taken", len(league.RegisteredPlayers), league.MaxSeats))
	}

	rng, unlock := a.shuffleRand()
	teams, err := logic.PairPlayers(league.ID, league.RegisteredPlayers, rng)
	unlock()
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}
	teamIDs := make([]primitive.ObjectID, len(teams))
	for i := range teams {
		teamIDs[i] = teams[i].ID
	}
	matches, err := logic.PairMatches(league.ID, 1, teamIDs)
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	// the status transition decides which caller writes the bracket
	err = a.Store.WithTransaction(ctx, func(tx context.Context) error {
		if err := a.Store.StartLeague(tx, league.ID, teamIDs, matchIDs(matches)); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return apperr.Conflict("Matches have already been generated for this league")
			}
			return storeErr(err, "League not found")
		}
		if err := a.Store.CreateTeams(tx, teams); err != nil {
			return apperr.Internal(err)
		}
		if err := a.Store.CreateMatches(tx, matches); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LeaguesStarted.Inc()
	a.emit(ctx, shared.EventLeagueStarted, map[string]interface{}{"leagueId": league.ID.Hex(), "teams": len(teams)})
	a.announce(fmt.Sprintf("League %s has started with %d teams", league.Name, len(teams)))
	return a.reloadLeague(ctx, league.ID)
}

// ReportMatchResult records the winner of a match, or of one game of the final, and moves the bracket on
// Preconditions: The caller created the league, is an admin or plays in the match. winningTeamID is a participant
// Postconditions: Returns the updated match. When the report completes a round the next round exists, and when it
// decides the final the league is ended with its ranking
func (a *API) ReportMatchResult(ctx context.Context, matchID, winningTeamID string) (*MatchReport, error) {
	id, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	mid, err := parseID(matchID, "match id")
	if err != nil {
		return nil, err
	}
	winner, err := parseID(winningTeamID, "team id")
	if err != nil {
		return nil, err
	}
	match, err := a.Store.GetMatch(ctx, mid)
	if err != nil {
		return nil, storeErr(err, "Match not found")
	}
	league, err := a.Store.GetCustomLeague(ctx, match.League)
	if err != nil {
		return nil, storeErr(err, "League not found")
	}
	if league.Status != shared.LeagueActive {
		return nil, apperr.BadRequest("League is not active")
	}

	teams, err := a.Store.GetTeamsByIDs(ctx, match.Participants)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if league.CreatedBy != uid && !id.IsAdmin && !playsIn(teams, uid) {
		return nil, apperr.Forbidden("Only the league creator, an admin or a player in this match can report its result")
	}
	if _, err := logic.Opponent(match, winner); err != nil {
		return nil, apperr.BadRequest("Winning team is not a participant of this match")
	}

	var out *reportOutcome
	err = a.Store.WithTransaction(ctx, func(tx context.Context) error {
		var err error
		out, err = a.applyReport(tx, league, teams, mid, winner)
		return err
	})
	if err != nil {
		if apperr.CodeOf(err) == http.StatusConflict {
			metrics.MatchesReported.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	if out.decided {
		metrics.MatchesReported.WithLabelValues("decided").Inc()
	} else {
		metrics.MatchesReported.WithLabelValues("game").Inc()
	}
	if out.podium != nil {
		a.leagueEnded(ctx, league, out.podium)
	}
	report := &out.report
	report.Match, err = a.Store.GetMatch(ctx, mid)
	if err != nil {
		return nil, storeErr(err, "Match not found")
	}
	a.emit(ctx, shared.EventLeagueMatchReported, map[string]interface{}{
		"leagueId": league.ID.Hex(),
		"matchId":  mid.Hex(),
		"winner":   winner.Hex(),
		"decided":  out.decided,
	})
	return report, nil
}

type reportOutcome struct {
	report  MatchReport
	decided bool
	podium  *leaguePodium
}

// applyReport writes one report: the game or match result, the team records and payouts, then the next round or
// the end of the league
func (a *API) applyReport(ctx context.Context, league *store.CustomLeague, teams []store.Team, matchID, winner primitive.ObjectID) (*reportOutcome, error) {
	// reports on one league serialize on the league document, so the round check below sees every decided match
	if err := a.Store.TouchCustomLeague(ctx, league.ID); err != nil {
		return nil, storeErr(err, "League not found")
	}
	match, err := a.Store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, storeErr(err, "Match not found")
	}
	if match.Decided() {
		return nil, apperr.Conflict("Match has already been decided")
	}
	loser, err := logic.Opponent(match, winner)
	if err != nil {
		return nil, apperr.BadRequest("Winning team is not a participant of this match")
	}

	out := &reportOutcome{}
	if match.BestOf > 1 {
		outcome, err := logic.ApplyGameWin(match, winner)
		if err != nil {
			return nil, apperr.Conflict(err.Error())
		}
		if err := a.Store.AppendGameWinner(ctx, match.ID, len(match.RoundWinners), outcome.Game); err != nil {
			return nil, reportConflict(err)
		}
		if !outcome.Decided {
			return out, nil
		}
	}
	if err := a.Store.RecordMatchWinner(ctx, match.ID, winner, loser); err != nil {
		return nil, reportConflict(err)
	}
	out.decided = true

	if err := a.settleMatch(ctx, league, teams, winner, loser); err != nil {
		return nil, err
	}
	if match.IsFinal {
		if out.podium, err = a.finishLeague(ctx, league, match.ID); err != nil {
			return nil, err
		}
		out.report.LeagueEnded = true
		return out, nil
	}
	if out.report.RoundAdded, err = a.advanceRound(ctx, league, match.Round); err != nil {
		return nil, err
	}
	return out, nil
}

func reportConflict(err error) error {
	if errors.Is(err, store.ErrConflict) {
		return apperr.Conflict("Match has already been decided")
	}
	return storeErr(err, "Match not found")
}

// settleMatch updates the team records and pays the winning players
func (a *API) settleMatch(ctx context.Context, league *store.CustomLeague, teams []store.Team, winner, loser primitive.ObjectID) error {
	if err := a.Store.RecordTeamResult(ctx, winner, true, league.PointsForWin); err != nil {
		return storeErr(err, "Team not found")
	}
	if err := a.Store.RecordTeamResult(ctx, loser, false, 0); err != nil {
		return storeErr(err, "Team not found")
	}
	for _, t := range teams {
		if t.ID == winner {
			return a.awardPlayers(ctx, t.Players, league.PointsForWin)
		}
	}
	return nil
}

// advanceRound creates the next round once every match of round is decided. Only the caller that moves the
// league's current round writes the new matches
func (a *API) advanceRound(ctx context.Context, league *store.CustomLeague, round int) (bool, error) {
	current, err := a.Store.ListMatchesByRound(ctx, league.ID, round)
	if err != nil {
		return false, apperr.Internal(err)
	}
	if !logic.RoundComplete(current) {
		return false, nil
	}
	next, err := logic.NextRound(league.ID, current)
	if err != nil {
		return false, apperr.Internal(err)
	}

	if err := a.Store.AdvanceLeagueRound(ctx, league.ID, round, matchIDs(next)); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return false, nil
		}
		return false, storeErr(err, "League not found")
	}
	if err := a.Store.CreateMatches(ctx, next); err != nil {
		return false, apperr.Internal(err)
	}
	return true, nil
}

// leaguePodium is the outcome of a finished league, announced once its transaction commits
type leaguePodium struct {
	ranking  []primitive.ObjectID
	champion string
}

// finishLeague ranks the top three teams of a league whose final was just decided, ends it and pays the podium
func (a *API) finishLeague(ctx context.Context, league *store.CustomLeague, finalID primitive.ObjectID) (*leaguePodium, error) {
	final, err := a.Store.GetMatch(ctx, finalID)
	if err != nil {
		return nil, storeErr(err, "Match not found")
	}
	var semis []store.Match
	if final.Round > 1 {
		if semis, err = a.Store.ListMatchesByRound(ctx, league.ID, final.Round-1); err != nil {
			return nil, apperr.Internal(err)
		}
	}
	teamList, err := a.Store.ListTeamsByLeague(ctx, league.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	teams := make(map[primitive.ObjectID]store.Team, len(teamList))
	for _, t := range teamList {
		teams[t.ID] = t
	}

	ranking, err := logic.FinalStandings(*final, semis, teams)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := a.Store.EndLeague(ctx, league.ID, ranking); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("League has already ended")
		}
		return nil, storeErr(err, "League not found")
	}

	for i, teamID := range ranking {
		if err := a.awardPlayers(ctx, teams[teamID].Players, league.PointsForTopThree[i]); err != nil {
			return nil, err
		}
	}
	return &leaguePodium{ranking: ranking, champion: teams[ranking[0]].TeamName}, nil
}

func (a *API) leagueEnded(ctx context.Context, league *store.CustomLeague, p *leaguePodium) {
	metrics.LeaguesEnded.Inc()
	a.emit(ctx, shared.EventLeagueEnded, map[string]interface{}{"leagueId": league.ID.Hex(), "ranking": hexIDs(p.ranking)})
	a.announce(fmt.Sprintf("%s are the champions of %s!", p.champion, league.Name))
}

// awardPlayers adds game points to players and moves them to their new level if they crossed a threshold
func (a *API) awardPlayers(ctx context.Context, players []primitive.ObjectID, points int) error {
	if len(players) == 0 || points == 0 {
		return nil
	}
	if err := a.Store.AwardPoints(ctx, players, points); err != nil {
		return apperr.Internal(err)
	}
	users, err := a.Store.GetUsersByIDs(ctx, players)
	if err != nil {
		return apperr.Internal(err)
	}
	for _, u := range users {
		name, num := logic.LevelFor(u.Level.TotalGamePoints)
		if name == u.Level.Name && num == u.Level.Num {
			continue
		}
		if err := a.Store.SetUserLevel(ctx, u.ID, name, num); err != nil {
			return storeErr(err, "User not found")
		}
	}
	return nil
}

func playsIn(teams []store.Team, uid primitive.ObjectID) bool {
	for _, t := range teams {
		if containsID(t.Players, uid) {
			return true
		}
	}
	return false
}

func matchIDs(matches []store.Match) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(matches))
	for i := range matches {
		ids[i] = matches[i].ID
	}
	return ids
}

// endregion

// region Queries

func (a *API) GetCustomLeague(ctx context.Context, leagueID string) (*store.CustomLeague, error) {
	return a.loadLeague(ctx, leagueID)
}

// GetCustomLeagues lists leagues, filtered by status when one is given
func (a *API) GetCustomLeagues(ctx context.Context, status string) ([]store.CustomLeague, error) {
	st := shared.LeagueStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, apperr.BadRequest("Invalid status: must be one of coming active ended")
	}
	leagues, err := a.Store.ListCustomLeagues(ctx, st)
	return leagues, storeErr(err, "Leagues not found")
}

// GetLeagueMatches returns every match of a league in round then position order
func (a *API) GetLeagueMatches(ctx context.Context, leagueID string) ([]store.Match, error) {
	oid, err := parseID(leagueID, "league id")
	if err != nil {
		return nil, err
	}
	matches, err := a.Store.ListMatchesByLeague(ctx, oid)
	return matches, storeErr(err, "Matches not found")
}

func (a *API) GetLeagueTeams(ctx context.Context, leagueID string) ([]store.Team, error) {
	oid, err := parseID(leagueID, "league id")
	if err != nil {
		return nil, err
	}
	teams, err := a.Store.ListTeamsByLeague(ctx, oid)
	return teams, storeErr(err, "Teams not found")
}

func (a *API) GetTeams(ctx context.Context, ids []primitive.ObjectID) ([]store.Team, error) {
	teams, err := a.Store.GetTeamsByIDs(ctx, ids)
	return teams, storeErr(err, "Teams not found")
}

func (a *API) loadLeague(ctx context.Context, leagueID string) (*store.CustomLeague, error) {
	oid, err := parseID(leagueID, "league id")
	if err != nil {
		return nil, err
	}
	return a.reloadLeague(ctx, oid)
}

func (a *API) reloadLeague(ctx context.Context, id primitive.ObjectID) (*store.CustomLeague, error) {
	league, err := a.Store.GetCustomLeague(ctx, id)
	return league, storeErr(err, "League not found")
}

// endregion

// region League chat

// SendMessage posts to the chat of a league. Only its players and spectators may post
func (a *API) SendMessage(ctx context.Context, leagueID, content string) (*store.Message, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	league, err := a.loadLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if !league.IsPlayer(uid) && !league.IsSpectator(uid) {
		return nil, apperr.Forbidden("Only players and spectators can message this league")
	}
	if league.Chat.IsZero() {
		return nil, apperr.NotFound("League chat not found")
	}
	chat, err := a.Store.GetChat(ctx, league.Chat)
	if err != nil {
		return nil, storeErr(err, "League chat not found")
	}
	return a.postMessage(ctx, chat, uid, content, false)
}

// MarkMessageAsRead adds the caller to the readers of one message of a chat they belong to
func (a *API) MarkMessageAsRead(ctx context.Context, messageID string) (*store.Message, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(messageID, "message id")
	if err != nil {
		return nil, err
	}
	msg, err := a.Store.GetMessage(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "Message not found")
	}
	if _, err := a.memberChat(ctx, uid, msg.Chat.Hex()); err != nil {
		return nil, err
	}
	if err := a.Store.MarkMessageRead(ctx, msg.ID, uid); err != nil {
		return nil, storeErr(err, "Message not found")
	}
	msg, err = a.Store.GetMessage(ctx, oid)
	return msg, storeErr(err, "Message not found")
}

// endregion
