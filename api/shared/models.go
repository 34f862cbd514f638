/* models.go
 * This file contain the enums and small value types that are shared between sub packages
 * Authors: Zachary Bower
 */

package shared

// LeagueStatus is the lifecycle state of a custom league: coming -> active -> ended
type LeagueStatus string

const (
	LeagueComing LeagueStatus = "coming"
	LeagueActive LeagueStatus = "active"
	LeagueEnded  LeagueStatus = "ended"
)

func (s LeagueStatus) Valid() bool {
	switch s {
	case LeagueComing, LeagueActive, LeagueEnded:
		return true
	}
	return false
}

// Period is the time window of a ranking snapshot
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Ranked league tiers, seeded on first run
const (
	TierPlatinum = "platinum"
	TierGold     = "gold"
	TierSilver   = "silver"
	TierBronze   = "bronze"
)

var RankedTiers = []string{TierPlatinum, TierGold, TierSilver, TierBronze}

// Gift enums
const (
	GiftDiamond      = "diamond"
	GiftSub          = "sub"
	GiftItem         = "item"
	GiftVoucher      = "voucher"
	GiftSubscription = "subscription"

	GiftPending   = "pending"
	GiftCompleted = "completed"
	GiftFailed    = "failed"

	CategoryVirtual      = "virtual"
	CategoryPhysical     = "physical"
	CategorySubscription = "subscription"
)

// Relation fields on a user document which hold sets of object ids
const (
	FieldFriends       = "friends"
	FieldBlocked       = "blocked"
	FieldLikesGiven    = "likes_given"
	FieldLikesReceived = "likes_received"
	FieldGiftsGiven    = "gifts_given"
	FieldGiftsReceived = "gifts_received"
	FieldAchievements  = "achievements"
	FieldMedals        = "medals"
)

// Event subjects published to the message broker
const (
	EventUserSignedUp        = "user.signed_up"
	EventGiftCreated         = "gift.created"
	EventLeagueCreated       = "league.created"
	EventLeagueStarted       = "league.started"
	EventLeagueMatchReported = "league.match_reported"
	EventLeagueEnded         = "league.ended"
	EventRankingsUpdated     = "rankings.updated"
)
