/* test_mocks.go
 * Contains an in memory implementation of store.Interface for testing the API package. Conditional updates follow
 * the same rules as the Mongo store and return store.ErrConflict or mongo.ErrNoDocuments in the same places
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"gamehub/api/shared"
	"gamehub/api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type oid = primitive.ObjectID

// MockStore implements the Store interface for testing
type MockStore struct {
	mu sync.Mutex
	// txMu runs transactions one at a time
	txMu sync.Mutex

	Users          map[oid]*store.User
	FriendRequests map[oid]*store.FriendRequest
	Chats          map[oid]*store.Chat
	Messages       map[oid]*store.Message
	Gifts          map[oid]*store.Gift
	Achievements   map[oid]*store.Achievement
	Medals         map[oid]*store.Medal
	CupTypes       map[oid]*store.CupType
	Leagues        map[oid]*store.League
	CustomLeagues  map[oid]*store.CustomLeague
	Teams          map[oid]*store.Team
	Matches        map[oid]*store.Match
	Rankings       []store.Ranking

	// Error injection for testing error paths, keyed by method name
	Errors map[string]error
	// Calls counts invocations per method name
	Calls map[string]int

	Now func() time.Time
}

// NewMockStore creates an empty MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		Users:          map[oid]*store.User{},
		FriendRequests: map[oid]*store.FriendRequest{},
		Chats:          map[oid]*store.Chat{},
		Messages:       map[oid]*store.Message{},
		Gifts:          map[oid]*store.Gift{},
		Achievements:   map[oid]*store.Achievement{},
		Medals:         map[oid]*store.Medal{},
		CupTypes:       map[oid]*store.CupType{},
		Leagues:        map[oid]*store.League{},
		CustomLeagues:  map[oid]*store.CustomLeague{},
		Teams:          map[oid]*store.Team{},
		Matches:        map[oid]*store.Match{},
		Errors:         map[string]error{},
		Calls:          map[string]int{},
		Now:            time.Now,
	}
}

// FailOn makes the named method return err until cleared with a nil err
func (m *MockStore) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.Errors, method)
		return
	}
	m.Errors[method] = err
}

// CallCount returns how many times the named method ran
func (m *MockStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

// enter locks the store, counts the call and returns any injected error. Callers defer m.mu.Unlock()
func (m *MockStore) enter(method string) error {
	m.mu.Lock()
	m.Calls[method]++
	return m.Errors[method]
}

func (m *MockStore) clock() time.Time {
	return m.Now().UTC()
}

func copyIDs(ids []oid) []oid {
	return append([]oid{}, ids...)
}

func hasID(ids []oid, id oid) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func withoutIDs(ids []oid, remove []oid) []oid {
	out := []oid{}
	for _, v := range ids {
		if !hasID(remove, v) {
			out = append(out, v)
		}
	}
	return out
}

// region Users

func cloneUser(u *store.User) *store.User {
	c := *u
	c.Medals = copyIDs(u.Medals)
	c.Friends = copyIDs(u.Friends)
	c.LikesGiven = copyIDs(u.LikesGiven)
	c.LikesReceived = copyIDs(u.LikesReceived)
	c.GiftsGiven = copyIDs(u.GiftsGiven)
	c.GiftsReceived = copyIDs(u.GiftsReceived)
	c.Blocked = copyIDs(u.Blocked)
	c.Achievements = copyIDs(u.Achievements)
	if u.League != nil {
		l := *u.League
		c.League = &l
	}
	return &c
}

func relationField(u *store.User, field string) *[]oid {
	switch field {
	case shared.FieldFriends:
		return &u.Friends
	case shared.FieldBlocked:
		return &u.Blocked
	case shared.FieldLikesGiven:
		return &u.LikesGiven
	case shared.FieldLikesReceived:
		return &u.LikesReceived
	case shared.FieldGiftsGiven:
		return &u.GiftsGiven
	case shared.FieldGiftsReceived:
		return &u.GiftsReceived
	case shared.FieldAchievements:
		return &u.Achievements
	case shared.FieldMedals:
		return &u.Medals
	}
	return nil
}

// PutUser stores a user as is, for seeding tests
func (m *MockStore) PutUser(u *store.User) *store.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.Users[u.ID] = cloneUser(u)
	return u
}

func (m *MockStore) CreateUser(_ context.Context, user *store.User) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateUser"); err != nil {
		return err
	}
	for _, u := range m.Users {
		if u.Email == user.Email || u.Username == user.Username {
			return store.ErrConflict
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := m.clock()
	user.CreatedAt, user.UpdatedAt = now, now
	m.Users[user.ID] = cloneUser(user)
	return nil
}

func (m *MockStore) findUser(match func(u *store.User) bool) (*store.User, error) {
	for _, u := range m.Users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockStore) GetUserByID(_ context.Context, id oid) (*store.User, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetUserByID"); err != nil {
		return nil, err
	}
	return m.findUser(func(u *store.User) bool { return u.ID == id })
}

func (m *MockStore) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetUserByEmail"); err != nil {
		return nil, err
	}
	return m.findUser(func(u *store.User) bool { return u.Email == email })
}

func (m *MockStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetUserByUsername"); err != nil {
		return nil, err
	}
	return m.findUser(func(u *store.User) bool { return u.Username == username })
}

func (m *MockStore) GetUsersByIDs(_ context.Context, ids []oid) ([]store.User, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetUsersByIDs"); err != nil {
		return nil, err
	}
	out := []store.User{}
	seen := map[oid]bool{}
	for _, id := range ids {
		if u, ok := m.Users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, *cloneUser(u))
		}
	}
	return out, nil
}

func (m *MockStore) ListUsers(_ context.Context) ([]store.User, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListUsers"); err != nil {
		return nil, err
	}
	out := make([]store.User, 0, len(m.Users))
	for _, u := range m.Users {
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MockStore) UpdateUser(_ context.Context, id oid, update store.UserUpdate) (*store.User, error) {
	defer m.mu.Unlock()
	if err := m.enter("UpdateUser"); err != nil {
		return nil, err
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if update.Email != nil {
		for _, other := range m.Users {
			if other.ID != id && other.Email == *update.Email {
				return nil, store.ErrConflict
			}
		}
		u.Email = *update.Email
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Password != nil {
		u.Password = *update.Password
	}
	u.UpdatedAt = m.clock()
	return cloneUser(u), nil
}

func (m *MockStore) DeleteUser(_ context.Context, id oid) error {
	defer m.mu.Unlock()
	if err := m.enter("DeleteUser"); err != nil {
		return err
	}
	if _, ok := m.Users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.Users, id)
	return nil
}

func (m *MockStore) SetUserImage(_ context.Context, id oid, image string) (string, error) {
	defer m.mu.Unlock()
	if err := m.enter("SetUserImage"); err != nil {
		return "", err
	}
	u, ok := m.Users[id]
	if !ok {
		return "", mongo.ErrNoDocuments
	}
	previous := u.Image
	u.Image = image
	return previous, nil
}

func (m *MockStore) AddToSet(_ context.Context, userID oid, field string, ids ...oid) error {
	defer m.mu.Unlock()
	if err := m.enter("AddToSet"); err != nil {
		return err
	}
	u, ok := m.Users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	set := relationField(u, field)
	for _, id := range ids {
		if !hasID(*set, id) {
			*set = append(copyIDs(*set), id)
		}
	}
	return nil
}

func (m *MockStore) PullFromSet(_ context.Context, userID oid, field string, ids ...oid) error {
	defer m.mu.Unlock()
	if err := m.enter("PullFromSet"); err != nil {
		return err
	}
	u, ok := m.Users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	set := relationField(u, field)
	*set = withoutIDs(*set, ids)
	return nil
}

func (m *MockStore) AwardPoints(_ context.Context, ids []oid, points int) error {
	defer m.mu.Unlock()
	if err := m.enter("AwardPoints"); err != nil {
		return err
	}
	for _, id := range ids {
		u, ok := m.Users[id]
		if !ok {
			continue
		}
		u.GamePoints.CurrentWeek += points
		u.GamePoints.CurrentMonth += points
		u.Level.TotalGamePoints += points
		if u.League != nil {
			u.League.CurrentMonthPoints += points
		}
	}
	return nil
}

func (m *MockStore) SetUserLevel(_ context.Context, id oid, name string, num int) error {
	defer m.mu.Unlock()
	if err := m.enter("SetUserLevel"); err != nil {
		return err
	}
	u, ok := m.Users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.Level.Name, u.Level.Num = name, num
	return nil
}

func (m *MockStore) DebitDiamonds(_ context.Context, id oid, amount int) error {
	defer m.mu.Unlock()
	if err := m.enter("DebitDiamonds"); err != nil {
		return err
	}
	u, ok := m.Users[id]
	if !ok || u.Diamond < amount {
		return store.ErrConflict
	}
	u.Diamond -= amount
	return nil
}

func (m *MockStore) CreditDiamonds(_ context.Context, ids []oid, amount int) error {
	defer m.mu.Unlock()
	if err := m.enter("CreditDiamonds"); err != nil {
		return err
	}
	for _, id := range ids {
		if u, ok := m.Users[id]; ok {
			u.Diamond += amount
		}
	}
	return nil
}

func (m *MockStore) SaveRanks(_ context.Context, updates []store.RankUpdate) error {
	defer m.mu.Unlock()
	if err := m.enter("SaveRanks"); err != nil {
		return err
	}
	for _, up := range updates {
		u, ok := m.Users[up.User]
		if !ok {
			continue
		}
		u.GameRankings = store.GameRankings{WeekRank: up.WeekRank, MonthRank: up.MonthRank, TotalRank: up.TotalRank}
		if up.HasLeagueRanking && u.League != nil {
			u.League.CurrentMonthRank = up.LeagueMonthRank
			u.League.LastMonthRank = up.LeagueLastMonth
		}
	}
	return nil
}

func (m *MockStore) ResetWeeklyPoints(_ context.Context) error {
	defer m.mu.Unlock()
	if err := m.enter("ResetWeeklyPoints"); err != nil {
		return err
	}
	for _, u := range m.Users {
		u.GamePoints.CurrentWeek = 0
	}
	return nil
}

func (m *MockStore) ResetMonthlyPoints(_ context.Context) error {
	defer m.mu.Unlock()
	if err := m.enter("ResetMonthlyPoints"); err != nil {
		return err
	}
	for _, u := range m.Users {
		u.GamePoints.LastMonth = u.GamePoints.CurrentMonth
		u.GamePoints.CurrentMonth = 0
		if u.League != nil {
			u.League.LastMonthPoints = u.League.CurrentMonthPoints
			u.League.CurrentMonthPoints = 0
		}
	}
	return nil
}

// endregion

// region Friend requests

func (m *MockStore) CreateFriendRequest(_ context.Context, req *store.FriendRequest) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateFriendRequest"); err != nil {
		return err
	}
	for _, r := range m.FriendRequests {
		if r.From == req.From && r.To == req.To {
			return store.ErrConflict
		}
	}
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	req.CreatedAt = m.clock()
	c := *req
	m.FriendRequests[req.ID] = &c
	return nil
}

func (m *MockStore) GetFriendRequest(_ context.Context, id oid) (*store.FriendRequest, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetFriendRequest"); err != nil {
		return nil, err
	}
	r, ok := m.FriendRequests[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := *r
	return &c, nil
}

func (m *MockStore) FindPendingRequest(_ context.Context, from, to oid) (*store.FriendRequest, error) {
	defer m.mu.Unlock()
	if err := m.enter("FindPendingRequest"); err != nil {
		return nil, err
	}
	for _, r := range m.FriendRequests {
		if r.From == from && r.To == to {
			c := *r
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockStore) ListFriendRequestsTo(_ context.Context, to oid) ([]store.FriendRequest, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListFriendRequestsTo"); err != nil {
		return nil, err
	}
	out := []store.FriendRequest{}
	for _, r := range m.FriendRequests {
		if r.To == to {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	return out, nil
}

func (m *MockStore) DeleteFriendRequest(_ context.Context, id oid) error {
	defer m.mu.Unlock()
	if err := m.enter("DeleteFriendRequest"); err != nil {
		return err
	}
	if _, ok := m.FriendRequests[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.FriendRequests, id)
	return nil
}

func (m *MockStore) DeleteRequestsBetween(_ context.Context, a, b oid) error {
	defer m.mu.Unlock()
	if err := m.enter("DeleteRequestsBetween"); err != nil {
		return err
	}
	for id, r := range m.FriendRequests {
		if (r.From == a && r.To == b) || (r.From == b && r.To == a) {
			delete(m.FriendRequests, id)
		}
	}
	return nil
}

// endregion

// region Chats and messages

func cloneChat(c *store.Chat) *store.Chat {
	out := *c
	out.Users = copyIDs(c.Users)
	if c.LatestMessage != nil {
		id := *c.LatestMessage
		out.LatestMessage = &id
	}
	return &out
}

func cloneMessage(msg *store.Message) *store.Message {
	out := *msg
	out.ReadBy = copyIDs(msg.ReadBy)
	return &out
}

func (m *MockStore) CreateChat(_ context.Context, chat *store.Chat) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateChat"); err != nil {
		return err
	}
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	now := m.clock()
	chat.CreatedAt, chat.UpdatedAt = now, now
	m.Chats[chat.ID] = cloneChat(chat)
	return nil
}

func (m *MockStore) GetChat(_ context.Context, id oid) (*store.Chat, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetChat"); err != nil {
		return nil, err
	}
	c, ok := m.Chats[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneChat(c), nil
}

func (m *MockStore) FindDirectChat(_ context.Context, a, b oid) (*store.Chat, error) {
	defer m.mu.Unlock()
	if err := m.enter("FindDirectChat"); err != nil {
		return nil, err
	}
	for _, c := range m.Chats {
		if !c.IsGroup && len(c.Users) == 2 && hasID(c.Users, a) && hasID(c.Users, b) {
			return cloneChat(c), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockStore) ListChatsForUser(_ context.Context, user oid) ([]store.Chat, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListChatsForUser"); err != nil {
		return nil, err
	}
	out := []store.Chat{}
	for _, c := range m.Chats {
		if hasID(c.Users, user) {
			out = append(out, *cloneChat(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (m *MockStore) AddChatMember(_ context.Context, chatID, user oid) error {
	defer m.mu.Unlock()
	if err := m.enter("AddChatMember"); err != nil {
		return err
	}
	c, ok := m.Chats[chatID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if !hasID(c.Users, user) {
		c.Users = append(copyIDs(c.Users), user)
	}
	c.IsGroup = true
	return nil
}

func (m *MockStore) SetLatestMessage(_ context.Context, chatID, messageID oid) error {
	defer m.mu.Unlock()
	if err := m.enter("SetLatestMessage"); err != nil {
		return err
	}
	if c, ok := m.Chats[chatID]; ok {
		c.LatestMessage = &messageID
		c.UpdatedAt = m.clock()
	}
	return nil
}

func (m *MockStore) CreateMessage(_ context.Context, msg *store.Message) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateMessage"); err != nil {
		return err
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	msg.CreatedAt = m.clock()
	msg.ReadBy = []oid{msg.Sender}
	m.Messages[msg.ID] = cloneMessage(msg)
	return nil
}

func (m *MockStore) GetMessage(_ context.Context, id oid) (*store.Message, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetMessage"); err != nil {
		return nil, err
	}
	msg, ok := m.Messages[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneMessage(msg), nil
}

func (m *MockStore) ListMessages(_ context.Context, chatID oid) ([]store.Message, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListMessages"); err != nil {
		return nil, err
	}
	out := []store.Message{}
	for _, msg := range m.Messages {
		if msg.Chat == chatID {
			out = append(out, *cloneMessage(msg))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (m *MockStore) MarkChatRead(_ context.Context, chatID, user oid) error {
	defer m.mu.Unlock()
	if err := m.enter("MarkChatRead"); err != nil {
		return err
	}
	for _, msg := range m.Messages {
		if msg.Chat == chatID && !hasID(msg.ReadBy, user) {
			msg.ReadBy = append(copyIDs(msg.ReadBy), user)
		}
	}
	return nil
}

func (m *MockStore) MarkMessageRead(_ context.Context, messageID, user oid) error {
	defer m.mu.Unlock()
	if err := m.enter("MarkMessageRead"); err != nil {
		return err
	}
	msg, ok := m.Messages[messageID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if !hasID(msg.ReadBy, user) {
		msg.ReadBy = append(copyIDs(msg.ReadBy), user)
	}
	return nil
}

// endregion

// region Gifts

func cloneGift(g *store.Gift) store.Gift {
	out := *g
	out.Receivers = copyIDs(g.Receivers)
	return out
}

func (m *MockStore) CreateGift(_ context.Context, gift *store.Gift) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateGift"); err != nil {
		return err
	}
	if gift.ID.IsZero() {
		gift.ID = primitive.NewObjectID()
	}
	gift.CreatedAt = m.clock()
	c := cloneGift(gift)
	m.Gifts[gift.ID] = &c
	return nil
}

func (m *MockStore) GetGift(_ context.Context, id oid) (*store.Gift, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetGift"); err != nil {
		return nil, err
	}
	g, ok := m.Gifts[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := cloneGift(g)
	return &c, nil
}

func (m *MockStore) listGifts(match func(g *store.Gift) bool) []store.Gift {
	out := []store.Gift{}
	for _, g := range m.Gifts {
		if match(g) {
			out = append(out, cloneGift(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	return out
}

func (m *MockStore) ListGiftsBySender(_ context.Context, sender oid) ([]store.Gift, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListGiftsBySender"); err != nil {
		return nil, err
	}
	return m.listGifts(func(g *store.Gift) bool { return g.Sender == sender }), nil
}

func (m *MockStore) ListGiftsByReceiver(_ context.Context, receiver oid) ([]store.Gift, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListGiftsByReceiver"); err != nil {
		return nil, err
	}
	return m.listGifts(func(g *store.Gift) bool { return hasID(g.Receivers, receiver) }), nil
}

// endregion

// region Catalog

func (m *MockStore) CreateAchievement(_ context.Context, a *store.Achievement) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateAchievement"); err != nil {
		return err
	}
	for _, existing := range m.Achievements {
		if existing.Name == a.Name {
			return store.ErrConflict
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	now := m.clock()
	a.CreatedAt, a.UpdatedAt = now, now
	c := *a
	m.Achievements[a.ID] = &c
	return nil
}

func (m *MockStore) GetAchievement(_ context.Context, id oid) (*store.Achievement, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetAchievement"); err != nil {
		return nil, err
	}
	a, ok := m.Achievements[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := *a
	return &c, nil
}

func (m *MockStore) GetAchievementByName(_ context.Context, name string) (*store.Achievement, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetAchievementByName"); err != nil {
		return nil, err
	}
	for _, a := range m.Achievements {
		if a.Name == name {
			c := *a
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockStore) listAchievements(match func(a *store.Achievement) bool) []store.Achievement {
	out := []store.Achievement{}
	for _, a := range m.Achievements {
		if match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	return out
}

func (m *MockStore) ListAchievements(_ context.Context) ([]store.Achievement, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListAchievements"); err != nil {
		return nil, err
	}
	return m.listAchievements(func(*store.Achievement) bool { return true }), nil
}

func (m *MockStore) ListAchievementsByUser(_ context.Context, user oid) ([]store.Achievement, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListAchievementsByUser"); err != nil {
		return nil, err
	}
	return m.listAchievements(func(a *store.Achievement) bool { return a.UserID == user }), nil
}

func (m *MockStore) UpdateAchievement(_ context.Context, id oid, update store.AchievementUpdate) (*store.Achievement, error) {
	defer m.mu.Unlock()
	if err := m.enter("UpdateAchievement"); err != nil {
		return nil, err
	}
	a, ok := m.Achievements[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if update.Name != nil {
		for _, other := range m.Achievements {
			if other.ID != id && other.Name == *update.Name {
				return nil, store.ErrConflict
			}
		}
		a.Name = *update.Name
	}
	if update.Description != nil {
		a.Description = *update.Description
	}
	if update.Img != nil {
		a.Img = *update.Img
	}
	a.UpdatedAt = m.clock()
	c := *a
	return &c, nil
}

func (m *MockStore) DeleteAchievement(_ context.Context, id oid) error {
	defer m.mu.Unlock()
	if err := m.enter("DeleteAchievement"); err != nil {
		return err
	}
	if _, ok := m.Achievements[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.Achievements, id)
	return nil
}

func (m *MockStore) GetMedal(_ context.Context, id oid) (*store.Medal, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetMedal"); err != nil {
		return nil, err
	}
	md, ok := m.Medals[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := *md
	return &c, nil
}

func (m *MockStore) ListMedals(_ context.Context) ([]store.Medal, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListMedals"); err != nil {
		return nil, err
	}
	out := []store.Medal{}
	for _, md := range m.Medals {
		out = append(out, *md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockStore) CreateCupType(_ context.Context, c *store.CupType) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateCupType"); err != nil {
		return err
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := m.clock()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	m.CupTypes[c.ID] = &cp
	return nil
}

func (m *MockStore) GetCupType(_ context.Context, id oid) (*store.CupType, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetCupType"); err != nil {
		return nil, err
	}
	c, ok := m.CupTypes[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *c
	return &cp, nil
}

func (m *MockStore) ListCupTypes(_ context.Context) ([]store.CupType, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListCupTypes"); err != nil {
		return nil, err
	}
	out := []store.CupType{}
	for _, c := range m.CupTypes {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (m *MockStore) UpdateCupType(_ context.Context, c *store.CupType) (*store.CupType, error) {
	defer m.mu.Unlock()
	if err := m.enter("UpdateCupType"); err != nil {
		return nil, err
	}
	existing, ok := m.CupTypes[c.ID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	existing.Name, existing.Image, existing.Price = c.Name, c.Image, c.Price
	existing.UpdatedAt = m.clock()
	cp := *existing
	return &cp, nil
}

func (m *MockStore) DeleteCupType(_ context.Context, id oid) error {
	defer m.mu.Unlock()
	if err := m.enter("DeleteCupType"); err != nil {
		return err
	}
	if _, ok := m.CupTypes[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.CupTypes, id)
	return nil
}

// endregion

// region Ranked leagues

func (m *MockStore) SeedLeagues(_ context.Context, leagues []store.League) error {
	defer m.mu.Unlock()
	if err := m.enter("SeedLeagues"); err != nil {
		return err
	}
	for _, l := range leagues {
		var found *store.League
		for _, existing := range m.Leagues {
			if existing.Name == l.Name {
				found = existing
			}
		}
		if found != nil {
			found.MinPoints, found.Image = l.MinPoints, l.Image
			continue
		}
		c := l
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		m.Leagues[c.ID] = &c
	}
	return nil
}

func (m *MockStore) GetLeague(_ context.Context, id oid) (*store.League, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetLeague"); err != nil {
		return nil, err
	}
	l, ok := m.Leagues[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := *l
	return &c, nil
}

func (m *MockStore) GetLeagueByName(_ context.Context, name string) (*store.League, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetLeagueByName"); err != nil {
		return nil, err
	}
	for _, l := range m.Leagues {
		if l.Name == name {
			c := *l
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *MockStore) ListLeagues(_ context.Context) ([]store.League, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListLeagues"); err != nil {
		return nil, err
	}
	out := []store.League{}
	for _, l := range m.Leagues {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinPoints > out[j].MinPoints })
	return out, nil
}

// endregion

// region Custom leagues

func cloneCustomLeague(l *store.CustomLeague) *store.CustomLeague {
	c := *l
	c.RegisteredPlayers = copyIDs(l.RegisteredPlayers)
	c.Spectators = copyIDs(l.Spectators)
	c.Teams = copyIDs(l.Teams)
	c.Matches = copyIDs(l.Matches)
	c.Ranking = copyIDs(l.Ranking)
	return &c
}

func (m *MockStore) CreateCustomLeague(_ context.Context, l *store.CustomLeague) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateCustomLeague"); err != nil {
		return err
	}
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.Status == "" {
		l.Status = shared.LeagueComing
	}
	now := m.clock()
	l.CreatedAt, l.UpdatedAt = now, now
	m.CustomLeagues[l.ID] = cloneCustomLeague(l)
	return nil
}

func (m *MockStore) GetCustomLeague(_ context.Context, id oid) (*store.CustomLeague, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetCustomLeague"); err != nil {
		return nil, err
	}
	l, ok := m.CustomLeagues[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneCustomLeague(l), nil
}

func (m *MockStore) ListCustomLeagues(_ context.Context, status shared.LeagueStatus) ([]store.CustomLeague, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListCustomLeagues"); err != nil {
		return nil, err
	}
	out := []store.CustomLeague{}
	for _, l := range m.CustomLeagues {
		if status == "" || l.Status == status {
			out = append(out, *cloneCustomLeague(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	return out, nil
}

func (m *MockStore) AddLeaguePlayer(_ context.Context, leagueID, player oid, maxSeats int) error {
	defer m.mu.Unlock()
	if err := m.enter("AddLeaguePlayer"); err != nil {
		return err
	}
	l, ok := m.CustomLeagues[leagueID]
	if !ok || l.Status != shared.LeagueComing || hasID(l.RegisteredPlayers, player) || len(l.RegisteredPlayers) >= maxSeats {
		return store.ErrConflict
	}
	l.RegisteredPlayers = append(copyIDs(l.RegisteredPlayers), player)
	return nil
}

func (m *MockStore) RemoveLeaguePlayer(_ context.Context, leagueID, player oid) error {
	defer m.mu.Unlock()
	if err := m.enter("RemoveLeaguePlayer"); err != nil {
		return err
	}
	l, ok := m.CustomLeagues[leagueID]
	if !ok || l.Status != shared.LeagueComing || !hasID(l.RegisteredPlayers, player) {
		return store.ErrConflict
	}
	l.RegisteredPlayers = withoutIDs(l.RegisteredPlayers, []oid{player})
	return nil
}

func (m *MockStore) AddLeagueSpectator(_ context.Context, leagueID, user oid) error {
	defer m.mu.Unlock()
	if err := m.enter("AddLeagueSpectator"); err != nil {
		return err
	}
	l, ok := m.CustomLeagues[leagueID]
	if !ok || hasID(l.Spectators, user) || hasID(l.RegisteredPlayers, user) {
		return store.ErrConflict
	}
	l.Spectators = append(copyIDs(l.Spectators), user)
	return nil
}

func (m *MockStore) StartLeague(_ context.Context, leagueID oid, teams, matches []oid) error {
	defer m.mu.Unlock()
	if err := m.enter("StartLeague"); err != nil {
		return err
	}
	l, ok := m.CustomLeagues[leagueID]
	if !ok || l.Status != shared.LeagueComing {
		return store.ErrConflict
	}
	l.Status = shared.LeagueActive
	l.Teams = copyIDs(teams)
	l.Matches = copyIDs(matches)
	l.CurrentRound = 1
	l.StartDate = m.clock()
	return nil
}

func (m *MockStore) AdvanceLeagueRound(_ context.Context, leagueID oid, fromRound int, matches []oid) error {
	defer m.mu.Unlock()
	if err := m.enter("AdvanceLeagueRound"); err != nil {
		return err
	}
	l, ok := m.CustomLeagues[leagueID]
	if !ok || l.Status != shared.LeagueActive || l.CurrentRound != fromRound {
		return store.ErrConflict
	}
	l.CurrentRound = fromRound + 1
	l.Matches = append(copyIDs(l.Matches), matches...)
	return nil
}

func (m *MockStore) TouchCustomLeague(_ context.Context, leagueID oid) error {
	defer m.mu.Unlock()
	if err := m.enter("TouchCustomLeague"); err != nil {
		return err
	}
	l, ok := m.CustomLeagues[leagueID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	l.UpdatedAt = m.clock()
	return nil
}

func (m *MockStore) EndLeague(_ context.Context, leagueID oid, ranking []oid) error {
	defer m.mu.Unlock()
	if err := m.enter("EndLeague"); err != nil {
		return err
	}
	l, ok := m.CustomLeagues[leagueID]
	if !ok || l.Status != shared.LeagueActive {
		return store.ErrConflict
	}
	l.Status = shared.LeagueEnded
	l.Ranking = copyIDs(ranking)
	l.EndDate = m.clock()
	return nil
}

// endregion

// region Teams and matches

func cloneMatch(mt *store.Match) *store.Match {
	c := *mt
	c.Participants = copyIDs(mt.Participants)
	c.RoundWinners = append([]store.RoundWinner{}, mt.RoundWinners...)
	if mt.WinnerTeam != nil {
		w := *mt.WinnerTeam
		c.WinnerTeam = &w
	}
	if mt.LoserTeam != nil {
		l := *mt.LoserTeam
		c.LoserTeam = &l
	}
	return &c
}

func (m *MockStore) CreateTeams(_ context.Context, teams []store.Team) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateTeams"); err != nil {
		return err
	}
	for i := range teams {
		if teams[i].ID.IsZero() {
			teams[i].ID = primitive.NewObjectID()
		}
		c := teams[i]
		c.Players = copyIDs(teams[i].Players)
		m.Teams[c.ID] = &c
	}
	return nil
}

func (m *MockStore) listTeams(match func(t *store.Team) bool) []store.Team {
	out := []store.Team{}
	for _, t := range m.Teams {
		if match(t) {
			c := *t
			c.Players = copyIDs(t.Players)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamName < out[j].TeamName })
	return out
}

func (m *MockStore) GetTeamsByIDs(_ context.Context, ids []oid) ([]store.Team, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetTeamsByIDs"); err != nil {
		return nil, err
	}
	return m.listTeams(func(t *store.Team) bool { return hasID(ids, t.ID) }), nil
}

func (m *MockStore) ListTeamsByLeague(_ context.Context, leagueID oid) ([]store.Team, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListTeamsByLeague"); err != nil {
		return nil, err
	}
	return m.listTeams(func(t *store.Team) bool { return t.League == leagueID }), nil
}

func (m *MockStore) RecordTeamResult(_ context.Context, teamID oid, won bool, points int) error {
	defer m.mu.Unlock()
	if err := m.enter("RecordTeamResult"); err != nil {
		return err
	}
	t, ok := m.Teams[teamID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	t.MatchesPlayed++
	if won {
		t.MatchesWon++
		t.TotalPoints += points
	}
	return nil
}

func (m *MockStore) CreateMatches(_ context.Context, matches []store.Match) error {
	defer m.mu.Unlock()
	if err := m.enter("CreateMatches"); err != nil {
		return err
	}
	now := m.clock()
	for i := range matches {
		if matches[i].ID.IsZero() {
			matches[i].ID = primitive.NewObjectID()
		}
		if matches[i].RoundWinners == nil {
			matches[i].RoundWinners = []store.RoundWinner{}
		}
		matches[i].CreatedAt = now
		m.Matches[matches[i].ID] = cloneMatch(&matches[i])
	}
	return nil
}

func (m *MockStore) GetMatch(_ context.Context, id oid) (*store.Match, error) {
	defer m.mu.Unlock()
	if err := m.enter("GetMatch"); err != nil {
		return nil, err
	}
	mt, ok := m.Matches[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneMatch(mt), nil
}

func (m *MockStore) listMatches(match func(mt *store.Match) bool) []store.Match {
	out := []store.Match{}
	for _, mt := range m.Matches {
		if match(mt) {
			out = append(out, *cloneMatch(mt))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Position < out[j].Position
	})
	return out
}

func (m *MockStore) ListMatchesByLeague(_ context.Context, leagueID oid) ([]store.Match, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListMatchesByLeague"); err != nil {
		return nil, err
	}
	return m.listMatches(func(mt *store.Match) bool { return mt.League == leagueID }), nil
}

func (m *MockStore) ListMatchesByRound(_ context.Context, leagueID oid, round int) ([]store.Match, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListMatchesByRound"); err != nil {
		return nil, err
	}
	return m.listMatches(func(mt *store.Match) bool { return mt.League == leagueID && mt.Round == round }), nil
}

func (m *MockStore) RecordMatchWinner(_ context.Context, matchID, winner, loser oid) error {
	defer m.mu.Unlock()
	if err := m.enter("RecordMatchWinner"); err != nil {
		return err
	}
	mt, ok := m.Matches[matchID]
	if !ok || mt.WinnerTeam != nil {
		return store.ErrConflict
	}
	now := m.clock()
	mt.WinnerTeam, mt.LoserTeam, mt.DecidedAt = &winner, &loser, &now
	return nil
}

func (m *MockStore) AppendGameWinner(_ context.Context, matchID oid, gamesPlayed int, game store.RoundWinner) error {
	defer m.mu.Unlock()
	if err := m.enter("AppendGameWinner"); err != nil {
		return err
	}
	mt, ok := m.Matches[matchID]
	if !ok || mt.WinnerTeam != nil || len(mt.RoundWinners) != gamesPlayed {
		return store.ErrConflict
	}
	mt.RoundWinners = append(append([]store.RoundWinner{}, mt.RoundWinners...), game)
	return nil
}

// endregion

// region Rankings

func (m *MockStore) InsertRankings(_ context.Context, rankings []store.Ranking) error {
	defer m.mu.Unlock()
	if err := m.enter("InsertRankings"); err != nil {
		return err
	}
	now := m.clock()
	for i := range rankings {
		if rankings[i].ID.IsZero() {
			rankings[i].ID = primitive.NewObjectID()
		}
		rankings[i].CreatedAt = now
		m.Rankings = append(m.Rankings, rankings[i])
	}
	return nil
}

func (m *MockStore) AggregatePeriodPoints(_ context.Context, period shared.Period, from time.Time) ([]store.PeriodPoints, error) {
	defer m.mu.Unlock()
	if err := m.enter("AggregatePeriodPoints"); err != nil {
		return nil, err
	}
	sums := map[oid]int{}
	for _, r := range m.Rankings {
		if r.Period == period && r.League == nil && !r.PeriodEnd.Before(from) {
			sums[r.User] += r.Points
		}
	}
	out := make([]store.PeriodPoints, 0, len(sums))
	for user, points := range sums {
		out = append(out, store.PeriodPoints{User: user, Points: points})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].User.Hex() < out[j].User.Hex()
	})
	return out, nil
}

func (m *MockStore) ListRankings(_ context.Context, f store.RankingFilter) ([]store.Ranking, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListRankings"); err != nil {
		return nil, err
	}
	out := []store.Ranking{}
	for _, r := range m.Rankings {
		if f.Period != "" && r.Period != f.Period {
			continue
		}
		if (f.League == nil) != (r.League == nil) || (f.League != nil && *f.League != *r.League) {
			continue
		}
		if !f.From.IsZero() && r.PeriodStart.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !r.PeriodStart.Before(f.To) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// endregion

// region Transactions

type mockState struct {
	users          map[oid]*store.User
	friendRequests map[oid]*store.FriendRequest
	chats          map[oid]*store.Chat
	messages       map[oid]*store.Message
	gifts          map[oid]*store.Gift
	achievements   map[oid]*store.Achievement
	medals         map[oid]*store.Medal
	cupTypes       map[oid]*store.CupType
	leagues        map[oid]*store.League
	customLeagues  map[oid]*store.CustomLeague
	teams          map[oid]*store.Team
	matches        map[oid]*store.Match
	rankings       []store.Ranking
}

func cloneMap[V any](src map[oid]*V, clone func(*V) *V) map[oid]*V {
	out := make(map[oid]*V, len(src))
	for k, v := range src {
		out[k] = clone(v)
	}
	return out
}

func shallow[V any](v *V) *V {
	c := *v
	return &c
}

// snapshot deep copies every collection. Callers hold m.mu
func (m *MockStore) snapshot() mockState {
	return mockState{
		users:          cloneMap(m.Users, cloneUser),
		friendRequests: cloneMap(m.FriendRequests, shallow[store.FriendRequest]),
		chats:          cloneMap(m.Chats, cloneChat),
		messages:       cloneMap(m.Messages, cloneMessage),
		gifts:          cloneMap(m.Gifts, func(g *store.Gift) *store.Gift { c := cloneGift(g); return &c }),
		achievements:   cloneMap(m.Achievements, shallow[store.Achievement]),
		medals:         cloneMap(m.Medals, shallow[store.Medal]),
		cupTypes:       cloneMap(m.CupTypes, shallow[store.CupType]),
		leagues:        cloneMap(m.Leagues, shallow[store.League]),
		customLeagues:  cloneMap(m.CustomLeagues, cloneCustomLeague),
		teams:          cloneMap(m.Teams, func(t *store.Team) *store.Team { c := *t; c.Players = copyIDs(t.Players); return &c }),
		matches:        cloneMap(m.Matches, cloneMatch),
		rankings:       append([]store.Ranking{}, m.Rankings...),
	}
}

func (m *MockStore) restore(s mockState) {
	m.Users, m.FriendRequests, m.Chats, m.Messages = s.users, s.friendRequests, s.chats, s.messages
	m.Gifts, m.Achievements, m.Medals, m.CupTypes = s.gifts, s.achievements, s.medals, s.cupTypes
	m.Leagues, m.CustomLeagues, m.Teams, m.Matches = s.leagues, s.customLeagues, s.teams, s.matches
	m.Rankings = s.rankings
}

// WithTransaction runs fn and rolls every collection back to its state before the call when fn fails
func (m *MockStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	m.Calls["WithTransaction"]++
	if err := m.Errors["WithTransaction"]; err != nil {
		m.mu.Unlock()
		return err
	}
	before := m.snapshot()
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.restore(before)
		m.mu.Unlock()
		return err
	}
	return nil
}

// endregion

func (m *MockStore) EnsureIndexes(_ context.Context) error {
	defer m.mu.Unlock()
	return m.enter("EnsureIndexes")
}

func (m *MockStore) Ping(_ context.Context) error {
	defer m.mu.Unlock()
	return m.enter("Ping")
}

func (m *MockStore) Close(_ context.Context) error {
	defer m.mu.Unlock()
	return m.enter("Close")
}

// Ensure MockStore implements store.Interface
var _ store.Interface = (*MockStore)(nil)
