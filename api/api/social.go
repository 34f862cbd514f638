/* social.go
 * Contains friend requests, friendships, likes and blocking
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"sort"

	"gamehub/api/apperr"
	"gamehub/api/shared"
	"gamehub/api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SendFriendRequest sends a request to the user named by an email or username
// Preconditions: Receives the recipient identifier
// Postconditions: Returns the stored request. Rejects requests to yourself, to a user who blocked you, to an
// existing friend, and duplicates of a pending request
func (a *API) SendFriendRequest(ctx context.Context, identifier string) (*store.FriendRequest, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	to, err := a.lookupUser(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if to.ID == uid {
		return nil, apperr.BadRequest("You cannot send a friend request to yourself")
	}
	if to.HasRelation(shared.FieldBlocked, uid) {
		return nil, apperr.Forbidden("You cannot send a friend request to this user")
	}
	if to.HasRelation(shared.FieldFriends, uid) {
		return nil, apperr.Conflict("You are already friends")
	}
	if _, err := a.Store.FindPendingRequest(ctx, uid, to.ID); err == nil {
		return nil, apperr.Conflict("Friend request already sent")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal(err)
	}

	req := &store.FriendRequest{From: uid, To: to.ID}
	if err := a.Store.CreateFriendRequest(ctx, req); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("Friend request already sent")
		}
		return nil, apperr.Internal(err)
	}
	return req, nil
}

// recipientRequest loads a request and checks the caller received it
func (a *API) recipientRequest(ctx context.Context, requestID string) (*store.FriendRequest, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	rid, err := parseID(requestID, "request id")
	if err != nil {
		return nil, err
	}
	req, err := a.Store.GetFriendRequest(ctx, rid)
	if err != nil {
		return nil, storeErr(err, "Friend request not found")
	}
	if req.To != uid {
		return nil, apperr.Forbidden("Only the recipient can respond to this request")
	}
	return req, nil
}

// AcceptFriendRequest adds each user to the other's friends and deletes the request
func (a *API) AcceptFriendRequest(ctx context.Context, requestID string) (*store.User, error) {
	req, err := a.recipientRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := a.Store.AddToSet(ctx, req.To, shared.FieldFriends, req.From); err != nil {
		return nil, storeErr(err, "User not found")
	}
	if err := a.Store.AddToSet(ctx, req.From, shared.FieldFriends, req.To); err != nil {
		return nil, storeErr(err, "Sender no longer exists")
	}
	if err := a.Store.DeleteFriendRequest(ctx, req.ID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal(err)
	}
	user, err := a.Store.GetUserByID(ctx, req.To)
	return user, storeErr(err, "User not found")
}

func (a *API) DeclineFriendRequest(ctx context.Context, requestID string) (bool, error) {
	req, err := a.recipientRequest(ctx, requestID)
	if err != nil {
		return false, err
	}
	if err := a.Store.DeleteFriendRequest(ctx, req.ID); err != nil {
		return false, storeErr(err, "Friend request not found")
	}
	return true, nil
}

// GetFriendRequests lists the requests sent to the caller
func (a *API) GetFriendRequests(ctx context.Context) ([]store.FriendRequest, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := a.Store.ListFriendRequestsTo(ctx, uid)
	return reqs, storeErr(err, "Friend requests not found")
}

// DeleteFriend removes the friendship on both sides
func (a *API) DeleteFriend(ctx context.Context, identifier string) (*store.User, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	friend, err := a.lookupUser(ctx, identifier)
	if err != nil {
		return nil, err
	}
	me, err := a.Store.GetUserByID(ctx, uid)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	if !me.HasRelation(shared.FieldFriends, friend.ID) {
		return nil, apperr.BadRequest("This user is not your friend")
	}
	if err := a.unfriend(ctx, uid, friend.ID); err != nil {
		return nil, err
	}
	user, err := a.Store.GetUserByID(ctx, uid)
	return user, storeErr(err, "User not found")
}

func (a *API) unfriend(ctx context.Context, x, y primitive.ObjectID) error {
	if err := a.Store.PullFromSet(ctx, x, shared.FieldFriends, y); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Internal(err)
	}
	if err := a.Store.PullFromSet(ctx, y, shared.FieldFriends, x); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Internal(err)
	}
	return nil
}

// GetFriendsByLevel returns the caller's friends sorted by level then lifetime points, both descending
func (a *API) GetFriendsByLevel(ctx context.Context) ([]store.User, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	me, err := a.Store.GetUserByID(ctx, uid)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	friends, err := a.Store.GetUsersByIDs(ctx, me.Friends)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	sort.SliceStable(friends, func(i, j int) bool {
		if friends[i].Level.Num != friends[j].Level.Num {
			return friends[i].Level.Num > friends[j].Level.Num
		}
		return friends[i].Level.TotalGamePoints > friends[j].Level.TotalGamePoints
	})
	return friends, nil
}

// region Likes

func (a *API) LikeUser(ctx context.Context, userID string) (*store.User, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	target, err := a.socialTarget(ctx, uid, userID)
	if err != nil {
		return nil, err
	}
	if target.HasRelation(shared.FieldBlocked, uid) {
		return nil, apperr.Forbidden("You cannot like this user")
	}
	if target.HasRelation(shared.FieldLikesReceived, uid) {
		return nil, apperr.Conflict("You already like this user")
	}
	if err := a.Store.AddToSet(ctx, uid, shared.FieldLikesGiven, target.ID); err != nil {
		return nil, storeErr(err, "User not found")
	}
	if err := a.Store.AddToSet(ctx, target.ID, shared.FieldLikesReceived, uid); err != nil {
		return nil, storeErr(err, "User not found")
	}
	user, err := a.Store.GetUserByID(ctx, target.ID)
	return user, storeErr(err, "User not found")
}

func (a *API) UnlikeUser(ctx context.Context, userID string) (*store.User, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	target, err := a.socialTarget(ctx, uid, userID)
	if err != nil {
		return nil, err
	}
	if !target.HasRelation(shared.FieldLikesReceived, uid) {
		return nil, apperr.BadRequest("You have not liked this user")
	}
	if err := a.removeLikes(ctx, uid, target.ID); err != nil {
		return nil, err
	}
	user, err := a.Store.GetUserByID(ctx, target.ID)
	return user, storeErr(err, "User not found")
}

// removeLikes removes the like given by from to to
func (a *API) removeLikes(ctx context.Context, from, to primitive.ObjectID) error {
	if err := a.Store.PullFromSet(ctx, from, shared.FieldLikesGiven, to); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Internal(err)
	}
	if err := a.Store.PullFromSet(ctx, to, shared.FieldLikesReceived, from); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Internal(err)
	}
	return nil
}

// GetNumLikes returns how many users like userID and who they are
func (a *API) GetNumLikes(ctx context.Context, userID string) (*LikesInfo, error) {
	if _, _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	oid, err := parseID(userID, "user id")
	if err != nil {
		return nil, err
	}
	user, err := a.Store.GetUserByID(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	likers, err := a.Store.GetUsersByIDs(ctx, user.LikesReceived)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LikesInfo{Count: len(user.LikesReceived), Users: likers}, nil
}

// endregion

// BlockUser blocks a user, removing any friendship, likes and pending requests between the two
func (a *API) BlockUser(ctx context.Context, userID string) (*store.User, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	target, err := a.socialTarget(ctx, uid, userID)
	if err != nil {
		return nil, err
	}

	if err := a.Store.AddToSet(ctx, uid, shared.FieldBlocked, target.ID); err != nil {
		return nil, storeErr(err, "User not found")
	}
	if err := a.unfriend(ctx, uid, target.ID); err != nil {
		return nil, err
	}
	if err := a.removeLikes(ctx, uid, target.ID); err != nil {
		return nil, err
	}
	if err := a.removeLikes(ctx, target.ID, uid); err != nil {
		return nil, err
	}
	if err := a.Store.DeleteRequestsBetween(ctx, uid, target.ID); err != nil {
		return nil, apperr.Internal(err)
	}

	user, err := a.Store.GetUserByID(ctx, uid)
	return user, storeErr(err, "User not found")
}

// socialTarget loads another user by id, rejecting the caller themselves
func (a *API) socialTarget(ctx context.Context, uid primitive.ObjectID, userID string) (*store.User, error) {
	oid, err := parseID(userID, "user id")
	if err != nil {
		return nil, err
	}
	if oid == uid {
		return nil, apperr.BadRequest("You cannot do this to yourself")
	}
	user, err := a.Store.GetUserByID(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	return user, nil
}
