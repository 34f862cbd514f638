/* gifts.go
 * Contains gift creation, including the diamond transfer between users, and the gift queries
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"

	"gamehub/api/apperr"
	"gamehub/api/shared"
	"gamehub/api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateGift sends a gift from the caller to one or more users
// Preconditions: Receives the gift input
// Postconditions: Returns the stored gift. For a diamond gift the sender has been debited count x receivers and
// every receiver credited count. On any failure, including a short balance, nothing is written
func (a *API) CreateGift(ctx context.Context, input GiftInput) (*store.Gift, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.validateInput(input); err != nil {
		return nil, err
	}
	receivers, err := parseIDs(input.Receivers, "receiver id")
	if err != nil {
		return nil, err
	}
	receivers = uniqueIDs(receivers)
	if containsID(receivers, uid) {
		return nil, apperr.BadRequest("You cannot send a gift to yourself")
	}

	found, err := a.Store.GetUsersByIDs(ctx, receivers)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(found) != len(receivers) {
		return nil, apperr.NotFound("Receiver not found")
	}

	status := input.Status
	if status == "" {
		status = shared.GiftPending
	}
	gift := &store.Gift{
		Sender:      uid,
		Receivers:   receivers,
		Type:        input.Type,
		Status:      status,
		Category:    input.Category,
		Count:       input.Count,
		Message:     input.Message,
		IsAnonymous: input.IsAnonymous,
	}

	err = a.Store.WithTransaction(ctx, func(tx context.Context) error {
		if gift.Type == shared.GiftDiamond {
			if err := a.Store.DebitDiamonds(tx, uid, gift.Count*len(receivers)); err != nil {
				if errors.Is(err, store.ErrConflict) {
					return apperr.BadRequest("Insufficient diamonds")
				}
				return storeErr(err, "User not found")
			}
			if err := a.Store.CreditDiamonds(tx, receivers, gift.Count); err != nil {
				return apperr.Internal(err)
			}
		}
		if err := a.Store.CreateGift(tx, gift); err != nil {
			return apperr.Internal(err)
		}
		if err := a.Store.AddToSet(tx, uid, shared.FieldGiftsGiven, gift.ID); err != nil {
			return storeErr(err, "User not found")
		}
		for _, r := range receivers {
			if err := a.Store.AddToSet(tx, r, shared.FieldGiftsReceived, gift.ID); err != nil {
				return storeErr(err, "Receiver not found")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.emit(ctx, shared.EventGiftCreated, map[string]interface{}{
		"giftId":    gift.ID.Hex(),
		"type":      gift.Type,
		"count":     gift.Count,
		"receivers": hexIDs(receivers),
	})
	return gift, nil
}

// GetGift returns a gift the caller sent or received
func (a *API) GetGift(ctx context.Context, id string) (*store.Gift, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(id, "gift id")
	if err != nil {
		return nil, err
	}
	gift, err := a.Store.GetGift(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "Gift not found")
	}
	if gift.Sender != uid && !containsID(gift.Receivers, uid) {
		return nil, apperr.Forbidden("You cannot view this gift")
	}
	return redactGift(gift, uid), nil
}

func (a *API) GetGiftsGiven(ctx context.Context) ([]store.Gift, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	gifts, err := a.Store.ListGiftsBySender(ctx, uid)
	return gifts, storeErr(err, "Gifts not found")
}

// GetGiftsReceived lists gifts sent to the caller. The sender of an anonymous gift is hidden
func (a *API) GetGiftsReceived(ctx context.Context) ([]store.Gift, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	gifts, err := a.Store.ListGiftsByReceiver(ctx, uid)
	if err != nil {
		return nil, storeErr(err, "Gifts not found")
	}
	for i := range gifts {
		gifts[i] = *redactGift(&gifts[i], uid)
	}
	return gifts, nil
}

// redactGift clears the sender of an anonymous gift unless viewer sent it
func redactGift(g *store.Gift, viewer primitive.ObjectID) *store.Gift {
	if !g.IsAnonymous || g.Sender == viewer {
		return g
	}
	out := *g
	out.Sender = primitive.NilObjectID
	return &out
}
