/* gifts.go
 * Contains the gift resolvers
 * Authors: Zachary Bower
 */

package graph

import (
	"context"

	"gamehub/api/api"
	"gamehub/api/store"

	graphql "github.com/graph-gophers/graphql-go"
)

type giftResolver struct {
	r *Resolver
	g store.Gift
}

func (r *Resolver) giftList(gifts []store.Gift) []*giftResolver {
	out := make([]*giftResolver, len(gifts))
	for i := range gifts {
		out[i] = &giftResolver{r: r, g: gifts[i]}
	}
	return out
}

func (g *giftResolver) ID() graphql.ID { return gqlID(g.g.ID) }

// Sender is null for an anonymous gift viewed by a receiver
func (g *giftResolver) Sender(ctx context.Context) (*userResolver, error) {
	return g.r.userByID(ctx, g.g.Sender)
}

func (g *giftResolver) Receivers(ctx context.Context) ([]*userResolver, error) {
	return g.r.usersByIDs(ctx, g.g.Receivers)
}

func (g *giftResolver) Type() string { return g.g.Type }
func (g *giftResolver) Status() string { return g.g.Status }
func (g *giftResolver) GiftCategory() string { return g.g.Category }
func (g *giftResolver) Count() int32 { return int32(g.g.Count) }
func (g *giftResolver) Message() *string { return optString(g.g.Message) }
func (g *giftResolver) IsAnonymous() bool { return g.g.IsAnonymous }
func (g *giftResolver) CreatedAt() graphql.Time { return gqlTime(g.g.CreatedAt) }

type createGiftArgs struct {
	Input struct {
		Receivers    []graphql.ID
		Type         string
		Status       *string
		GiftCategory string
		Count        int32
		Message      *string
		IsAnonymous  *bool
	}
}

func (r *Resolver) CreateGift(ctx context.Context, args createGiftArgs) (*giftResolver, error) {
	in := args.Input
	gift, err := r.api.CreateGift(ctx, api.GiftInput{
		Receivers:   ids(in.Receivers),
		Type:        in.Type,
		Status:      str(in.Status),
		Category:    in.GiftCategory,
		Count:       int(in.Count),
		Message:     str(in.Message),
		IsAnonymous: in.IsAnonymous != nil && *in.IsAnonymous,
	})
	if err != nil {
		return nil, err
	}
	return &giftResolver{r: r, g: *gift}, nil
}

func (r *Resolver) GetGift(ctx context.Context, args struct{ ID graphql.ID }) (*giftResolver, error) {
	gift, err := r.api.GetGift(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return &giftResolver{r: r, g: *gift}, nil
}

func (r *Resolver) GetGiftsGiven(ctx context.Context) ([]*giftResolver, error) {
	gifts, err := r.api.GetGiftsGiven(ctx)
	if err != nil {
		return nil, err
	}
	return r.giftList(gifts), nil
}

func (r *Resolver) GetGiftsReceived(ctx context.Context) ([]*giftResolver, error) {
	gifts, err := r.api.GetGiftsReceived(ctx)
	if err != nil {
		return nil, err
	}
	return r.giftList(gifts), nil
}
