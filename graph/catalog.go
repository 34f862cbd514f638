/* catalog.go
 * Contains the achievement, medal and cup type resolvers
 * Authors: Zachary Bower
 */

package graph

import (
	"context"

	"gamehub/api/api"
	"gamehub/api/store"

	graphql "github.com/graph-gophers/graphql-go"
)

// region Types

type achievementResolver struct {
	a store.Achievement
}

func achievementList(achs []store.Achievement) []*achievementResolver {
	out := make([]*achievementResolver, len(achs))
	for i := range achs {
		out[i] = &achievementResolver{a: achs[i]}
	}
	return out
}

func (a *achievementResolver) ID() graphql.ID { return gqlID(a.a.ID) }
func (a *achievementResolver) Name() string { return a.a.Name }
func (a *achievementResolver) Description() *string { return optString(a.a.Description) }
func (a *achievementResolver) Img() *string { return optString(a.a.Img) }
func (a *achievementResolver) UserID() graphql.ID { return gqlID(a.a.UserID) }
func (a *achievementResolver) CreatedAt() graphql.Time { return gqlTime(a.a.CreatedAt) }

type medalResolver struct {
	m store.Medal
}

func (m *medalResolver) ID() graphql.ID { return gqlID(m.m.ID) }
func (m *medalResolver) Name() string { return m.m.Name }
func (m *medalResolver) Description() *string { return optString(m.m.Description) }
func (m *medalResolver) Img() *string { return optString(m.m.Img) }

type cupTypeResolver struct {
	c store.CupType
}

func (c *cupTypeResolver) ID() graphql.ID { return gqlID(c.c.ID) }
func (c *cupTypeResolver) Name() string { return c.c.Name }
func (c *cupTypeResolver) Image() *string { return optString(c.c.Image) }
func (c *cupTypeResolver) Price() int32 { return int32(c.c.Price) }

// endregion

// region Achievements

type achievementArgs struct {
	Input struct {
		Name        string
		Description *string
		Img         *string
	}
}

func (r *Resolver) CreateAchievement(ctx context.Context, args achievementArgs) (*achievementResolver, error) {
	in := args.Input
	ach, err := r.api.CreateAchievement(ctx, api.AchievementInput{Name: in.Name, Description: str(in.Description), Img: str(in.Img)})
	if err != nil {
		return nil, err
	}
	return &achievementResolver{a: *ach}, nil
}

type updateAchievementArgs struct {
	ID    graphql.ID
	Input struct {
		Name        *string
		Description *string
		Img         *string
	}
}

func (r *Resolver) UpdateAchievement(ctx context.Context, args updateAchievementArgs) (*achievementResolver, error) {
	in := args.Input
	ach, err := r.api.UpdateAchievement(ctx, string(args.ID), api.AchievementUpdateInput{Name: in.Name, Description: in.Description, Img: in.Img})
	if err != nil {
		return nil, err
	}
	return &achievementResolver{a: *ach}, nil
}

func (r *Resolver) DeleteAchievement(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	return r.api.DeleteAchievement(ctx, string(args.ID))
}

func (r *Resolver) GetAchievements(ctx context.Context) ([]*achievementResolver, error) {
	achs, err := r.api.GetAchievements(ctx)
	if err != nil {
		return nil, err
	}
	return achievementList(achs), nil
}

func (r *Resolver) GetAchievement(ctx context.Context, args struct{ ID graphql.ID }) (*achievementResolver, error) {
	ach, err := r.api.GetAchievement(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return &achievementResolver{a: *ach}, nil
}

func (r *Resolver) GetUserAchievements(ctx context.Context, args struct{ UserID graphql.ID }) ([]*achievementResolver, error) {
	achs, err := r.api.GetUserAchievements(ctx, string(args.UserID))
	if err != nil {
		return nil, err
	}
	return achievementList(achs), nil
}

// endregion

// region Medals

func (r *Resolver) GetMedal(ctx context.Context, args struct{ ID graphql.ID }) (*medalResolver, error) {
	m, err := r.api.GetMedal(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return &medalResolver{m: *m}, nil
}

func (r *Resolver) GetMedals(ctx context.Context) ([]*medalResolver, error) {
	medals, err := r.api.GetMedals(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*medalResolver, len(medals))
	for i := range medals {
		out[i] = &medalResolver{m: medals[i]}
	}
	return out, nil
}

// endregion

// region Cup types

type cupTypeInput struct {
	Name  string
	Image *string
	Price int32
}

func (in cupTypeInput) toAPI() api.CupTypeInput {
	return api.CupTypeInput{Name: in.Name, Image: str(in.Image), Price: int(in.Price)}
}

func (r *Resolver) GetAllCupTypes(ctx context.Context) ([]*cupTypeResolver, error) {
	cups, err := r.api.GetAllCupTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*cupTypeResolver, len(cups))
	for i := range cups {
		out[i] = &cupTypeResolver{c: cups[i]}
	}
	return out, nil
}

func (r *Resolver) GetCupTypeByID(ctx context.Context, args struct{ ID graphql.ID }) (*cupTypeResolver, error) {
	c, err := r.api.GetCupTypeByID(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return &cupTypeResolver{c: *c}, nil
}

func (r *Resolver) AddCupType(ctx context.Context, args struct{ Input cupTypeInput }) (*cupTypeResolver, error) {
	c, err := r.api.AddCupType(ctx, args.Input.toAPI())
	if err != nil {
		return nil, err
	}
	return &cupTypeResolver{c: *c}, nil
}

func (r *Resolver) UpdateCupType(ctx context.Context, args struct {
	ID    graphql.ID
	Input cupTypeInput
}) (*cupTypeResolver, error) {
	c, err := r.api.UpdateCupType(ctx, string(args.ID), args.Input.toAPI())
	if err != nil {
		return nil, err
	}
	return &cupTypeResolver{c: *c}, nil
}

func (r *Resolver) DeleteCupType(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	return r.api.DeleteCupType(ctx, string(args.ID))
}

// endregion
