/* catalog.go
 * Contains the achievement, medal and cup type operations
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"strings"

	"gamehub/api/apperr"
	"gamehub/api/shared"
	"gamehub/api/store"

	"go.mongodb.org/mongo-driver/mongo"
)

// region Achievements

// CreateAchievement creates an achievement owned by the caller
// Preconditions: Receives the achievement input. The name must not be taken
// Postconditions: Returns the stored achievement, which is also added to the caller's achievements
func (a *API) CreateAchievement(ctx context.Context, input AchievementInput) (*store.Achievement, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := a.validateInput(input); err != nil {
		return nil, err
	}

	if _, err := a.Store.GetAchievementByName(ctx, input.Name); err == nil {
		return nil, apperr.Conflict("Achievement with this name already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal(err)
	}

	ach := &store.Achievement{Name: input.Name, Description: input.Description, Img: input.Img, UserID: uid}
	if err := a.Store.CreateAchievement(ctx, ach); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("Achievement with this name already exists")
		}
		return nil, apperr.Internal(err)
	}
	if err := a.Store.AddToSet(ctx, uid, shared.FieldAchievements, ach.ID); err != nil {
		return nil, storeErr(err, "User not found")
	}
	return ach, nil
}

// ownedAchievement loads an achievement and checks the caller owns it
func (a *API) ownedAchievement(ctx context.Context, id string) (*store.Achievement, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(id, "achievement id")
	if err != nil {
		return nil, err
	}
	ach, err := a.Store.GetAchievement(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "Achievement not found")
	}
	if ach.UserID != uid {
		return nil, apperr.Forbidden("You can only change your own achievements")
	}
	return ach, nil
}

func (a *API) UpdateAchievement(ctx context.Context, id string, input AchievementUpdateInput) (*store.Achievement, error) {
	ach, err := a.ownedAchievement(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.validateInput(input); err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
		if name != ach.Name {
			if _, err := a.Store.GetAchievementByName(ctx, name); err == nil {
				return nil, apperr.Conflict("Achievement with this name already exists")
			} else if !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, apperr.Internal(err)
			}
		}
	}

	updated, err := a.Store.UpdateAchievement(ctx, ach.ID, store.AchievementUpdate{
		Name:        input.Name,
		Description: input.Description,
		Img:         input.Img,
	})
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.Conflict("Achievement with this name already exists")
	}
	return updated, storeErr(err, "Achievement not found")
}

func (a *API) DeleteAchievement(ctx context.Context, id string) (bool, error) {
	ach, err := a.ownedAchievement(ctx, id)
	if err != nil {
		return false, err
	}
	if err := a.Store.DeleteAchievement(ctx, ach.ID); err != nil {
		return false, storeErr(err, "Achievement not found")
	}
	if err := a.Store.PullFromSet(ctx, ach.UserID, shared.FieldAchievements, ach.ID); err != nil {
		return false, storeErr(err, "User not found")
	}
	return true, nil
}

func (a *API) GetAchievements(ctx context.Context) ([]store.Achievement, error) {
	achs, err := a.Store.ListAchievements(ctx)
	return achs, storeErr(err, "Achievements not found")
}

func (a *API) GetAchievement(ctx context.Context, id string) (*store.Achievement, error) {
	oid, err := parseID(id, "achievement id")
	if err != nil {
		return nil, err
	}
	ach, err := a.Store.GetAchievement(ctx, oid)
	return ach, storeErr(err, "Achievement not found")
}

func (a *API) GetUserAchievements(ctx context.Context, userID string) ([]store.Achievement, error) {
	oid, err := parseID(userID, "user id")
	if err != nil {
		return nil, err
	}
	achs, err := a.Store.ListAchievementsByUser(ctx, oid)
	return achs, storeErr(err, "Achievements not found")
}

// endregion

// region Medals

func (a *API) GetMedal(ctx context.Context, id string) (*store.Medal, error) {
	oid, err := parseID(id, "medal id")
	if err != nil {
		return nil, err
	}
	medal, err := a.Store.GetMedal(ctx, oid)
	return medal, storeErr(err, "Medal not found")
}

func (a *API) GetMedals(ctx context.Context) ([]store.Medal, error) {
	medals, err := a.Store.ListMedals(ctx)
	return medals, storeErr(err, "Medals not found")
}

// endregion

// region Cup types

func (a *API) GetAllCupTypes(ctx context.Context) ([]store.CupType, error) {
	cups, err := a.Store.ListCupTypes(ctx)
	return cups, storeErr(err, "Cup types not found")
}

func (a *API) GetCupTypeByID(ctx context.Context, id string) (*store.CupType, error) {
	oid, err := parseID(id, "cup type id")
	if err != nil {
		return nil, err
	}
	cup, err := a.Store.GetCupType(ctx, oid)
	return cup, storeErr(err, "Cup type not found")
}

// AddCupType creates a cup type. Only admins manage the catalog
func (a *API) AddCupType(ctx context.Context, input CupTypeInput) (*store.CupType, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := a.validateInput(input); err != nil {
		return nil, err
	}
	cup := &store.CupType{Name: input.Name, Image: input.Image, Price: input.Price}
	if err := a.Store.CreateCupType(ctx, cup); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("Cup type already exists")
		}
		return nil, apperr.Internal(err)
	}
	return cup, nil
}

func (a *API) UpdateCupType(ctx context.Context, id string, input CupTypeInput) (*store.CupType, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	oid, err := parseID(id, "cup type id")
	if err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := a.validateInput(input); err != nil {
		return nil, err
	}
	cup, err := a.Store.UpdateCupType(ctx, &store.CupType{ID: oid, Name: input.Name, Image: input.Image, Price: input.Price})
	return cup, storeErr(err, "Cup type not found")
}

func (a *API) DeleteCupType(ctx context.Context, id string) (bool, error) {
	if err := requireAdmin(ctx); err != nil {
		return false, err
	}
	oid, err := parseID(id, "cup type id")
	if err != nil {
		return false, err
	}
	if err := a.Store.DeleteCupType(ctx, oid); err != nil {
		return false, storeErr(err, "Cup type not found")
	}
	return true, nil
}

// endregion

func requireAdmin(ctx context.Context) error {
	id, _, err := requireUser(ctx)
	if err != nil {
		return err
	}
	if !id.IsAdmin {
		return apperr.Forbidden("Admin access required")
	}
	return nil
}
