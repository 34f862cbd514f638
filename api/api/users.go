/* users.go
 * Contains the account operations: sign up, login, profile reads and updates, search and presence
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"strings"

	"gamehub/api/apperr"
	"gamehub/api/auth"
	"gamehub/api/logic"
	"gamehub/api/shared"
	"gamehub/api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SignUp creates an account
// Preconditions: Receives the sign up input
// Postconditions: Returns the created user with a hashed password, the beginner level and the bronze ranked league
// when it exists. Returns 409 when the email or username is taken
func (a *API) SignUp(ctx context.Context, input SignUpInput) (*store.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	if err := a.validateInput(input); err != nil {
		return nil, err
	}

	if _, err := a.Store.GetUserByEmail(ctx, input.Email); err == nil {
		return nil, apperr.Conflict("User with this email already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal(err)
	}
	if _, err := a.Store.GetUserByUsername(ctx, input.Username); err == nil {
		return nil, apperr.Conflict("Username is already taken")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal(err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	name, num := logic.LevelFor(0)
	user := &store.User{
		Name:     strings.TrimSpace(input.Name),
		Username: input.Username,
		Email:    input.Email,
		Password: hash,
		Phone:    input.Phone,
		Level:    store.Level{Name: name, Num: num},
	}
	if bronze, err := a.Store.GetLeagueByName(ctx, shared.TierBronze); err == nil {
		user.League = &store.LeagueStanding{ID: bronze.ID}
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Internal(err)
	}

	if err := a.Store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal(err)
	}

	a.emit(ctx, shared.EventUserSignedUp, map[string]string{"userId": user.ID.Hex(), "username": user.Username})
	return user, nil
}

// Login checks credentials and issues a token
func (a *API) Login(ctx context.Context, email, password string) (*AuthData, error) {
	user, err := a.Store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Unauthorized("Invalid email or password")
		}
		return nil, apperr.Internal(err)
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	token, err := a.Tokens.Issue(auth.Identity{UserID: user.ID.Hex(), IsAdmin: user.IsAdmin})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthData{Token: token, TokenExpiration: int(a.Tokens.TTL().Hours()), User: user}, nil
}

func (a *API) GetUser(ctx context.Context, id string) (*store.User, error) {
	if _, _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	oid, err := parseID(id, "user id")
	if err != nil {
		return nil, err
	}
	user, err := a.Store.GetUserByID(ctx, oid)
	return user, storeErr(err, "User not found")
}

// Me returns the caller's own user document
func (a *API) Me(ctx context.Context) (*store.User, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	user, err := a.Store.GetUserByID(ctx, uid)
	return user, storeErr(err, "User not found")
}

func (a *API) GetUsers(ctx context.Context) ([]store.User, error) {
	if _, _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	users, err := a.Store.ListUsers(ctx)
	return users, storeErr(err, "Users not found")
}

// GetUsersByIDs resolves a list of user references, skipping any that no longer exist
func (a *API) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]store.User, error) {
	users, err := a.Store.GetUsersByIDs(ctx, ids)
	return users, storeErr(err, "Users not found")
}

// UpdateUser changes the caller's own profile. A new email must not belong to another user
func (a *API) UpdateUser(ctx context.Context, input UpdateUserInput) (*store.User, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if input.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*input.Email))
		input.Email = &lowered
	}
	if err := a.validateInput(input); err != nil {
		return nil, err
	}

	update := store.UserUpdate{Name: input.Name, Email: input.Email, Bio: input.Bio, Phone: input.Phone}
	if input.Email != nil {
		existing, err := a.Store.GetUserByEmail(ctx, *input.Email)
		if err == nil && existing.ID != uid {
			return nil, apperr.Conflict("User with this email already exists")
		} else if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Internal(err)
		}
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		update.Password = &hash
	}

	user, err := a.Store.UpdateUser(ctx, uid, update)
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.Conflict("User with this email already exists")
	}
	return user, storeErr(err, "User not found")
}

// DeleteUser removes an account. Allowed on yourself, or on anyone by an admin
func (a *API) DeleteUser(ctx context.Context, id string) (bool, error) {
	ident, uid, err := requireUser(ctx)
	if err != nil {
		return false, err
	}
	target, err := parseID(id, "user id")
	if err != nil {
		return false, err
	}
	if target != uid && !ident.IsAdmin {
		return false, apperr.Forbidden("You can only delete your own account")
	}
	if err := a.Store.DeleteUser(ctx, target); err != nil {
		return false, storeErr(err, "User not found")
	}
	return true, nil
}

// SearchUsers fuzzy matches usernames against the query. Quoted phrases are matched as one term
func (a *API) SearchUsers(ctx context.Context, query string) ([]store.User, error) {
	if _, _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	terms, err := logic.SplitTerms(query)
	if err != nil {
		return nil, apperr.BadRequest("Invalid search query")
	}
	if len(terms) == 0 {
		return []store.User{}, nil
	}

	users, err := a.Store.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	byName := make(map[string]store.User, len(users))
	names := make([]string, 0, len(users))
	for _, u := range users {
		byName[u.Username] = u
		names = append(names, u.Username)
	}

	matched := logic.FuzzyFilter(terms, names)
	out := make([]store.User, 0, len(matched))
	for _, name := range matched {
		out = append(out, byName[name])
	}
	return out, nil
}

// OnlineUsers returns the users with an open subscription connection
func (a *API) OnlineUsers(ctx context.Context) ([]store.User, error) {
	if _, _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	online, err := a.Presence.Online(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	ids := make([]primitive.ObjectID, 0, len(online))
	for _, raw := range online {
		if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
			ids = append(ids, oid)
		}
	}
	return a.GetUsersByIDs(ctx, ids)
}

// SetUserImage records the uploaded image path on the caller's profile and returns the path it replaced
func (a *API) SetUserImage(ctx context.Context, path string) (string, error) {
	_, uid, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	previous, err := a.Store.SetUserImage(ctx, uid, path)
	return previous, storeErr(err, "User not found")
}

// UserImage returns the stored image path of a user looked up by username
func (a *API) UserImage(ctx context.Context, username string) (string, error) {
	user, err := a.Store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", storeErr(err, "User not found")
	}
	if user.Image == "" {
		return "", apperr.NotFound("User has no image")
	}
	return user.Image, nil
}

// lookupUser resolves an identifier that is either an email or a username
func (a *API) lookupUser(ctx context.Context, identifier string) (*store.User, error) {
	identifier = strings.TrimSpace(identifier)
	var (
		user *store.User
		err  error
	)
	if logic.IsEmail(identifier) {
		user, err = a.Store.GetUserByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = a.Store.GetUserByUsername(ctx, identifier)
	}
	return user, storeErr(err, "User not found")
}
