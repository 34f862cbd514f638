/* catalog_test.go
 * Contains unit tests for catalog.go
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"net/http"
	"testing"

	"gamehub/api/shared"
	"gamehub/api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// region Achievement tests

func TestAchievements_OwnerFlow(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")

	ach, err := a.CreateAchievement(as(ada), AchievementInput{Name: " First Win ", Description: "won once"})
	require.NoError(t, err)
	assert.Equal(t, "First Win", ach.Name)
	assert.Equal(t, ada.ID, ach.UserID)
	assert.True(t, ms.Users[ada.ID].HasRelation(shared.FieldAchievements, ach.ID))

	_, err = a.CreateAchievement(as(bob), AchievementInput{Name: "First Win"})
	requireCode(t, err, http.StatusConflict)

	name := "Renamed"
	_, err = a.UpdateAchievement(as(bob), ach.ID.Hex(), AchievementUpdateInput{Name: &name})
	requireCode(t, err, http.StatusForbidden)

	updated, err := a.UpdateAchievement(as(ada), ach.ID.Hex(), AchievementUpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "won once", updated.Description)

	mine, err := a.GetUserAchievements(context.Background(), ada.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = a.DeleteAchievement(as(bob), ach.ID.Hex())
	requireCode(t, err, http.StatusForbidden)

	ok, err := a.DeleteAchievement(as(ada), ach.ID.Hex())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, ms.Users[ada.ID].Achievements)

	_, err = a.GetAchievement(context.Background(), ach.ID.Hex())
	requireCode(t, err, http.StatusNotFound)
}

func TestUpdateAchievement_NameTaken(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	first, err := a.CreateAchievement(as(ada), AchievementInput{Name: "One"})
	require.NoError(t, err)
	_, err = a.CreateAchievement(as(ada), AchievementInput{Name: "Two"})
	require.NoError(t, err)

	taken := "Two"
	_, err = a.UpdateAchievement(as(ada), first.ID.Hex(), AchievementUpdateInput{Name: &taken})
	requireCode(t, err, http.StatusConflict)

	all, err := a.GetAchievements(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// endregion

// region Medal tests

func TestMedals(t *testing.T) {
	a, ms := newTestAPI(t)
	gold := &store.Medal{ID: primitive.NewObjectID(), Name: "Gold"}
	ms.Medals[gold.ID] = gold
	ms.Medals[primitive.NewObjectID()] = &store.Medal{Name: "Bronze"}

	medals, err := a.GetMedals(context.Background())
	require.NoError(t, err)
	require.Len(t, medals, 2)
	assert.Equal(t, "Bronze", medals[0].Name)

	got, err := a.GetMedal(context.Background(), gold.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Gold", got.Name)

	_, err = a.GetMedal(context.Background(), "nope")
	requireCode(t, err, http.StatusBadRequest)
}

// endregion

// region Cup type tests

func TestCupTypes(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")

	_, err := a.AddCupType(as(ada), CupTypeInput{Name: "Golden Cup", Price: 100})
	requireCode(t, err, http.StatusForbidden)

	cup, err := a.AddCupType(asAdmin(ada), CupTypeInput{Name: "Golden Cup", Image: "/uploads/cup.png", Price: 100})
	require.NoError(t, err)
	_, err = a.AddCupType(asAdmin(ada), CupTypeInput{Name: "Tin Cup", Price: 5})
	require.NoError(t, err)

	cups, err := a.GetAllCupTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, cups, 2)
	assert.Equal(t, "Tin Cup", cups[0].Name)

	updated, err := a.UpdateCupType(asAdmin(ada), cup.ID.Hex(), CupTypeInput{Name: "Platinum Cup", Price: 250})
	require.NoError(t, err)
	assert.Equal(t, 250, updated.Price)

	got, err := a.GetCupTypeByID(context.Background(), cup.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Platinum Cup", got.Name)

	_, err = a.AddCupType(asAdmin(ada), CupTypeInput{Name: "Negative", Price: -1})
	requireCode(t, err, http.StatusBadRequest)

	ok, err := a.DeleteCupType(asAdmin(ada), cup.ID.Hex())
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = a.DeleteCupType(asAdmin(ada), cup.ID.Hex())
	requireCode(t, err, http.StatusNotFound)
}

// endregion
