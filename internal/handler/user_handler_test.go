package handler

import (
	"fmt"
	"net/http"
	"testing"

	"storefront-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanRequiresStrictOutranking(t *testing.T) {
	db := setupTest(t)
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)
	peer := seedUser(t, db, "peer@example.com", model.RoleStoreAdmin)

	c, rec := newContext(t, http.MethodPatch, "/api/users/ban", map[string]interface{}{
		"reason": "spam",
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(peer.ID))
	asUser(c, admin)

	require.NoError(t, BanUser(c))
	require.Equal(t, http.StatusForbidden, rec.Code)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, peer.ID).Error)
	assert.False(t, reloaded.IsBanned)
}

func TestOwnerCanNeverBeTargeted(t *testing.T) {
	db := setupTest(t)
	owner := seedUser(t, db, "owner@example.com", model.RoleOwner)
	secondOwner := seedUser(t, db, "owner2@example.com", model.RoleOwner)

	c, rec := newContext(t, http.MethodPatch, "/api/users/ban", map[string]interface{}{
		"reason": "test",
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(secondOwner.ID))
	asUser(c, owner)

	require.NoError(t, BanUser(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStoreAdminCanBanPlainUser(t *testing.T) {
	db := setupTest(t)
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)
	target := seedUser(t, db, "user@example.com", model.RoleUser)

	c, rec := newContext(t, http.MethodPatch, "/api/users/ban", map[string]interface{}{
		"reason": "abusive reviews",
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(target.ID))
	asUser(c, admin)

	require.NoError(t, BanUser(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.True(t, reloaded.IsBanned)
	assert.Equal(t, "abusive reviews", reloaded.BanReason)
}

func TestBanRequiresReason(t *testing.T) {
	db := setupTest(t)
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)
	target := seedUser(t, db, "user@example.com", model.RoleUser)

	c, rec := newContext(t, http.MethodPatch, "/api/users/ban", map[string]interface{}{})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(target.ID))
	asUser(c, admin)

	require.NoError(t, BanUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromoteRaisesUserToStoreAdmin(t *testing.T) {
	db := setupTest(t)
	owner := seedUser(t, db, "owner@example.com", model.RoleOwner)
	target := seedUser(t, db, "user@example.com", model.RoleUser)

	c, rec := newContext(t, http.MethodPatch, "/api/users/promote", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(target.ID))
	asUser(c, owner)

	require.NoError(t, PromoteUser(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.Equal(t, model.RoleStoreAdmin, reloaded.Role)
}

func TestDemoteLowersStoreAdminToUser(t *testing.T) {
	db := setupTest(t)
	owner := seedUser(t, db, "owner@example.com", model.RoleOwner)
	target := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)

	c, rec := newContext(t, http.MethodPatch, "/api/users/demote", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(target.ID))
	asUser(c, owner)

	require.NoError(t, DemoteUser(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.Equal(t, model.RoleUser, reloaded.Role)
}

func TestPromoteRejectsWrongStartingRole(t *testing.T) {
	db := setupTest(t)
	owner := seedUser(t, db, "owner@example.com", model.RoleOwner)
	target := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)

	c, rec := newContext(t, http.MethodPatch, "/api/users/promote", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(target.ID))
	asUser(c, owner)

	require.NoError(t, PromoteUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
