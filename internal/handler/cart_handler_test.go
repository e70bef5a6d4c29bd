package handler

import (
	"net/http"
	"testing"

	"storefront-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateCartReplacesItems(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)

	cart := &model.Cart{UserID: user.ID, Items: []model.CartItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 2},
	}}
	require.NoError(t, db.Create(cart).Error)

	c, rec := newContext(t, http.MethodPut, "/api/cart", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": 3, "quantity": 5},
		},
	})
	asUser(c, user)

	require.NoError(t, UpdateCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []model.CartItem
	require.NoError(t, db.Where("cart_id = ?", cart.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.EqualValues(t, 3, items[0].ProductID)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestMergeCartSumsQuantities(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)

	cart := &model.Cart{UserID: user.ID, Items: []model.CartItem{
		{ProductID: 1, Quantity: 2},
	}}
	require.NoError(t, db.Create(cart).Error)

	c, rec := newContext(t, http.MethodPost, "/api/cart/merge", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": 1, "quantity": 3},
			{"product_id": 2, "quantity": 1},
		},
	})
	asUser(c, user)

	require.NoError(t, MergeCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []model.CartItem
	require.NoError(t, db.Where("cart_id = ?", cart.ID).Order("product_id").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestMergeCartKeepsVariantsDistinct(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)

	cart := &model.Cart{UserID: user.ID, Items: []model.CartItem{
		{ProductID: 1, VariantID: "red", Quantity: 1},
	}}
	require.NoError(t, db.Create(cart).Error)

	c, rec := newContext(t, http.MethodPost, "/api/cart/merge", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": 1, "variant_id": "blue", "quantity": 1},
		},
	})
	asUser(c, user)

	require.NoError(t, MergeCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&model.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestGetCartCreatesEmptyOnFirstUse(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)

	c, rec := newContext(t, http.MethodGet, "/api/cart", nil)
	asUser(c, user)

	require.NoError(t, GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var cart model.Cart
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&cart).Error)
}

func TestUpdateCartRejectsNonPositiveQuantity(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)

	c, rec := newContext(t, http.MethodPut, "/api/cart", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": 1, "quantity": 0},
		},
	})
	asUser(c, user)

	require.NoError(t, UpdateCart(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
