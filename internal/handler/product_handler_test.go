package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"storefront-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProductsHidesFlaggedFromShoppers(t *testing.T) {
	db := setupTest(t)
	seedProduct(t, db, "SKU-VISIBLE", 10, nil, 5)
	hidden := seedProduct(t, db, "SKU-HIDDEN", 10, nil, 5)
	blocked := seedProduct(t, db, "SKU-BLOCKED", 10, nil, 5)
	require.NoError(t, db.Model(hidden).Update("hidden", true).Error)
	require.NoError(t, db.Model(blocked).Update("blocked", true).Error)

	// Anonymous caller sees only the purchasable product
	c, rec := newContext(t, http.MethodGet, "/api/products", nil)
	require.NoError(t, ListProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "SKU-VISIBLE", listed[0].SKU)

	// Store admin sees everything
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)
	c, rec = newContext(t, http.MethodGet, "/api/products", nil)
	asUser(c, admin)
	require.NoError(t, ListProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 3)
}

func TestGetProductHiddenLooksLikeMissing(t *testing.T) {
	db := setupTest(t)
	hidden := seedProduct(t, db, "SKU-HIDDEN", 10, nil, 5)
	require.NoError(t, db.Model(hidden).Update("hidden", true).Error)

	c, rec := newContext(t, http.MethodGet, "/api/products/1", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(hidden.ID))
	require.NoError(t, GetProduct(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)
	c, rec = newContext(t, http.MethodGet, "/api/products/1", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(hidden.ID))
	asUser(c, admin)
	require.NoError(t, GetProduct(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	db := setupTest(t)
	seedProduct(t, db, "SKU-TAKEN", 10, nil, 5)
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)

	c, rec := newContext(t, http.MethodPost, "/api/products", map[string]interface{}{
		"name":  "Duplicate",
		"sku":   "SKU-TAKEN",
		"price": "19.99",
		"stock": 3,
	})
	asUser(c, admin)

	require.NoError(t, CreateProduct(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateProductValidation(t *testing.T) {
	db := setupTest(t)
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"sku": "S1", "price": "10", "stock": 1}},
		{"missing sku", map[string]interface{}{"name": "N", "price": "10", "stock": 1}},
		{"zero price", map[string]interface{}{"name": "N", "sku": "S1", "price": "0", "stock": 1}},
		{"negative stock", map[string]interface{}{"name": "N", "sku": "S1", "price": "10", "stock": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(t, http.MethodPost, "/api/products", tt.body)
			asUser(c, admin)
			require.NoError(t, CreateProduct(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	var count int64
	db.Model(&model.Product{}).Count(&count)
	assert.Zero(t, count)
}

func TestUpdateStockDeltaAndFloor(t *testing.T) {
	db := setupTest(t)
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)
	product := seedProduct(t, db, "SKU-1", 10, nil, 5)

	// Signed adjustment
	c, rec := newContext(t, http.MethodPatch, "/api/products/1/stock", map[string]interface{}{
		"delta": -3,
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(product.ID))
	asUser(c, admin)
	require.NoError(t, UpdateStock(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded model.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 2, reloaded.Stock)

	// Adjustment below zero is rejected and leaves stock untouched
	c, rec = newContext(t, http.MethodPatch, "/api/products/1/stock", map[string]interface{}{
		"delta": -5,
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(product.ID))
	asUser(c, admin)
	require.NoError(t, UpdateStock(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 2, reloaded.Stock)

	// Absolute value
	c, rec = newContext(t, http.MethodPatch, "/api/products/1/stock", map[string]interface{}{
		"stock": 40,
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(product.ID))
	asUser(c, admin)
	require.NoError(t, UpdateStock(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 40, reloaded.Stock)
}

func TestHideProductTogglesFlag(t *testing.T) {
	db := setupTest(t)
	owner := seedUser(t, db, "owner@example.com", model.RoleOwner)
	product := seedProduct(t, db, "SKU-1", 10, nil, 5)

	c, rec := newContext(t, http.MethodPatch, "/api/products/1/hide", map[string]interface{}{
		"value": true,
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(product.ID))
	asUser(c, owner)
	require.NoError(t, HideProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded model.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.True(t, reloaded.Hidden)
	assert.False(t, reloaded.Purchasable())

	c, rec = newContext(t, http.MethodPatch, "/api/products/1/hide", map[string]interface{}{
		"value": false,
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(product.ID))
	asUser(c, owner)
	require.NoError(t, HideProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.False(t, reloaded.Hidden)
	assert.True(t, reloaded.Purchasable())
}
