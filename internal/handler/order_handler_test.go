package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"storefront-service/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderComputesAuthoritativeTotals(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)
	product := seedProduct(t, db, "P1", 45, floatPtr(39), 12)

	// The submitted price is a lie; the server must ignore it
	c, rec := newContext(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": 2, "price": 1},
		},
		"shipping_address": map[string]string{"name": "Buyer", "line1": "1 Main St", "city": "Pune"},
		"payment_method":   "cod",
	})
	asUser(c, user)

	require.NoError(t, CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order model.Order
	require.NoError(t, db.Preload("Items").First(&order).Error)

	// 2 x 39 = 78 subtotal, 10% fee = 7.80, total = 85.80
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("78")), "subtotal = %s", order.Subtotal)
	assert.True(t, order.PlatformFee.Equal(decimal.RequireFromString("7.8")), "fee = %s", order.PlatformFee)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("85.8")), "total = %s", order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("39")))
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)

	var reloaded model.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 10, reloaded.Stock)
}

func TestCreateOrderRejectsInsufficientStockInFull(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)
	inStock := seedProduct(t, db, "P1", 20, nil, 5)
	short := seedProduct(t, db, "P2", 10, nil, 1)

	c, rec := newContext(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": inStock.ID, "quantity": 2},
			{"product_id": short.ID, "quantity": 3},
		},
		"payment_method": "cod",
	})
	asUser(c, user)

	require.NoError(t, CreateOrder(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// No partial order, no stock movement
	var orderCount int64
	db.Model(&model.Order{}).Count(&orderCount)
	assert.EqualValues(t, 0, orderCount)

	var reloaded model.Product
	require.NoError(t, db.First(&reloaded, inStock.ID).Error)
	assert.Equal(t, 5, reloaded.Stock)
}

func TestCreateOrderRejectsUnknownProduct(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)

	c, rec := newContext(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"items":          []map[string]interface{}{{"product_id": 9999, "quantity": 1}},
		"payment_method": "cod",
	})
	asUser(c, user)

	require.NoError(t, CreateOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderRejectsHiddenProduct(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)
	product := seedProduct(t, db, "P1", 20, nil, 5)
	require.NoError(t, db.Model(product).Update("hidden", true).Error)

	c, rec := newContext(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"items":          []map[string]interface{}{{"product_id": product.ID, "quantity": 1}},
		"payment_method": "cod",
	})
	asUser(c, user)

	require.NoError(t, CreateOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderClearsCart(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)
	product := seedProduct(t, db, "P1", 20, nil, 5)

	cart := &model.Cart{UserID: user.ID, Items: []model.CartItem{
		{ProductID: product.ID, Quantity: 2},
	}}
	require.NoError(t, db.Create(cart).Error)

	c, rec := newContext(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"items":          []map[string]interface{}{{"product_id": product.ID, "quantity": 2}},
		"payment_method": "cod",
	})
	asUser(c, user)

	require.NoError(t, CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var itemCount int64
	db.Model(&model.CartItem{}).Where("cart_id = ?", cart.ID).Count(&itemCount)
	assert.EqualValues(t, 0, itemCount)
}

func TestCancelOrderRestoresStockExactlyOnce(t *testing.T) {
	db := setupTest(t)
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)
	product := seedProduct(t, db, "P1", 20, nil, 10)

	order := seedOrder(t, db, admin.ID, model.OrderStatusPending, []model.OrderItem{
		{ProductID: product.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(20)},
	})

	cancel := func() *model.Order {
		c, rec := newContext(t, http.MethodPatch, "/api/orders/1", map[string]interface{}{
			"status": model.OrderStatusCancelled,
		})
		c.SetParamNames("id")
		c.SetParamValues("1")
		asUser(c, admin)
		require.NoError(t, UpdateOrder(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var reloaded model.Order
		require.NoError(t, db.First(&reloaded, order.ID).Error)
		return &reloaded
	}

	first := cancel()
	assert.Equal(t, model.OrderStatusCancelled, first.Status)

	var reloaded model.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 14, reloaded.Stock)

	// Cancelling again must be a stock no-op
	cancel()
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 14, reloaded.Stock)
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	db := setupTest(t)
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)
	product := seedProduct(t, db, "P1", 20, nil, 3)

	order := seedOrder(t, db, admin.ID, model.OrderStatusPending, []model.OrderItem{
		{ProductID: product.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(20)},
	})

	c, rec := newContext(t, http.MethodDelete, "/api/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, admin)

	require.NoError(t, DeleteOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded model.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 5, reloaded.Stock)

	var count int64
	db.Model(&model.Order{}).Where("id = ?", order.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestDeleteCancelledOrderDoesNotRestoreStock(t *testing.T) {
	db := setupTest(t)
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)
	product := seedProduct(t, db, "P1", 20, nil, 3)

	seedOrder(t, db, admin.ID, model.OrderStatusCancelled, []model.OrderItem{
		{ProductID: product.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(20)},
	})

	c, rec := newContext(t, http.MethodDelete, "/api/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, admin)

	require.NoError(t, DeleteOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded model.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)
}

func TestUpdateOrderRejectsUnknownStatus(t *testing.T) {
	db := setupTest(t)
	admin := seedUser(t, db, "admin@example.com", model.RoleStoreAdmin)
	seedOrder(t, db, admin.ID, model.OrderStatusPending, nil)

	c, rec := newContext(t, http.MethodPatch, "/api/orders/1", map[string]interface{}{
		"status": "teleported",
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, admin)

	require.NoError(t, UpdateOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrdersScopedToCaller(t *testing.T) {
	db := setupTest(t)
	alice := seedUser(t, db, "alice@example.com", model.RoleUser)
	bob := seedUser(t, db, "bob@example.com", model.RoleUser)
	seedOrder(t, db, alice.ID, model.OrderStatusPending, nil)
	seedOrder(t, db, bob.ID, model.OrderStatusPending, nil)

	c, rec := newContext(t, http.MethodGet, "/api/orders", nil)
	asUser(c, alice)

	require.NoError(t, ListOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []model.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, alice.ID, orders[0].UserID)
}

func TestPlatformFeeSettingOverridesDefault(t *testing.T) {
	db := setupTest(t)
	user := seedUser(t, db, "buyer@example.com", model.RoleUser)
	product := seedProduct(t, db, "P1", 100, nil, 10)

	require.NoError(t, db.Create(&model.StoreSetting{
		Key:   model.SettingPlatformFeePercent,
		Value: "0.05",
	}).Error)

	c, rec := newContext(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"items":          []map[string]interface{}{{"product_id": product.ID, "quantity": 1}},
		"payment_method": "cod",
	})
	asUser(c, user)

	require.NoError(t, CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order model.Order
	require.NoError(t, db.First(&order).Error)
	assert.True(t, order.PlatformFee.Equal(decimal.RequireFromString("5")), "fee = %s", order.PlatformFee)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("105")))
}
