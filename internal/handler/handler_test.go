package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-service/internal/model"
	"storefront-service/pkg/config"
	"storefront-service/pkg/database"
	"storefront-service/pkg/jwtutil"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testGatewaySecret = "test-key-secret"
const testWebhookSecret = "test-webhook-secret"

// setupTest wires an in-memory database and test configuration
func setupTest(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.PaymentLog{},
		&model.ActivityLog{},
		&model.StoreSetting{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			SigningKey:      "test-signing-key",
			ExpirationHours: 1,
		},
		Gateway: config.GatewayConfig{
			BaseURL:       "http://localhost:0",
			KeyID:         "rzp_test_key",
			KeySecret:     testGatewaySecret,
			WebhookSecret: testWebhookSecret,
			Currency:      "INR",
		},
		Checkout: config.CheckoutConfig{
			PlatformFeePercent: 0.10,
		},
	}
	jwtutil.Initialize(&cfg.JWT)
	Initialize(cfg)

	return db
}

// newContext builds an echo context around a JSON request body
func newContext(t *testing.T, method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// newRawContext builds an echo context around a raw request body
func newRawContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// asUser attaches an authenticated user to the context, as AuthMiddleware would
func asUser(c echo.Context, user *model.User) {
	c.Set("user", user)
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *model.User {
	t.Helper()
	user := &model.User{
		Email:      email,
		Password:   "$2a$10$placeholderhashplaceholderhashplaceholde",
		Role:       role,
		IsVerified: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, price float64, salePrice *float64, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:  "Product " + sku,
		SKU:   sku,
		Price: decimal.NewFromFloat(price),
		Stock: stock,
	}
	if salePrice != nil {
		sp := decimal.NewFromFloat(*salePrice)
		product.SalePrice = &sp
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedOrder(t *testing.T, db *gorm.DB, userID uint, status string, items []model.OrderItem) *model.Order {
	t.Helper()
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	fee := subtotal.Mul(decimal.NewFromFloat(0.10)).Round(2)
	order := &model.Order{
		UserID:        userID,
		Items:         items,
		Subtotal:      subtotal,
		PlatformFee:   fee,
		TotalAmount:   subtotal.Add(fee),
		Status:        status,
		PaymentStatus: model.PaymentStatusPending,
		PaymentMethod: model.PaymentMethodGateway,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func seedLog(t *testing.T, db *gorm.DB, action, category, severity string, createdAt time.Time) {
	t.Helper()
	row := &model.ActivityLog{
		Action:   action,
		Category: category,
		Severity: severity,
	}
	require.NoError(t, db.Create(row).Error)
	// CreatedAt is set by GORM on insert; rewrite it for range tests
	require.NoError(t, db.Model(row).Update("created_at", createdAt).Error)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func floatPtr(f float64) *float64 { return &f }
