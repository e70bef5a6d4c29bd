package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-service/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleContext(role string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if role != "" {
		c.Set("user", &model.User{Email: role + "@example.com", Role: role})
	}
	return c, rec
}

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}

func TestRequireStoreAdmin(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{model.RoleUser, http.StatusForbidden},
		{model.RoleStoreAdmin, http.StatusOK},
		{model.RoleOwner, http.StatusOK},
		{"", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		c, rec := roleContext(tt.role)
		require.NoError(t, RequireStoreAdmin(okHandler)(c))
		assert.Equal(t, tt.want, rec.Code, "role %q", tt.role)
	}
}

func TestRequireOwner(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{model.RoleUser, http.StatusForbidden},
		{model.RoleStoreAdmin, http.StatusForbidden},
		{model.RoleOwner, http.StatusOK},
		{"", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		c, rec := roleContext(tt.role)
		require.NoError(t, RequireOwner(okHandler)(c))
		assert.Equal(t, tt.want, rec.Code, "role %q", tt.role)
	}
}
