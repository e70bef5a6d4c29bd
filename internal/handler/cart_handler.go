package handler

import (
	"net/http"

	"storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/pkg/database"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CartItemRequest is one line of a cart update or merge payload
type CartItemRequest struct {
	ProductID uint   `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// GetCart returns the caller's server-side cart
func GetCart(c echo.Context) error {
	log := logger.FromContext(c)
	user, _ := middleware.UserFromContext(c)

	cart, err := loadCart(user.ID)
	if err != nil {
		log.Error("Failed to load cart", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load cart"})
	}

	return c.JSON(http.StatusOK, cart)
}

// UpdateCart replaces the caller's cart items with the submitted list
func UpdateCart(c echo.Context) error {
	log := logger.FromContext(c)
	user, _ := middleware.UserFromContext(c)

	var req struct {
		Items []CartItemRequest `json:"items"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid cart payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	for _, item := range req.Items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each item needs a product_id and a positive quantity"})
		}
	}

	cart, err := loadCart(user.ID)
	if err != nil {
		log.Error("Failed to load cart", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load cart"})
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		for _, item := range req.Items {
			row := model.CartItem{
				CartID:    cart.ID,
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to update cart", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update cart"})
	}

	cart, err = loadCart(user.ID)
	if err != nil {
		log.Error("Failed to reload cart", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load cart"})
	}

	log.Info("Cart updated",
		zap.Uint("user_id", user.ID),
		zap.Int("items", len(cart.Items)))
	return c.JSON(http.StatusOK, cart)
}

// MergeCart folds an anonymous browser cart into the server cart. Quantities
// for matching (product, variant) pairs are summed.
func MergeCart(c echo.Context) error {
	log := logger.FromContext(c)
	user, _ := middleware.UserFromContext(c)

	var req struct {
		Items []CartItemRequest `json:"items"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid cart merge payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	cart, err := loadCart(user.ID)
	if err != nil {
		log.Error("Failed to load cart", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load cart"})
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		for _, item := range req.Items {
			if item.ProductID == 0 || item.Quantity <= 0 {
				continue
			}

			var existing model.CartItem
			result := tx.Where("cart_id = ? AND product_id = ? AND variant_id = ?",
				cart.ID, item.ProductID, item.VariantID).First(&existing)
			if result.Error == nil {
				if err := tx.Model(&existing).Update("quantity", existing.Quantity+item.Quantity).Error; err != nil {
					return err
				}
				continue
			}

			row := model.CartItem{
				CartID:    cart.ID,
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to merge cart", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to merge cart"})
	}

	cart, err = loadCart(user.ID)
	if err != nil {
		log.Error("Failed to reload cart", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load cart"})
	}

	log.Info("Cart merged",
		zap.Uint("user_id", user.ID),
		zap.Int("items", len(cart.Items)))
	return c.JSON(http.StatusOK, cart)
}

// loadCart fetches the user's cart, creating an empty one on first use
func loadCart(userID uint) (*model.Cart, error) {
	var cart model.Cart
	result := database.GetDB().Preload("Items").Where("user_id = ?", userID).First(&cart)
	if result.Error == nil {
		return &cart, nil
	}
	if result.Error != gorm.ErrRecordNotFound {
		return nil, result.Error
	}

	cart = model.Cart{UserID: userID}
	if err := database.GetDB().Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}
