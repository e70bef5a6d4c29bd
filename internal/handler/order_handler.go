package handler

import (
	"fmt"
	"net/http"

	"storefront-service/internal/audit"
	"storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/internal/role"
	"storefront-service/pkg/database"
	"storefront-service/pkg/logger"
	"storefront-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderItemRequest is one submitted checkout line. The price field is
// advisory only: totals are always recomputed from the catalog.
type OrderItemRequest struct {
	ProductID uint             `json:"product_id"`
	VariantID string           `json:"variant_id,omitempty"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// OrderRequest is the checkout submission payload
type OrderRequest struct {
	Items           []OrderItemRequest    `json:"items"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
}

// CreateOrder places an order: authoritative prices and stock are re-read
// from the catalog, totals are recomputed server-side, stock is decremented
// conditionally, and the caller's cart is cleared, all in one transaction.
func CreateOrder(c echo.Context) error {
	log := logger.FromContext(c)
	user, _ := middleware.UserFromContext(c)

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid order payload", zap.Error(err))
		prometheus.OrderRejectedCounter.WithLabelValues("validation").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if len(req.Items) == 0 {
		prometheus.OrderRejectedCounter.WithLabelValues("validation").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order must contain at least one item"})
	}

	if req.PaymentMethod != model.PaymentMethodCOD && req.PaymentMethod != model.PaymentMethodGateway {
		prometheus.OrderRejectedCounter.WithLabelValues("validation").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_method must be cod or gateway"})
	}

	for _, item := range req.Items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			prometheus.OrderRejectedCounter.WithLabelValues("validation").Inc()
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each item needs a product_id and a positive quantity"})
		}
	}

	// Batch-fetch the referenced products
	ids := make([]uint, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}

	var products []model.Product
	if err := database.GetDB().Where("id IN ?", ids).Find(&products).Error; err != nil {
		log.Error("Failed to load products for order", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create order"})
	}

	byID := make(map[uint]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	// Any line failure rejects the whole order, itemized
	var itemErrors []echo.Map
	for _, item := range req.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			itemErrors = append(itemErrors, echo.Map{
				"product_id": item.ProductID,
				"error":      "unknown product",
			})
			continue
		}
		if !product.Purchasable() {
			itemErrors = append(itemErrors, echo.Map{
				"product_id": item.ProductID,
				"error":      "product is unavailable",
			})
			continue
		}
		if item.Quantity > product.Stock {
			itemErrors = append(itemErrors, echo.Map{
				"product_id": item.ProductID,
				"error":      "insufficient stock",
				"requested":  item.Quantity,
				"available":  product.Stock,
			})
		}
	}
	if len(itemErrors) > 0 {
		log.Warn("Order rejected", zap.Int("failed_items", len(itemErrors)))
		prometheus.OrderRejectedCounter.WithLabelValues("stock").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "order could not be placed",
			"items": itemErrors,
		})
	}

	// Server-computed totals; client prices are never trusted
	subtotal := decimal.Zero
	orderItems := make([]model.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		product := byID[item.ProductID]
		unit := product.EffectivePrice()
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
		orderItems = append(orderItems, model.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: unit,
		})
	}

	feePercent := platformFeePercent()
	platformFee := subtotal.Mul(feePercent).Round(2)
	total := subtotal.Add(platformFee)

	order := model.Order{
		UserID:          user.ID,
		Items:           orderItems,
		Subtotal:        subtotal,
		PlatformFee:     platformFee,
		TotalAmount:     total,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
	}

	var stockErrors []echo.Map
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		// Conditional decrement closes the read-modify-write race: a
		// concurrent order against the last unit makes RowsAffected zero.
		for _, item := range req.Items {
			result := tx.Model(&model.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				stockErrors = append(stockErrors, echo.Map{
					"product_id": item.ProductID,
					"error":      "insufficient stock",
				})
				return gorm.ErrInvalidData
			}
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Clear the caller's cart
		var cart model.Cart
		if result := tx.Where("user_id = ?", user.ID).First(&cart); result.Error == nil {
			if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if len(stockErrors) > 0 {
			log.Warn("Order rejected by conditional stock check")
			prometheus.OrderRejectedCounter.WithLabelValues("stock").Inc()
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "order could not be placed",
				"items": stockErrors,
			})
		}
		log.Error("Failed to create order", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create order"})
	}

	prometheus.OrderCreatedCounter.Inc()
	audit.Record(c, audit.Entry{
		Action:     "order.create",
		Category:   model.LogCategoryOrder,
		TargetType: "order",
		TargetID:   fmt.Sprint(order.ID),
		After: echo.Map{
			"total_amount":   order.TotalAmount,
			"payment_method": order.PaymentMethod,
			"items":          len(order.Items),
		},
	})

	log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", user.ID),
		zap.String("total_amount", order.TotalAmount.String()),
		zap.String("payment_method", order.PaymentMethod))
	return c.JSON(http.StatusCreated, order)
}

// ListOrders returns the caller's orders; store admins see all orders and
// may filter by user_id.
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)
	user, _ := middleware.UserFromContext(c)

	query := database.GetDB().Preload("Items").Order("created_at DESC")

	if role.IsStoreAdmin(user.Role) {
		if userID := c.QueryParam("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID)
		}
	} else {
		query = query.Where("user_id = ?", user.ID)
	}

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []model.Order
	if err := query.Find(&orders).Error; err != nil {
		log.Error("Failed to list orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve orders"})
	}

	log.Info("Orders retrieved", zap.Int("count", len(orders)))
	return c.JSON(http.StatusOK, orders)
}

// GetOrder returns a single order to its owner or to a store admin
func GetOrder(c echo.Context) error {
	log := logger.FromContext(c)
	user, _ := middleware.UserFromContext(c)
	id := c.Param("id")

	var order model.Order
	result := database.GetDB().Preload("Items").First(&order, id)
	if result.Error != nil {
		log.Error("Order not found", zap.String("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	if order.UserID != user.ID && !role.IsStoreAdmin(user.Role) {
		log.Warn("Caller may not view order",
			zap.String("order_id", id),
			zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	return c.JSON(http.StatusOK, order)
}

// UpdateOrder applies admin status transitions, tracking number and notes.
// Transition into cancelled restores stock exactly once.
func UpdateOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req struct {
		Status         *string `json:"status,omitempty"`
		TrackingNumber *string `json:"tracking_number,omitempty"`
		Notes          *string `json:"notes,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid order update payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Status != nil && !model.ValidOrderStatus(*req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order status"})
	}

	var order model.Order
	result := database.GetDB().Preload("Items").First(&order, id)
	if result.Error != nil {
		log.Error("Order not found for update", zap.String("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	before := echo.Map{
		"status":          order.Status,
		"tracking_number": order.TrackingNumber,
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if req.Status != nil && *req.Status == model.OrderStatusCancelled && order.Status != model.OrderStatusCancelled {
			// Restore each line's stock exactly once; the prior-status guard
			// makes cancelling an already-cancelled order a no-op.
			if err := restoreStock(tx, &order); err != nil {
				return err
			}
			prometheus.OrderCancelledCounter.Inc()
		}

		updates := map[string]interface{}{}
		if req.Status != nil {
			updates["status"] = *req.Status
		}
		if req.TrackingNumber != nil {
			updates["tracking_number"] = *req.TrackingNumber
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&order).Updates(updates).Error
	})
	if err != nil {
		log.Error("Failed to update order", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update order"})
	}

	database.GetDB().Preload("Items").First(&order, id)

	audit.Record(c, audit.Entry{
		Action:     "order.update",
		Category:   model.LogCategoryOrder,
		TargetType: "order",
		TargetID:   id,
		Before:     before,
		After: echo.Map{
			"status":          order.Status,
			"tracking_number": order.TrackingNumber,
		},
	})

	log.Info("Order updated",
		zap.String("order_id", id),
		zap.String("status", order.Status))
	return c.JSON(http.StatusOK, order)
}

// DeleteOrder removes an order, restoring stock first unless the order was
// already cancelled.
func DeleteOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var order model.Order
	result := database.GetDB().Preload("Items").First(&order, id)
	if result.Error != nil {
		log.Error("Order not found for deletion", zap.String("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if order.Status != model.OrderStatusCancelled {
			if err := restoreStock(tx, &order); err != nil {
				return err
			}
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		log.Error("Failed to delete order", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete order"})
	}

	audit.Record(c, audit.Entry{
		Action:     "order.delete",
		Category:   model.LogCategoryOrder,
		Severity:   model.LogSeverityWarning,
		TargetType: "order",
		TargetID:   id,
		Before:     echo.Map{"status": order.Status, "total_amount": order.TotalAmount},
	})

	log.Info("Order deleted", zap.String("order_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Order deleted successfully"})
}

// restoreStock adds each line item's quantity back to the product's stock
func restoreStock(tx *gorm.DB, order *model.Order) error {
	for _, item := range order.Items {
		result := tx.Model(&model.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock", gorm.Expr("stock + ?", item.Quantity))
		if result.Error != nil {
			return result.Error
		}
		prometheus.StockRestoredCounter.Inc()
	}
	return nil
}

// platformFeePercent resolves the fee from the owner setting, falling back
// to the configured default.
func platformFeePercent() decimal.Decimal {
	var setting model.StoreSetting
	result := database.GetDB().Where("key = ?", model.SettingPlatformFeePercent).First(&setting)
	if result.Error == nil {
		if v, err := decimal.NewFromString(setting.Value); err == nil {
			return v
		}
	}
	if appConfig != nil {
		return decimal.NewFromFloat(appConfig.Checkout.PlatformFeePercent)
	}
	return decimal.NewFromFloat(0.10)
}
