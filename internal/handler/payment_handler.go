package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"storefront-service/internal/audit"
	"storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/pkg/database"
	"storefront-service/pkg/gateway"
	"storefront-service/pkg/logger"
	"storefront-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateGatewayOrder creates a remote gateway order for a pending local
// order and records a PaymentLog row in state "created".
func CreateGatewayOrder(c echo.Context) error {
	log := logger.FromContext(c)
	user, _ := middleware.UserFromContext(c)

	var req struct {
		OrderID uint `json:"order_id"`
	}

	if err := c.Bind(&req); err != nil || req.OrderID == 0 {
		log.Error("Invalid gateway order payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id is required"})
	}

	var order model.Order
	result := database.GetDB().First(&order, req.OrderID)
	if result.Error != nil {
		log.Error("Order not found for payment", zap.Uint("order_id", req.OrderID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	if order.UserID != user.ID {
		log.Warn("Caller does not own order",
			zap.Uint("order_id", order.ID),
			zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	if order.Status != model.OrderStatusPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order is not awaiting payment"})
	}

	if order.PaymentMethod != model.PaymentMethodGateway {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order is not a gateway payment"})
	}

	// Gateway amounts are in minor currency units
	amount := order.TotalAmount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	gwOrder, err := gatewayClient.CreateOrder(amount, fmt.Sprintf("order_%d", order.ID))
	if err != nil {
		log.Error("Gateway order creation failed",
			zap.Uint("order_id", order.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create payment order"})
	}

	paymentLog := model.PaymentLog{
		GatewayOrderID: gwOrder.ID,
		OrderID:        order.ID,
		Amount:         amount,
		Status:         model.PaymentLogCreated,
	}
	if err := database.GetDB().Create(&paymentLog).Error; err != nil {
		log.Error("Failed to persist payment log",
			zap.String("gateway_order_id", gwOrder.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record payment"})
	}

	audit.Record(c, audit.Entry{
		Action:     "payment.create_order",
		Category:   model.LogCategoryPayment,
		TargetType: "order",
		TargetID:   fmt.Sprint(order.ID),
		After:      echo.Map{"gateway_order_id": gwOrder.ID, "amount": amount},
	})

	log.Info("Gateway order created",
		zap.Uint("order_id", order.ID),
		zap.String("gateway_order_id", gwOrder.ID),
		zap.Int64("amount", amount))

	return c.JSON(http.StatusCreated, echo.Map{
		"gateway_order_id": gwOrder.ID,
		"amount":           gwOrder.Amount,
		"currency":         gwOrder.Currency,
		"key_id":           appConfig.Gateway.KeyID,
	})
}

// VerifyPayment handles the synchronous client callback after checkout. The
// webhook remains authoritative; both paths converge on the same PaymentLog
// row keyed by the gateway order id.
func VerifyPayment(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		GatewayOrderID string `json:"razorpay_order_id"`
		PaymentID      string `json:"razorpay_payment_id"`
		Signature      string `json:"razorpay_signature"`
		OrderID        uint   `json:"order_id"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid verification payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.GatewayOrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "razorpay_order_id, razorpay_payment_id and razorpay_signature are required"})
	}

	if !gateway.VerifyPaymentSignature(req.GatewayOrderID, req.PaymentID, req.Signature, appConfig.Gateway.KeySecret) {
		log.Warn("Payment signature mismatch",
			zap.String("gateway_order_id", req.GatewayOrderID),
			zap.String("payment_id", req.PaymentID))
		prometheus.PaymentVerificationCounter.WithLabelValues("failed_verification").Inc()

		database.GetDB().Model(&model.PaymentLog{}).
			Where("gateway_order_id = ?", req.GatewayOrderID).
			Updates(map[string]interface{}{
				"status":     model.PaymentLogFailedVerification,
				"payment_id": req.PaymentID,
			})

		audit.Record(c, audit.Entry{
			Action:     "payment.failed_verification",
			Category:   model.LogCategoryPayment,
			Severity:   model.LogSeverityCritical,
			TargetType: "order",
			TargetID:   fmt.Sprint(req.OrderID),
			After:      echo.Map{"gateway_order_id": req.GatewayOrderID},
		})

		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment verification failed"})
	}

	if err := capturePayment(req.GatewayOrderID, req.PaymentID); err != nil {
		log.Error("Failed to record captured payment",
			zap.String("gateway_order_id", req.GatewayOrderID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record payment"})
	}

	prometheus.PaymentVerificationCounter.WithLabelValues("captured").Inc()
	audit.Record(c, audit.Entry{
		Action:     "payment.captured",
		Category:   model.LogCategoryPayment,
		TargetType: "order",
		TargetID:   fmt.Sprint(req.OrderID),
		After:      echo.Map{"gateway_order_id": req.GatewayOrderID, "payment_id": req.PaymentID},
	})

	log.Info("Payment verified",
		zap.String("gateway_order_id", req.GatewayOrderID),
		zap.String("payment_id", req.PaymentID))
	return c.JSON(http.StatusOK, echo.Map{"message": "payment verified"})
}

// webhookEvent mirrors the gateway's webhook envelope
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Webhook is the asynchronous server-to-server reconciliation path. It is
// authoritative over the client callback and idempotent against it.
func Webhook(c echo.Context) error {
	log := logger.FromContext(c)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Error("Failed to read webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	signature := c.Request().Header.Get("X-Razorpay-Signature")
	if !gateway.VerifyWebhookSignature(body, signature, appConfig.Gateway.WebhookSecret) {
		log.Warn("Webhook signature mismatch")
		prometheus.WebhookEventCounter.WithLabelValues("bad_signature").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("Failed to parse webhook event", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event payload"})
	}

	entity := event.Payload.Payment.Entity

	switch event.Event {
	case "payment.captured":
		if err := capturePayment(entity.OrderID, entity.ID); err != nil {
			log.Error("Failed to reconcile captured payment",
				zap.String("gateway_order_id", entity.OrderID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reconciliation failed"})
		}
		prometheus.WebhookEventCounter.WithLabelValues("payment.captured").Inc()
		log.Info("Webhook reconciled captured payment",
			zap.String("gateway_order_id", entity.OrderID),
			zap.String("payment_id", entity.ID))

	case "payment.failed":
		if err := failPayment(entity.OrderID, entity.ID); err != nil {
			log.Error("Failed to reconcile failed payment",
				zap.String("gateway_order_id", entity.OrderID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reconciliation failed"})
		}
		prometheus.WebhookEventCounter.WithLabelValues("payment.failed").Inc()
		log.Info("Webhook reconciled failed payment",
			zap.String("gateway_order_id", entity.OrderID),
			zap.String("payment_id", entity.ID))

	default:
		prometheus.WebhookEventCounter.WithLabelValues("ignored").Inc()
		log.Info("Ignoring webhook event", zap.String("event", event.Event))
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// capturePayment upserts the PaymentLog row keyed by gateway order id into
// "captured" and advances the linked order. Both the verify and webhook
// paths call this, so whichever arrives second rewrites the same final state.
func capturePayment(gatewayOrderID, paymentID string) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		var paymentLog model.PaymentLog
		result := tx.Where("gateway_order_id = ?", gatewayOrderID).First(&paymentLog)
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return result.Error
			}
			// Webhook arrived for an attempt we never recorded; keep the
			// row so reconciliation is still visible.
			paymentLog = model.PaymentLog{
				GatewayOrderID: gatewayOrderID,
				PaymentID:      paymentID,
				Status:         model.PaymentLogCaptured,
			}
			return tx.Create(&paymentLog).Error
		}

		if err := tx.Model(&paymentLog).Updates(map[string]interface{}{
			"status":     model.PaymentLogCaptured,
			"payment_id": paymentID,
		}).Error; err != nil {
			return err
		}

		if paymentLog.OrderID != 0 {
			return tx.Model(&model.Order{}).
				Where("id = ?", paymentLog.OrderID).
				Updates(map[string]interface{}{
					"status":         model.OrderStatusProcessing,
					"payment_status": model.PaymentStatusPaid,
				}).Error
		}
		return nil
	})
}

// failPayment upserts the PaymentLog row into "failed" and marks the order
// payment_failed.
func failPayment(gatewayOrderID, paymentID string) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		var paymentLog model.PaymentLog
		result := tx.Where("gateway_order_id = ?", gatewayOrderID).First(&paymentLog)
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return result.Error
			}
			paymentLog = model.PaymentLog{
				GatewayOrderID: gatewayOrderID,
				PaymentID:      paymentID,
				Status:         model.PaymentLogFailed,
			}
			return tx.Create(&paymentLog).Error
		}

		// A captured payment is final; a late failure event must not
		// regress it.
		if paymentLog.Status == model.PaymentLogCaptured {
			return nil
		}

		if err := tx.Model(&paymentLog).Updates(map[string]interface{}{
			"status":     model.PaymentLogFailed,
			"payment_id": paymentID,
		}).Error; err != nil {
			return err
		}

		if paymentLog.OrderID != 0 {
			return tx.Model(&model.Order{}).
				Where("id = ?", paymentLog.OrderID).
				Updates(map[string]interface{}{
					"status":         model.OrderStatusPaymentFailed,
					"payment_status": model.PaymentStatusFailed,
				}).Error
		}
		return nil
	})
}
