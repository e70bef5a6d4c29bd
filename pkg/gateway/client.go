package gateway

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-service/pkg/config"

	"go.uber.org/zap"
)

// Client talks to the Razorpay Orders API
type Client struct {
	BaseURL    string
	KeyID      string
	KeySecret  string
	Currency   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Order represents a gateway-side order as returned by the Orders API
type Order struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	AmountPaid int64  `json:"amount_paid"`
	CreatedAt  int64  `json:"created_at"`
}

// ErrorResponse represents a gateway error response
type ErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// NewClient creates a new gateway client instance
func NewClient(cfg *config.GatewayConfig, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:    cfg.BaseURL,
		KeyID:      cfg.KeyID,
		KeySecret:  cfg.KeySecret,
		Currency:   cfg.Currency,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
	}
}

// CreateOrder creates a gateway order for the given amount in minor currency
// units (paise), tagged with a local receipt reference.
func (c *Client) CreateOrder(amount int64, receipt string) (*Order, error) {
	c.Logger.Info("Creating gateway order",
		zap.Int64("amount", amount),
		zap.String("receipt", receipt))

	payload := map[string]interface{}{
		"amount":   amount,
		"currency": c.Currency,
		"receipt":  receipt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/v1/orders", c.BaseURL), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.getBasicAuth())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("Gateway order request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Logger.Error("Failed to read gateway order response", zap.Error(err))
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil {
			c.Logger.Error("Failed to parse gateway error response",
				zap.Int("status_code", resp.StatusCode),
				zap.String("response", string(respBody)))
			return nil, fmt.Errorf("error creating gateway order: %d %s", resp.StatusCode, string(respBody))
		}
		c.Logger.Error("Gateway order creation failed",
			zap.String("code", errorResp.Error.Code),
			zap.String("description", errorResp.Error.Description))
		return nil, fmt.Errorf("error creating gateway order: %s - %s",
			errorResp.Error.Code, errorResp.Error.Description)
	}

	var order Order
	if err := json.Unmarshal(respBody, &order); err != nil {
		c.Logger.Error("Failed to parse gateway order response", zap.Error(err))
		return nil, err
	}

	c.Logger.Info("Gateway order created",
		zap.String("gateway_order_id", order.ID),
		zap.Int64("amount", order.Amount))

	return &order, nil
}

// getBasicAuth returns the key pair encoded for HTTP basic authentication
func (c *Client) getBasicAuth() string {
	auth := c.KeyID + ":" + c.KeySecret
	return base64.StdEncoding.EncodeToString([]byte(auth))
}
