package handler

import (
	"storefront-service/pkg/config"
	"storefront-service/pkg/gateway"
	"storefront-service/pkg/logger"
)

var (
	appConfig     *config.Config
	gatewayClient *gateway.Client
)

// Initialize wires the handler package with configuration and the payment
// gateway client. Must be called before serving requests.
func Initialize(cfg *config.Config) {
	appConfig = cfg
	gatewayClient = gateway.NewClient(&cfg.Gateway, logger.GetLogger())
}

// SetGatewayClient replaces the gateway client (used by tests)
func SetGatewayClient(c *gateway.Client) {
	gatewayClient = c
}
