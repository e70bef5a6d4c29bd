package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Order lifecycle counters
	OrderCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders successfully created",
		},
	)

	OrderRejectedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_rejected_total",
			Help: "Total number of rejected order submissions",
		},
		[]string{"reason"}, // reason can be "stock", "unknown_product", "validation", etc.
	)

	OrderCancelledCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_orders_cancelled_total",
			Help: "Total number of cancelled orders",
		},
	)

	StockRestoredCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_stock_restorations_total",
			Help: "Total number of line items whose stock was restored on cancellation",
		},
	)

	// Payment counters
	PaymentVerificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_payment_verifications_total",
			Help: "Total number of payment verification attempts",
		},
		[]string{"result"}, // result can be "captured", "failed_verification"
	)

	WebhookEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_webhook_events_total",
			Help: "Total number of gateway webhook events processed",
		},
		[]string{"event"}, // event can be "payment.captured", "payment.failed", "ignored", "bad_signature"
	)

	// Auth counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_login_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_register_total",
			Help: "Total number of user registrations",
		},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "invalid_password", "user_banned", "not_verified", etc.
	)

	// HTTP request counter by endpoint and status
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"method", "path", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(OrderCreatedCounter)
	prometheus.MustRegister(OrderRejectedCounter)
	prometheus.MustRegister(OrderCancelledCounter)
	prometheus.MustRegister(StockRestoredCounter)
	prometheus.MustRegister(PaymentVerificationCounter)
	prometheus.MustRegister(WebhookEventCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(HttpRequestsTotal)

	// Register histograms
	prometheus.MustRegister(HttpRequestDuration)
	prometheus.MustRegister(DBOperationDuration)
}

// RecordAuthError increments the auth error counter for the given type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
