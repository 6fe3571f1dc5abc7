package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_created_total",
		Help: "Total number of transactions created",
	})

	PaymentsApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_approved_total",
		Help: "Total number of payments approved by the gateway",
	})

	PaymentsDeclinedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_declined_total",
		Help: "Total number of payments declined by the gateway",
	})

	PaymentGatewayErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_gateway_errors_total",
		Help: "Total number of failed calls to the payment gateway",
	})

	PaymentGatewayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_gateway_latency_seconds",
		Help:    "Latency of payment gateway calls",
		Buckets: prometheus.DefBuckets,
	})

	TransactionsRefundRequiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_refund_required_total",
		Help: "Total number of approved payments that could not be fulfilled",
	})

	StockMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Total number of applied stock movements",
	}, []string{"movement_type"})

	StockMovementFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movement_failures_total",
		Help: "Total number of rejected stock movements",
	}, []string{"reason"})

	StockEventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_events_dropped_total",
		Help: "Total number of real-time events dropped for slow listeners",
	})

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_clients",
		Help: "Number of connected real-time listeners",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
