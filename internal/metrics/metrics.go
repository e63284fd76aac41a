package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_dashboard_http_requests_total",
			Help: "Total number of HTTP requests served by the dashboard",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kitchen_dashboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served by the dashboard",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_dashboard_refresh_total",
			Help: "Order and inventory refreshes by outcome",
		},
		[]string{"kind", "result"},
	)

	statusUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_dashboard_status_updates_total",
			Help: "Order status updates by target status and outcome",
		},
		[]string{"status", "result"},
	)

	ordersByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kitchen_dashboard_orders",
			Help: "Orders currently on the board per status",
		},
		[]string{"status"},
	)
)

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// RecordRefresh counts one refresh of kind "orders", "inventory" or "history".
// Discarded responses are counted separately.
func RecordRefresh(kind string, ok bool) {
	refreshTotal.WithLabelValues(kind, result(ok)).Inc()
}

func RecordDiscarded(kind string) {
	refreshTotal.WithLabelValues(kind, "discarded").Inc()
}

func RecordStatusUpdate(status string, ok bool) {
	statusUpdatesTotal.WithLabelValues(status, result(ok)).Inc()
}

func SetOrders(status string, n int) {
	ordersByStatus.WithLabelValues(status).Set(float64(n))
}
