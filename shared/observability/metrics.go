package observability

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brokerage_chat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brokerage_chat_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	sessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "brokerage_chat_sessions_started_total",
			Help: "Chat sessions started by visitors",
		},
	)

	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brokerage_chat_messages_total",
			Help: "Chat messages appended, by sender",
		},
		[]string{"sender"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brokerage_chat_status_transitions_total",
			Help: "Session status changes, by target status",
		},
		[]string{"status"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brokerage_chat_lead_notifications_total",
			Help: "Lead notification attempts, by result",
		},
		[]string{"result"},
	)

	feedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "brokerage_chat_feed_clients",
			Help: "Operators connected to the live feed",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers the Prometheus collectors once per process
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			sessionsStarted,
			messagesTotal,
			statusTransitions,
			notificationsTotal,
			feedClients,
		)
	})
}

// SetupMeterProvider installs a global OpenTelemetry meter provider whose
// instruments are exported through the default Prometheus registry
func SetupMeterProvider() (ShutdownFunc, error) {
	exp, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("init prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordSessionStarted() {
	sessionsStarted.Inc()
}

func RecordMessage(sender string) {
	messagesTotal.WithLabelValues(sender).Inc()
}

func RecordStatusTransition(status string) {
	statusTransitions.WithLabelValues(status).Inc()
}

func RecordNotification(result string) {
	notificationsTotal.WithLabelValues(result).Inc()
}

// SetFeedClients reports the number of connected feed clients
func SetFeedClients(n int) {
	feedClients.Set(float64(n))
}
