// Package metrics holds the Prometheus collectors for the HTTP layer and
// the domain events worth counting.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clubhub"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	profileViews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "profiles",
			Name:      "views_total",
			Help:      "Profile views by outcome (counted, cooldown, exempt).",
		},
		[]string{"outcome"},
	)

	coinTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coins",
			Name:      "transactions_total",
			Help:      "Ledger entries written.",
		},
		[]string{"type", "reason"},
	)

	coinsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coins",
			Name:      "amount_total",
			Help:      "Absolute coin amount moved through the ledger.",
		},
		[]string{"type"},
	)

	insufficientFunds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coins",
			Name:      "insufficient_funds_total",
			Help:      "Debits rejected for lack of coins.",
		},
	)

	friendEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "friends",
			Name:      "events_total",
			Help:      "Friend state transitions.",
		},
		[]string{"event"},
	)

	messagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "sent_total",
			Help:      "Direct messages delivered.",
		},
	)

	vipPurchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vip",
			Name:      "purchases_total",
			Help:      "VIP purchases by level.",
		},
		[]string{"level"},
	)

	clubResets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clubs",
			Name:      "resets_total",
			Help:      "Daily check-in resets by result.",
		},
		[]string{"success"},
	)

	realtimeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Open WebSocket connections on this instance.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		profileViews,
		coinTransactions,
		coinsMoved,
		insufficientFunds,
		friendEvents,
		messagesSent,
		vipPurchases,
		clubResets,
		realtimeConnections,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next with HTTP metrics collection. Requests are
// labelled by chi route pattern, so path parameters do not explode the
// label set.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := RoutePattern(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RoutePattern returns the matched chi pattern, or "unmatched".
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// RecordProfileView records the outcome of a profile view.
func RecordProfileView(outcome string) {
	profileViews.WithLabelValues(outcome).Inc()
}

// RecordCoinTransaction records a ledger entry.
func RecordCoinTransaction(typ, reason string, amount int64) {
	if amount < 0 {
		amount = -amount
	}
	coinTransactions.WithLabelValues(typ, reason).Inc()
	coinsMoved.WithLabelValues(typ).Add(float64(amount))
}

func RecordInsufficientFunds() {
	insufficientFunds.Inc()
}

// RecordFriendEvent records request, accept or unfriend.
func RecordFriendEvent(event string) {
	friendEvents.WithLabelValues(event).Inc()
}

func RecordMessageSent() {
	messagesSent.Inc()
}

func RecordVIPPurchase(level int) {
	vipPurchases.WithLabelValues(strconv.Itoa(level)).Inc()
}

func RecordClubReset(success bool) {
	clubResets.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func RealtimeConnected()    { realtimeConnections.Inc() }
func RealtimeDisconnected() { realtimeConnections.Dec() }
