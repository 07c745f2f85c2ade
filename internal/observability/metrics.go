package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "posd",
		Subsystem: "tracker",
		Name:      "ticks_total",
		Help:      "Number of expiry-scan ticks executed.",
	})
	rentalsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "posd",
		Subsystem: "tracker",
		Name:      "rentals_expired_total",
		Help:      "Number of rentals whose expiry was detected.",
	})
	activeRentalsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "posd",
		Subsystem: "tracker",
		Name:      "active_rentals",
		Help:      "Current size of the active-rental set.",
	})
	receiptsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "posd",
		Subsystem: "sales",
		Name:      "receipts_created_total",
		Help:      "Number of receipts durably recorded by the backend.",
	})
	alertsAcknowledgedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "posd",
		Subsystem: "alerts",
		Name:      "acknowledged_total",
		Help:      "Number of expiry alerts dismissed by the cashier.",
	})
)

func init() {
	prometheus.MustRegister(
		ticksTotal,
		rentalsExpiredTotal,
		activeRentalsGauge,
		receiptsCreatedTotal,
		alertsAcknowledgedTotal,
	)
}

// RecordTick counts one expiry scan.
func RecordTick() { ticksTotal.Inc() }

// RecordRentalExpired counts one detected expiry.
func RecordRentalExpired() { rentalsExpiredTotal.Inc() }

// SetActiveRentals updates the active-set size gauge.
func SetActiveRentals(n int) { activeRentalsGauge.Set(float64(n)) }

// RecordReceiptCreated counts one confirmed receipt insert.
func RecordReceiptCreated() { receiptsCreatedTotal.Inc() }

// RecordAlertAcknowledged counts one dismissed alert.
func RecordAlertAcknowledged() { alertsAcknowledgedTotal.Inc() }
