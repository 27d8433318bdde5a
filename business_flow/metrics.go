package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Leads created, partitioned by intake channel
	leadsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_leads_created_total",
			Help: "Total number of leads created",
		},
		[]string{"channel"},
	)

	// Quotes created successfully
	quotesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_quotes_created_total",
			Help: "Total number of quotes created",
		},
	)

	// Quote inserts retried after a quote number collision
	quoteNumberRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_quote_number_retries_total",
			Help: "Quote number collisions that triggered a retry",
		},
	)

	// Quote creations abandoned after every numbering attempt collided
	quoteNumberConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_quote_number_conflicts_total",
			Help: "Quote creations that exhausted numbering retries",
		},
	)

	// Conversion events written and dropped, partitioned by action
	conversionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_conversion_events_total",
			Help: "Conversion events recorded",
		},
		[]string{"action"},
	)

	conversionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_conversion_tracking_failures_total",
			Help: "Conversion events that could not be written",
		},
		[]string{"action"},
	)

	// Status transitions partitioned by entity, target status and kind (forward, override)
	statusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_status_transitions_total",
			Help: "Lead and quote status changes",
		},
		[]string{"entity", "to", "kind"},
	)
)
