package listing

import "github.com/prometheus/client_golang/prometheus"

const (
	filterNone     = "none"
	filterSearch   = "search"
	filterCategory = "category"
	filterBoth     = "search_category"
)

// Metrics counts listing-domain activity. A nil *Metrics records nothing.
type Metrics struct {
	Queries *prometheus.CounterVec
	Saves   *prometheus.CounterVec
}

// NewMetrics registers the listing counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_queries_total",
				Help: "Listing index queries by applied filter",
			},
			[]string{"filter"},
		),
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_saves_total",
				Help: "Saved-listing changes that altered state",
			},
			[]string{"action"},
		),
	}

	reg.MustRegister(m.Queries, m.Saves)
	return m
}

func (m *Metrics) query(f Filter) {
	if m == nil {
		return
	}
	label := filterNone
	switch {
	case f.Search != "" && f.Category != "":
		label = filterBoth
	case f.Search != "":
		label = filterSearch
	case f.Category != "":
		label = filterCategory
	}
	m.Queries.WithLabelValues(label).Inc()
}

func (m *Metrics) saved(action string) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(action).Inc()
}
