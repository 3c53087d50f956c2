package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Searcher is anything that ranks actions, usually the engine.
type Searcher interface {
	Search(query string, scope domain.Scope) ([]domain.Result, error)
}

// Metrics holds the palette collectors.
type Metrics struct {
	Searches       *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	VisibleResults prometheus.Histogram
	Selections     *prometheus.CounterVec
	PerformErrors  *prometheus.CounterVec
	ShortcutHits   *prometheus.CounterVec
	Conflicts      *prometheus.CounterVec
	Closes         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palette_searches_total",
			Help: "Total number of searches, by whether they matched anything",
		}, []string{"result"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "palette_search_duration_seconds",
			Help:    "Duration of search calls",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		VisibleResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "palette_visible_results",
			Help:    "Length of the visible list after each recompute",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palette_selections_total",
			Help: "Total number of performed actions",
		}, []string{"action_id", "source"}),
		PerformErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palette_perform_errors_total",
			Help: "Total number of failed or panicking perform callbacks",
		}, []string{"action_id", "panicked"}),
		ShortcutHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palette_shortcut_matches_total",
			Help: "Total number of key sequences that resolved to an action",
		}, []string{"action_id"}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palette_shortcut_conflicts_total",
			Help: "Total number of shortcut conflicts reported at registration",
		}, []string{"kind"}),
		Closes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "palette_closes_total",
			Help: "Total number of palette closes",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.Searches, m.SearchDuration, m.VisibleResults, m.Selections,
		m.PerformErrors, m.ShortcutHits, m.Conflicts, m.Closes,
	)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnVisibleListChanged: func(_ context.Context, e *domain.VisibleEvent) {
			m.VisibleResults.Observe(float64(len(e.Results)))
		},
		OnClose: func(_ context.Context, e *domain.CloseEvent) {
			m.Closes.WithLabelValues(string(e.Reason)).Inc()
		},
		OnSelect: func(_ context.Context, e *domain.SelectEvent) {
			m.Selections.WithLabelValues(e.ActionID, e.Source).Inc()
		},
		OnPerformError: func(_ context.Context, e *domain.PerformErrorEvent) {
			m.PerformErrors.WithLabelValues(e.ActionID, strconv.FormatBool(e.Panicked)).Inc()
		},
		OnShortcutMatch: func(_ context.Context, e *domain.ShortcutEvent) {
			m.ShortcutHits.WithLabelValues(e.ActionID).Inc()
		},
		OnShortcutConflict: func(_ context.Context, e *domain.ConflictEvent) {
			m.Conflicts.WithLabelValues(string(e.Kind)).Inc()
		},
	}
}

// Search runs s.Search and records its duration and whether it matched.
func (m *Metrics) Search(s Searcher, query string, scope domain.Scope) ([]domain.Result, error) {
	start := time.Now()
	results, err := s.Search(query, scope)
	m.SearchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		m.Searches.WithLabelValues("error").Inc()
	case len(results) == 0:
		m.Searches.WithLabelValues("empty").Inc()
	default:
		m.Searches.WithLabelValues("hit").Inc()
	}
	return results, err
}
