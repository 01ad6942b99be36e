// Package metrics exposes the advisor's Prometheus instruments and the
// /metrics endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SuggestionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisor_suggestions_created_total",
		Help: "Suggestions persisted, by index and option type.",
	}, []string{"index", "option_type"})

	GenerationVetoes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisor_generation_vetoes_total",
		Help: "Generation attempts stopped by a safety check or soft no-result.",
	}, []string{"stage"})

	TargetHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisor_target_hits_total",
		Help: "Target latches set, by target level.",
	}, []string{"target"})

	StopLossHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "advisor_stop_loss_hits_total",
		Help: "Suggestions stopped out.",
	})

	TickSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "advisor_tick_skips_total",
		Help: "Tracked suggestions skipped in a tick because no tradable price was available.",
	})

	OpenSuggestions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "advisor_open_suggestions",
		Help: "Suggestions currently in a non-terminal status.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
