package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var (
	probeBuckets  = []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30}
	probeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mctools",
		Name:      "probe_duration_seconds",
		Help:      "Histogram of probe durations.",
		Buckets:   probeBuckets,
	}, []string{"target", "protocol", "result"})

	serverUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mctools",
		Name:      "server_up",
		Help:      "Whether the last probe of a target succeeded.",
	}, []string{"target", "protocol"})

	playersOnline = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mctools",
		Name:      "players_online",
		Help:      "The number of players online as reported by the target.",
	}, []string{"target"})

	playersMax = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mctools",
		Name:      "players_max",
		Help:      "The player limit reported by the target.",
	}, []string{"target"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mctools",
		Name:      "breaker_state",
		Help:      "Circuit breaker state per target, 0 closed, 1 half open, 2 open.",
	}, []string{"target"})
)

func observe(res Result) {
	label := "ok"
	up := 1.0
	if res.Err != nil {
		label = "error"
		up = 0
	}
	probeDuration.WithLabelValues(res.Target, res.Protocol, label).Observe(res.Duration.Seconds())
	serverUp.WithLabelValues(res.Target, res.Protocol).Set(up)
	if res.Err == nil && (res.Online > 0 || res.Max > 0) {
		playersOnline.WithLabelValues(res.Target).Set(float64(res.Online))
		playersMax.WithLabelValues(res.Target).Set(float64(res.Max))
	}
}

func observeBreaker(target string, state gobreaker.State) {
	breakerState.WithLabelValues(target).Set(float64(state))
}

func forgetTarget(target, protocol string) {
	serverUp.DeleteLabelValues(target, protocol)
	playersOnline.DeleteLabelValues(target)
	playersMax.DeleteLabelValues(target)
	breakerState.DeleteLabelValues(target)
}
