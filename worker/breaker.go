package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerSettings controls when a target's breaker opens. Trips is the number of
// consecutive failures that opens it, Cooldown how long it stays open.
type BreakerSettings struct {
	Trips    uint32
	Cooldown time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Trips:    3,
		Cooldown: time.Minute,
	}
}

// CircuitBreakerProber skips probes of a target that keeps failing until the cooldown
// has passed, then lets a single probe through.
type CircuitBreakerProber struct {
	breaker *gobreaker.CircuitBreaker
	Prober
}

func NewCircuitBreakerProber(name string, prober Prober, settings BreakerSettings, logger zerolog.Logger) *CircuitBreakerProber {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     settings.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.Trips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observeBreaker(name, to)
			logger.Info().Str("target", name).Stringer("from", from).Stringer("to", to).Msg("breaker state changed")
		},
	})
	observeBreaker(name, breaker.State())
	return &CircuitBreakerProber{
		Prober:  prober,
		breaker: breaker,
	}
}

func (p *CircuitBreakerProber) Probe(ctx context.Context) (res Result, err error) {
	var reply interface{}

	reply, err = p.breaker.Execute(func() (interface{}, error) { return p.Prober.Probe(ctx) })
	if err == nil {
		res = reply.(Result)
	}
	return
}

func (p *CircuitBreakerProber) State() gobreaker.State {
	return p.breaker.State()
}
