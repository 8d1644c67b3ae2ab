package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/config"
	"github.com/OwenCochell/mctools/core"
)

const DefaultInterval = 30 * time.Second

var ErrNoTargets = errors.New("no targets to monitor")

type MonitorOption func(*Monitor)

func WithProberFactory(factory ProberFactory) MonitorOption {
	return func(m *Monitor) {
		m.factory = factory
	}
}

func WithBreakerSettings(settings BreakerSettings) MonitorOption {
	return func(m *Monitor) {
		m.breaker = settings
	}
}

func WithLogger(logger zerolog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.log = logger
	}
}

type job struct {
	target config.Target
	prober Prober
	done   chan<- Result
}

type monitored struct {
	target config.Target
	prober Prober
}

// Monitor probes its targets with a bounded pool of workers. Every target is probed by
// at most one worker at a time, so a prober never sees concurrent calls.
type Monitor struct {
	workers int
	factory ProberFactory
	breaker BreakerSettings
	log     zerolog.Logger

	targets []monitored

	mu     sync.RWMutex
	latest map[string]Result
}

// NewMonitor creates a prober for every target. Workers below one are raised to one.
func NewMonitor(targets []config.Target, workers int, opts ...MonitorOption) (*Monitor, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if workers < 1 {
		workers = 1
	}
	m := &Monitor{
		workers: workers,
		factory: NewProber,
		breaker: DefaultBreakerSettings(),
		log:     zerolog.Nop(),
		latest:  make(map[string]Result),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, target := range targets {
		logger := m.log.With().Str("target", target.Name).Logger()
		prober, err := m.factory(target, logger)
		if err != nil {
			m.Close()
			return nil, err
		}
		prober = NewCircuitBreakerProber(target.Name, prober, m.breaker, logger)
		m.targets = append(m.targets, monitored{target: target, prober: prober})
	}
	return m, nil
}

func (m *Monitor) startWorkers(ctx context.Context) (chan<- job, *sync.WaitGroup) {
	jobs := make(chan job)
	wg := &sync.WaitGroup{}
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				j.done <- m.probe(ctx, j.target, j.prober)
			}
		}()
	}
	m.log.Debug().Int("workers", m.workers).Msg("started workers")
	return jobs, wg
}

func (m *Monitor) probe(ctx context.Context, target config.Target, prober Prober) Result {
	if target.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, target.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := prober.Probe(ctx)
	res.Target = target.Name
	res.Protocol = target.Protocol
	res.Time = start
	res.Duration = time.Since(start)
	res.Err = err
	res.State = core.Online
	if err != nil {
		res.State = core.Offline
		m.log.Warn().Err(err).Str("target", target.Name).Msg("probe failed")
	} else {
		m.log.Debug().Str("target", target.Name).Int("online", res.Online).Dur("duration", res.Duration).Msg("probe done")
	}

	m.mu.Lock()
	m.latest[target.Name] = res
	m.mu.Unlock()
	observe(res)
	return res
}

// Run probes every target on its interval until ctx is done, then closes the probers.
func (m *Monitor) Run(ctx context.Context) error {
	jobs, workers := m.startWorkers(ctx)

	schedulers := sync.WaitGroup{}
	for _, t := range m.targets {
		schedulers.Add(1)
		go func(t monitored) {
			defer schedulers.Done()
			m.schedule(ctx, t, jobs)
		}(t)
	}
	m.log.Info().Int("targets", len(m.targets)).Msg("monitor running")

	<-ctx.Done()
	schedulers.Wait()
	close(jobs)
	workers.Wait()
	m.log.Info().Msg("monitor stopped")
	return m.Close()
}

func (m *Monitor) schedule(ctx context.Context, t monitored, jobs chan<- job) {
	interval := t.target.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done := make(chan Result, 1)
		select {
		case jobs <- job{target: t.target, prober: t.prober, done: done}:
		case <-ctx.Done():
			return
		}
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// ProbeOnce probes every target once and returns the results in target order. It must
// not be called while Run is active.
func (m *Monitor) ProbeOnce(ctx context.Context) []Result {
	jobs, workers := m.startWorkers(ctx)
	dones := make([]chan Result, len(m.targets))
	for i := range dones {
		dones[i] = make(chan Result, 1)
	}
	go func() {
		for i, t := range m.targets {
			jobs <- job{target: t.target, prober: t.prober, done: dones[i]}
		}
		close(jobs)
	}()
	workers.Wait()

	results := make([]Result, 0, len(m.targets))
	for _, done := range dones {
		results = append(results, <-done)
	}
	return results
}

// Results returns the latest result of every probed target in target order.
func (m *Monitor) Results() []Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := make([]Result, 0, len(m.latest))
	for _, t := range m.targets {
		if res, ok := m.latest[t.target.Name]; ok {
			results = append(results, res)
		}
	}
	return results
}

// Close closes every prober and drops the target metrics.
func (m *Monitor) Close() error {
	var errs []error
	for _, t := range m.targets {
		if err := t.prober.Close(); err != nil {
			errs = append(errs, err)
		}
		forgetTarget(t.target.Name, t.target.Protocol)
	}
	return errors.Join(errs...)
}
