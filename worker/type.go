package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/config"
	"github.com/OwenCochell/mctools/core"
)

// Prober fetches the state of one server. A prober is only used by one goroutine at a
// time, Close releases its connection.
type Prober interface {
	Probe(ctx context.Context) (Result, error)
	Close() error
}

type ProberFactory func(target config.Target, logger zerolog.Logger) (Prober, error)

// Result is the outcome of a single probe. Probers fill in what their protocol reports,
// the monitor sets the target fields, the state and the time.
type Result struct {
	Target   string
	Protocol string
	State    core.ServerState
	Time     time.Time
	Duration time.Duration
	Err      error

	Online  int
	Max     int
	Players []string
	Version string
	MOTD    string
	Latency time.Duration
	Output  string
}
