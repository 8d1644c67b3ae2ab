package ping

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/mc"
)

var statusLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "mctools",
	Subsystem: "ping",
	Name:      "latency_seconds",
	Help:      "Ping/pong round trip time of status requests.",
	Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
})

type ProtocolOption func(*Protocol)

// WithProtocolVersion sets the protocol number sent in the handshake. Zero asks the
// server for its preferred version.
func WithProtocolVersion(version int) ProtocolOption {
	return func(p *Protocol) {
		p.version = version
	}
}

func WithProtocolLogger(logger zerolog.Logger) ProtocolOption {
	return func(p *Protocol) {
		p.log = logger
	}
}

// Protocol runs server list pings. The server closes the connection after every status
// exchange, so each call connects again.
type Protocol struct {
	transport conn.Transport
	host      string
	port      uint16
	version   int
	log       zerolog.Logger
}

// NewProtocol creates a protocol that sends host and port in its handshakes.
func NewProtocol(t conn.Transport, host string, port uint16, opts ...ProtocolOption) *Protocol {
	p := &Protocol{
		transport: t,
		host:      host,
		port:      port,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Protocol) Transport() conn.Transport {
	return p.transport
}

func (p *Protocol) IsConnected() bool {
	return p.transport.IsConnected()
}

func (p *Protocol) Connect(ctx context.Context) error {
	return p.transport.Connect(ctx)
}

func (p *Protocol) Stop() error {
	return p.transport.Close()
}

// Status sends the handshake and status request, reads the response and times a
// ping/pong round trip. The transport is closed afterwards in every case.
func (p *Protocol) Status(ctx context.Context) (mc.ClientBoundResponse, time.Duration, error) {
	defer p.Stop()
	if err := p.Connect(ctx); err != nil {
		return mc.ClientBoundResponse{}, 0, err
	}
	mcConn := mc.NewMcConn(conn.NewReadWriter(ctx, p.transport))

	handshake := mc.NewStatusHandshake(p.host, p.port, p.version)
	if err := mcConn.WriteMcPacket(handshake); err != nil {
		return mc.ClientBoundResponse{}, 0, err
	}
	if err := mcConn.WriteMcPacket(mc.ServerBoundRequest{}); err != nil {
		return mc.ClientBoundResponse{}, 0, err
	}
	pk, err := mcConn.ReadPacket()
	if err != nil {
		return mc.ClientBoundResponse{}, 0, err
	}
	response, err := mc.UnmarshalClientBoundResponse(pk)
	if err != nil {
		return mc.ClientBoundResponse{}, 0, err
	}

	ping := mc.NewServerBoundPing()
	beginTime := time.Now()
	if err := mcConn.WriteMcPacket(ping); err != nil {
		return mc.ClientBoundResponse{}, 0, err
	}
	pk, err = mcConn.ReadPacket()
	if err != nil {
		return mc.ClientBoundResponse{}, 0, err
	}
	latency := time.Since(beginTime)
	pong, err := mc.UnmarshalClientBoundPong(pk)
	if err != nil {
		return mc.ClientBoundResponse{}, 0, err
	}
	if pong.Payload != ping.Payload {
		return mc.ClientBoundResponse{}, 0, core.Malformed(fmt.Sprintf("pong payload %d does not echo ping %d", pong.Payload, ping.Payload), nil)
	}

	statusLatency.Observe(latency.Seconds())
	p.log.Debug().Str("host", p.host).Dur("latency", latency).Msg("status received")
	return response, latency, nil
}

// Ping returns the round trip time of a status exchange.
func (p *Protocol) Ping(ctx context.Context) (time.Duration, error) {
	_, latency, err := p.Status(ctx)
	return latency, err
}

// Stats returns the decoded status with Latency set.
func (p *Protocol) Stats(ctx context.Context) (mc.StatusResponse, error) {
	response, latency, err := p.Status(ctx)
	if err != nil {
		return mc.StatusResponse{}, err
	}
	status, err := response.Status()
	if err != nil {
		return mc.StatusResponse{}, err
	}
	status.Latency = latency
	return status, nil
}
