package rcon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/core"
)

type State byte

const (
	Disconnected State = iota
	Connected
	Authenticated
)

func (state State) String() string {
	switch state {
	case Connected:
		return "Connected"
	case Authenticated:
		return "Authenticated"
	}
	return "Disconnected"
}

var (
	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mctools",
		Subsystem: "rcon",
		Name:      "logins_total",
		Help:      "RCON login attempts by outcome.",
	}, []string{"result"})
	fragments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mctools",
		Subsystem: "rcon",
		Name:      "reassembled_fragments_total",
		Help:      "Response packets joined into fragmented command responses.",
	})
)

// CommandOptions turn off the checks Command performs, the zero value runs all of them.
type CommandOptions struct {
	// SkipAuthCheck sends the command without an authenticated session.
	SkipAuthCheck bool
	// SkipFragCheck returns the first response packet even when more fragments follow.
	SkipFragCheck bool
	// SkipLengthCheck sends commands longer than MaxCommandLength.
	SkipLengthCheck bool
}

type ProtocolOption func(*Protocol)

// WithRequestID fixes the first request id instead of seeding it from the clock on login.
func WithRequestID(id int32) ProtocolOption {
	return func(p *Protocol) {
		p.nextID = id & 0x7fffffff
		p.fixedID = true
	}
}

func WithProtocolLogger(logger zerolog.Logger) ProtocolOption {
	return func(p *Protocol) {
		p.log = logger
	}
}

// Protocol is the RCON state machine. It is not safe for concurrent use; one operation
// at a time per instance.
type Protocol struct {
	transport conn.Transport
	state     State
	nextID    int32
	fixedID   bool
	log       zerolog.Logger
}

func NewProtocol(t conn.Transport, opts ...ProtocolOption) *Protocol {
	p := &Protocol{
		transport: t,
		state:     Disconnected,
		nextID:    seedID(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func seedID() int32 {
	return int32(time.Now().Unix() & 0x7fffffff)
}

// takeID returns a fresh request id, ids stay positive so they never collide with FailedID.
func (p *Protocol) takeID() int32 {
	id := p.nextID
	p.nextID++
	if p.nextID <= 0 {
		p.nextID = 1
	}
	return id
}

func (p *Protocol) Transport() conn.Transport {
	return p.transport
}

// State reports the current state, a transport closed underneath the protocol counts
// as Disconnected.
func (p *Protocol) State() State {
	if !p.transport.IsConnected() {
		p.state = Disconnected
	}
	return p.state
}

func (p *Protocol) IsConnected() bool {
	return p.State() != Disconnected
}

func (p *Protocol) IsAuthenticated() bool {
	return p.State() == Authenticated
}

func (p *Protocol) Connect(ctx context.Context) error {
	if p.State() != Disconnected {
		return nil
	}
	if err := p.transport.Connect(ctx); err != nil {
		return err
	}
	p.state = Connected
	return nil
}

// Stop closes the transport, the protocol can be connected again afterwards.
func (p *Protocol) Stop() error {
	p.state = Disconnected
	return p.transport.Close()
}

// fail stops the protocol unless err is a decoding error that left the stream intact.
func (p *Protocol) fail(err error) error {
	if !errors.Is(err, core.ErrMalformedPacket) {
		p.Stop()
	}
	return err
}

func (p *Protocol) send(ctx context.Context, pk Packet) error {
	return p.transport.Send(ctx, pk.Marshal())
}

func (p *Protocol) exchange(ctx context.Context, pk Packet) (Packet, error) {
	if err := p.send(ctx, pk); err != nil {
		return Packet{}, p.fail(err)
	}
	resp, err := ReadPacket(ctx, p.transport)
	if err != nil {
		return Packet{}, p.fail(err)
	}
	return resp, nil
}

// Login authenticates the session. A refused password is not an error, Login returns
// false and the session stays Connected.
func (p *Protocol) Login(ctx context.Context, password string) (bool, error) {
	switch p.State() {
	case Authenticated:
		return true, nil
	case Disconnected:
		return false, core.ErrNotConnected
	}
	if !p.fixedID {
		p.nextID = seedID()
	}

	id := p.takeID()
	resp, err := p.exchange(ctx, Packet{ID: id, Type: TypeLogin, Payload: password})
	if err != nil {
		return false, err
	}
	if resp.ID != id {
		p.state = Connected
		logins.WithLabelValues("refused").Inc()
		p.log.Debug().Int32("id", resp.ID).Msg("login refused")
		return false, nil
	}
	p.state = Authenticated
	logins.WithLabelValues("accepted").Inc()
	p.log.Debug().Msg("login accepted")
	return true, nil
}

// Command runs cmd on the server and returns its response, joining fragmented
// responses into a single packet.
func (p *Protocol) Command(ctx context.Context, cmd string, opts CommandOptions) (Packet, error) {
	state := p.State()
	if !opts.SkipAuthCheck && state != Authenticated {
		return Packet{}, core.ErrAuthentication
	}
	if !opts.SkipLengthCheck && len(cmd) > MaxCommandLength {
		return Packet{}, &core.LengthError{Length: len(cmd), Max: MaxCommandLength}
	}
	if state == Disconnected {
		return Packet{}, core.ErrNotConnected
	}

	id := p.takeID()
	resp, err := p.exchange(ctx, Packet{ID: id, Type: TypeCommand, Payload: cmd})
	if err != nil {
		return Packet{}, err
	}
	if resp.ID != id {
		if resp.ID == FailedID && opts.SkipAuthCheck {
			return resp, nil
		}
		return Packet{}, core.Malformed(fmt.Sprintf("response id %d does not match request id %d", resp.ID, id), nil)
	}
	if opts.SkipFragCheck || len(resp.Payload) != MaxResponsePayload {
		return resp, nil
	}
	return p.reassemble(ctx, resp)
}

// reassemble collects the remaining fragments of first. The server answers in order,
// so once the probe sent after the command is echoed every fragment has arrived. A
// response exactly MaxResponsePayload long that is complete still costs a probe.
func (p *Protocol) reassemble(ctx context.Context, first Packet) (Packet, error) {
	probe := Packet{ID: p.takeID(), Type: TypeResponse}
	if err := p.send(ctx, probe); err != nil {
		return Packet{}, p.fail(err)
	}

	var body strings.Builder
	body.WriteString(first.Payload)
	count := 1
	for {
		pk, err := ReadPacket(ctx, p.transport)
		if err != nil {
			// the probe echo is still pending, the stream cannot be reused
			p.Stop()
			return Packet{}, err
		}
		switch pk.ID {
		case first.ID:
			body.WriteString(pk.Payload)
			count++
		case probe.ID:
			fragments.Add(float64(count))
			p.log.Debug().Int32("id", first.ID).Int("fragments", count).Msg("reassembled response")
			return Packet{ID: first.ID, Type: first.Type, Payload: body.String()}, nil
		default:
			p.Stop()
			return Packet{}, core.Malformed(fmt.Sprintf("unexpected response id %d while reassembling %d", pk.ID, first.ID), nil)
		}
	}
}
