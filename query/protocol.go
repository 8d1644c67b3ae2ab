package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/core"
)

type ProtocolOption func(*Protocol)

// WithSessionID fixes the session id, by default it is derived from the clock.
func WithSessionID(id int32) ProtocolOption {
	return func(p *Protocol) {
		p.sessionID = id & SessionMask
	}
}

func WithProtocolLogger(logger zerolog.Logger) ProtocolOption {
	return func(p *Protocol) {
		p.log = logger
	}
}

// Protocol talks query over a datagram transport. The challenge token from the first
// handshake is reused until Handshake is called again.
type Protocol struct {
	transport conn.Transport
	sessionID int32
	token     int32
	hasToken  bool
	log       zerolog.Logger
}

func NewProtocol(t conn.Transport, opts ...ProtocolOption) *Protocol {
	p := &Protocol{
		transport: t,
		sessionID: int32(time.Now().Unix()) & SessionMask,
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

func (p *Protocol) SessionID() int32 {
	return p.sessionID
}

// Token returns the stored challenge token and whether there is one.
func (p *Protocol) Token() (int32, bool) {
	return p.token, p.hasToken
}

func (p *Protocol) IsConnected() bool {
	return p.transport.IsConnected()
}

func (p *Protocol) Connect(ctx context.Context) error {
	return p.transport.Connect(ctx)
}

// Stop closes the transport and forgets the challenge token.
func (p *Protocol) Stop() error {
	p.hasToken = false
	return p.transport.Close()
}

func (p *Protocol) fail(err error) error {
	if !errors.Is(err, core.ErrMalformedPacket) {
		p.Stop()
	}
	return err
}

func (p *Protocol) exchange(ctx context.Context, req Request) (Response, error) {
	if !p.transport.IsConnected() {
		return Response{}, core.ErrNotConnected
	}
	if err := p.transport.Send(ctx, req.Marshal()); err != nil {
		return Response{}, p.fail(err)
	}
	data, err := p.transport.Recv(ctx, maxResponseSize)
	if err != nil {
		return Response{}, p.fail(err)
	}
	resp, err := UnmarshalResponse(data)
	if err != nil {
		return Response{}, err
	}
	if resp.Type != req.Type {
		return Response{}, core.Malformed(fmt.Sprintf("response type %d does not match request type %d", resp.Type, req.Type), nil)
	}
	if resp.SessionID != req.SessionID&SessionMask {
		return Response{}, core.Malformed(fmt.Sprintf("response session %d does not match %d", resp.SessionID, req.SessionID), nil)
	}
	return resp, nil
}

// Handshake requests a new challenge token and stores it.
func (p *Protocol) Handshake(ctx context.Context) (int32, error) {
	resp, err := p.exchange(ctx, Request{Type: TypeHandshake, SessionID: p.sessionID})
	if err != nil {
		return 0, err
	}
	token, err := resp.Token()
	if err != nil {
		return 0, err
	}
	p.token, p.hasToken = token, true
	p.log.Debug().Int32("token", token).Msg("query handshake")
	return token, nil
}

func (p *Protocol) stat(ctx context.Context, full bool) (Response, error) {
	if !p.hasToken {
		if _, err := p.Handshake(ctx); err != nil {
			return Response{}, err
		}
	}
	return p.exchange(ctx, Request{Type: TypeStat, SessionID: p.sessionID, Token: p.token, Full: full})
}

// BasicStatsPacket sends a basic stat request and returns the undecoded response.
func (p *Protocol) BasicStatsPacket(ctx context.Context) (Response, error) {
	return p.stat(ctx, false)
}

// FullStatsPacket sends a full stat request and returns the undecoded response.
func (p *Protocol) FullStatsPacket(ctx context.Context) (Response, error) {
	return p.stat(ctx, true)
}

func (p *Protocol) BasicStats(ctx context.Context) (BasicStats, error) {
	resp, err := p.BasicStatsPacket(ctx)
	if err != nil {
		return BasicStats{}, err
	}
	return ParseBasicStats(resp.Body)
}

func (p *Protocol) FullStats(ctx context.Context) (FullStats, error) {
	resp, err := p.FullStatsPacket(ctx)
	if err != nil {
		return FullStats{}, err
	}
	return ParseFullStats(resp.Body)
}
