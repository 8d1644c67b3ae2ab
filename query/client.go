package query

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/formatter"
)

const DefaultPort = 25565

type clientOptions struct {
	transport []conn.Option
	protocol  []ProtocolOption
	format    formatter.Mode
}

type Option func(*clientOptions)

func WithTransportOptions(opts ...conn.Option) Option {
	return func(o *clientOptions) {
		o.transport = append(o.transport, opts...)
	}
}

func WithProtocolOptions(opts ...ProtocolOption) Option {
	return func(o *clientOptions) {
		o.protocol = append(o.protocol, opts...)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.transport = append(o.transport, conn.WithLogger(logger))
		o.protocol = append(o.protocol, WithProtocolLogger(logger))
	}
}

func WithFormatMode(mode formatter.Mode) Option {
	return func(o *clientOptions) {
		o.format = mode
	}
}

type callOptions struct {
	format *formatter.Mode
}

type CallOption func(*callOptions)

// WithFormat overrides the client's format mode for a single call.
func WithFormat(mode formatter.Mode) CallOption {
	return func(o *callOptions) {
		o.format = &mode
	}
}

// Client fetches query stats. It connects and handshakes on first use.
type Client struct {
	proto      *Protocol
	formatters *formatter.Collection
	format     formatter.Mode
}

// NewClient creates a client for host. A zero port means DefaultPort.
func NewClient(host string, port int, opts ...Option) *Client {
	if port == 0 {
		port = DefaultPort
	}
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	transportOpts := append([]conn.Option{conn.WithTimeout(core.DefaultTimeout)}, o.transport...)
	datagram := conn.NewDatagram(net.JoinHostPort(host, strconv.Itoa(port)), transportOpts...)
	return NewClientWithTransport(datagram, opts...)
}

func NewClientWithTransport(t conn.Transport, opts ...Option) *Client {
	o := clientOptions{format: formatter.Replace}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		proto:      NewProtocol(t, o.protocol...),
		formatters: formatter.QueryTemplate(),
		format:     o.format,
	}
}

func (c *Client) Start(ctx context.Context) error {
	return c.proto.Connect(ctx)
}

func (c *Client) Stop() error {
	return c.proto.Stop()
}

func (c *Client) IsConnected() bool {
	return c.proto.IsConnected()
}

func (c *Client) SetTimeout(timeout time.Duration) {
	c.proto.Transport().SetTimeout(timeout)
}

func (c *Client) Formatters() *formatter.Collection {
	return c.formatters
}

func (c *Client) SetFormat(mode formatter.Mode) {
	c.format = mode
}

func (c *Client) Format() formatter.Mode {
	return c.format
}

func (c *Client) mode(opts []CallOption) formatter.Mode {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.format != nil {
		return *o.format
	}
	return c.format
}

// Handshake fetches a fresh challenge token, stat calls only handshake when there is none.
func (c *Client) Handshake(ctx context.Context) (int32, error) {
	if err := c.Start(ctx); err != nil {
		return 0, err
	}
	return c.proto.Handshake(ctx)
}

func (c *Client) BasicStats(ctx context.Context, opts ...CallOption) (BasicStats, error) {
	if err := c.Start(ctx); err != nil {
		return BasicStats{}, err
	}
	stats, err := c.proto.BasicStats(ctx)
	if err != nil {
		return BasicStats{}, err
	}
	return formatter.Apply(c.formatters, c.mode(opts), stats, formatter.QueryCommand), nil
}

// BasicStatsPacket returns the response packet as received, without formatting.
func (c *Client) BasicStatsPacket(ctx context.Context) (Response, error) {
	if err := c.Start(ctx); err != nil {
		return Response{}, err
	}
	return c.proto.BasicStatsPacket(ctx)
}

func (c *Client) FullStats(ctx context.Context, opts ...CallOption) (FullStats, error) {
	if err := c.Start(ctx); err != nil {
		return FullStats{}, err
	}
	stats, err := c.proto.FullStats(ctx)
	if err != nil {
		return FullStats{}, err
	}
	return formatter.Apply(c.formatters, c.mode(opts), stats, formatter.QueryCommand), nil
}

// FullStatsPacket returns the response packet as received, without formatting.
func (c *Client) FullStatsPacket(ctx context.Context) (Response, error) {
	if err := c.Start(ctx); err != nil {
		return Response{}, err
	}
	return c.proto.FullStatsPacket(ctx)
}
