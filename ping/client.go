package ping

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/formatter"
	"github.com/OwenCochell/mctools/mc"
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

// Client runs server list pings against one server.
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
	stream := conn.NewStream(net.JoinHostPort(host, strconv.Itoa(port)), transportOpts...)
	return NewClientWithTransport(stream, host, uint16(port), opts...)
}

// NewClientWithTransport creates a client running over t that announces host and port
// in its handshakes.
func NewClientWithTransport(t conn.Transport, host string, port uint16, opts ...Option) *Client {
	o := clientOptions{format: formatter.Replace}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		proto:      NewProtocol(t, host, port, o.protocol...),
		formatters: formatter.PingTemplate(),
		format:     o.format,
	}
}

// Start connects ahead of the next call, calls connect on their own otherwise.
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

func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	return c.proto.Ping(ctx)
}

// Stats returns the server status, formatted, with Latency set.
func (c *Client) Stats(ctx context.Context, opts ...CallOption) (mc.StatusResponse, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	mode := c.format
	if o.format != nil {
		mode = *o.format
	}
	status, err := c.proto.Stats(ctx)
	if err != nil {
		return mc.StatusResponse{}, err
	}
	return formatter.Apply(c.formatters, mode, status, formatter.PingCommand), nil
}

// StatsPacket returns the status response packet as received along with the latency.
func (c *Client) StatsPacket(ctx context.Context) (mc.ClientBoundResponse, time.Duration, error) {
	return c.proto.Status(ctx)
}
