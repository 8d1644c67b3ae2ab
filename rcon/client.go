package rcon

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/formatter"
)

const DefaultPort = 25575

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

// WithLogger hands logger to both the protocol and its transport.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.transport = append(o.transport, conn.WithLogger(logger))
		o.protocol = append(o.protocol, WithProtocolLogger(logger))
	}
}

// WithFormatMode sets the mode used by calls that do not pick one.
func WithFormatMode(mode formatter.Mode) Option {
	return func(o *clientOptions) {
		o.format = mode
	}
}

type callOptions struct {
	CommandOptions
	format *formatter.Mode
}

type CallOption func(*callOptions)

// WithFormat overrides the client's format mode for a single call.
func WithFormat(mode formatter.Mode) CallOption {
	return func(o *callOptions) {
		o.format = &mode
	}
}

func SkipAuthCheck() CallOption {
	return func(o *callOptions) {
		o.SkipAuthCheck = true
	}
}

func SkipFragCheck() CallOption {
	return func(o *callOptions) {
		o.SkipFragCheck = true
	}
}

func SkipLengthCheck() CallOption {
	return func(o *callOptions) {
		o.SkipLengthCheck = true
	}
}

// Client runs commands over RCON. It connects on first use and formats responses with
// its own formatter collection.
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
	o := clientOptions{format: formatter.Replace}
	for _, opt := range opts {
		opt(&o)
	}
	transportOpts := append([]conn.Option{conn.WithTimeout(core.DefaultTimeout)}, o.transport...)
	stream := conn.NewStream(net.JoinHostPort(host, strconv.Itoa(port)), transportOpts...)
	return NewClientWithTransport(stream, opts...)
}

// NewClientWithTransport creates a client running over t, transport options are ignored.
func NewClientWithTransport(t conn.Transport, opts ...Option) *Client {
	o := clientOptions{format: formatter.Replace}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		proto:      NewProtocol(t, o.protocol...),
		formatters: formatter.RCONTemplate(),
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

func (c *Client) IsAuthenticated() bool {
	return c.proto.IsAuthenticated()
}

func (c *Client) State() State {
	return c.proto.State()
}

func (c *Client) SetTimeout(timeout time.Duration) {
	c.proto.Transport().SetTimeout(timeout)
}

// Formatters returns the collection the client formats with, changes apply to later calls.
func (c *Client) Formatters() *formatter.Collection {
	return c.formatters
}

func (c *Client) SetFormat(mode formatter.Mode) {
	c.format = mode
}

func (c *Client) Format() formatter.Mode {
	return c.format
}

// Login connects if needed and authenticates. It reports false when the server refused
// the password.
func (c *Client) Login(ctx context.Context, password string) (bool, error) {
	if err := c.Start(ctx); err != nil {
		return false, err
	}
	return c.proto.Login(ctx, password)
}

// Authenticate is Login with a refused password reported as core.ErrAuthentication.
func (c *Client) Authenticate(ctx context.Context, password string) error {
	ok, err := c.Login(ctx, password)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: password refused", core.ErrAuthentication)
	}
	return nil
}

// Command runs cmd and returns the formatted response.
func (c *Client) Command(ctx context.Context, cmd string, opts ...CallOption) (string, error) {
	pk, err := c.CommandPacket(ctx, cmd, opts...)
	if err != nil {
		return "", err
	}
	return pk.Payload, nil
}

// CommandPacket runs cmd and returns the whole response packet with its payload formatted.
func (c *Client) CommandPacket(ctx context.Context, cmd string, opts ...CallOption) (Packet, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.SkipAuthCheck {
		if err := c.Start(ctx); err != nil {
			return Packet{}, err
		}
	}
	pk, err := c.proto.Command(ctx, cmd, o.CommandOptions)
	if err != nil {
		return Packet{}, err
	}
	mode := c.format
	if o.format != nil {
		mode = *o.format
	}
	pk.Payload = formatter.Apply(c.formatters, mode, pk.Payload, commandName(cmd))
	return pk, nil
}

// Players runs the list command and parses its output.
func (c *Client) Players(ctx context.Context) (Players, error) {
	resp, err := c.Command(ctx, "list", WithFormat(formatter.Remove))
	if err != nil {
		return Players{}, err
	}
	return ParsePlayers(resp)
}

// commandName is the key formatters are matched against, the first word of cmd.
func commandName(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimPrefix(fields[0], "/")
}
