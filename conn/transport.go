package conn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/OwenCochell/mctools/core"
)

// Transport is the byte level connection a protocol runs over. Recv on a stream may
// return fewer bytes than asked for and returns zero bytes once the peer closed the
// connection. Recv on a datagram transport returns exactly one datagram.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, b []byte) error
	Recv(ctx context.Context, max int) ([]byte, error)
	Close() error
	SetTimeout(timeout time.Duration)
	Timeout() time.Duration
	IsConnected() bool
	Addr() string
}

type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

type Option func(*socket)

// WithTimeout sets the deadline applied to dialing and every send and receive.
// Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(s *socket) {
		s.timeout = timeout
	}
}

// WithDialFunc replaces the net.Dialer used to open the connection.
func WithDialFunc(dial DialFunc) Option {
	return func(s *socket) {
		s.dial = dial
	}
}

// WithProxyProtocol makes a stream send a PROXY protocol v2 header right after connecting.
func WithProxyProtocol(send bool) Option {
	return func(s *socket) {
		s.sendProxyHeader = send
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *socket) {
		s.log = logger
	}
}

// socket holds what the stream and datagram transports share.
type socket struct {
	network         string
	addr            string
	timeout         time.Duration
	dial            DialFunc
	sendProxyHeader bool
	log             zerolog.Logger

	conn net.Conn
}

func newSocket(network, addr string, opts []Option) socket {
	s := socket{
		network: network,
		addr:    addr,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s *socket) Addr() string {
	return s.addr
}

func (s *socket) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

func (s *socket) Timeout() time.Duration {
	return s.timeout
}

func (s *socket) IsConnected() bool {
	return s.conn != nil
}

func (s *socket) deadline() time.Time {
	if s.timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.timeout)
}

func (s *socket) open(ctx context.Context) (net.Conn, error) {
	dial := s.dial
	if dial == nil {
		dialer := net.Dialer{Timeout: s.timeout}
		dial = dialer.DialContext
	}
	c, err := dial(ctx, s.network, s.addr)
	if err != nil {
		dialFailures.WithLabelValues(s.network).Inc()
		return nil, translate(ctx, fmt.Errorf("dial %s %s: %w", s.network, s.addr, err))
	}
	s.log.Debug().Str("addr", s.addr).Str("network", s.network).Msg("connected")
	return c, nil
}

func (s *socket) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.log.Debug().Str("addr", s.addr).Msg("connection closed")
	return err
}

func (s *socket) Send(ctx context.Context, b []byte) error {
	c := s.conn
	if c == nil {
		return core.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.SetWriteDeadline(s.deadline()); err != nil {
		return translate(ctx, err)
	}
	defer interruptOn(ctx, c)()
	n, err := c.Write(b)
	bytesSent.WithLabelValues(s.network).Add(float64(n))
	if err != nil {
		return translate(ctx, err)
	}
	return nil
}

func (s *socket) read(ctx context.Context, buf []byte) ([]byte, error) {
	c := s.conn
	if c == nil {
		return nil, core.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.SetReadDeadline(s.deadline()); err != nil {
		return nil, translate(ctx, err)
	}
	defer interruptOn(ctx, c)()
	n, err := c.Read(buf)
	bytesReceived.WithLabelValues(s.network).Add(float64(n))
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return buf[:0], nil
	}
	return nil, translate(ctx, err)
}

// interruptOn expires the connection deadlines once ctx is done, which unblocks a
// pending read or write. The returned func waits for a callback that already started,
// so an expired deadline never leaks into the next operation.
func interruptOn(ctx context.Context, c net.Conn) func() {
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(done)
		c.SetDeadline(time.Unix(1, 0))
	})
	return func() {
		if !stop() {
			<-done
		}
	}
}

func translate(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", core.ErrTimeout, err)
	}
	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %v", core.ErrConnectionClosed, err)
	}
	return err
}

// ReadFull keeps receiving until n bytes arrived. A closed peer closes the transport
// and yields core.ErrConnectionClosed.
func ReadFull(ctx context.Context, t Transport, n int) ([]byte, error) {
	buf := make([]byte, 0, n)
	for len(buf) < n {
		bb, err := t.Recv(ctx, n-len(buf))
		if err != nil {
			return nil, err
		}
		if len(bb) == 0 {
			t.Close()
			return nil, core.ErrConnectionClosed
		}
		buf = append(buf, bb...)
	}
	return buf, nil
}

// NewReadWriter adapts a transport to io.ReadWriter for the duration of ctx.
func NewReadWriter(ctx context.Context, t Transport) io.ReadWriter {
	return readWriter{ctx: ctx, t: t}
}

type readWriter struct {
	ctx context.Context
	t   Transport
}

func (rw readWriter) Read(p []byte) (int, error) {
	bb, err := rw.t.Recv(rw.ctx, len(p))
	if err != nil {
		return 0, err
	}
	if len(bb) == 0 {
		rw.t.Close()
		return 0, core.ErrConnectionClosed
	}
	return copy(p, bb), nil
}

func (rw readWriter) Write(p []byte) (int, error) {
	if err := rw.t.Send(rw.ctx, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
