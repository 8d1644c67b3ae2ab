package conn

import (
	"context"
	"net"

	"github.com/pires/go-proxyproto"
)

// Stream is a TCP transport, used by RCON and the server list ping.
type Stream struct {
	socket
}

func NewStream(addr string, opts ...Option) *Stream {
	return &Stream{
		socket: newSocket("tcp", addr, opts),
	}
}

// Connect opens the connection, it does nothing when already connected.
func (s *Stream) Connect(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}
	c, err := s.open(ctx)
	if err != nil {
		return err
	}
	if tcpConn, ok := c.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}
	if s.sendProxyHeader {
		if err := writeProxyHeader(c); err != nil {
			c.Close()
			return translate(ctx, err)
		}
	}
	s.conn = c
	return nil
}

func (s *Stream) Recv(ctx context.Context, max int) ([]byte, error) {
	return s.read(ctx, make([]byte, max))
}

func writeProxyHeader(c net.Conn) error {
	header := &proxyproto.Header{
		Version:           2,
		Command:           proxyproto.PROXY,
		TransportProtocol: proxyproto.TCPv4,
		SourceAddr:        c.LocalAddr(),
		DestinationAddr:   c.RemoteAddr(),
	}
	if addr, ok := c.LocalAddr().(*net.TCPAddr); ok && addr.IP.To4() == nil {
		header.TransportProtocol = proxyproto.TCPv6
	}
	_, err := header.WriteTo(c)
	return err
}
