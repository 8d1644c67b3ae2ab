package conn

import (
	"context"
)

// maxDatagramSize is the largest UDP payload, a full stat response can exceed a few KB.
const maxDatagramSize = 65535

// Datagram is a connected UDP transport, used by query.
type Datagram struct {
	socket
}

func NewDatagram(addr string, opts ...Option) *Datagram {
	return &Datagram{
		socket: newSocket("udp", addr, opts),
	}
}

func (d *Datagram) Connect(ctx context.Context) error {
	if d.conn != nil {
		return nil
	}
	c, err := d.open(ctx)
	if err != nil {
		return err
	}
	d.conn = c
	return nil
}

// Recv returns one whole datagram, max is ignored since a datagram cannot be read in parts.
func (d *Datagram) Recv(ctx context.Context, max int) ([]byte, error) {
	return d.read(ctx, make([]byte, maxDatagramSize))
}
