package mc

import (
	"bufio"
	"io"
)

type McConn interface {
	ReadPacket() (Packet, error)
	WritePacket(p Packet) error
	WriteMcPacket(s McPacket) error
}

// NewMcConn frames packets over any byte stream, a net.Conn or a transport adapter.
func NewMcConn(rw io.ReadWriter) McConn {
	reader, ok := rw.(DecodeReader)
	if !ok {
		reader = bufio.NewReader(rw)
	}
	return mcConn{
		writer: rw,
		reader: reader,
	}
}

type mcConn struct {
	writer io.Writer
	reader DecodeReader
}

func (conn mcConn) ReadPacket() (Packet, error) {
	return ReadPacket(conn.reader)
}

func (conn mcConn) WritePacket(p Packet) error {
	_, err := conn.writer.Write(p.Marshal())
	return err
}

func (conn mcConn) WriteMcPacket(s McPacket) error {
	return conn.WritePacket(s.Marshal())
}
