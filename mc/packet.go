package mc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/OwenCochell/mctools/core"
)

var (
	ErrInvalidPacketID = errors.New("invalid packet id")
	ErrPacketTooBig    = errors.New("packet contains too much data")
	MaxPacketSize      = 2097151
)

const (
	ServerBoundHandshakePacketID byte = 0x00

	StatusState = 1

	HandshakeStatusState = VarInt(StatusState)
)

// Packet is the raw representation of message that is send between the client and the server
type Packet struct {
	ID   byte
	Data []byte
}

type McPacket interface {
	Marshal() Packet
}

// Scan decodes and copies the Packet data into the fields
func (pk Packet) Scan(fields ...FieldDecoder) error {
	return ScanFields(bytes.NewReader(pk.Data), fields...)
}

// Marshal encodes the packet and all it's fields
func (pk *Packet) Marshal() []byte {
	data := make([]byte, 0, len(pk.Data)+1)
	data = append(data, pk.ID)
	data = append(data, pk.Data...)
	packetLength := VarInt(int32(len(data))).Encode()

	return append(packetLength, data...)
}

// ScanFields decodes a byte stream into fields
func ScanFields(r DecodeReader, fields ...FieldDecoder) error {
	for _, field := range fields {
		if err := field.Decode(r); err != nil {
			return err
		}
	}
	return nil
}

// MarshalPacket transforms an ID and Fields into a Packet
func MarshalPacket(ID byte, fields ...FieldEncoder) Packet {
	var pkt Packet
	pkt.ID = ID

	for _, v := range fields {
		pkt.Data = append(pkt.Data, v.Encode()...)
	}

	return pkt
}

// ReadPacket decodes a byte stream and cuts the first Packet out
func ReadPacket(r DecodeReader) (Packet, error) {
	var packetLength VarInt
	if err := packetLength.Decode(r); err != nil {
		return Packet{}, err
	}

	if packetLength < 1 {
		return Packet{}, core.Malformed("packet length too short", nil)
	}
	if int(packetLength) > MaxPacketSize {
		return Packet{}, fmt.Errorf("%w: %w", core.ErrMalformedPacket, ErrPacketTooBig)
	}

	data := make([]byte, packetLength)
	if _, err := io.ReadFull(r, data); err != nil {
		return Packet{}, fmt.Errorf("reading the content of the packet failed: %w", truncated(err))
	}

	return Packet{
		ID:   data[0],
		Data: data[1:],
	}, nil
}
