package rcon

import (
	"bytes"
	"context"
	"fmt"

	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/mc"
)

const (
	TypeResponse int32 = 0
	TypeCommand  int32 = 2
	TypeLogin    int32 = 3

	// FailedID is the request id the server answers with when a login is refused.
	FailedID int32 = -1

	// MaxPacketSize is the largest packet the server accepts before it drops the connection.
	MaxPacketSize = 1460
	// MaxCommandLength is the payload that fits in MaxPacketSize.
	MaxCommandLength = MaxPacketSize - 14
	// MaxResponsePayload is the largest payload of a single response packet, larger
	// responses are split over several packets.
	MaxResponsePayload = 4096

	// emptyLength is the length field of a packet without payload: id, type and the
	// two terminating NULs.
	emptyLength = 10
	// maxReadLength bounds the length field of incoming packets.
	maxReadLength = 1 << 20
)

// Packet is a single RCON packet. Serialized it reads
// length | id | type | payload | 0x00 0x00, integers are little endian and the length
// counts every byte after itself.
type Packet struct {
	ID      int32
	Type    int32
	Payload string
}

func (pk Packet) Marshal() []byte {
	var buf bytes.Buffer
	buf.Grow(4 + emptyLength + len(pk.Payload))
	buf.Write(mc.LittleInt(emptyLength + len(pk.Payload)).Encode())
	buf.Write(mc.LittleInt(pk.ID).Encode())
	buf.Write(mc.LittleInt(pk.Type).Encode())
	buf.WriteString(pk.Payload)
	buf.Write([]byte{0x00, 0x00})
	return buf.Bytes()
}

// Unmarshal decodes exactly one serialized packet.
func Unmarshal(data []byte) (Packet, error) {
	var (
		length, id, typ mc.LittleInt
	)
	if len(data) < 4+emptyLength {
		return Packet{}, core.Malformed(fmt.Sprintf("rcon packet of %d bytes is too short", len(data)), nil)
	}
	r := bytes.NewReader(data)
	if err := mc.ScanFields(r, &length, &id, &typ); err != nil {
		return Packet{}, err
	}
	if int(length) != len(data)-4 {
		return Packet{}, core.Malformed(fmt.Sprintf("rcon length field is %d but %d bytes follow", length, len(data)-4), nil)
	}
	payload := data[12 : len(data)-2]
	if data[len(data)-2] != 0x00 || data[len(data)-1] != 0x00 {
		return Packet{}, core.Malformed("rcon packet is missing its terminating NULs", nil)
	}
	return Packet{
		ID:      int32(id),
		Type:    int32(typ),
		Payload: string(payload),
	}, nil
}

// ReadPacket reads the next packet from the transport. A length field that cannot be
// valid leaves the stream at an unknown position, the transport is closed in that case.
func ReadPacket(ctx context.Context, t conn.Transport) (Packet, error) {
	head, err := conn.ReadFull(ctx, t, 4)
	if err != nil {
		return Packet{}, err
	}
	var length mc.LittleInt
	if err := length.Decode(bytes.NewReader(head)); err != nil {
		return Packet{}, err
	}
	if length < emptyLength || length > maxReadLength {
		t.Close()
		return Packet{}, core.Malformed(fmt.Sprintf("invalid rcon length field %d", length), nil)
	}
	body, err := conn.ReadFull(ctx, t, int(length))
	if err != nil {
		return Packet{}, err
	}
	return Unmarshal(append(head, body...))
}
