package query

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/mc"
)

const (
	TypeStat      byte = 0x00
	TypeHandshake byte = 0x09

	// SessionMask keeps the bits of a session id the server actually reads.
	SessionMask = 0x0F0F0F0F

	headerLength = 5
	// maxResponseSize is the largest UDP payload.
	maxResponseSize = 65535
)

var (
	magic = []byte{0xFE, 0xFD}
	// playerMarker separates the key/value section of a full stat response from the players.
	playerMarker = []byte("\x01player_\x00\x00")
)

// splitPaddingLength is the "splitnum\x00\x80\x00" block preceding the key/value section
// of a full stat response.
const splitPaddingLength = 11

// Request is a client to server query packet. Token and Full are only sent for stat requests.
type Request struct {
	Type      byte
	SessionID int32
	Token     int32
	Full      bool
}

func (req Request) Marshal() []byte {
	var buf bytes.Buffer
	buf.Write(magic)
	buf.WriteByte(req.Type)
	buf.Write(mc.Int(req.SessionID & SessionMask).Encode())
	if req.Type == TypeStat {
		buf.Write(mc.Int(req.Token).Encode())
		if req.Full {
			buf.Write([]byte{0x00, 0x00, 0x00, 0x00})
		}
	}
	return buf.Bytes()
}

// Response is a server to client query packet with its body left undecoded.
type Response struct {
	Type      byte
	SessionID int32
	Body      []byte
}

func UnmarshalResponse(data []byte) (Response, error) {
	if len(data) < headerLength {
		return Response{}, core.Malformed(fmt.Sprintf("query response of %d bytes is too short", len(data)), nil)
	}
	var session mc.Int
	if err := session.Decode(bytes.NewReader(data[1:headerLength])); err != nil {
		return Response{}, err
	}
	return Response{
		Type:      data[0],
		SessionID: int32(session),
		Body:      data[headerLength:],
	}, nil
}

func (resp Response) Marshal() []byte {
	bb := make([]byte, 0, headerLength+len(resp.Body))
	bb = append(bb, resp.Type)
	bb = append(bb, mc.Int(resp.SessionID).Encode()...)
	return append(bb, resp.Body...)
}

// Token decodes the challenge token of a handshake response, a decimal number that is
// usually NUL terminated.
func (resp Response) Token() (int32, error) {
	digits, _, _ := bytes.Cut(resp.Body, []byte{0x00})
	token, err := strconv.ParseInt(string(digits), 10, 32)
	if err != nil {
		return 0, core.Malformed("challenge token", err)
	}
	return int32(token), nil
}
