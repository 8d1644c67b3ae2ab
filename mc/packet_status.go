package mc

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/OwenCochell/mctools/core"
)

const (
	ClientBoundResponsePacketID byte = 0x00
	ServerBoundRequestPacketID  byte = 0x00
	ServerBoundPingPacketID     byte = 0x01
	ClientBoundPongPacketID     byte = 0x01

	// NullUUID marks sample entries that carry server text instead of a player.
	NullUUID = "00000000-0000-0000-0000-000000000000"
)

type ClientBoundResponse struct {
	JSONResponse String
}

func (pk ClientBoundResponse) Marshal() Packet {
	return MarshalPacket(
		ClientBoundResponsePacketID,
		pk.JSONResponse,
	)
}

func UnmarshalClientBoundResponse(packet Packet) (ClientBoundResponse, error) {
	var pk ClientBoundResponse

	if packet.ID != ClientBoundResponsePacketID {
		return pk, core.Malformed("status response", ErrInvalidPacketID)
	}

	if err := packet.Scan(
		&pk.JSONResponse,
	); err != nil {
		return pk, err
	}

	return pk, nil
}

// Status decodes the JSON body of the response.
func (pk ClientBoundResponse) Status() (StatusResponse, error) {
	return ParseStatus(string(pk.JSONResponse))
}

type StatusResponse struct {
	Description Description `json:"description"`
	Players     PlayersJSON `json:"players"`
	Version     VersionJSON `json:"version"`
	Favicon     string      `json:"favicon,omitempty"`

	// Latency of the ping/pong round trip, zero when no ping was sent.
	Latency time.Duration `json:"-"`
}

type VersionJSON struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type PlayersJSON struct {
	Max     int                `json:"max"`
	Online  int                `json:"online"`
	Sample  []PlayerSampleJSON `json:"sample,omitempty"`
	Message string             `json:"message,omitempty"`
}

type PlayerSampleJSON struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// MapText returns a copy of the status with fn applied to every human readable string.
func (status StatusResponse) MapText(fn func(string) string) interface{} {
	out := status
	out.Description = status.Description.mapText(fn)
	if status.Players.Sample != nil {
		out.Players.Sample = make([]PlayerSampleJSON, len(status.Players.Sample))
		for i, sample := range status.Players.Sample {
			out.Players.Sample[i] = PlayerSampleJSON{Name: fn(sample.Name), ID: sample.ID}
		}
	}
	if status.Players.Message != "" {
		out.Players.Message = fn(status.Players.Message)
	}
	return out
}

// ParseStatus decodes the first balanced JSON object found in s. Anything around it is
// ignored, some servers append garbage after the body.
func ParseStatus(s string) (StatusResponse, error) {
	var status StatusResponse
	body, ok := jsonObject(strings.ToValidUTF8(s, ""))
	if !ok {
		return status, core.Malformed("no JSON object in status response", nil)
	}
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		return status, core.Malformed("status response", err)
	}
	return status, nil
}

func jsonObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

type ServerBoundRequest struct{}

func (pk ServerBoundRequest) Marshal() Packet {
	return MarshalPacket(
		ServerBoundRequestPacketID,
	)
}

func NewServerBoundPing() ServerBoundPing {
	return ServerBoundPing{
		Payload: Long(time.Now().UnixMilli()),
	}
}

type ServerBoundPing struct {
	Payload Long
}

func (pk ServerBoundPing) Marshal() Packet {
	return MarshalPacket(
		ServerBoundPingPacketID,
		pk.Payload,
	)
}

type ClientBoundPong struct {
	Payload Long
}

func (pk ClientBoundPong) Marshal() Packet {
	return MarshalPacket(
		ClientBoundPongPacketID,
		pk.Payload,
	)
}

func UnmarshalClientBoundPong(packet Packet) (ClientBoundPong, error) {
	var pk ClientBoundPong
	if packet.ID != ClientBoundPongPacketID {
		return pk, core.Malformed("pong", ErrInvalidPacketID)
	}
	if err := packet.Scan(&pk.Payload); err != nil {
		return pk, err
	}
	return pk, nil
}
