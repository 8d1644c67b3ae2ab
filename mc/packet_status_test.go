package mc_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/mc"
)

func TestStatusPackets_Marshal(t *testing.T) {
	tt := []struct {
		name     string
		packet   mc.McPacket
		expected []byte
	}{
		{
			name:     "handshake",
			packet:   mc.NewStatusHandshake("localhost", 25565, 0),
			expected: []byte("\x0f\x00\x00\tlocalhostc\xdd\x01"),
		},
		{
			name:     "request",
			packet:   mc.ServerBoundRequest{},
			expected: []byte("\x01\x00"),
		},
		{
			name:     "ping",
			packet:   mc.ServerBoundPing{Payload: 55},
			expected: []byte("\t\x01\x00\x00\x00\x00\x00\x00\x007"),
		},
		{
			name:     "response",
			packet:   mc.ClientBoundResponse{JSONResponse: "Hello, World!"},
			expected: append([]byte{0x0f, 0x00, 0x0d}, "Hello, World!"...),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			pk := tc.packet.Marshal()
			if got := pk.Marshal(); !bytes.Equal(got, tc.expected) {
				t.Errorf("got: %q; want: %q", got, tc.expected)
			}
		})
	}
}

func TestUnmarshalServerBoundHandshake(t *testing.T) {
	want := mc.NewStatusHandshake("play.example.com", 25565, 757)
	got, err := mc.UnmarshalServerBoundHandshake(want.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got: %v; want: %v", got, want)
	}
	if !got.IsStatusRequest() {
		t.Error("expected a status handshake")
	}
}

func TestUnmarshalClientBoundPong(t *testing.T) {
	pong, err := mc.UnmarshalClientBoundPong(mc.ClientBoundPong{Payload: 1234}.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if pong.Payload != 1234 {
		t.Errorf("got: %v; want: %v", pong.Payload, 1234)
	}

	_, err = mc.UnmarshalClientBoundPong(mc.Packet{ID: 0x05})
	if !errors.Is(err, core.ErrMalformedPacket) {
		t.Errorf("got: %v; want: %v", err, core.ErrMalformedPacket)
	}
}

func TestParseStatus(t *testing.T) {
	yes := true
	no := false
	tt := []struct {
		name    string
		body    string
		want    mc.StatusResponse
		wantErr error
	}{
		{
			name: "plain description",
			body: `{"description":"A Minecraft Server","players":{"max":20,"online":0},"version":{"name":"1.8.8","protocol":47}}`,
			want: mc.StatusResponse{
				Description: mc.Description{Text: "A Minecraft Server"},
				Players:     mc.PlayersJSON{Max: 20},
				Version:     mc.VersionJSON{Name: "1.8.8", Protocol: 47},
			},
		},
		{
			name: "chat description with trailing noise",
			body: `{"description":{"text":"Hi","bold":true,"extra":[{"text":" there","color":"red","bold":false},"!"]},` +
				`"players":{"max":1,"online":1,"sample":[{"name":"Steve","id":"069a79f4-44e9-4726-a5be-fca90e38aaf5"}]},` +
				`"version":{"name":"1.18","protocol":757}}` + "\x00\x00junk}",
			want: mc.StatusResponse{
				Description: mc.Description{Chat: &mc.Chat{
					Text: "Hi",
					Bold: &yes,
					Extra: []mc.Chat{
						{Text: " there", Color: "red", Bold: &no},
						{Text: "!"},
					},
				}},
				Players: mc.PlayersJSON{Max: 1, Online: 1, Sample: []mc.PlayerSampleJSON{
					{Name: "Steve", ID: "069a79f4-44e9-4726-a5be-fca90e38aaf5"},
				}},
				Version: mc.VersionJSON{Name: "1.18", Protocol: 757},
			},
		},
		{
			name: "braces inside strings",
			body: `noise{"description":"{not a brace}","players":{"max":0,"online":0},"version":{"name":"x","protocol":0}}`,
			want: mc.StatusResponse{
				Description: mc.Description{Text: "{not a brace}"},
				Version:     mc.VersionJSON{Name: "x"},
			},
		},
		{
			name:    "no object",
			body:    "hello",
			wantErr: core.ErrMalformedPacket,
		},
		{
			name:    "unbalanced",
			body:    `{"description":"x"`,
			wantErr: core.ErrMalformedPacket,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			pk := mc.ClientBoundResponse{JSONResponse: mc.String(tc.body)}.Marshal()
			response, err := mc.UnmarshalClientBoundResponse(pk)
			if err != nil {
				t.Fatal(err)
			}
			got, err := response.Status()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got error: %v; want: %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("status mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDescription_MarshalJSON(t *testing.T) {
	tt := []struct {
		description mc.Description
		want        string
	}{
		{description: mc.Description{Text: "motd"}, want: `"motd"`},
		{description: mc.Description{Chat: &mc.Chat{Text: "motd", Color: "gold"}}, want: `{"text":"motd","color":"gold"}`},
	}
	for _, tc := range tt {
		bb, err := json.Marshal(tc.description)
		if err != nil {
			t.Fatal(err)
		}
		if string(bb) != tc.want {
			t.Errorf("got: %s; want: %s", bb, tc.want)
		}
	}
}

func TestStatusResponse_MapText(t *testing.T) {
	status := mc.StatusResponse{
		Description: mc.Description{Text: "motd"},
		Players: mc.PlayersJSON{
			Sample:  []mc.PlayerSampleJSON{{Name: "steve", ID: "1"}},
			Message: "hello",
		},
	}
	upper := func(s string) string { return "<" + s + ">" }

	got := status.MapText(upper).(mc.StatusResponse)
	if got.Description.Text != "<motd>" || got.Players.Sample[0].Name != "<steve>" || got.Players.Message != "<hello>" {
		t.Errorf("text not mapped: %+v", got)
	}
	if status.Players.Sample[0].Name != "steve" {
		t.Error("MapText changed its input")
	}
}
