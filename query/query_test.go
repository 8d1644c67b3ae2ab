package query_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/formatter"
	"github.com/OwenCochell/mctools/query"
)

const (
	basicBody = "A Minecraft Server\x00SMP\x00world\x000\x0020\x00\xddc127.0.0.1\x00"
	fullBody  = "splitnum\x00\x80\x00hostname\x00A Minecraft Server\x00gametype\x00SMP\x00game_id\x00MINECRAFT\x00" +
		"version\x001.8.8\x00plugins\x00CraftBukkit on Bukkit 1.8.8-R0.1-SNAPSHOT\x00map\x00world\x00" +
		"numplayers\x000\x00maxplayers\x0020\x00hostport\x0025565\x00hostip\x00127.0.0.1\x00\x00\x01player_\x00\x00\x00"
)

func TestRequest_Marshal(t *testing.T) {
	tt := []struct {
		name    string
		request query.Request
		want    []byte
	}{
		{
			name:    "handshake",
			request: query.Request{Type: query.TypeHandshake, SessionID: 1},
			want:    []byte("\xfe\xfd\t\x00\x00\x00\x01"),
		},
		{
			name:    "basic stat",
			request: query.Request{Type: query.TypeStat, SessionID: 5, Token: 55},
			want:    []byte("\xfe\xfd\x00\x00\x00\x00\x05\x00\x00\x007"),
		},
		{
			name:    "full stat",
			request: query.Request{Type: query.TypeStat, SessionID: 7, Token: 77, Full: true},
			want:    []byte("\xfe\xfd\x00\x00\x00\x00\x07\x00\x00\x00M\x00\x00\x00\x00"),
		},
		{
			name:    "session masked",
			request: query.Request{Type: query.TypeHandshake, SessionID: -1},
			want:    []byte("\xfe\xfd\t\x0f\x0f\x0f\x0f"),
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.request.Marshal(); !bytes.Equal(got, tc.want) {
				t.Errorf("got: %q; want: %q", got, tc.want)
			}
		})
	}
}

func TestUnmarshalResponse_Handshake(t *testing.T) {
	resp, err := query.UnmarshalResponse([]byte("\x09\x00\x00\x00\x031234"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Type != query.TypeHandshake || resp.SessionID != 3 {
		t.Errorf("got: %v; want type 9 and session 3", resp)
	}
	token, err := resp.Token()
	if err != nil {
		t.Fatal(err)
	}
	if token != 1234 {
		t.Errorf("got: %v; want: %v", token, 1234)
	}

	if _, err := query.UnmarshalResponse([]byte("\x09\x00")); !errors.Is(err, core.ErrMalformedPacket) {
		t.Errorf("got: %v; want: %v", err, core.ErrMalformedPacket)
	}
	bad := query.Response{Type: query.TypeHandshake, Body: []byte("abc\x00")}
	if _, err := bad.Token(); !errors.Is(err, core.ErrMalformedPacket) {
		t.Errorf("got: %v; want: %v", err, core.ErrMalformedPacket)
	}
}

func TestParseBasicStats(t *testing.T) {
	resp, err := query.UnmarshalResponse([]byte("\x00\x05\x0e\x08\x07" + basicBody))
	if err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != 84805639 {
		t.Errorf("got session: %v; want: %v", resp.SessionID, 84805639)
	}
	got, err := query.ParseBasicStats(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	want := query.BasicStats{
		MOTD:       "A Minecraft Server",
		GameType:   "SMP",
		Map:        "world",
		NumPlayers: "0",
		MaxPlayers: "20",
		HostPort:   25565,
		HostIP:     "127.0.0.1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	if _, err := query.ParseBasicStats([]byte("motd\x00SMP\x00")); !errors.Is(err, core.ErrMalformedPacket) {
		t.Errorf("truncated body: got: %v; want: %v", err, core.ErrMalformedPacket)
	}
}

func TestParseFullStats(t *testing.T) {
	got, err := query.ParseFullStats([]byte(fullBody))
	if err != nil {
		t.Fatal(err)
	}
	want := query.FullStats{
		Values: map[string]string{
			"motd":       "A Minecraft Server",
			"gametype":   "SMP",
			"game_id":    "MINECRAFT",
			"version":    "1.8.8",
			"plugins":    "CraftBukkit on Bukkit 1.8.8-R0.1-SNAPSHOT",
			"map":        "world",
			"numplayers": "0",
			"maxplayers": "20",
			"hostport":   "25565",
			"hostip":     "127.0.0.1",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	withPlayers := []byte(fullBody[:len(fullBody)-1] + "Steve\x00Alex\x00\x00")
	got, err = query.ParseFullStats(withPlayers)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Steve", "Alex"}, got.Players); diff != "" {
		t.Errorf("players mismatch (-want +got):\n%s", diff)
	}

	latin1 := []byte(fullBody[:len(fullBody)-1] + "Jos\xe9\x00\x00")
	got, err = query.ParseFullStats(latin1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"José"}, got.Players); diff != "" {
		t.Errorf("latin-1 players mismatch (-want +got):\n%s", diff)
	}

	noMarker := []byte("splitnum\x00\x80\x00hostname\x00x\x00\x00\x02nope_\x00\x00\x00")
	if _, err := query.ParseFullStats(noMarker); !errors.Is(err, core.ErrMalformedPacket) {
		t.Errorf("missing marker: got: %v; want: %v", err, core.ErrMalformedPacket)
	}
}

// serverSimulator answers query requests on a local UDP port.
type serverSimulator struct {
	token      string
	basic      string
	full       string
	session    int32
	handshakes int32
}

func (sim *serverSimulator) listen(t *testing.T) (string, int) {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pc.Close() })
	go func() {
		buf := make([]byte, 1500)
		for {
			n, addr, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			if resp := sim.answer(buf[:n]); resp != nil {
				pc.WriteTo(resp, addr)
			}
		}
	}()
	addr := pc.LocalAddr().(*net.UDPAddr)
	return addr.IP.String(), addr.Port
}

func (sim *serverSimulator) answer(req []byte) []byte {
	if len(req) < 7 || !bytes.Equal(req[:2], []byte{0xFE, 0xFD}) {
		return nil
	}
	session := int32(binary.BigEndian.Uint32(req[3:7]))
	if sim.session != 0 {
		session = sim.session
	}
	resp := query.Response{Type: req[2], SessionID: session}
	switch {
	case req[2] == query.TypeHandshake:
		atomic.AddInt32(&sim.handshakes, 1)
		resp.Body = []byte(sim.token + "\x00")
	case string(req[7:11]) != string(tokenBytes(sim.token)):
		return nil
	case len(req) == 15:
		resp.Body = []byte(sim.full)
	default:
		resp.Body = []byte(sim.basic)
	}
	return resp.Marshal()
}

func tokenBytes(token string) []byte {
	var n int32
	for _, c := range token {
		n = n*10 + int32(c-'0')
	}
	bb := make([]byte, 4)
	binary.BigEndian.PutUint32(bb, uint32(n))
	return bb
}

func newTestClient(t *testing.T, sim *serverSimulator, opts ...query.Option) *query.Client {
	t.Helper()
	host, port := sim.listen(t)
	opts = append(opts, query.WithTransportOptions(conn.WithTimeout(time.Second)))
	client := query.NewClient(host, port, opts...)
	t.Cleanup(func() { client.Stop() })
	return client
}

func TestClient_BasicStats(t *testing.T) {
	sim := &serverSimulator{
		token: "9513307",
		basic: "Now we got business!\x00SMP\x00world\x001\x0020\x00\xddc127.0.0.1\x00",
	}
	client := newTestClient(t, sim)
	ctx := context.Background()

	stats, err := client.BasicStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := "Now we got business!\033[0m"; stats.MOTD != want {
		t.Errorf("got motd: %q; want: %q", stats.MOTD, want)
	}

	stats, err = client.BasicStats(ctx, query.WithFormat(formatter.Raw))
	if err != nil {
		t.Fatal(err)
	}
	if stats.MOTD != "Now we got business!" || stats.NumPlayers != "1" || stats.MaxPlayers != "20" {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if online, max := stats.PlayerCounts(); online != 1 || max != 20 {
		t.Errorf("got: %d/%d; want: 1/20", online, max)
	}
	if n := atomic.LoadInt32(&sim.handshakes); n != 1 {
		t.Errorf("got: %d handshakes; want: 1", n)
	}
}

func TestClient_FullStatsFormatting(t *testing.T) {
	sim := &serverSimulator{
		token: "42",
		full: "splitnum\x00\x80\x00hostname\x00\xa7aGreen\x00numplayers\x001\x00maxplayers\x005\x00\x00" +
			"\x01player_\x00\x00\xa7bSteve\x00\x00",
	}
	client := newTestClient(t, sim)

	stats, err := client.FullStats(context.Background(), query.WithFormat(formatter.Remove))
	if err != nil {
		t.Fatal(err)
	}
	if stats.MOTD() != "Green" {
		t.Errorf("got motd: %q; want: %q", stats.MOTD(), "Green")
	}
	if diff := cmp.Diff([]string{"Steve"}, stats.Players); diff != "" {
		t.Errorf("players mismatch (-want +got):\n%s", diff)
	}
	if online, max := stats.PlayerCounts(); online != 1 || max != 5 {
		t.Errorf("got: %d/%d; want: 1/5", online, max)
	}
}

func TestClient_SessionMismatch(t *testing.T) {
	sim := &serverSimulator{token: "1", session: 0x01010101}
	client := newTestClient(t, sim, query.WithProtocolOptions(query.WithSessionID(2)))

	_, err := client.BasicStats(context.Background(), query.WithFormat(formatter.Raw))
	if !errors.Is(err, core.ErrMalformedPacket) {
		t.Fatalf("got: %v; want: %v", err, core.ErrMalformedPacket)
	}
}

func TestClient_Timeout(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()
	addr := pc.LocalAddr().(*net.UDPAddr)

	client := query.NewClient(addr.IP.String(), addr.Port)
	client.SetTimeout(20 * time.Millisecond)
	_, err = client.Handshake(context.Background())
	if !errors.Is(err, core.ErrTimeout) {
		t.Fatalf("got: %v; want: %v", err, core.ErrTimeout)
	}
	if client.IsConnected() {
		t.Error("a timed out client should be disconnected")
	}
}
