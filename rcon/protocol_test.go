package rcon_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/rcon"
)

// fakeTransport answers every packet sent to it through respond and records what was sent.
type fakeTransport struct {
	connected bool
	timeout   time.Duration
	sent      []rcon.Packet
	in        bytes.Buffer
	respond   func(pk rcon.Packet) []rcon.Packet
}

func (t *fakeTransport) Connect(ctx context.Context) error {
	t.connected = true
	return nil
}

func (t *fakeTransport) Send(ctx context.Context, b []byte) error {
	if !t.connected {
		return core.ErrNotConnected
	}
	pk, err := rcon.Unmarshal(b)
	if err != nil {
		return err
	}
	t.sent = append(t.sent, pk)
	if t.respond != nil {
		for _, resp := range t.respond(pk) {
			t.in.Write(resp.Marshal())
		}
	}
	return nil
}

// Recv blocks until ctx is done when nothing is queued, like a silent server.
func (t *fakeTransport) Recv(ctx context.Context, max int) ([]byte, error) {
	if !t.connected {
		return nil, core.ErrNotConnected
	}
	if t.in.Len() == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return t.in.Next(max), nil
}

func (t *fakeTransport) Close() error {
	t.connected = false
	return nil
}

func (t *fakeTransport) SetTimeout(timeout time.Duration) { t.timeout = timeout }
func (t *fakeTransport) Timeout() time.Duration           { return t.timeout }
func (t *fakeTransport) IsConnected() bool                { return t.connected }
func (t *fakeTransport) Addr() string                     { return "fake" }

// echoServer accepts password and answers commands with reply.
func echoServer(password string, reply func(cmd string) []string) func(pk rcon.Packet) []rcon.Packet {
	return func(pk rcon.Packet) []rcon.Packet {
		switch pk.Type {
		case rcon.TypeLogin:
			if pk.Payload != password {
				return []rcon.Packet{{ID: rcon.FailedID, Type: rcon.TypeCommand}}
			}
			return []rcon.Packet{{ID: pk.ID, Type: rcon.TypeCommand}}
		case rcon.TypeCommand:
			var out []rcon.Packet
			for _, payload := range reply(pk.Payload) {
				out = append(out, rcon.Packet{ID: pk.ID, Type: rcon.TypeResponse, Payload: payload})
			}
			return out
		}
		return []rcon.Packet{{ID: pk.ID, Type: rcon.TypeResponse, Payload: "Unknown request 0"}}
	}
}

func connectedProtocol(t *testing.T, transport *fakeTransport, opts ...rcon.ProtocolOption) *rcon.Protocol {
	t.Helper()
	p := rcon.NewProtocol(transport, opts...)
	if err := p.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPacket_Marshal(t *testing.T) {
	pk := rcon.Packet{ID: 1, Type: rcon.TypeCommand, Payload: "encode"}
	want := []byte("\x10\x00\x00\x00\x01\x00\x00\x00\x02\x00\x00\x00encode\x00\x00")

	got := pk.Marshal()
	if !bytes.Equal(got, want) {
		t.Errorf("got: %q; want: %q", got, want)
	}
	decoded, err := rcon.Unmarshal(got)
	if err != nil {
		t.Fatal(err)
	}
	if decoded != pk {
		t.Errorf("got: %v; want: %v", decoded, pk)
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	tt := []struct {
		name string
		data []byte
	}{
		{name: "too short", data: []byte("\x0a\x00\x00\x00\x01\x00")},
		{name: "length mismatch", data: []byte("\x0b\x00\x00\x00\x01\x00\x00\x00\x02\x00\x00\x00\x00\x00")},
		{name: "missing terminator", data: []byte("\x0b\x00\x00\x00\x01\x00\x00\x00\x02\x00\x00\x00ab\x00")},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := rcon.Unmarshal(tc.data); !errors.Is(err, core.ErrMalformedPacket) {
				t.Errorf("got: %v; want: %v", err, core.ErrMalformedPacket)
			}
		})
	}
}

func TestReadPacket_InvalidLengthCloses(t *testing.T) {
	transport := &fakeTransport{connected: true}
	transport.in.Write([]byte("\x02\x00\x00\x00\x00\x00"))

	_, err := rcon.ReadPacket(context.Background(), transport)
	if !errors.Is(err, core.ErrMalformedPacket) {
		t.Fatalf("got: %v; want: %v", err, core.ErrMalformedPacket)
	}
	if transport.IsConnected() {
		t.Error("transport should be closed after an invalid length field")
	}
}

func TestProtocol_Login(t *testing.T) {
	tt := []struct {
		name      string
		password  string
		wantOK    bool
		wantState rcon.State
	}{
		{name: "accepted", password: "secret", wantOK: true, wantState: rcon.Authenticated},
		{name: "refused", password: "wrong", wantOK: false, wantState: rcon.Connected},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			transport := &fakeTransport{respond: echoServer("secret", nil)}
			p := connectedProtocol(t, transport)

			ok, err := p.Login(context.Background(), tc.password)
			if err != nil {
				t.Fatal(err)
			}
			if ok != tc.wantOK {
				t.Errorf("got: %v; want: %v", ok, tc.wantOK)
			}
			if p.State() != tc.wantState {
				t.Errorf("got state: %v; want: %v", p.State(), tc.wantState)
			}
			if len(transport.sent) != 1 || transport.sent[0].Type != rcon.TypeLogin {
				t.Errorf("unexpected packets sent: %v", transport.sent)
			}
		})
	}
}

func TestProtocol_LoginTwiceDoesNoIO(t *testing.T) {
	transport := &fakeTransport{respond: echoServer("secret", nil)}
	p := connectedProtocol(t, transport)
	for i := 0; i < 2; i++ {
		if ok, err := p.Login(context.Background(), "secret"); !ok || err != nil {
			t.Fatalf("login %d: got: %v, %v", i, ok, err)
		}
	}
	if len(transport.sent) != 1 {
		t.Errorf("got: %d packets sent; want: 1", len(transport.sent))
	}
}

func TestProtocol_LoginNotConnected(t *testing.T) {
	p := rcon.NewProtocol(&fakeTransport{})
	if _, err := p.Login(context.Background(), "x"); !errors.Is(err, core.ErrNotConnected) {
		t.Errorf("got: %v; want: %v", err, core.ErrNotConnected)
	}
}

func TestProtocol_CommandRequiresAuth(t *testing.T) {
	transport := &fakeTransport{respond: echoServer("secret", nil)}
	p := connectedProtocol(t, transport)

	_, err := p.Command(context.Background(), "list", rcon.CommandOptions{})
	if !errors.Is(err, core.ErrAuthentication) {
		t.Fatalf("got: %v; want: %v", err, core.ErrAuthentication)
	}
	if len(transport.sent) != 0 {
		t.Errorf("got: %d packets sent; want: 0", len(transport.sent))
	}
}

func TestProtocol_CommandLength(t *testing.T) {
	transport := &fakeTransport{respond: echoServer("secret", func(cmd string) []string { return []string{"ok"} })}
	p := connectedProtocol(t, transport)
	if ok, err := p.Login(context.Background(), "secret"); !ok || err != nil {
		t.Fatalf("login failed: %v, %v", ok, err)
	}
	sent := len(transport.sent)

	long := strings.Repeat("a", rcon.MaxCommandLength+1)
	_, err := p.Command(context.Background(), long, rcon.CommandOptions{})
	if !errors.Is(err, core.ErrLength) {
		t.Fatalf("got: %v; want: %v", err, core.ErrLength)
	}
	var lengthErr *core.LengthError
	if !errors.As(err, &lengthErr) || lengthErr.Length != rcon.MaxCommandLength+1 || lengthErr.Max != rcon.MaxCommandLength {
		t.Errorf("unexpected length error: %v", err)
	}
	if len(transport.sent) != sent {
		t.Errorf("got: %d packets sent; want: %d", len(transport.sent), sent)
	}

	if _, err := p.Command(context.Background(), long[1:], rcon.CommandOptions{}); err != nil {
		t.Errorf("command at the limit failed: %v", err)
	}
	if _, err := p.Command(context.Background(), long, rcon.CommandOptions{SkipLengthCheck: true}); err != nil {
		t.Errorf("command with the length check off failed: %v", err)
	}
}

func TestProtocol_CommandFragments(t *testing.T) {
	full := strings.Repeat("a", rcon.MaxResponsePayload)
	tt := []struct {
		name      string
		fragments []string
	}{
		{
			name:      "full fragment and tail",
			fragments: []string{full, "bbb"},
		},
		{
			name:      "three full fragments",
			fragments: []string{full, strings.Repeat("b", rcon.MaxResponsePayload), strings.Repeat("c", rcon.MaxResponsePayload)},
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			transport := &fakeTransport{respond: echoServer("", func(cmd string) []string {
				return tc.fragments
			})}
			p := connectedProtocol(t, transport, rcon.WithRequestID(42))

			pk, err := p.Command(context.Background(), "help", rcon.CommandOptions{SkipAuthCheck: true})
			if err != nil {
				t.Fatal(err)
			}
			want := rcon.Packet{ID: 42, Type: rcon.TypeResponse, Payload: strings.Join(tc.fragments, "")}
			if diff := cmp.Diff(want, pk); diff != "" {
				t.Errorf("packet mismatch (-want +got):\n%s", diff)
			}
			wantSent := []rcon.Packet{
				{ID: 42, Type: rcon.TypeCommand, Payload: "help"},
				{ID: 43, Type: rcon.TypeResponse},
			}
			if diff := cmp.Diff(wantSent, transport.sent); diff != "" {
				t.Errorf("sent mismatch (-want +got):\n%s", diff)
			}
			if transport.in.Len() != 0 {
				t.Errorf("%d bytes left unread", transport.in.Len())
			}
		})
	}
}

// TestProtocol_FragmentEchoTimeout runs over a real stream against a server that sends
// one full fragment and never answers the follow-up packet.
func TestProtocol_FragmentEchoTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		for answered := false; ; answered = true {
			head := make([]byte, 4)
			if _, err := io.ReadFull(c, head); err != nil {
				return
			}
			body := make([]byte, binary.LittleEndian.Uint32(head))
			if _, err := io.ReadFull(c, body); err != nil {
				return
			}
			pk, err := rcon.Unmarshal(append(head, body...))
			if err != nil || answered {
				continue
			}
			fragment := rcon.Packet{ID: pk.ID, Type: rcon.TypeResponse, Payload: strings.Repeat("a", rcon.MaxResponsePayload)}
			c.Write(fragment.Marshal())
		}
	}()

	stream := conn.NewStream(ln.Addr().String(), conn.WithTimeout(100*time.Millisecond))
	p := rcon.NewProtocol(stream)
	if err := p.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err = p.Command(context.Background(), "help", rcon.CommandOptions{SkipAuthCheck: true})
	if !errors.Is(err, core.ErrTimeout) {
		t.Fatalf("got: %v; want: %v", err, core.ErrTimeout)
	}
	if p.State() != rcon.Disconnected {
		t.Errorf("got state: %v; want: %v", p.State(), rcon.Disconnected)
	}
}

func TestProtocol_CommandSkipFragCheck(t *testing.T) {
	first := strings.Repeat("a", rcon.MaxResponsePayload)
	transport := &fakeTransport{respond: echoServer("", func(cmd string) []string {
		return []string{first}
	})}
	p := connectedProtocol(t, transport)

	pk, err := p.Command(context.Background(), "help", rcon.CommandOptions{SkipAuthCheck: true, SkipFragCheck: true})
	if err != nil {
		t.Fatal(err)
	}
	if pk.Payload != first || len(transport.sent) != 1 {
		t.Errorf("got %d bytes after %d sends", len(pk.Payload), len(transport.sent))
	}
}

func TestProtocol_CommandUnexpectedFragment(t *testing.T) {
	transport := &fakeTransport{respond: func(pk rcon.Packet) []rcon.Packet {
		if pk.Type == rcon.TypeCommand {
			return []rcon.Packet{{ID: pk.ID, Payload: strings.Repeat("a", rcon.MaxResponsePayload)}}
		}
		return []rcon.Packet{{ID: 7}}
	}}
	p := connectedProtocol(t, transport, rcon.WithRequestID(42))

	_, err := p.Command(context.Background(), "help", rcon.CommandOptions{SkipAuthCheck: true})
	if !errors.Is(err, core.ErrMalformedPacket) {
		t.Fatalf("got: %v; want: %v", err, core.ErrMalformedPacket)
	}
	if p.State() != rcon.Disconnected {
		t.Errorf("got state: %v; want: %v", p.State(), rcon.Disconnected)
	}
}

func TestProtocol_CommandIDMismatch(t *testing.T) {
	tt := []struct {
		name     string
		respID   int32
		opts     rcon.CommandOptions
		wantErr  error
		wantResp rcon.Packet
	}{
		{
			name:     "failed id without auth check",
			respID:   rcon.FailedID,
			opts:     rcon.CommandOptions{SkipAuthCheck: true},
			wantResp: rcon.Packet{ID: rcon.FailedID, Payload: "denied"},
		},
		{
			name:    "other id",
			respID:  99,
			opts:    rcon.CommandOptions{SkipAuthCheck: true},
			wantErr: core.ErrMalformedPacket,
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			transport := &fakeTransport{respond: func(pk rcon.Packet) []rcon.Packet {
				return []rcon.Packet{{ID: tc.respID, Payload: "denied"}}
			}}
			p := connectedProtocol(t, transport, rcon.WithRequestID(5))

			pk, err := p.Command(context.Background(), "stop", tc.opts)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got: %v; want: %v", err, tc.wantErr)
			}
			if pk != tc.wantResp {
				t.Errorf("got: %v; want: %v", pk, tc.wantResp)
			}
			if !p.IsConnected() {
				t.Error("a mismatched id should not close the connection")
			}
		})
	}
}

func TestProtocol_CancelDisconnects(t *testing.T) {
	transport := &fakeTransport{}
	p := connectedProtocol(t, transport)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Command(ctx, "list", rcon.CommandOptions{SkipAuthCheck: true})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got: %v; want: %v", err, context.DeadlineExceeded)
	}
	if p.State() != rcon.Disconnected || transport.IsConnected() {
		t.Errorf("got state: %v; want: %v", p.State(), rcon.Disconnected)
	}

	if err := p.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.State() != rcon.Connected {
		t.Errorf("got state after restart: %v; want: %v", p.State(), rcon.Connected)
	}
}

func TestProtocol_StopFromAnyState(t *testing.T) {
	transport := &fakeTransport{respond: echoServer("secret", nil)}
	p := connectedProtocol(t, transport)
	if _, err := p.Login(context.Background(), "secret"); err != nil {
		t.Fatal(err)
	}
	p.Stop()
	if p.IsAuthenticated() || p.IsConnected() {
		t.Errorf("got state: %v; want: %v", p.State(), rcon.Disconnected)
	}
	p.Stop()
}
