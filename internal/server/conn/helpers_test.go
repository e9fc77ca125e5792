package conn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/OCharnyshevich/obsidian/internal/server/auth"
	"github.com/OCharnyshevich/obsidian/internal/server/chat"
	"github.com/OCharnyshevich/obsidian/internal/server/command"
	"github.com/OCharnyshevich/obsidian/internal/server/config"
	"github.com/OCharnyshevich/obsidian/internal/server/metrics"
	mcnet "github.com/OCharnyshevich/obsidian/internal/server/net"
	"github.com/OCharnyshevich/obsidian/internal/server/packet"
	"github.com/OCharnyshevich/obsidian/internal/server/player"
	"github.com/OCharnyshevich/obsidian/internal/server/status"
	"github.com/OCharnyshevich/obsidian/internal/server/storage"
)

var (
	aliceID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bobID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore keeps saved players in memory.
type memStore struct {
	mu    sync.Mutex
	saved map[uuid.UUID]*storage.PlayerData
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[uuid.UUID]*storage.PlayerData)}
}

func (s *memStore) LoadPlayer(_ context.Context, id uuid.UUID) (*storage.PlayerData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[id], nil
}

func (s *memStore) SavePlayer(_ context.Context, p *player.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[p.UUID] = storage.PlayerDataFromPlayer(p)
	return nil
}

func (s *memStore) get(id uuid.UUID) *storage.PlayerData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[id]
}

func newTestServices(t *testing.T) *Services {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.ChatRateLimit = 0
	cfg.KeepAliveMaxMissed = 2

	players := player.NewManager()
	catalog := command.NewCatalog(players)
	if err := command.RegisterBuiltins(catalog); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}

	return &Services{
		Config:  cfg,
		Router:  NewRouter(),
		Players: players,
		Resolver: auth.StaticResolver{
			"alice": {ID: aliceID, Name: "Alice"},
			"bob":   {ID: bobID, Name: "Bob"},
		},
		Commands: catalog,
		Status:   &status.ServerProvider{MOTD: "test server", MaxPlayers: 20, Players: players},
		Store:    newMemStore(),
		Metrics:  metrics.New(prometheus.NewRegistry()),
	}
}

// testClient drives one server Connection over net.Pipe.
type testClient struct {
	t     *testing.T
	conn  net.Conn
	codec mcnet.Codec
	state packet.State
	c     *Connection
	done  chan struct{}
}

func dial(t *testing.T, svc *Services, opts ...func(*Connection)) *testClient {
	t.Helper()

	server, client := net.Pipe()
	c := NewConnection(context.Background(), 1, server, svc, testLogger())
	for _, opt := range opts {
		opt(c)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Handle()
	}()

	tc := &testClient{t: t, conn: client, codec: mcnet.PlainCodec{}, c: c, done: done}
	t.Cleanup(func() {
		client.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("connection did not shut down")
		}
	})
	return tc
}

func (tc *testClient) send(p mcnet.Packet) {
	tc.t.Helper()
	id, data, err := mcnet.Encode(p)
	if err != nil {
		tc.t.Fatalf("encode %T: %v", p, err)
	}
	tc.sendRaw(id, data)
}

func (tc *testClient) sendRaw(id int32, data []byte) {
	tc.t.Helper()
	_ = tc.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := tc.codec.WritePacket(tc.conn, id, data); err != nil {
		tc.t.Fatalf("write packet 0x%02X: %v", id, err)
	}
}

// next reads and decodes one clientbound packet in the client's view of the state.
func (tc *testClient) next() mcnet.Packet {
	tc.t.Helper()
	_ = tc.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	id, data, err := tc.codec.ReadPacket(tc.conn)
	if err != nil {
		tc.t.Fatalf("read packet in %s: %v", tc.state, err)
	}
	p, err := packet.Decode(tc.state, packet.Clientbound, id, data)
	if err != nil {
		tc.t.Fatalf("decode packet: %v", err)
	}
	return p
}

func expect[T any](tc *testClient) *T {
	tc.t.Helper()
	p := tc.next()
	v, ok := any(p).(*T)
	if !ok {
		tc.t.Fatalf("got %T, want %T", p, new(T))
	}
	return v
}

// expectChat reads a ChatMessage and returns its plain text.
func (tc *testClient) expectChat() (string, int8) {
	tc.t.Helper()
	msg := expect[packet.ChatMessage](tc)
	m, err := chat.Parse(msg.JSONData)
	if err != nil {
		tc.t.Fatalf("parse chat %q: %v", msg.JSONData, err)
	}
	return m.PlainText(), msg.Position
}

func (tc *testClient) expectSilence(d time.Duration) {
	tc.t.Helper()
	_ = tc.conn.SetReadDeadline(time.Now().Add(d))
	var b [1]byte
	_, err := tc.conn.Read(b[:])
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		tc.t.Fatalf("expected no data, got err=%v", err)
	}
}

func (tc *testClient) expectClosed() {
	tc.t.Helper()
	_ = tc.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var b [1]byte
	if n, err := tc.conn.Read(b[:]); !errors.Is(err, io.EOF) {
		tc.t.Fatalf("expected EOF, got n=%d err=%v", n, err)
	}
	select {
	case <-tc.done:
	case <-time.After(2 * time.Second):
		tc.t.Fatal("Handle did not return")
	}
}

func (tc *testClient) handshake(nextState int32) {
	tc.t.Helper()
	tc.send(&packet.Handshake{
		ProtocolVersion: packet.ProtocolVersion,
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       nextState,
	})
}

// login runs the handshake and LoginStart and returns LoginSuccess.
// SetCompression, when sent, switches the client codec.
func (tc *testClient) login(name string) *packet.LoginSuccess {
	tc.t.Helper()
	tc.handshake(packet.NextStateLogin)
	tc.state = packet.Login
	tc.send(&packet.LoginStart{Name: name})

	p := tc.next()
	if sc, ok := p.(*packet.SetCompression); ok {
		tc.codec = mcnet.NewCodec(int(sc.Threshold))
		p = tc.next()
	}
	success, ok := p.(*packet.LoginSuccess)
	if !ok {
		tc.t.Fatalf("got %T, want *packet.LoginSuccess", p)
	}
	tc.state = packet.Play
	return success
}

// join logs in and drains the join sequence including the player's own
// join broadcast.
func (tc *testClient) join(name string) {
	tc.t.Helper()
	tc.login(name)
	expect[packet.JoinGame](tc)
	expect[packet.DeclareCommands](tc)
	expect[packet.SpawnPosition](tc)
	expect[packet.PlayerPositionAndLook](tc)
	if _, pos := tc.expectChat(); pos != packet.ChatPositionGameInfo {
		tc.t.Fatalf("welcome position = %d", pos)
	}
	if text, _ := tc.expectChat(); !strings.Contains(text, name+" has joined") {
		tc.t.Fatalf("join broadcast = %q", text)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// counterValue sums every sample of a metric family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				total += g.GetValue()
			}
		}
	}
	return total
}
