package packet

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	mcnet "github.com/OCharnyshevich/obsidian/internal/server/net"
)

func samplePackets() []mcnet.Packet {
	return []mcnet.Packet{
		&Handshake{ProtocolVersion: 404, ServerAddress: "localhost", ServerPort: 25565, NextState: NextStateLogin},
		&Handshake{ProtocolVersion: math.MaxInt32, ServerAddress: "", ServerPort: math.MaxUint16, NextState: -1},

		&StatusRequest{},
		&StatusPing{Payload: 12345},
		&StatusPing{Payload: math.MinInt64},
		&StatusResponse{JSONResponse: `{"version":{"name":"1.13.2","protocol":404}}`},
		&StatusPong{Payload: math.MaxInt64},

		&LoginStart{Name: "Alice"},
		&LoginStart{Name: ""},
		&LoginDisconnect{Reason: `{"text":"you seem suspicious"}`},
		&LoginSuccess{UUID: "11111111-1111-1111-1111-111111111111", Username: "Alice"},
		&SetCompression{Threshold: 256},
		&SetCompression{Threshold: -1},

		&ChatMessage{JSONData: `{"text":"hello §aworld"}`, Position: ChatPositionGameInfo},
		&PlayDisconnect{Reason: `{"text":"Timed out"}`},
		&KeepAliveClientbound{KeepAliveID: 7},
		&JoinGame{EntityID: 1, GameMode: GameModeCreative, Dimension: DimensionNether, Difficulty: DifficultyHard, MaxPlayers: 255, LevelType: "default", ReducedDebugInfo: true},
		&PlayerPositionAndLook{X: 0.5, Y: 64, Z: -0.5, Yaw: 90, Pitch: -45, Flags: RelativeX | RelativePitch, TeleportID: math.MaxInt32},
		&PlayerPositionAndLook{},
		&SpawnPosition{Location: mcnet.EncodePosition(-33554432, 2047, 33554431)},
		&DeclareCommands{
			Nodes: []CommandNode{
				{Type: NodeRoot, Children: []int32{1, 3}},
				{Type: NodeLiteral, Name: "tp", Children: []int32{2}},
				{Type: NodeArgument, Name: "x", Parser: ParserInteger, IntFlags: IntegerHasMin | IntegerHasMax, IntMin: -100, IntMax: 100, Executable: true},
				{Type: NodeLiteral, Name: "say", Children: []int32{4}},
				{Type: NodeArgument, Name: "message", Parser: ParserString, StringMode: StringGreedyPhrase, Executable: true, Suggestions: "minecraft:ask_server"},
				{Type: NodeLiteral, Name: "st", HasRedirect: true, Redirect: 3},
				{Type: NodeArgument, Name: "flag", Parser: ParserBool, Executable: true},
			},
			RootIndex: 0,
		},

		&TeleportConfirm{TeleportID: 0},
		&ChatMessageServerbound{Message: "/say hi"},
		&ClientStatus{ActionID: ClientStatusRespawn},
		&ClientSettings{Locale: "en_US", ViewDistance: -128, ChatMode: 2, ChatColors: true, SkinParts: 0x7F, MainHand: 1},
		&KeepAliveServerbound{KeepAliveID: -1},
		&PlayerGround{OnGround: true},
		&PlayerPosition{X: 1, FeetY: 2, Z: 3, OnGround: true},
		&PlayerPosition{},
		&PlayerPositionAndLookServerbound{X: -1e9, FeetY: 1e-9, Z: math.MaxFloat64, Yaw: -180, Pitch: 90, OnGround: false},
		&PlayerLook{Yaw: math.SmallestNonzeroFloat32, Pitch: -0.25, OnGround: true},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, p := range samplePackets() {
		info, ok := Describe(p)
		if !ok {
			t.Fatalf("%T is not in the catalog", p)
		}
		t.Run(info.Name+"/"+info.Direction.String(), func(t *testing.T) {
			id, data, err := Encode(p)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if id != info.ID {
				t.Fatalf("id = 0x%02X, catalog says 0x%02X", id, info.ID)
			}

			got, err := Decode(info.State, info.Direction, id, data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, p) {
				t.Errorf("round trip mismatch:\n got %#v\nwant %#v", got, p)
			}
		})
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	for _, p := range samplePackets() {
		info, _ := Describe(p)
		id, data, err := Encode(p)
		if err != nil {
			t.Fatalf("Encode %s: %v", info.Name, err)
		}
		for n := 0; n < len(data); n++ {
			if _, err := Decode(info.State, info.Direction, id, data[:n]); err == nil {
				t.Errorf("%s: decoding %d of %d bytes succeeded", info, n, len(data))
			}
		}
	}
}

func TestDecodeUnknownPacket(t *testing.T) {
	_, err := Decode(Play, Serverbound, 0x7F, nil)
	if !errors.Is(err, ErrUnknownPacket) {
		t.Fatalf("expected ErrUnknownPacket, got %v", err)
	}

	// Same id, different state.
	if _, ok := Lookup(Handshaking, Serverbound, 0x01); ok {
		t.Error("0x01 must not resolve in Handshaking")
	}
	info, ok := Lookup(Status, Serverbound, 0x01)
	if !ok || info.Name != "StatusPing" {
		t.Errorf("Lookup(Status, 0x01) = %v, %v", info, ok)
	}
}

func TestSameIDDiffersByDirection(t *testing.T) {
	sb, ok := Lookup(Play, Serverbound, 0x0E)
	if !ok || sb.Name != "KeepAlive" {
		t.Fatalf("serverbound 0x0E = %v", sb)
	}
	cb, ok := Lookup(Play, Clientbound, 0x0E)
	if !ok || cb.Name != "ChatMessage" {
		t.Fatalf("clientbound 0x0E = %v", cb)
	}
}

func TestCatalogIsConsistent(t *testing.T) {
	seen := make(map[string]bool)
	for _, info := range All() {
		p := info.New()
		if p.PacketID() != info.ID {
			t.Errorf("%s: New().PacketID() = 0x%02X", info, p.PacketID())
		}
		if reflect.TypeOf(p).Kind() != reflect.Pointer {
			t.Errorf("%s: New() must return a pointer", info)
		}
		k := info.String()
		if seen[k] {
			t.Errorf("duplicate entry %s", k)
		}
		seen[k] = true
	}
	if len(seen) != len(samplePacketTypes()) {
		t.Errorf("catalog has %d entries, samples cover %d types", len(seen), len(samplePacketTypes()))
	}
}

func samplePacketTypes() map[reflect.Type]bool {
	types := make(map[reflect.Type]bool)
	for _, p := range samplePackets() {
		types[reflect.TypeOf(p)] = true
	}
	return types
}

func TestDeclareCommandsUnknownParser(t *testing.T) {
	p := &DeclareCommands{Nodes: []CommandNode{
		{Type: NodeRoot, Children: []int32{1}},
		{Type: NodeArgument, Name: "speed", Parser: "brigadier:double"},
	}}
	if _, _, err := Encode(p); !errors.Is(err, ErrUnknownParser) {
		t.Fatalf("expected ErrUnknownParser, got %v", err)
	}
}

func TestDeclareCommandsFlags(t *testing.T) {
	p := &DeclareCommands{Nodes: []CommandNode{
		{Type: NodeRoot, Children: []int32{1}},
		{Type: NodeLiteral, Name: "help", Executable: true},
	}}
	_, data, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// count, root flags, root children(1), child idx, literal flags...
	want := []byte{0x02, 0x00, 0x01, 0x01, 0x01 | 0x04, 0x00, 0x04}
	if !strings.HasPrefix(string(data), string(want)) {
		t.Errorf("payload = % x, want prefix % x", data, want)
	}
	if data[len(data)-1] != 0x00 {
		t.Errorf("root index byte = %d, want 0", data[len(data)-1])
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{Handshaking: "handshaking", Status: "status", Login: "login", Play: "play", State(9): "state(9)"}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
