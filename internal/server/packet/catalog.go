package packet

import (
	"errors"
	"fmt"
	"reflect"

	mcnet "github.com/OCharnyshevich/obsidian/internal/server/net"
)

var ErrUnknownPacket = errors.New("unknown packet")

// Info describes one catalog entry. An ID is only unique within its
// State and Direction.
type Info struct {
	Name      string
	State     State
	Direction Direction
	ID        int32

	new func() mcnet.Packet
}

func (i Info) String() string {
	return fmt.Sprintf("%s(%s/%s 0x%02X)", i.Name, i.State, i.Direction, i.ID)
}

// New returns a zero value of the packet type, ready for Unmarshal.
func (i Info) New() mcnet.Packet { return i.new() }

type key struct {
	state State
	dir   Direction
	id    int32
}

var (
	catalog []Info
	byKey   = make(map[key]Info)
	byType  = make(map[reflect.Type]Info)
)

func register[T any, P interface {
	*T
	mcnet.Packet
}](name string, state State, dir Direction) {
	info := Info{
		Name:      name,
		State:     state,
		Direction: dir,
		ID:        P(new(T)).PacketID(),
		new:       func() mcnet.Packet { return P(new(T)) },
	}
	k := key{state, dir, info.ID}
	if prev, ok := byKey[k]; ok {
		panic(fmt.Sprintf("packet %s collides with %s", info, prev))
	}
	catalog = append(catalog, info)
	byKey[k] = info
	byType[reflect.TypeFor[T]()] = info
}

func init() {
	register[Handshake]("Handshake", Handshaking, Serverbound)

	register[StatusRequest]("StatusRequest", Status, Serverbound)
	register[StatusPing]("StatusPing", Status, Serverbound)
	register[StatusResponse]("StatusResponse", Status, Clientbound)
	register[StatusPong]("StatusPong", Status, Clientbound)

	register[LoginStart]("LoginStart", Login, Serverbound)
	register[LoginDisconnect]("LoginDisconnect", Login, Clientbound)
	register[LoginSuccess]("LoginSuccess", Login, Clientbound)
	register[SetCompression]("SetCompression", Login, Clientbound)

	register[ChatMessage]("ChatMessage", Play, Clientbound)
	register[DeclareCommands]("DeclareCommands", Play, Clientbound)
	register[PlayDisconnect]("PlayDisconnect", Play, Clientbound)
	register[KeepAliveClientbound]("KeepAlive", Play, Clientbound)
	register[JoinGame]("JoinGame", Play, Clientbound)
	register[PlayerPositionAndLook]("PlayerPositionAndLook", Play, Clientbound)
	register[SpawnPosition]("SpawnPosition", Play, Clientbound)

	register[TeleportConfirm]("TeleportConfirm", Play, Serverbound)
	register[ChatMessageServerbound]("ChatMessage", Play, Serverbound)
	register[ClientStatus]("ClientStatus", Play, Serverbound)
	register[ClientSettings]("ClientSettings", Play, Serverbound)
	register[KeepAliveServerbound]("KeepAlive", Play, Serverbound)
	register[PlayerGround]("PlayerGround", Play, Serverbound)
	register[PlayerPosition]("PlayerPosition", Play, Serverbound)
	register[PlayerPositionAndLookServerbound]("PlayerPositionAndLook", Play, Serverbound)
	register[PlayerLook]("PlayerLook", Play, Serverbound)
}

// All returns every catalog entry in registration order.
func All() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds the packet registered for id in the given state and direction.
func Lookup(state State, dir Direction, id int32) (Info, bool) {
	info, ok := byKey[key{state, dir, id}]
	return info, ok
}

// Describe returns the catalog entry for a packet value or pointer.
func Describe(p mcnet.Packet) (Info, bool) {
	t := reflect.TypeOf(p)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	info, ok := byType[t]
	return info, ok
}

// Decode parses data into the typed packet for (state, dir, id). The result
// is always a pointer, e.g. *Handshake.
func Decode(state State, dir Direction, id int32, data []byte) (mcnet.Packet, error) {
	info, ok := Lookup(state, dir, id)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s 0x%02X", ErrUnknownPacket, state, dir, id)
	}
	p := info.New()
	if err := mcnet.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", info.Name, err)
	}
	return p, nil
}

// Encode marshals p into its id and payload.
func Encode(p mcnet.Packet) (int32, []byte, error) {
	return mcnet.Encode(p)
}
