package conn

import (
	"fmt"

	mcnet "github.com/OCharnyshevich/obsidian/internal/server/net"
	"github.com/OCharnyshevich/obsidian/internal/server/packet"
)

// HandlerFunc handles one decoded serverbound packet. The packet is always
// a pointer to the type registered for its ID.
type HandlerFunc func(c *Connection, p mcnet.Packet) error

// UnknownFunc decides what happens to a packet ID with no handler.
type UnknownFunc func(c *Connection, state packet.State, id int32) error

type stateTable struct {
	handlers map[int32]HandlerFunc
	unknown  UnknownFunc
}

// Router maps (state, packet ID) to a handler. It is built once and
// shared by all connections.
type Router struct {
	states map[packet.State]*stateTable
}

// NewRouter builds the dispatch table for every protocol state.
func NewRouter() *Router {
	r := &Router{states: make(map[packet.State]*stateTable)}

	hs := r.table(packet.Handshaking, closeSilently)
	on(hs, handleHandshake)

	st := r.table(packet.Status, closeSilently)
	on(st, handleStatusRequest)
	on(st, handleStatusPing)

	login := r.table(packet.Login, disconnectUnexpected)
	on(login, handleLoginStart)

	play := r.table(packet.Play, ignoreUnknown)
	on(play, handleTeleportConfirm)
	on(play, handleChat)
	on(play, handleClientStatus)
	on(play, handleClientSettings)
	on(play, handleKeepAlive)
	on(play, handlePlayerGround)
	on(play, handlePlayerPosition)
	on(play, handlePlayerPositionAndLook)
	on(play, handlePlayerLook)

	return r
}

func (r *Router) table(state packet.State, unknown UnknownFunc) *stateTable {
	t := &stateTable{handlers: make(map[int32]HandlerFunc), unknown: unknown}
	r.states[state] = t
	return t
}

// on registers a typed handler under the ID of its packet type.
func on[T any, P interface {
	*T
	mcnet.Packet
}](t *stateTable, h func(c *Connection, p P) error) {
	id := P(new(T)).PacketID()
	if _, dup := t.handlers[id]; dup {
		panic(fmt.Sprintf("handler for 0x%02X registered twice", id))
	}
	t.handlers[id] = func(c *Connection, p mcnet.Packet) error {
		return h(c, p.(P))
	}
}

// Handles reports whether a handler exists for id in state.
func (r *Router) Handles(state packet.State, id int32) bool {
	t, ok := r.states[state]
	if !ok {
		return false
	}
	_, ok = t.handlers[id]
	return ok
}

// Dispatch decodes data and runs the handler for (state, id), falling back
// to the state's unknown-packet policy.
func (r *Router) Dispatch(c *Connection, state packet.State, id int32, data []byte) error {
	t, ok := r.states[state]
	if !ok {
		return fmt.Errorf("no handlers for state %s", state)
	}

	h, ok := t.handlers[id]
	if !ok {
		return t.unknown(c, state, id)
	}

	p, err := packet.Decode(state, packet.Serverbound, id, data)
	if err != nil {
		if state == packet.Play {
			c.disconnect("Invalid packet")
		}
		return err
	}
	return h(c, p)
}

// closeSilently drops the connection without a reply. Clients that do not
// speak the modern handshake end up here.
func closeSilently(c *Connection, state packet.State, id int32) error {
	c.log.Debug("unexpected packet, closing", "state", state, "id", fmt.Sprintf("0x%02X", id))
	c.svc.Metrics.UnknownPacket(state.String())
	c.cancel()
	return nil
}

func disconnectUnexpected(c *Connection, state packet.State, id int32) error {
	c.log.Warn("unexpected packet", "state", state, "id", fmt.Sprintf("0x%02X", id))
	c.svc.Metrics.UnknownPacket(state.String())
	c.disconnect("Unexpected packet")
	return nil
}

func ignoreUnknown(c *Connection, state packet.State, id int32) error {
	c.log.Debug("ignoring unhandled packet", "state", state, "id", fmt.Sprintf("0x%02X", id))
	c.svc.Metrics.UnknownPacket(state.String())
	return nil
}
