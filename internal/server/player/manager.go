package player

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/OCharnyshevich/obsidian/internal/server/chat"
	mcnet "github.com/OCharnyshevich/obsidian/internal/server/net"
	"github.com/OCharnyshevich/obsidian/internal/server/packet"
)

var ErrAlreadyOnline = errors.New("player already online")

// Manager is the online-player registry shared by all connections.
type Manager struct {
	mu           sync.RWMutex
	players      map[uuid.UUID]*Player
	nextEntityID atomic.Int32
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{
		players: make(map[uuid.UUID]*Player),
	}
}

// AllocateEntityID returns the next unique entity ID.
func (m *Manager) AllocateEntityID() int32 {
	return m.nextEntityID.Add(1)
}

// Add registers p. A second player with the same UUID is rejected.
func (m *Manager) Add(p *Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[p.UUID]; ok {
		return ErrAlreadyOnline
	}
	m.players[p.UUID] = p
	return nil
}

// Remove unregisters p. It reports false when p was not the registered
// player for its UUID, so a rejected duplicate cannot evict the original.
func (m *Manager) Remove(p *Player) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.players[p.UUID]; !ok || cur != p {
		return false
	}
	delete(m.players, p.UUID)
	return true
}

func (m *Manager) Get(id uuid.UUID) (*Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	return p, ok
}

// GetByName finds an online player by username, ignoring case.
func (m *Manager) GetByName(name string) (*Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.players {
		if strings.EqualFold(p.Username, name) {
			return p, true
		}
	}
	return nil, false
}

// Lookup resolves a command argument: a UUID first, then a username.
func (m *Manager) Lookup(arg string) (*Player, bool) {
	if id, err := uuid.Parse(arg); err == nil {
		if p, ok := m.Get(id); ok {
			return p, true
		}
	}
	return m.GetByName(arg)
}

// PlayerCount returns the number of online players.
func (m *Manager) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// Snapshot returns the online players sorted by username. The slice is
// safe to iterate while players join and leave.
func (m *Manager) Snapshot() []*Player {
	m.mu.RLock()
	out := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Player) int {
		return strings.Compare(a.Username, b.Username)
	})
	return out
}

// ForEach calls fn for every online player.
func (m *Manager) ForEach(fn func(p *Player)) {
	for _, p := range m.Snapshot() {
		fn(p)
	}
}

// Broadcast sends a packet to every online player and returns how many
// writes succeeded. A failed write means the player is leaving and is skipped.
func (m *Manager) Broadcast(pkt mcnet.Packet) int {
	return m.BroadcastExcept(pkt, nil)
}

// BroadcastExcept sends a packet to every online player except one.
func (m *Manager) BroadcastExcept(pkt mcnet.Packet, except *Player) int {
	sent := 0
	for _, p := range m.Snapshot() {
		if p == except {
			continue
		}
		if err := p.WritePacket(pkt); err == nil {
			sent++
		}
	}
	return sent
}

// SendChat fans a chat message out to all online players. Player chat is
// prefixed with the origin's name; system messages go out unchanged.
func (m *Manager) SendChat(msg chat.Message, origin *Player, position int8, system bool) int {
	if !system && origin != nil {
		msg = chat.Simple("<" + origin.Username + "> ").Append(msg)
	}
	return m.Broadcast(&packet.ChatMessage{
		JSONData: msg.JSON(),
		Position: position,
	})
}
