package player

import (
	"sync"

	"github.com/google/uuid"

	mcnet "github.com/OCharnyshevich/obsidian/internal/server/net"
)

// Location holds a player's world position and orientation.
type Location struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

// Spawn is where players without a saved location appear.
var Spawn = Location{X: 0.5, Y: 64, Z: 0.5}

// Settings are the client options sent in ClientSettings. The server does
// not interpret them beyond storing and persisting.
type Settings struct {
	Locale       string `msgpack:"locale"`
	ViewDistance int8   `msgpack:"view_distance"`
	ChatMode     int32  `msgpack:"chat_mode"`
	ChatColors   bool   `msgpack:"chat_colors"`
	SkinParts    uint8  `msgpack:"skin_parts"`
	MainHand     int32  `msgpack:"main_hand"`
}

// Player represents a logged-in player. Location and settings are written
// only by the owning connection; other goroutines read them through the
// accessors.
type Player struct {
	mu       sync.RWMutex
	EntityID int32
	UUID     uuid.UUID
	Username string

	loc      Location
	settings Settings

	WritePacket func(mcnet.Packet) error
}

// NewPlayer creates a new Player at the spawn location.
func NewPlayer(entityID int32, id uuid.UUID, username string, writePacket func(mcnet.Packet) error) *Player {
	return &Player{
		EntityID:    entityID,
		UUID:        id,
		Username:    username,
		loc:         Spawn,
		settings:    Settings{Locale: "en_US", ViewDistance: 8, ChatColors: true},
		WritePacket: writePacket,
	}
}

// Location returns a copy of the player's current location.
func (p *Player) Location() Location {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loc
}

// SetLocation replaces the whole location, used on teleport and restore.
func (p *Player) SetLocation(loc Location) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loc = loc
}

// SetPosition updates coordinates and the on-ground flag, keeping the look.
func (p *Player) SetPosition(x, y, z float64, onGround bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loc.X, p.loc.Y, p.loc.Z = x, y, z
	p.loc.OnGround = onGround
}

// SetLook updates only the player's look direction.
func (p *Player) SetLook(yaw, pitch float32, onGround bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loc.Yaw, p.loc.Pitch = yaw, pitch
	p.loc.OnGround = onGround
}

func (p *Player) SetOnGround(onGround bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loc.OnGround = onGround
}

func (p *Player) Settings() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

func (p *Player) SetSettings(s Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s
}
