package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/OCharnyshevich/obsidian/internal/server/player"
)

// PlayerData is the persisted state of a player.
type PlayerData struct {
	UUID     uuid.UUID
	Username string
	Location player.Location
	Settings player.Settings
	LastSeen time.Time
}

// PlayerDataFromPlayer extracts serializable data from a runtime Player.
func PlayerDataFromPlayer(p *player.Player) *PlayerData {
	return &PlayerData{
		UUID:     p.UUID,
		Username: p.Username,
		Location: p.Location(),
		Settings: p.Settings(),
	}
}

// Apply restores saved state onto a freshly created player.
func (pd *PlayerData) Apply(p *player.Player) {
	p.SetLocation(pd.Location)
	p.SetSettings(pd.Settings)
}
