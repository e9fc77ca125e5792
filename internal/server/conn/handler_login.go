package conn

import (
	"errors"
	"fmt"

	"github.com/OCharnyshevich/obsidian/internal/server/auth"
	"github.com/OCharnyshevich/obsidian/internal/server/chat"
	"github.com/OCharnyshevich/obsidian/internal/server/command"
	"github.com/OCharnyshevich/obsidian/internal/server/events"
	mcnet "github.com/OCharnyshevich/obsidian/internal/server/net"
	"github.com/OCharnyshevich/obsidian/internal/server/packet"
	"github.com/OCharnyshevich/obsidian/internal/server/player"
)

func handleLoginStart(c *Connection, login *packet.LoginStart) error {
	if !validUsername(login.Name) {
		c.svc.Metrics.LoginFailed()
		c.log.Warn("invalid username", "username", login.Name)
		c.disconnect("Invalid username")
		return nil
	}
	c.log.Info("login start", "username", login.Name)

	profile, err := auth.ResolveOne(c.ctx, c.svc.Resolver, login.Name)
	if err != nil {
		c.svc.Metrics.LoginFailed()
		if errors.Is(err, auth.ErrProfileNotFound) {
			c.log.Warn("unknown player", "username", login.Name)
			c.disconnect("Unknown player " + login.Name)
			return nil
		}
		c.log.Error("identity lookup failed", "username", login.Name, "error", err)
		c.disconnect("Failed to verify username")
		return nil
	}

	if _, online := c.svc.Players.Get(profile.ID); online {
		c.svc.Metrics.LoginFailed()
		c.log.Warn("player already online", "username", profile.Name, "uuid", profile.ID)
		c.disconnect("You are already logged in")
		return nil
	}

	self := player.NewPlayer(c.svc.Players.AllocateEntityID(), profile.ID, profile.Name, c.writePacket)
	c.restorePlayer(self)

	if threshold := c.svc.Config.CompressionThreshold; threshold >= 0 {
		if err := c.writePacket(&packet.SetCompression{Threshold: int32(threshold)}); err != nil {
			return fmt.Errorf("write set compression: %w", err)
		}
		c.enableCompression(threshold)
	}

	if err := c.writePacket(&packet.LoginSuccess{
		UUID:     profile.ID.String(),
		Username: profile.Name,
	}); err != nil {
		return fmt.Errorf("write login success: %w", err)
	}

	c.self = self
	if err := c.setState(packet.Play); err != nil {
		return err
	}
	c.log = c.log.With("player", profile.Name)
	c.log.Info("login success", "uuid", profile.ID, "entityID", self.EntityID)

	return c.startPlay()
}

// validUsername reports whether name is 1 to 16 characters of [A-Za-z0-9_].
func validUsername(name string) bool {
	if len(name) == 0 || len(name) > 16 {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '_':
		default:
			return false
		}
	}
	return true
}

// restorePlayer applies the saved location and settings, if any.
func (c *Connection) restorePlayer(p *player.Player) {
	if c.svc.Store == nil {
		return
	}
	data, err := c.svc.Store.LoadPlayer(c.ctx, p.UUID)
	if err != nil {
		c.log.Error("load player", "username", p.Username, "error", err)
		return
	}
	if data == nil {
		return
	}
	data.Apply(p)
	c.log.Debug("player restored", "username", p.Username, "lastSeen", data.LastSeen)
}

func (c *Connection) startPlay() error {
	cfg := c.svc.Config
	self := c.self

	// 1. Join Game
	if err := c.writePacket(&packet.JoinGame{
		EntityID:         self.EntityID,
		GameMode:         packet.GameModeSurvival,
		Dimension:        packet.DimensionOverworld,
		Difficulty:       packet.DifficultyPeaceful,
		MaxPlayers:       uint8(min(cfg.MaxPlayers, 255)),
		LevelType:        cfg.LevelType,
		ReducedDebugInfo: false,
	}); err != nil {
		return fmt.Errorf("write join game: %w", err)
	}

	// 2. Declare Commands. A catalog the client cannot represent only
	// costs autocomplete.
	if tree, err := command.BuildTree(c.svc.Commands); err != nil {
		c.log.Error("build command tree", "error", err)
	} else if err := c.writePacket(tree); err != nil {
		return fmt.Errorf("write declare commands: %w", err)
	}

	// 3. Spawn Position
	spawn := player.Spawn
	if err := c.writePacket(&packet.SpawnPosition{
		Location: mcnet.EncodePosition(int(spawn.X), int(spawn.Y), int(spawn.Z)),
	}); err != nil {
		return fmt.Errorf("write spawn position: %w", err)
	}

	// 4. Player Position And Look
	loc := self.Location()
	if err := c.writePacket(&packet.PlayerPositionAndLook{
		X:          loc.X,
		Y:          loc.Y,
		Z:          loc.Z,
		Yaw:        loc.Yaw,
		Pitch:      loc.Pitch,
		Flags:      0x00, // all absolute
		TeleportID: c.teleportID.Add(1),
	}); err != nil {
		return fmt.Errorf("write position and look: %w", err)
	}

	// 5. Welcome message above the hotbar
	if err := c.writePacket(&packet.ChatMessage{
		JSONData: chat.Colored(cfg.WelcomeMessage, chat.ColorGold).JSON(),
		Position: packet.ChatPositionGameInfo,
	}); err != nil {
		return fmt.Errorf("write welcome message: %w", err)
	}

	// 6. Registry and join broadcast
	if err := c.svc.Players.Add(self); err != nil {
		c.svc.Metrics.LoginFailed()
		c.log.Warn("register player", "error", err)
		c.disconnect("You are already logged in")
		return nil
	}
	c.registered = true
	c.svc.Metrics.SetPlayersOnline(c.svc.Players.PlayerCount())

	c.svc.Players.SendChat(chat.Colored(self.Username+" has joined the server.", chat.ColorYellow), self, packet.ChatPositionSystem, true)
	c.emit(events.EventPlayerJoin, events.PlayerPayload{UUID: self.UUID.String(), Name: self.Username})

	// 7. Keep-alive
	c.workers.Go(c.keepAliveLoop)

	c.log.Info("join sequence complete")
	return nil
}
