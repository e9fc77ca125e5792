package conn

import (
	"strings"

	"github.com/OCharnyshevich/obsidian/internal/server/chat"
	"github.com/OCharnyshevich/obsidian/internal/server/events"
	"github.com/OCharnyshevich/obsidian/internal/server/packet"
	"github.com/OCharnyshevich/obsidian/internal/server/player"
)

func handleTeleportConfirm(c *Connection, p *packet.TeleportConfirm) error {
	c.log.Debug("teleport confirmed", "teleportID", p.TeleportID)
	return nil
}

func handleChat(c *Connection, p *packet.ChatMessageServerbound) error {
	msg := strings.TrimSpace(p.Message)
	if msg == "" {
		return nil
	}

	if !c.chatLimiter.Allow() {
		c.log.Debug("chat rate limited")
		c.sendErrorMsg("You are sending messages too quickly.")
		return nil
	}

	if strings.HasPrefix(msg, "/") {
		c.runCommand(msg[1:])
		return nil
	}

	c.log.Info("chat", "message", msg)
	c.svc.Players.SendChat(chat.Simple(msg), c.self, packet.ChatPositionChat, false)
	c.emit(events.EventPlayerChat, events.ChatPayload{
		UUID:    c.self.UUID.String(),
		Name:    c.self.Username,
		Message: msg,
	})
	return nil
}

func handleClientStatus(c *Connection, p *packet.ClientStatus) error {
	switch p.ActionID {
	case packet.ClientStatusRespawn:
		c.log.Info("respawn requested")
		spawn := player.Spawn
		return c.teleport(spawn.X, spawn.Y, spawn.Z)
	case packet.ClientStatusRequestStats:
		c.log.Debug("statistics requested")
	default:
		c.log.Debug("unknown client status action", "action", p.ActionID)
	}
	return nil
}

func handleClientSettings(c *Connection, p *packet.ClientSettings) error {
	c.self.SetSettings(player.Settings{
		Locale:       p.Locale,
		ViewDistance: p.ViewDistance,
		ChatMode:     p.ChatMode,
		ChatColors:   p.ChatColors,
		SkinParts:    p.SkinParts,
		MainHand:     p.MainHand,
	})
	c.log.Debug("client settings", "locale", p.Locale, "viewDistance", p.ViewDistance)
	return nil
}

func handleKeepAlive(c *Connection, p *packet.KeepAliveServerbound) error {
	if !c.ackKeepAlive(p.KeepAliveID) {
		c.log.Debug("stale keep alive", "id", p.KeepAliveID)
	}
	return nil
}

func handlePlayerGround(c *Connection, p *packet.PlayerGround) error {
	c.self.SetOnGround(p.OnGround)
	return nil
}

func handlePlayerPosition(c *Connection, p *packet.PlayerPosition) error {
	c.self.SetPosition(p.X, p.FeetY, p.Z, p.OnGround)
	return nil
}

func handlePlayerPositionAndLook(c *Connection, p *packet.PlayerPositionAndLookServerbound) error {
	c.self.SetLocation(player.Location{
		X:        p.X,
		Y:        p.FeetY,
		Z:        p.Z,
		Yaw:      p.Yaw,
		Pitch:    p.Pitch,
		OnGround: p.OnGround,
	})
	return nil
}

func handlePlayerLook(c *Connection, p *packet.PlayerLook) error {
	c.self.SetLook(p.Yaw, p.Pitch, p.OnGround)
	return nil
}
