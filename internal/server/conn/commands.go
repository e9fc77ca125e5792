package conn

import (
	"errors"
	"strings"

	"github.com/OCharnyshevich/obsidian/internal/server/chat"
	"github.com/OCharnyshevich/obsidian/internal/server/command"
	"github.com/OCharnyshevich/obsidian/internal/server/packet"
)

// commandSender lets the command catalog talk back to this connection.
type commandSender struct {
	c *Connection
}

func (s commandSender) Name() string { return s.c.self.Username }

func (s commandSender) SendMessage(msg chat.Message) error {
	return s.c.writePacket(&packet.ChatMessage{
		JSONData: msg.JSON(),
		Position: packet.ChatPositionSystem,
	})
}

func (s commandSender) Teleport(x, y, z float64) error { return s.c.teleport(x, y, z) }

// runCommand executes line (without the leading slash) and reports
// failures to the player.
func (c *Connection) runCommand(line string) {
	c.log.Info("command", "line", line)

	err := c.svc.Commands.Execute(c.ctx, commandSender{c}, line)
	switch {
	case err == nil:
	case errors.Is(err, command.ErrUnknownCommand):
		name, _, _ := strings.Cut(line, " ")
		c.sendErrorMsg("Unknown command: /" + strings.ToLower(name) + ". Type /help for a list of commands.")
	case errors.Is(err, command.ErrBadArguments):
		c.sendErrorMsg(strings.TrimPrefix(err.Error(), command.ErrBadArguments.Error()+": "))
	default:
		c.log.Error("command failed", "line", line, "error", err)
		c.sendErrorMsg("An internal error occurred while running that command.")
	}
}

// teleport moves the player and tells the client, keeping its look.
func (c *Connection) teleport(x, y, z float64) error {
	loc := c.self.Location()
	c.self.SetPosition(x, y, z, loc.OnGround)
	return c.writePacket(&packet.PlayerPositionAndLook{
		X:          x,
		Y:          y,
		Z:          z,
		Flags:      packet.RelativeYaw | packet.RelativePitch,
		TeleportID: c.teleportID.Add(1),
	})
}

// sendSystemMsg sends a chat message (position=1, system) to this connection only.
func (c *Connection) sendSystemMsg(text, color string) {
	if err := (commandSender{c}).SendMessage(chat.Colored(text, color)); err != nil {
		c.log.Debug("system message not delivered", "error", err)
	}
}

func (c *Connection) sendErrorMsg(text string) {
	c.sendSystemMsg(text, chat.ColorRed)
}
