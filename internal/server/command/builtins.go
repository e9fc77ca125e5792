package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/OCharnyshevich/obsidian/internal/server/chat"
	"github.com/OCharnyshevich/obsidian/internal/server/packet"
	"github.com/OCharnyshevich/obsidian/internal/server/player"
)

// RegisterBuiltins adds help, list, say, me and tp.
func RegisterBuiltins(c *Catalog) error {
	for _, cmd := range []*Command{
		{Name: "help", Description: "Show available commands", Run: cmdHelp},
		{Name: "list", Description: "Show online players", Run: cmdList},
		{Name: "say", Description: "Broadcast an announcement", Params: []Param{{"message", String}}, Run: cmdSay},
		{Name: "me", Description: "Send an action message", Params: []Param{{"action", String}}, Run: cmdMe},
		{Name: "tp", Description: "Teleport to block coordinates", Params: []Param{{"x", Integer}, {"y", Integer}, {"z", Integer}}, Run: cmdTp},
	} {
		if err := c.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdHelp(_ context.Context, inv *Invocation) error {
	if err := inv.Reply(chat.Colored("--- Available Commands ---", chat.ColorYellow)); err != nil {
		return err
	}
	for _, cmd := range inv.Catalog.Commands() {
		line := fmt.Sprintf("%s - %s", cmd.Usage(), cmd.Description)
		if err := inv.Reply(chat.Colored(line, chat.ColorYellow)); err != nil {
			return err
		}
	}
	return nil
}

func cmdList(_ context.Context, inv *Invocation) error {
	var names []string
	inv.Players.ForEach(func(p *player.Player) {
		names = append(names, p.Username)
	})
	msg := fmt.Sprintf("Online (%d): %s", len(names), strings.Join(names, ", "))
	return inv.Reply(chat.Colored(msg, chat.ColorGold))
}

func cmdSay(_ context.Context, inv *Invocation) error {
	msg := chat.Colored("["+inv.Sender.Name()+"] "+inv.String(0), chat.ColorGold)
	inv.Players.SendChat(msg, nil, packet.ChatPositionSystem, true)
	return nil
}

func cmdMe(_ context.Context, inv *Invocation) error {
	msg := chat.Simple("* " + inv.Sender.Name() + " " + inv.String(0))
	inv.Players.SendChat(msg, nil, packet.ChatPositionChat, true)
	return nil
}

func cmdTp(_ context.Context, inv *Invocation) error {
	x, y, z := float64(inv.Int(0))+0.5, float64(inv.Int(1)), float64(inv.Int(2))+0.5
	if err := inv.Sender.Teleport(x, y, z); err != nil {
		return err
	}
	return inv.Reply(chat.Colored(fmt.Sprintf("Teleported to %.1f, %.1f, %.1f", x, y, z), chat.ColorGold))
}
