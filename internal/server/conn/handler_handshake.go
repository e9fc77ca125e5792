package conn

import (
	"github.com/OCharnyshevich/obsidian/internal/server/packet"
)

func handleHandshake(c *Connection, hs *packet.Handshake) error {
	c.log.Debug("handshake received",
		"protocol", hs.ProtocolVersion,
		"server", hs.ServerAddress,
		"port", hs.ServerPort,
		"nextState", hs.NextState,
	)

	switch hs.NextState {
	case packet.NextStateStatus:
		return c.setState(packet.Status)
	case packet.NextStateLogin:
		if hs.ProtocolVersion != packet.ProtocolVersion {
			c.log.Warn("unsupported protocol version", "version", hs.ProtocolVersion, "want", packet.ProtocolVersion)
		}
		return c.setState(packet.Login)
	default:
		c.log.Warn("invalid next state", "nextState", hs.NextState)
		c.disconnect("you seem suspicious")
		return nil
	}
}
