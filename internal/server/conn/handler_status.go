package conn

import (
	"fmt"

	"github.com/OCharnyshevich/obsidian/internal/server/packet"
)

func handleStatusRequest(c *Connection, _ *packet.StatusRequest) error {
	doc, err := c.svc.Status.Status().JSON()
	if err != nil {
		return err
	}
	if err := c.writePacket(&packet.StatusResponse{JSONResponse: doc}); err != nil {
		return fmt.Errorf("write status response: %w", err)
	}
	return nil
}

// handleStatusPing echoes the payload and ends the status exchange.
func handleStatusPing(c *Connection, ping *packet.StatusPing) error {
	if err := c.writePacket(&packet.StatusPong{Payload: ping.Payload}); err != nil {
		return fmt.Errorf("write pong: %w", err)
	}
	c.log.Debug("status ping answered")
	c.cancel()
	return nil
}
