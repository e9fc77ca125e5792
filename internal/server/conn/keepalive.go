package conn

import (
	"fmt"
	"sync"
	"time"

	"github.com/OCharnyshevich/obsidian/internal/server/packet"
)

// keepAliveState counts probes the client has not answered yet. Only the
// most recent probe ID is accepted as a reply.
type keepAliveState struct {
	mu      sync.Mutex
	pending int
	lastID  int64
	nextID  int64
}

// KeepAlivesPending returns the number of unanswered keep-alive probes.
func (c *Connection) KeepAlivesPending() int {
	c.keepAlive.mu.Lock()
	defer c.keepAlive.mu.Unlock()
	return c.keepAlive.pending
}

func (c *Connection) sendKeepAlive(id int64) error {
	c.keepAlive.mu.Lock()
	c.keepAlive.pending++
	c.keepAlive.lastID = id
	c.keepAlive.mu.Unlock()

	return c.writePacket(&packet.KeepAliveClientbound{KeepAliveID: id})
}

// ackKeepAlive resets the counter when id answers the latest probe.
func (c *Connection) ackKeepAlive(id int64) bool {
	c.keepAlive.mu.Lock()
	defer c.keepAlive.mu.Unlock()

	if c.keepAlive.pending == 0 || id != c.keepAlive.lastID {
		return false
	}
	c.keepAlive.pending = 0
	return true
}

func (c *Connection) keepAliveLoop() error {
	ticker := time.NewTicker(c.keepAliveInterval)
	defer ticker.Stop()

	maxMissed := c.svc.Config.KeepAliveMaxMissed
	for {
		select {
		case <-c.ctx.Done():
			return nil
		case <-ticker.C:
			if missed := c.KeepAlivesPending(); missed > 0 {
				c.svc.Metrics.KeepAliveMissed()
				if missed >= maxMissed {
					c.log.Warn("keep alive timeout", "missed", missed)
					c.disconnect("Timed out")
					return nil
				}
			}

			c.keepAlive.mu.Lock()
			c.keepAlive.nextID++
			id := c.keepAlive.nextID
			c.keepAlive.mu.Unlock()

			if err := c.sendKeepAlive(id); err != nil {
				c.cancel()
				return fmt.Errorf("keep alive %d: %w", id, err)
			}
		}
	}
}
