package conn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/OCharnyshevich/obsidian/internal/server/auth"
	"github.com/OCharnyshevich/obsidian/internal/server/chat"
	"github.com/OCharnyshevich/obsidian/internal/server/command"
	"github.com/OCharnyshevich/obsidian/internal/server/config"
	"github.com/OCharnyshevich/obsidian/internal/server/events"
	"github.com/OCharnyshevich/obsidian/internal/server/metrics"
	mcnet "github.com/OCharnyshevich/obsidian/internal/server/net"
	"github.com/OCharnyshevich/obsidian/internal/server/packet"
	"github.com/OCharnyshevich/obsidian/internal/server/player"
	"github.com/OCharnyshevich/obsidian/internal/server/status"
	"github.com/OCharnyshevich/obsidian/internal/server/storage"
)

var ErrBadTransition = errors.New("illegal state transition")

// Store persists players between sessions.
type Store interface {
	LoadPlayer(ctx context.Context, id uuid.UUID) (*storage.PlayerData, error)
	SavePlayer(ctx context.Context, p *player.Player) error
}

// Services are the server-wide collaborators shared by every connection.
// Bus, Store and Metrics may be nil.
type Services struct {
	Config   *config.Config
	Router   *Router
	Players  *player.Manager
	Resolver auth.Resolver
	Commands *command.Catalog
	Status   status.Provider
	Bus      *events.Bus
	Store    Store
	Metrics  *metrics.Metrics
}

// Connection manages a single client connection through the protocol state machine.
type Connection struct {
	id     uint64
	conn   net.Conn
	r      *bufio.Reader
	svc    *Services
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes writes and guards codec changes.
	mu           sync.Mutex
	codec        mcnet.Codec
	writeTimeout time.Duration

	state atomic.Int32

	// Set during login, then only read.
	self       *player.Player
	registered bool

	chatLimiter *rate.Limiter
	teleportID  atomic.Int32

	keepAliveInterval time.Duration
	keepAlive         keepAliveState

	workers errgroup.Group
}

// NewConnection creates a new Connection from a raw TCP connection.
func NewConnection(ctx context.Context, id uint64, conn net.Conn, svc *Services, log *slog.Logger) *Connection {
	ctx, cancel := context.WithCancel(ctx)

	limit := rate.Inf
	if svc.Config.ChatRateLimit > 0 {
		limit = rate.Limit(svc.Config.ChatRateLimit)
	}

	return &Connection{
		id:                id,
		conn:              conn,
		r:                 bufio.NewReader(conn),
		svc:               svc,
		log:               log.With("conn", id, "addr", conn.RemoteAddr().String()),
		ctx:               ctx,
		cancel:            cancel,
		codec:             mcnet.PlainCodec{},
		writeTimeout:      svc.Config.WriteTimeout(),
		chatLimiter:       rate.NewLimiter(limit, max(svc.Config.ChatBurst, 1)),
		keepAliveInterval: svc.Config.KeepAliveInterval(),
	}
}

func (c *Connection) ID() uint64 { return c.id }

// State returns the current protocol state. Safe for concurrent use.
func (c *Connection) State() packet.State { return packet.State(c.state.Load()) }

// Player returns the bound player, or nil before login completes.
func (c *Connection) Player() *player.Player { return c.self }

// setState moves the session forward. Handshaking may go to Status or
// Login, Login may go to Play; nothing else is allowed.
func (c *Connection) setState(next packet.State) error {
	cur := c.State()
	ok := false
	switch cur {
	case packet.Handshaking:
		ok = next == packet.Status || next == packet.Login
	case packet.Login:
		ok = next == packet.Play
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, cur, next)
	}
	c.state.Store(int32(next))
	c.log.Debug("state changed", "from", cur, "to", next)
	return nil
}

// Handle runs the connection lifecycle. It reads packets and dispatches
// them to the appropriate state handler until the connection closes.
func (c *Connection) Handle() {
	stop := context.AfterFunc(c.ctx, func() {
		// Unblock a pending read or write.
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})

	defer func() {
		stop()
		c.cancel()
		if err := c.workers.Wait(); err != nil {
			c.log.Debug("connection worker stopped", "error", err)
		}
		c.teardown()
		c.conn.Close()
		c.svc.Metrics.ConnectionClosed()
		c.log.Info("connection closed")
	}()

	c.svc.Metrics.ConnectionOpened()
	c.log.Info("connection accepted")

	c.armReadDeadline()
	legacy, err := mcnet.IsLegacyPing(c.r)
	if err != nil {
		return
	}
	if legacy {
		c.answerLegacyPing()
		return
	}

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		if err := c.handleNextPacket(); err != nil {
			if c.ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				c.log.Info("read timed out", "state", c.State())
				return
			}
			c.log.Warn("handling packet", "state", c.State(), "error", err)
			return
		}
	}
}

func (c *Connection) armReadDeadline() {
	var deadline time.Time
	if d := c.svc.Config.ReadTimeout(); d > 0 {
		deadline = time.Now().Add(d)
	}
	_ = c.conn.SetReadDeadline(deadline)
}

func (c *Connection) handleNextPacket() error {
	c.armReadDeadline()
	// A cancel racing with armReadDeadline is caught here.
	if err := c.ctx.Err(); err != nil {
		return err
	}

	packetID, data, err := c.codec.ReadPacket(c.r)
	if err != nil {
		return err
	}

	state := c.State()
	c.svc.Metrics.PacketReceived(state.String())
	c.log.Debug("packet received", "state", state, "id", fmt.Sprintf("0x%02X", packetID), "len", len(data))

	if state == packet.Play && len(data) == 0 {
		c.log.Warn("empty play packet", "id", fmt.Sprintf("0x%02X", packetID))
		c.disconnect("Invalid packet")
		return nil
	}

	return c.svc.Router.Dispatch(c, state, packetID, data)
}

// writePacket writes a packet to the connection under the write lock.
func (c *Connection) writePacket(p mcnet.Packet) error {
	id, data, err := mcnet.Encode(p)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var deadline time.Time
	if c.writeTimeout > 0 {
		deadline = time.Now().Add(c.writeTimeout)
	}
	_ = c.conn.SetWriteDeadline(deadline)
	// Re-arming must not undo the deadline set on cancel.
	if err := c.ctx.Err(); err != nil {
		return fmt.Errorf("write packet 0x%02X: %w", id, err)
	}

	if err := c.codec.WritePacket(c.conn, id, data); err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() && c.ctx.Err() == nil {
			// A peer that stops reading would stall every broadcast to it.
			c.log.Warn("write timed out, dropping client", "id", fmt.Sprintf("0x%02X", id))
			c.svc.Metrics.Disconnect("Write timed out")
			c.cancel()
		}
		return fmt.Errorf("write packet 0x%02X: %w", id, err)
	}
	state := c.State()
	c.svc.Metrics.PacketSent(state.String())
	c.log.Debug("packet sent", "state", state, "id", fmt.Sprintf("0x%02X", id), "len", len(data))
	return nil
}

// enableCompression switches both directions to the compressed framing.
// SetCompression itself must already have been sent uncompressed.
func (c *Connection) enableCompression(threshold int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codec = mcnet.NewCodec(threshold)
}

// disconnect sends the reason when the state has a disconnect packet and
// closes the connection.
func (c *Connection) disconnect(reason string) {
	msg := chat.Simple(reason).JSON()

	var err error
	switch c.State() {
	case packet.Handshaking, packet.Login:
		err = c.writePacket(&packet.LoginDisconnect{Reason: msg})
	case packet.Play:
		err = c.writePacket(&packet.PlayDisconnect{Reason: msg})
	}
	if err != nil {
		c.log.Debug("disconnect reason not delivered", "error", err)
	}

	c.log.Info("disconnecting", "reason", reason)
	c.svc.Metrics.Disconnect(reason)
	c.cancel()
}

func (c *Connection) answerLegacyPing() {
	doc := c.svc.Status.Status()
	err := mcnet.WriteLegacyKick(c.conn, mcnet.LegacyStatus{
		Protocol:   doc.Version.Protocol,
		Version:    doc.Version.Name,
		MOTD:       doc.Description.PlainText(),
		Online:     doc.Players.Online,
		MaxPlayers: doc.Players.Max,
	})
	if err != nil {
		c.log.Debug("legacy ping reply failed", "error", err)
		return
	}
	c.log.Info("answered legacy ping")
}

// teardown unregisters the player and saves it. It runs once, after the
// read loop and all workers have stopped.
func (c *Connection) teardown() {
	if !c.registered {
		return
	}
	p := c.self
	players := c.svc.Players

	if players.Remove(p) {
		c.svc.Metrics.SetPlayersOnline(players.PlayerCount())
	}
	players.SendChat(chat.Colored(p.Username+" has left the server.", chat.ColorYellow), p, packet.ChatPositionSystem, true)
	c.emit(events.EventPlayerLeave, events.PlayerPayload{UUID: p.UUID.String(), Name: p.Username})

	if c.svc.Store != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), 5*time.Second)
		defer cancel()
		if err := c.svc.Store.SavePlayer(ctx, p); err != nil {
			c.log.Error("save player", "error", err)
		}
	}
	c.log.Info("player left")
}

func (c *Connection) emit(t events.EventType, payload any) {
	if c.svc.Bus == nil {
		return
	}
	c.svc.Bus.Emit(context.WithoutCancel(c.ctx), events.New(t, c.svc.Config.MQTT.ClientID, payload))
}
