package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/obsidian/internal/server/admin"
	"github.com/OCharnyshevich/obsidian/internal/server/auth"
	"github.com/OCharnyshevich/obsidian/internal/server/command"
	"github.com/OCharnyshevich/obsidian/internal/server/config"
	"github.com/OCharnyshevich/obsidian/internal/server/conn"
	"github.com/OCharnyshevich/obsidian/internal/server/events"
	"github.com/OCharnyshevich/obsidian/internal/server/metrics"
	"github.com/OCharnyshevich/obsidian/internal/server/player"
	"github.com/OCharnyshevich/obsidian/internal/server/status"
	"github.com/OCharnyshevich/obsidian/internal/server/storage"
)

// Server is the main Minecraft server that accepts TCP connections.
type Server struct {
	cfg *config.Config
	log *slog.Logger
	svc *conn.Services

	bus     *events.Bus
	store   *storage.Storage
	sink    *events.MQTTSink
	metrics *metrics.Metrics

	nextConnID atomic.Uint64
	conns      sync.WaitGroup
}

// New wires the server components from cfg. The returned server owns the
// player store, if any; Start closes it.
func New(cfg *config.Config, log *slog.Logger) (*Server, error) {
	players := player.NewManager()

	catalog := command.NewCatalog(players)
	if err := command.RegisterBuiltins(catalog); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}

	favicon, err := status.LoadFavicon(cfg.Favicon)
	if err != nil {
		return nil, err
	}

	var resolver auth.Resolver = auth.OfflineResolver{}
	if cfg.OnlineMode {
		resolver = auth.NewMojangClient()
	}

	m := metrics.New(prometheus.NewRegistry())
	bus := events.NewBus(log)

	s := &Server{
		cfg:     cfg,
		log:     log,
		bus:     bus,
		metrics: m,
		svc: &conn.Services{
			Config:   cfg,
			Router:   conn.NewRouter(),
			Players:  players,
			Resolver: resolver,
			Commands: catalog,
			Status: &status.ServerProvider{
				MOTD:       cfg.MOTD,
				MaxPlayers: cfg.MaxPlayers,
				Favicon:    favicon,
				Players:    players,
			},
			Bus:     bus,
			Metrics: m,
		},
	}

	if cfg.DataDir != "" {
		store, err := storage.New(cfg.DataDir, log)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.svc.Store = store
	}

	if cfg.MQTT.Enabled {
		s.sink = events.NewMQTTSink(cfg.MQTT, log)
		s.sink.Attach(bus)
	}

	return s, nil
}

// Players returns the online registry.
func (s *Server) Players() *player.Manager { return s.svc.Players }

// Start begins listening for connections and blocks until the context is
// cancelled. The admin HTTP server and the MQTT sink run alongside the
// accept loop; the first of them to fail stops the rest.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		s.close()
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.log.Info("server started",
		"addr", listener.Addr().String(),
		"onlineMode", s.cfg.OnlineMode,
		"motd", s.cfg.MOTD,
		"compressionThreshold", s.cfg.CompressionThreshold,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.acceptLoop(gctx, listener)
	})

	if s.cfg.AdminAddr != "" {
		h := admin.NewRouter(s.svc.Status, s.svc.Players, s.metrics.Registry)
		g.Go(func() error {
			return admin.Serve(gctx, s.cfg.AdminAddr, h, s.log.With("component", "admin"))
		})
	}

	if s.sink != nil {
		g.Go(func() error {
			return s.sink.Run(gctx)
		})
	}

	err = g.Wait()
	s.conns.Wait()
	s.close()
	s.log.Info("server stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) error {
	// Close listener when context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		c, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("server shutting down")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Error("accept connection", "error", err)
			continue
		}

		connection := conn.NewConnection(ctx, s.nextConnID.Add(1), c, s.svc, s.log)
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			connection.Handle()
		}()
	}
}

func (s *Server) close() {
	s.bus.Stop()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Error("close player store", "error", err)
		}
	}
}
