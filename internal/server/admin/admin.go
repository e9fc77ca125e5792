// Package admin serves health, metrics and player listings over HTTP.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OCharnyshevich/obsidian/internal/server/player"
	"github.com/OCharnyshevich/obsidian/internal/server/status"
)

type playerView struct {
	UUID     string  `json:"uuid"`
	Name     string  `json:"name"`
	EntityID int32   `json:"entity_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	OnGround bool    `json:"on_ground"`
}

// NewRouter builds the admin routes.
func NewRouter(provider status.Provider, players *player.Manager, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, provider.Status())
	})

	r.Get("/players", func(w http.ResponseWriter, _ *http.Request) {
		views := make([]playerView, 0, players.PlayerCount())
		players.ForEach(func(p *player.Player) {
			loc := p.Location()
			views = append(views, playerView{
				UUID:     p.UUID.String(),
				Name:     p.Username,
				EntityID: p.EntityID,
				X:        loc.X,
				Y:        loc.Y,
				Z:        loc.Z,
				OnGround: loc.OnGround,
			})
		})
		writeJSON(w, views)
	})

	r.Get("/players/{name}", func(w http.ResponseWriter, r *http.Request) {
		p, ok := players.Lookup(chi.URLParam(r, "name"))
		if !ok {
			http.Error(w, "player not online", http.StatusNotFound)
			return
		}
		loc := p.Location()
		writeJSON(w, playerView{
			UUID: p.UUID.String(), Name: p.Username, EntityID: p.EntityID,
			X: loc.X, Y: loc.Y, Z: loc.Z, OnGround: loc.OnGround,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the admin server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("admin server started", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown admin server: %w", err)
		}
		log.Info("admin server stopped")
		return nil
	}
}
