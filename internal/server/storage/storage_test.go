package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/OCharnyshevich/obsidian/internal/server/player"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadUnknownPlayer(t *testing.T) {
	s := newTestStorage(t)
	pd, err := s.LoadPlayer(context.Background(), player.OfflineUUID("nobody"))
	if err != nil || pd != nil {
		t.Fatalf("LoadPlayer = %+v, %v", pd, err)
	}
}

func TestSaveLoadPlayer(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	p := player.NewPlayer(1, player.OfflineUUID("Alice"), "Alice", nil)
	p.SetLocation(player.Location{X: 12.5, Y: 70, Z: -3.25, Yaw: 45, Pitch: -10, OnGround: true})
	p.SetSettings(player.Settings{Locale: "fr_FR", ViewDistance: 6, ChatMode: 1, ChatColors: true, SkinParts: 0x3F, MainHand: 0})

	if err := s.SavePlayer(ctx, p); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}

	pd, err := s.LoadPlayer(ctx, p.UUID)
	if err != nil {
		t.Fatalf("LoadPlayer: %v", err)
	}
	if pd == nil {
		t.Fatal("saved player not found")
	}
	if pd.Username != "Alice" || pd.Location != p.Location() || pd.Settings != p.Settings() {
		t.Errorf("loaded %+v", pd)
	}
	if pd.LastSeen.IsZero() {
		t.Error("LastSeen not recorded")
	}

	restored := player.NewPlayer(2, p.UUID, "Alice", nil)
	pd.Apply(restored)
	if restored.Location() != p.Location() {
		t.Errorf("Apply location = %+v", restored.Location())
	}
}

func TestSavePlayerUpserts(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	p := player.NewPlayer(1, player.OfflineUUID("Bob"), "Bob", nil)
	_ = s.SavePlayer(ctx, p)
	p.SetPosition(100, 64, 100, false)
	if err := s.SavePlayer(ctx, p); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}

	n, err := s.CountPlayers(ctx)
	if err != nil || n != 1 {
		t.Fatalf("CountPlayers = %d, %v", n, err)
	}
	pd, _ := s.LoadPlayer(ctx, p.UUID)
	if pd.Location.X != 100 {
		t.Errorf("X = %v, want 100", pd.Location.X)
	}
}
