// Package storage persists player state in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/OCharnyshevich/obsidian/internal/server/player"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	uuid      TEXT PRIMARY KEY,
	username  TEXT NOT NULL,
	x         REAL NOT NULL,
	y         REAL NOT NULL,
	z         REAL NOT NULL,
	yaw       REAL NOT NULL,
	pitch     REAL NOT NULL,
	on_ground INTEGER NOT NULL,
	settings  BLOB,
	last_seen INTEGER NOT NULL
)`

// Storage handles player persistence in <dir>/players.db.
type Storage struct {
	db  *sql.DB
	log *slog.Logger
}

// New opens or creates the database under dir.
func New(dir string, log *slog.Logger) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, "players.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Warn("failed to enable WAL mode", "error", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log.Info("player database opened", "path", path)
	return &Storage{db: db, log: log}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// LoadPlayer returns the saved state for id, or nil if the player is new.
func (s *Storage) LoadPlayer(ctx context.Context, id uuid.UUID) (*PlayerData, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT username, x, y, z, yaw, pitch, on_ground, settings, last_seen FROM players WHERE uuid = ?`,
		id.String())

	pd := PlayerData{UUID: id}
	var settings []byte
	var lastSeen int64
	err := row.Scan(&pd.Username, &pd.Location.X, &pd.Location.Y, &pd.Location.Z,
		&pd.Location.Yaw, &pd.Location.Pitch, &pd.Location.OnGround, &settings, &lastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", id, err)
	}

	if len(settings) > 0 {
		if err := msgpack.Unmarshal(settings, &pd.Settings); err != nil {
			return nil, fmt.Errorf("decode settings of %s: %w", id, err)
		}
	}
	pd.LastSeen = time.Unix(lastSeen, 0).UTC()
	return &pd, nil
}

// SavePlayer upserts the current state of a player.
func (s *Storage) SavePlayer(ctx context.Context, p *player.Player) error {
	pd := PlayerDataFromPlayer(p)

	settings, err := msgpack.Marshal(&pd.Settings)
	if err != nil {
		return fmt.Errorf("encode settings of %s: %w", pd.UUID, err)
	}

	loc := pd.Location
	_, err = s.db.ExecContext(ctx, `
INSERT INTO players (uuid, username, x, y, z, yaw, pitch, on_ground, settings, last_seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(uuid) DO UPDATE SET
	username = excluded.username,
	x = excluded.x, y = excluded.y, z = excluded.z,
	yaw = excluded.yaw, pitch = excluded.pitch,
	on_ground = excluded.on_ground,
	settings = excluded.settings,
	last_seen = excluded.last_seen`,
		pd.UUID.String(), pd.Username, loc.X, loc.Y, loc.Z, loc.Yaw, loc.Pitch, loc.OnGround,
		settings, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save player %s: %w", pd.UUID, err)
	}
	return nil
}

// CountPlayers returns how many players have ever been saved.
func (s *Storage) CountPlayers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}
