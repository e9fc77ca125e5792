package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OCharnyshevich/obsidian/internal/server/player"
)

func TestServerProvider(t *testing.T) {
	m := player.NewManager()
	for i := range 20 {
		name := fmt.Sprintf("p%02d", i)
		_ = m.Add(player.NewPlayer(m.AllocateEntityID(), player.OfflineUUID(name), name, nil))
	}

	p := &ServerProvider{MOTD: "A Minecraft Server", MaxPlayers: 25, Players: m}
	doc := p.Status()

	if doc.Version.Protocol != 404 || doc.Version.Name != "1.13.2" {
		t.Errorf("version = %+v", doc.Version)
	}
	if doc.Players.Online != 20 || doc.Players.Max != 25 {
		t.Errorf("players = %d/%d", doc.Players.Online, doc.Players.Max)
	}
	if len(doc.Players.Sample) != MaxSample {
		t.Errorf("sample has %d entries, want %d", len(doc.Players.Sample), MaxSample)
	}
	if doc.Players.Sample[0].Name != "p00" || doc.Players.Sample[0].ID != player.OfflineUUID("p00").String() {
		t.Errorf("sample[0] = %+v", doc.Players.Sample[0])
	}

	s, err := doc.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		t.Fatalf("status is not valid JSON: %v", err)
	}
	if decoded["description"].(map[string]any)["text"] != "A Minecraft Server" {
		t.Errorf("description = %v", decoded["description"])
	}
	if _, ok := decoded["favicon"]; ok {
		t.Error("favicon must be omitted when unset")
	}
}

func TestServerProviderEmpty(t *testing.T) {
	doc := (&ServerProvider{MOTD: "x", MaxPlayers: 1, Players: player.NewManager()}).Status()
	s, _ := doc.JSON()
	if strings.Contains(s, "sample") {
		t.Errorf("empty server must omit sample: %s", s)
	}
}

func TestLoadFavicon(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "icon.png")
	if err := os.WriteFile(png, []byte("\x89PNG\r\n\x1a\nrest"), 0o644); err != nil {
		t.Fatal(err)
	}
	uri, err := LoadFavicon(png)
	if err != nil {
		t.Fatalf("LoadFavicon: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,iVBORw0KGg") {
		t.Errorf("uri = %s", uri)
	}

	txt := filepath.Join(dir, "icon.txt")
	_ = os.WriteFile(txt, []byte("not an image"), 0o644)
	if _, err := LoadFavicon(txt); err == nil {
		t.Error("expected error for non-PNG favicon")
	}

	if uri, err := LoadFavicon(""); uri != "" || err != nil {
		t.Errorf("LoadFavicon(\"\") = %q, %v", uri, err)
	}
}
