// Package status builds the server list document returned in the Status state.
package status

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/OCharnyshevich/obsidian/internal/server/chat"
	"github.com/OCharnyshevich/obsidian/internal/server/packet"
	"github.com/OCharnyshevich/obsidian/internal/server/player"
)

// MaxSample is how many players the server list hover shows.
const MaxSample = 12

type Document struct {
	Version     Version      `json:"version"`
	Players     Players      `json:"players"`
	Description chat.Message `json:"description"`
	Favicon     string       `json:"favicon,omitempty"`
}

type Version struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

type Players struct {
	Max    int      `json:"max"`
	Online int      `json:"online"`
	Sample []Sample `json:"sample,omitempty"`
}

type Sample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// JSON encodes the document for StatusResponse.
func (d Document) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal status: %w", err)
	}
	return string(b), nil
}

// Provider produces the status document on demand.
type Provider interface {
	Status() Document
}

// ServerProvider reports the live registry together with static settings.
type ServerProvider struct {
	MOTD       string
	MaxPlayers int
	Favicon    string
	Players    *player.Manager
}

func (s *ServerProvider) Status() Document {
	doc := Document{
		Version:     Version{Name: packet.VersionName, Protocol: packet.ProtocolVersion},
		Players:     Players{Max: s.MaxPlayers},
		Description: chat.Simple(s.MOTD),
		Favicon:     s.Favicon,
	}
	if s.Players == nil {
		return doc
	}

	online := s.Players.Snapshot()
	doc.Players.Online = len(online)
	for _, p := range online {
		if len(doc.Players.Sample) == MaxSample {
			break
		}
		doc.Players.Sample = append(doc.Players.Sample, Sample{Name: p.Username, ID: p.UUID.String()})
	}
	return doc
}

// LoadFavicon reads a 64x64 PNG and returns it as a data URI. An empty
// path yields no favicon.
func LoadFavicon(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read favicon: %w", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		return "", fmt.Errorf("favicon %s is not a PNG", path)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
