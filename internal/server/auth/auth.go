// Package auth resolves usernames to player identities.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OCharnyshevich/obsidian/internal/server/player"
)

// DefaultProfilesURL is Mojang's bulk username lookup endpoint.
const DefaultProfilesURL = "https://api.mojang.com/profiles/minecraft"

var ErrProfileNotFound = errors.New("profile not found")

// Profile is a resolved identity.
type Profile struct {
	ID   uuid.UUID
	Name string
}

// Resolver maps usernames to profiles. Names without a match are absent
// from the result rather than reported as errors.
type Resolver interface {
	ResolveUsernames(ctx context.Context, names []string) ([]Profile, error)
}

// ResolveOne looks up a single username. It returns ErrProfileNotFound when
// the resolver has no match for it.
func ResolveOne(ctx context.Context, r Resolver, name string) (Profile, error) {
	profiles, err := r.ResolveUsernames(ctx, []string{name})
	if err != nil {
		return Profile{}, err
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// MojangClient resolves names against the Mojang profiles API.
type MojangClient struct {
	URL    string
	Client *http.Client
}

// NewMojangClient creates a client for the public endpoint.
func NewMojangClient() *MojangClient {
	return &MojangClient{
		URL:    DefaultProfilesURL,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type mojangProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (m *MojangClient) ResolveUsernames(ctx context.Context, names []string) ([]Profile, error) {
	body, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("encode names: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create mojang request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mojang request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mojang unexpected status: %d", resp.StatusCode)
	}

	var raw []mojangProfile
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode mojang response: %w", err)
	}

	profiles := make([]Profile, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("mojang profile %q: bad id %q: %w", r.Name, r.ID, err)
		}
		profiles = append(profiles, Profile{ID: id, Name: r.Name})
	}
	return profiles, nil
}

// OfflineResolver accepts every name and assigns the offline-mode UUID.
type OfflineResolver struct{}

func (OfflineResolver) ResolveUsernames(_ context.Context, names []string) ([]Profile, error) {
	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		profiles = append(profiles, Profile{ID: player.OfflineUUID(name), Name: name})
	}
	return profiles, nil
}

// StaticResolver serves profiles from a fixed table, keyed by lower-case name.
type StaticResolver map[string]Profile

func (s StaticResolver) ResolveUsernames(_ context.Context, names []string) ([]Profile, error) {
	var profiles []Profile
	for _, name := range names {
		if p, ok := s[strings.ToLower(name)]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}
