// Package provision holds saved network profiles.
//
// Profiles are what client mode connects with; the store keeps them in
// memory and can load a seed set from a YAML file.
package provision

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Security identifies a profile's security scheme.
type Security string

const (
	SecurityOpen Security = "open"
	SecurityPSK  Security = "psk"
	SecuritySAE  Security = "sae"
	SecurityEAP  Security = "eap"
)

// Profile is one saved network.
type Profile struct {
	SSID     string   `yaml:"ssid"`
	Security Security `yaml:"security"`
	Hidden   bool     `yaml:"hidden,omitempty"`
	Priority int      `yaml:"priority,omitempty"`
}

// Validate checks the profile for obvious mistakes.
func (p Profile) Validate() error {
	if p.SSID == "" {
		return fmt.Errorf("profile has no ssid")
	}
	switch p.Security {
	case SecurityOpen, SecurityPSK, SecuritySAE, SecurityEAP:
		return nil
	default:
		return fmt.Errorf("profile %q has unknown security %q", p.SSID, p.Security)
	}
}

// Store keeps profiles keyed by SSID. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{profiles: make(map[string]Profile)}
}

// Add inserts or replaces a profile.
func (s *Store) Add(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.SSID] = p
	return nil
}

// Remove deletes the profile for ssid. Returns false if absent.
func (s *Store) Remove(ssid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[ssid]; !ok {
		return false
	}
	delete(s.profiles, ssid)
	return true
}

// Lookup returns the profile for ssid.
func (s *Store) Lookup(ssid string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[ssid]
	return p, ok
}

// All returns all profiles ordered by descending priority, then SSID.
func (s *Store) All() []Profile {
	s.mu.RLock()
	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].SSID < out[j].SSID
	})
	return out
}

// Len returns the number of profiles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// Provisioner obtains profiles from a remote provisioning provider.
type Provisioner interface {
	// Provision fetches the profiles offered by the provider at fqdn.
	Provision(fqdn string) ([]Profile, error)
}

// MockProvisioner serves canned profiles keyed by provider FQDN. It
// stands in for the online sign-up flow, which is out of scope here.
type MockProvisioner struct {
	// Profiles maps provider FQDN to the profiles it hands out.
	Profiles map[string][]Profile
}

// Provision returns the canned profiles for fqdn.
func (m *MockProvisioner) Provision(fqdn string) ([]Profile, error) {
	profiles, ok := m.Profiles[fqdn]
	if !ok {
		return nil, fmt.Errorf("unknown provisioning provider %q", fqdn)
	}
	return profiles, nil
}

var _ Provisioner = (*MockProvisioner)(nil)

// LoadFile loads profiles from a YAML file into the store. Existing
// profiles with the same SSID are replaced.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profiles: %w", err)
	}

	var doc struct {
		Profiles []Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse profiles: %w", err)
	}

	for _, p := range doc.Profiles {
		if err := s.Add(p); err != nil {
			return err
		}
	}
	return nil
}
