package provision

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"Open", Profile{SSID: "cafe", Security: SecurityOpen}, false},
		{"PSK", Profile{SSID: "home", Security: SecurityPSK}, false},
		{"SAE", Profile{SSID: "home", Security: SecuritySAE}, false},
		{"EAP", Profile{SSID: "office", Security: SecurityEAP}, false},
		{"NoSSID", Profile{Security: SecurityPSK}, true},
		{"UnknownSecurity", Profile{SSID: "x", Security: "wep"}, true},
		{"EmptySecurity", Profile{SSID: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStoreAddLookupRemove(t *testing.T) {
	s := NewStore()

	if err := s.Add(Profile{SSID: "home", Security: SecurityPSK}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := s.Add(Profile{SSID: "bad"}); err == nil {
		t.Error("Add() of invalid profile should fail")
	}

	p, ok := s.Lookup("home")
	if !ok || p.Security != SecurityPSK {
		t.Errorf("Lookup(home) = %+v, %v", p, ok)
	}

	// Re-adding replaces.
	s.Add(Profile{SSID: "home", Security: SecuritySAE})
	p, _ = s.Lookup("home")
	if p.Security != SecuritySAE {
		t.Errorf("security after replace = %q, want sae", p.Security)
	}

	if !s.Remove("home") {
		t.Error("Remove(home) = false, want true")
	}
	if s.Remove("home") {
		t.Error("Remove(home) = true for absent profile")
	}
}

func TestAllOrdersByPriority(t *testing.T) {
	s := NewStore()
	s.Add(Profile{SSID: "b", Security: SecurityOpen, Priority: 1})
	s.Add(Profile{SSID: "a", Security: SecurityOpen, Priority: 1})
	s.Add(Profile{SSID: "z", Security: SecurityPSK, Priority: 5})

	var ssids []string
	for _, p := range s.All() {
		ssids = append(ssids, p.SSID)
	}
	want := []string{"z", "a", "b"}
	if !reflect.DeepEqual(ssids, want) {
		t.Errorf("All() order = %v, want %v", ssids, want)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	data := `profiles:
  - ssid: home
    security: sae
    priority: 10
  - ssid: cafe
    security: open
    hidden: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore()
	if err := s.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	home, _ := s.Lookup("home")
	if home.Security != SecuritySAE || home.Priority != 10 {
		t.Errorf("home = %+v", home)
	}
	cafe, _ := s.Lookup("cafe")
	if !cafe.Hidden {
		t.Error("cafe should be hidden")
	}
}

func TestMockProvisioner(t *testing.T) {
	m := &MockProvisioner{Profiles: map[string][]Profile{
		"osu.example.org": {{SSID: "example", Security: SecurityEAP}},
	}}

	got, err := m.Provision("osu.example.org")
	if err != nil {
		t.Fatalf("Provision() error: %v", err)
	}
	if len(got) != 1 || got[0].SSID != "example" {
		t.Errorf("Provision() = %v", got)
	}

	if _, err := m.Provision("unknown.example.org"); err == nil {
		t.Error("Provision() of unknown provider should fail")
	}
}

func TestLoadFileErrors(t *testing.T) {
	s := NewStore()
	if err := s.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile() of missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("profiles:\n  - ssid: x\n    security: wep\n"), 0o644)
	if err := s.LoadFile(path); err == nil {
		t.Error("LoadFile() with invalid profile should fail")
	}
}
