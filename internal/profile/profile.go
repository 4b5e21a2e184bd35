// Package profile stores named marketplace credentials in the user config
// directory.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wb-content-manager/internal/runstore"
)

const (
	appDirName       = "wb-content-manager"
	profilesFileName = "profiles.json"

	DefaultProfileName = "Default"
)

type Profile struct {
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

type document struct {
	Profiles []Profile `json:"profiles"`
	Selected int       `json:"selected_index"`
}

// Store is the in-memory profile list bound to its file path. The selected
// profile supplies the credential for runs.
type Store struct {
	Profiles []Profile
	Selected int

	path string
}

// DefaultPath resolves <UserConfigDir>/wb-content-manager/profiles.json.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(base, appDirName, profilesFileName), nil
}

// DefaultRunsDir resolves the sibling runs directory for run reports.
func DefaultRunsDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(base, appDirName, "runs"), nil
}

// Load reads the store, seeding a single empty Default profile when the file
// does not exist yet. A corrupt file is an error, not silently replaced.
func Load(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("profile store path is required")
	}

	s := &Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.Profiles = []Profile{{Name: DefaultProfileName}}
		return s, nil
	}

	var doc document
	if err := runstore.ReadJSON(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Profiles) == 0 {
		doc.Profiles = []Profile{{Name: DefaultProfileName}}
		doc.Selected = 0
	}
	if doc.Selected < 0 || doc.Selected >= len(doc.Profiles) {
		doc.Selected = 0
	}
	s.Profiles = doc.Profiles
	s.Selected = doc.Selected
	return s, nil
}

func (s *Store) Save() error {
	return runstore.WriteJSON(s.path, document{Profiles: s.Profiles, Selected: s.Selected})
}

func (s *Store) Current() Profile {
	if s.Selected < 0 || s.Selected >= len(s.Profiles) {
		return Profile{}
	}
	return s.Profiles[s.Selected]
}

// Add appends a new empty-key profile and selects it. Duplicate names are
// rejected so retry seeds and reports stay unambiguous.
func (s *Store) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	if s.indexOf(name) >= 0 {
		return fmt.Errorf("profile %q already exists", name)
	}
	s.Profiles = append(s.Profiles, Profile{Name: name})
	s.Selected = len(s.Profiles) - 1
	return nil
}

// Remove deletes a profile by name. The last remaining profile cannot be
// removed.
func (s *Store) Remove(name string) error {
	idx := s.indexOf(name)
	if idx < 0 {
		return fmt.Errorf("profile %q not found", name)
	}
	if len(s.Profiles) == 1 {
		return fmt.Errorf("cannot remove the last profile")
	}
	s.Profiles = append(s.Profiles[:idx], s.Profiles[idx+1:]...)
	if s.Selected >= len(s.Profiles) {
		s.Selected = len(s.Profiles) - 1
	}
	return nil
}

func (s *Store) Select(name string) error {
	idx := s.indexOf(name)
	if idx < 0 {
		return fmt.Errorf("profile %q not found", name)
	}
	s.Selected = idx
	return nil
}

// SetAPIKey updates the named profile's credential.
func (s *Store) SetAPIKey(name, key string) error {
	idx := s.indexOf(name)
	if idx < 0 {
		return fmt.Errorf("profile %q not found", name)
	}
	s.Profiles[idx].APIKey = strings.TrimSpace(key)
	return nil
}

func (s *Store) indexOf(name string) int {
	name = strings.TrimSpace(name)
	for i, p := range s.Profiles {
		if p.Name == name {
			return i
		}
	}
	return -1
}
