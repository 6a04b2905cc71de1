package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
)

// ModuleSetting declares one module in the site configuration.
type ModuleSetting struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// siteData is the on-disk shape of the site configuration.
type siteData struct {
	Title     string            `json:"title"`
	Theme     string            `json:"theme"`
	Language  string            `json:"language"`
	LogLevel  string            `json:"logLevel"`
	Installed bool              `json:"installed"`
	Modules   []ModuleSetting   `json:"modules"`
	Values    map[string]string `json:"values,omitempty"`
}

// Site is the mutable site configuration: a JSON-file-backed key/value store
// carrying the declared module list, the active theme, and the installed flag.
// Admin handlers mutate it through Set and persist with Save; the reload path
// re-reads it with Reload. Safe for concurrent use.
type Site struct {
	mu   sync.RWMutex
	path string
	data siteData
}

// Well-known site configuration keys.
const (
	KeyTitle    = "title"
	KeyTheme    = "theme"
	KeyLanguage = "language"
	KeyLogLevel = "logLevel"
)

func defaultSiteData() siteData {
	return siteData{
		Title:    "Calipso",
		Theme:    "default",
		Language: "en",
		LogLevel: "info",
		Modules: []ModuleSetting{
			{Name: "content", Enabled: true},
			{Name: "user", Enabled: true},
			{Name: "admin", Enabled: true},
			{Name: "assets", Enabled: true},
		},
	}
}

// LoadSite reads the site configuration from path. A missing file yields the
// default, not-yet-installed configuration; a malformed file is an error
// (fatal at startup per the error policy).
func LoadSite(path string) (*Site, error) {
	s := &Site{path: path, data: defaultSiteData()}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSiteUnreadable, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSiteUnparseable, err)
	}
	return s, nil
}

// Get returns the value for a well-known key, or the free-form value set
// with Set. Unknown keys return "".
func (s *Site) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch key {
	case KeyTitle:
		return s.data.Title
	case KeyTheme:
		return s.data.Theme
	case KeyLanguage:
		return s.data.Language
	case KeyLogLevel:
		return s.data.LogLevel
	default:
		return s.data.Values[key]
	}
}

// GetBool interprets the stored value as a boolean; absent or malformed
// values are false.
func (s *Site) GetBool(key string) bool {
	b, _ := strconv.ParseBool(s.Get(key))
	return b
}

// Set stores a value. Well-known keys update the typed fields; everything
// else lands in the free-form value map.
func (s *Site) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case KeyTitle:
		s.data.Title = value
	case KeyTheme:
		s.data.Theme = value
	case KeyLanguage:
		s.data.Language = value
	case KeyLogLevel:
		s.data.LogLevel = value
	default:
		if s.data.Values == nil {
			s.data.Values = make(map[string]string)
		}
		s.data.Values[key] = value
	}
}

// Installed reports whether the install flow has completed.
func (s *Site) Installed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Installed
}

// SetInstalled marks the install flow complete (or resets it).
func (s *Site) SetInstalled(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Installed = v
}

// Modules returns a copy of the declared module list in declaration order.
func (s *Site) Modules() []ModuleSetting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Modules)
}

// EnableModule flips one module's enabled flag, appending a new declaration
// if the module was not declared before.
func (s *Site) EnableModule(name string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Modules {
		if s.data.Modules[i].Name == name {
			s.data.Modules[i].Enabled = enabled
			return
		}
	}
	s.data.Modules = append(s.data.Modules, ModuleSetting{Name: name, Enabled: enabled})
}

// Save atomically persists the configuration to disk via a temp-file rename.
func (s *Site) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	raw, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSiteSaveFailed, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".site-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSiteSaveFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", ErrSiteSaveFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrSiteSaveFailed, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrSiteSaveFailed, err)
	}
	return nil
}

// Staged is a parsed-but-uncommitted site configuration read from disk. The
// reload path stages the file, prepares every dependent component against it,
// and only then commits; a failure at any step leaves the live Site untouched.
type Staged struct {
	data siteData
}

// Get mirrors Site.Get against the staged data.
func (st *Staged) Get(key string) string {
	switch key {
	case KeyTitle:
		return st.data.Title
	case KeyTheme:
		return st.data.Theme
	case KeyLanguage:
		return st.data.Language
	case KeyLogLevel:
		return st.data.LogLevel
	default:
		return st.data.Values[key]
	}
}

// Modules returns the staged module declarations.
func (st *Staged) Modules() []ModuleSetting {
	return slices.Clone(st.data.Modules)
}

// Stage parses the configuration file without touching in-memory state.
func (s *Site) Stage() (*Staged, error) {
	fresh, err := LoadSite(s.path)
	if err != nil {
		return nil, err
	}
	return &Staged{data: fresh.data}, nil
}

// Commit replaces the in-memory state with a staged configuration.
func (s *Site) Commit(st *Staged) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = st.data
}

// Reload re-reads the configuration from disk, replacing in-memory state.
// On read failure the previous state stays in force.
func (s *Site) Reload() error {
	st, err := s.Stage()
	if err != nil {
		return err
	}
	s.Commit(st)
	return nil
}

// Path returns the backing file path.
func (s *Site) Path() string {
	return s.path
}
