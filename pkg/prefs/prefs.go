// Package prefs persists the playground's UI preferences in the dot dir so
// the theme and sidebar state survive restarts and follow edits made from
// another terminal.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/papercomputeco/playground/pkg/dotdir"
)

const prefsFile = "prefs.json"

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Keys accepted by Get and Set.
const (
	KeyTheme            = "theme"
	KeySidebarCollapsed = "sidebar_collapsed"
)

// Keys returns the preference keys in display order.
func Keys() []string {
	return []string{KeyTheme, KeySidebarCollapsed}
}

// Prefs are the persisted UI preferences.
type Prefs struct {
	Theme            string `json:"theme"`
	SidebarCollapsed bool   `json:"sidebar_collapsed"`
}

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{Theme: ThemeDark}
}

func (p Prefs) normalize() Prefs {
	if p.Theme != ThemeLight {
		p.Theme = ThemeDark
	}
	return p
}

// Get returns the string form of key.
func (p Prefs) Get(key string) (string, error) {
	switch key {
	case KeyTheme:
		return p.Theme, nil
	case KeySidebarCollapsed:
		return strconv.FormatBool(p.SidebarCollapsed), nil
	default:
		return "", fmt.Errorf("unknown preference %q (available: %v)", key, Keys())
	}
}

// Store reads and writes prefs.json in one directory.
type Store struct {
	dir string
}

// NewStore returns a Store for dir, which must exist.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Open resolves the dot dir and returns its Store.
func Open(m *dotdir.Manager, overrideDir string) (*Store, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	return NewStore(dir), nil
}

// Path returns the prefs file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, prefsFile)
}

// Load reads the stored preferences. A missing file yields Default and an
// unknown theme reads as dark.
func (s *Store) Load() (Prefs, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("reading prefs: %w", err)
	}

	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("parsing prefs: %w", err)
	}
	return p.normalize(), nil
}

// Save writes p. The file is replaced atomically so watchers never read a
// partial document.
func (s *Store) Save(p Prefs) error {
	data, err := json.MarshalIndent(p.normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling prefs: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".prefs-*.json")
	if err != nil {
		return fmt.Errorf("creating temp prefs: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing prefs: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("replacing prefs: %w", err)
	}
	return nil
}

// Set parses value for key, stores the result and returns it.
func (s *Store) Set(key, value string) (Prefs, error) {
	p, err := s.Load()
	if err != nil {
		return p, err
	}

	switch key {
	case KeyTheme:
		if !slices.Contains([]string{ThemeDark, ThemeLight}, value) {
			return p, fmt.Errorf("invalid theme %q (available: %s, %s)", value, ThemeDark, ThemeLight)
		}
		p.Theme = value
	case KeySidebarCollapsed:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return p, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		p.SidebarCollapsed = b
	default:
		return p, fmt.Errorf("unknown preference %q (available: %v)", key, Keys())
	}

	return p, s.Save(p)
}

// ToggleTheme flips between dark and light and stores the result.
func (s *Store) ToggleTheme() (Prefs, error) {
	return s.update(func(p *Prefs) {
		if p.Theme == ThemeLight {
			p.Theme = ThemeDark
		} else {
			p.Theme = ThemeLight
		}
	})
}

// ToggleSidebar flips the sidebar state and stores the result.
func (s *Store) ToggleSidebar() (Prefs, error) {
	return s.update(func(p *Prefs) {
		p.SidebarCollapsed = !p.SidebarCollapsed
	})
}

func (s *Store) update(fn func(*Prefs)) (Prefs, error) {
	p, err := s.Load()
	if err != nil {
		return p, err
	}
	fn(&p)
	return p, s.Save(p)
}
