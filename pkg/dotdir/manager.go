// Package dotdir locates the playground state directory and the files kept in
// it: config.toml, the UI preferences and the conversation that
// `playground chat` resumes.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".playground"

	// EnvHome names a directory to use instead of the discovered one.
	EnvHome = "PLAYGROUND_HOME"
)

// Manager resolves the state directory. The zero value is not usable; call
// NewManager.
type Manager struct {
	getwd   func() (string, error)
	homeDir func() (string, error)
	getenv  func(string) string
}

func NewManager() *Manager {
	return &Manager{
		getwd:   os.Getwd,
		homeDir: os.UserHomeDir,
		getenv:  os.Getenv,
	}
}

// Target returns the absolute state directory, creating it when missing.
// The first match wins:
//  1. overrideDir (the --config-dir flag)
//  2. $PLAYGROUND_HOME
//  3. the nearest .playground/ in the working directory or one of its parents
//  4. ~/.playground/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

// File returns the path of name inside the state directory.
func (m *Manager) File(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}
	if env := m.getenv(EnvHome); env != "" {
		return env, nil
	}
	if local, ok := m.findUp(); ok {
		return local, nil
	}

	home, err := m.homeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// findUp walks from the working directory to the filesystem root looking for
// a .playground directory.
func (m *Manager) findUp() (string, bool) {
	cwd, err := m.getwd()
	if err != nil {
		return "", false
	}

	for dir := cwd; ; {
		candidate := filepath.Join(dir, dirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
