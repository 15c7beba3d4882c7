package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	activeFile = "active.json"
)

// ActiveConversation is the conversation `playground chat` resumes when no
// conversation is named on the command line.
type ActiveConversation struct {
	// ID is the chatbot conversation ID.
	ID string `json:"id"`

	// Title is the last known title, for display only.
	Title string `json:"title"`

	// UserID is the user the conversation belongs to. A conversation saved
	// for another user is not resumed.
	UserID string `json:"user_id"`
}

// LoadActive loads the active conversation from a target .playground/active.json.
// Returns nil, nil if no conversation is active.
// If overrideDir is non-empty, it is used instead of the default location.
func (m *Manager) LoadActive(overrideDir string) (*ActiveConversation, error) {
	path, err := m.File(overrideDir, activeFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active conversation: %w", err)
	}

	state := &ActiveConversation{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing active conversation: %w", err)
	}

	return state, nil
}

// SaveActive persists the active conversation to a target .playground/active.json.
func (m *Manager) SaveActive(state *ActiveConversation, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil active conversation")
	}

	path, err := m.File(overrideDir, activeFile)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling active conversation: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing active conversation: %w", err)
	}

	return nil
}

// ClearActive removes the active conversation file so the next chat starts
// a new conversation. Returns nil if the file doesn't exist.
func (m *Manager) ClearActive(overrideDir string) error {
	path, err := m.File(overrideDir, activeFile)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing active conversation: %w", err)
	}

	return nil
}
