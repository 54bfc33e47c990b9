// Package prefs persists non-sensitive user preferences (generated password
// length and UI theme) as a small JSON document. Saves merge into whatever
// the file already holds, so unknown keys written by older versions survive.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	DefaultPasswordLength = 20
	DefaultTheme          = "cyborg"

	// MinPasswordLength is the floor for generated passwords: one
	// character from each of the four classes.
	MinPasswordLength = 4
)

const (
	keyPasswordLength = "pw_length"
	keyTheme          = "theme"
)

// Preferences is the runtime view of the stored document.
type Preferences struct {
	PasswordLength int
	Theme          string
}

// FileStore reads and writes the preference document at a fixed path.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// NormalizeLength clamps a requested password length to the supported
// range: lengths below the minimum become the minimum, odd lengths are
// rounded up so the four character classes divide evenly.
func NormalizeLength(length int) int {
	if length < MinPasswordLength {
		length = MinPasswordLength
	}
	if length%2 != 0 {
		length++
	}
	return length
}

// Load returns the stored preferences. A missing or unreadable file yields
// the defaults; this is not an error condition.
func (s *FileStore) Load() Preferences {
	p := Preferences{PasswordLength: DefaultPasswordLength, Theme: DefaultTheme}

	doc, err := s.read()
	if err != nil {
		return p
	}

	if raw, ok := doc[keyPasswordLength]; ok {
		var length int
		if json.Unmarshal(raw, &length) == nil {
			p.PasswordLength = NormalizeLength(length)
		}
	}
	if raw, ok := doc[keyTheme]; ok {
		var theme string
		if json.Unmarshal(raw, &theme) == nil && theme != "" {
			p.Theme = theme
		}
	}
	return p
}

// SavePasswordLength normalizes and persists the generated-password length.
func (s *FileStore) SavePasswordLength(length int) error {
	return s.merge(keyPasswordLength, NormalizeLength(length))
}

// SaveTheme persists the UI theme name.
func (s *FileStore) SaveTheme(theme string) error {
	return s.merge(keyTheme, theme)
}

// Delete removes the preference file. Absence is not an error.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) merge(key string, value any) error {
	doc, err := s.read()
	if err != nil {
		// start over from an empty document on first save or corruption
		doc = map[string]json.RawMessage{}
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode preference %q: %w", key, err)
	}
	doc[key] = raw

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
