package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Session caches unlocked keys on disk so repeated commands skip the keychain
// prompt until `wallet lock`.
type Session struct {
	path string
}

// SessionPath returns the session file for a config directory. Each config
// directory keeps its own cache since wallet names are only unique within one.
func SessionPath(configDir string) string {
	return filepath.Join(configDir, "session.json")
}

// NewSession returns a session cache stored at path.
func NewSession(path string) *Session {
	return &Session{path: path}
}

// load returns an empty map (never nil) on any error.
func (s *Session) load() map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]string)
	}
	return m
}

func (s *Session) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	return os.Chmod(s.path, 0o600)
}

// Get returns a cached key for ref.
func (s *Session) Get(ref string) (string, bool) {
	v, ok := s.load()[ref]
	return v, ok
}

// Put caches a key for ref.
func (s *Session) Put(ref, hexKey string) error {
	m := s.load()
	m[ref] = normaliseHexKey(hexKey)
	return s.save(m)
}

// Remove evicts a single key.
func (s *Session) Remove(ref string) error {
	m := s.load()
	if _, ok := m[ref]; !ok {
		return nil
	}
	delete(m, ref)
	return s.save(m)
}

// Clear removes all cached keys.
func (s *Session) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Active reports whether any key is cached.
func (s *Session) Active() bool {
	return len(s.load()) > 0
}

// Unlocked reports whether the named wallet's key is cached.
func (s *Session) Unlocked(name string) bool {
	_, ok := s.Get(keyRef(name))
	return ok
}
