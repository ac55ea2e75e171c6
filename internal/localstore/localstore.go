// Package localstore is the client-side cache: a typed, versioned replacement
// for the browser localStorage blobs the product relies on. Values are
// best-effort, never authoritative; anything unreadable is discarded rather
// than surfaced.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Version of the on-disk envelope. Bump on schema changes: a mismatch
// discards the cached value instead of decoding stale shapes into new types.
const Version = 1

// Well-known cache keys
const (
	KeyUser         = "user"
	KeyTransactions = "wallet_transactions"
	KeyRedirect     = "redirectAfterLogin"
)

type envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
	Value   json.RawMessage `json:"value"`
}

// Store persists one JSON document per key under a directory.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("can't create cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes value under key, wrapped in the versioned envelope.
func Save[T any](s *Store, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("can't encode %q: %w", key, err)
	}

	env, err := json.Marshal(envelope{
		Version: Version,
		SavedAt: time.Now().UTC(),
		Value:   raw,
	})
	if err != nil {
		return fmt.Errorf("can't encode envelope for %q: %w", key, err)
	}

	return os.WriteFile(s.path(key), env, 0o600)
}

// Load reads the value saved under key. The second return is false when the
// key is absent, the envelope version does not match, or the content does not
// decode — a cache miss in all three cases, never an error.
func Load[T any](s *Store, key string) (T, bool) {
	var value T

	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		return value, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version != Version {
		return value, false
	}
	if err := json.Unmarshal(env.Value, &value); err != nil {
		return value, false
	}
	return value, true
}

// Delete removes a key. Missing keys are fine.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
