// Package session persists the small pieces of client state that must survive
// process restarts: the bearer token and the set of notification ids the
// viewer has already read. Everything else the client holds is a backend
// snapshot.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const (
	// TokenKey is the fixed storage key for the bearer token.
	TokenKey = "access_token"
	// ReadIDsKey is the fixed storage key for the notification read-id set.
	ReadIDsKey = "notifications_read"
)

// Store is a file-backed key store rooted at the client data directory.
type Store struct {
	mu  sync.Mutex
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "creating session store directory")
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key)
}

// Token returns the stored bearer token, or empty when the viewer has no
// session.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path(TokenKey))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(TokenKey), []byte(token), 0o600); err != nil {
		return errors.Wrap(err, "writing token")
	}
	return nil
}

// ClearToken removes the stored token. Missing tokens are not an error so the
// 401 path stays idempotent.
func (s *Store) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(TokenKey)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "clearing token")
	}
	return nil
}

// ReadIDs returns the persisted notification read-id set. Corrupt or missing
// state degrades to an empty set rather than failing.
func (s *Store) ReadIDs() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]struct{})
	data, err := os.ReadFile(s.path(ReadIDsKey))
	if err != nil {
		return ids
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return ids
	}
	for _, id := range list {
		ids[id] = struct{}{}
	}
	return ids
}

// MarkRead adds ids to the persisted read set.
func (s *Store) MarkRead(ids ...string) error {
	set := s.ReadIDs()
	for _, id := range ids {
		set[id] = struct{}{}
	}

	list := make([]string, 0, len(set))
	for id := range set {
		list = append(list, id)
	}
	sort.Strings(list)

	data, err := json.Marshal(list)
	if err != nil {
		return errors.Wrap(err, "encoding read ids")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(ReadIDsKey), data, 0o600); err != nil {
		return errors.Wrap(err, "writing read ids")
	}
	return nil
}
