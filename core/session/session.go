// Package session holds the single source of truth for "is a user logged in, and who".
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
)

// persisted keys
const (
	TokenKey = "schoolManagementAuthToken"
	UserKey  = "user"
)

var ErrNotFound = errors.New("session: key not found")

// Storage is the durable key/value storage a Store persists to.
// Get must return ErrNotFound for missing keys.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Session is the client-held proof of authentication.
type Session struct {
	Token string
	User  user.Profile
}

// Store owns the Session. It is either active with a complete user profile, or absent.
type Store struct {
	storage Storage
	logger  core.Logger

	mu       sync.RWMutex
	current  *Session
	restored bool
}

func NewStore(storage Storage, logger core.Logger) *Store {
	return &Store{storage: storage, logger: logger}
}

// Restore reads the persisted token and user profile.
// The session is active only if both are present and valid; a partial pair is cleared.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restored = true
	s.current = nil

	token, tErr := s.storage.Get(ctx, TokenKey)
	rawUser, uErr := s.storage.Get(ctx, UserKey)
	for _, err := range []error{tErr, uErr} {
		if err != nil && !errors.Is(err, ErrNotFound) {
			return errors.Wrap(err, "reading session")
		}
	}

	var usr user.Profile
	if tErr == nil && uErr == nil && token != "" {
		if err := json.Unmarshal([]byte(rawUser), &usr); err != nil {
			s.logger.Warn("discarding undecodable session user", err)
		} else if usr.Complete() {
			s.current = &Session{Token: token, User: usr}
			return nil
		}
	}

	// partial or invalid pair: absent
	if tErr == nil || uErr == nil {
		if err := s.storage.Delete(ctx, TokenKey, UserKey); err != nil {
			s.logger.Warn("clearing partial session", err)
		}
	}
	return nil
}

// Login persists the session and marks it active.
func (s *Store) Login(ctx context.Context, token string, usr user.Profile) error {
	if token == "" || !usr.Complete() {
		return errors.New("session: incomplete login")
	}
	rawUser, err := json.Marshal(usr)
	if err != nil {
		return errors.Wrap(err, "encoding session user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.storage.Set(ctx, UserKey, string(rawUser)); err != nil {
		return errors.Wrap(err, "persisting session user")
	}
	if err = s.storage.Set(ctx, TokenKey, token); err != nil {
		_ = s.storage.Delete(ctx, UserKey)
		return errors.Wrap(err, "persisting session token")
	}
	s.current = &Session{Token: token, User: usr}
	s.restored = true
	return nil
}

// Logout clears the persisted session and marks it absent.
// The transition is unconditional: storage failures are logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if err := s.storage.Delete(ctx, TokenKey, UserKey); err != nil {
		s.logger.Error("clearing session", err)
	}
}

// ReplaceUser replaces the session user wholesale, after a profile update.
func (s *Store) ReplaceUser(ctx context.Context, usr user.Profile) error {
	if !usr.Complete() {
		return errors.New("session: incomplete user")
	}
	rawUser, err := json.Marshal(usr)
	if err != nil {
		return errors.Wrap(err, "encoding session user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return errors.New("session: not logged in")
	}
	if err = s.storage.Set(ctx, UserKey, string(rawUser)); err != nil {
		return errors.Wrap(err, "persisting session user")
	}
	s.current = &Session{Token: s.current.Token, User: usr}
	return nil
}

// Restored reports whether Restore (or Login) completed; the Gate waits for it.
func (s *Store) Restored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restored
}

func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Current returns a copy of the session, if active.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

func (s *Store) User() (user.Profile, bool) {
	sess, ok := s.Current()
	return sess.User, ok
}

// Token returns the session token, or "" when there is no session.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Provider hands out a Storage per namespace, e.g. one per console browser session.
type Provider interface {
	Scope(namespace string) Storage
}
