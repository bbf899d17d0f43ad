// Package session persists who is signed in and runs the login, register and sign-out flows.
//
// State lives in a [Storage] under two keys, [KeyLoggedIn] and [KeyUserName]. There is no expiry;
// only [Store.SignOut] clears it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snipx/internal/models"
	"github.com/desertthunder/snipx/internal/services"
	"github.com/desertthunder/snipx/internal/shared"
)

const (
	KeyLoggedIn = "isLoggedIn"
	KeyUserName = "userName"
)

const (
	msgLoginOK          = "Login successful"
	msgLoginFailed      = "Login failed: invalid credentials"
	msgRegisterOK       = "Registration successful. Please login."
	msgRegisterDefault  = "Registration failed! Please enter both name and password"
	msgSignedOut        = "Signed out successfully"
	msgSignedOutForUser = "%s signed out successfully"
)

// Storage is a string key/value store.
type Storage interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Authenticator is the subset of [services.SnippetAPI] the session needs.
type Authenticator interface {
	Login(ctx context.Context, creds services.Credentials) error
	Register(ctx context.Context, creds services.Credentials) error
}

// Store reads and writes the persisted session.
type Store struct {
	storage Storage
	auth    Authenticator
	logger  *log.Logger
}

// NewStore creates a Store. A nil logger discards output.
func NewStore(storage Storage, auth Authenticator, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{storage: storage, auth: auth, logger: logger}
}

// Session loads the persisted state. Storage errors yield a signed-out session.
func (s *Store) Session() models.Session {
	loggedIn, _, err := s.storage.GetItem(KeyLoggedIn)
	if err != nil {
		s.logger.Warn("failed to read session", "key", KeyLoggedIn, "error", err)
		return models.Session{}
	}
	name, _, err := s.storage.GetItem(KeyUserName)
	if err != nil {
		s.logger.Warn("failed to read session", "key", KeyUserName, "error", err)
		return models.Session{}
	}
	return models.Session{IsLoggedIn: loggedIn == "true", UserName: name}
}

// Login checks credentials with the server and persists the session on success.
//
// The returned message is the user-facing alert for either outcome.
func (s *Store) Login(ctx context.Context, name, password string) (string, error) {
	name = strings.TrimSpace(name)
	if err := s.auth.Login(ctx, services.Credentials{Name: name, Password: password}); err != nil {
		s.logger.Debug("login rejected", "user", name, "error", err)
		return msgLoginFailed, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if err := s.storage.SetItem(KeyLoggedIn, "true"); err != nil {
		return msgLoginFailed, err
	}
	if err := s.storage.SetItem(KeyUserName, name); err != nil {
		return msgLoginFailed, err
	}

	s.logger.Info("logged in", "user", name)
	return msgLoginOK, nil
}

// Register creates an account. It does not log the user in.
func (s *Store) Register(ctx context.Context, name, password string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return msgRegisterDefault, fmt.Errorf("%w: name and password are required", shared.ErrMissingArgument)
	}

	if err := s.auth.Register(ctx, services.Credentials{Name: name, Password: password}); err != nil {
		msg := msgRegisterDefault
		if serverMsg := services.ServerMessage(err); serverMsg != "" {
			msg = "Registration failed: " + serverMsg
		}
		return msg, fmt.Errorf("%w: %w", shared.ErrRegisterFailed, err)
	}

	s.logger.Info("registered", "user", name)
	return msgRegisterOK, nil
}

// SignOut removes both session keys and returns a confirmation naming the last-known user.
//
// The confirmation is returned even when storage fails; the error reports what could not be removed.
func (s *Store) SignOut() (string, error) {
	name, _, err := s.storage.GetItem(KeyUserName)
	if err != nil {
		s.logger.Warn("failed to read user name before sign-out", "error", err)
	}

	errs := []error{
		s.storage.RemoveItem(KeyLoggedIn),
		s.storage.RemoveItem(KeyUserName),
	}

	msg := msgSignedOut
	if name != "" {
		msg = fmt.Sprintf(msgSignedOutForUser, name)
	}
	return msg, errors.Join(errs...)
}

// MemoryStorage is an in-process [Storage].
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
