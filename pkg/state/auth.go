package state

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"fitpro/pkg/fitclient"
)

// AuthSnapshot is a point-in-time copy of the session state.
type AuthSnapshot struct {
	Token           string
	User            json.RawMessage
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// AuthStore owns the session: token, opaque user payload, and the
// authenticated flag, persisted through TokenStorage so a new process
// starts where the last one left off.
type AuthStore struct {
	mu      sync.Mutex
	client  *fitclient.Client
	storage TokenStorage

	token         string
	user          json.RawMessage
	authenticated bool
	login         opStatus
}

// NewAuthStore builds the store and hydrates it from storage. A nil or
// empty storage yields an anonymous session.
func NewAuthStore(client *fitclient.Client, storage TokenStorage) *AuthStore {
	s := &AuthStore{client: client, storage: storage}
	if storage != nil {
		if token, ok := storage.Get(storageKeyToken); ok {
			s.token = token
		}
		if flag, ok := storage.Get(storageKeyAuthenticated); ok && flag == "true" {
			s.authenticated = true
		}
	}
	return s
}

// Token returns the current bearer token, empty when anonymous.
func (s *AuthStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Snapshot returns a copy of the session state.
func (s *AuthStore) Snapshot() AuthSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AuthSnapshot{
		Token:           s.token,
		User:            s.user,
		IsAuthenticated: s.authenticated,
		IsLoading:       s.login.running,
		Error:           s.login.errMsg,
	}
}

// Login exchanges credentials for a token, stores it in memory, and
// persists it so the next process start can hydrate without a network
// call.
func (s *AuthStore) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	s.login.begin()
	s.mu.Unlock()

	resp, err := s.client.Login(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.login.fail(errorMessage(err))
		return err
	}
	s.token = resp.Token
	s.user = resp.User
	s.authenticated = true
	s.login.succeed()
	s.persistLocked()
	return nil
}

// Logout clears the session. It is local-only: no network call is made,
// and the operation is modeled async only for symmetry with login.
func (s *AuthStore) Logout(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.login.begin()
	s.clearLocked()
	s.login.succeed()
	return nil
}

// SetToken installs a token obtained out of band (e.g. from a redirect
// flow) and marks the session authenticated.
func (s *AuthStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.authenticated = true
	s.persistLocked()
}

// ClearAuth drops the session without the logout lifecycle flags.
func (s *AuthStore) ClearAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// ClearError resets the login error.
func (s *AuthStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.login.errMsg = ""
}

func (s *AuthStore) persistLocked() {
	if s.storage == nil {
		return
	}
	if err := s.storage.Set(storageKeyToken, s.token); err != nil {
		slog.Warn("persist token failed", "err", err)
	}
	if err := s.storage.Set(storageKeyAuthenticated, "true"); err != nil {
		slog.Warn("persist auth flag failed", "err", err)
	}
}

func (s *AuthStore) clearLocked() {
	s.token = ""
	s.user = nil
	s.authenticated = false
	if s.storage == nil {
		return
	}
	if err := s.storage.Delete(storageKeyToken); err != nil {
		slog.Warn("remove token failed", "err", err)
	}
	if err := s.storage.Delete(storageKeyAuthenticated); err != nil {
		slog.Warn("remove auth flag failed", "err", err)
	}
}
