package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/editsync/editsync/internal/api"
	"github.com/editsync/editsync/internal/session"
	"github.com/editsync/editsync/pkg/logger"
)

// Remote is the slice of the backend API the auth manager depends on.
// *api.Client satisfies it.
type Remote interface {
	Login(ctx context.Context, email, password string) (api.AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (api.AuthResponse, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (api.User, error)
	UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (api.User, error)
	DeleteAccount(ctx context.Context) error
}

// Manager establishes and tears down the session credential. Identity is set
// once at login/registration and treated as immutable until the next login.
type Manager struct {
	remote Remote
	store  *session.Store
}

func NewManager(remote Remote, store *session.Store) *Manager {
	return &Manager{remote: remote, store: store}
}

func credentialsFrom(resp api.AuthResponse) session.Credentials {
	return session.Credentials{
		Token: resp.Token,
		User:  session.User{ID: resp.User.ID, Email: resp.User.Email, Name: resp.User.Name},
	}
}

func (m *Manager) Login(ctx context.Context, email, password string) (session.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return session.User{}, &api.ValidationError{Message: "email and password are required"}
	}
	resp, err := m.remote.Login(ctx, email, password)
	if err != nil {
		return session.User{}, err
	}
	creds := credentialsFrom(resp)
	if err := m.store.Set(creds); err != nil {
		return session.User{}, err
	}
	return creds.User, nil
}

func (m *Manager) Register(ctx context.Context, email, password, name string) (session.User, error) {
	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(name) == "" {
		return session.User{}, &api.ValidationError{Message: "email, password, and name are required"}
	}
	resp, err := m.remote.Register(ctx, email, password, name)
	if err != nil {
		return session.User{}, err
	}
	creds := credentialsFrom(resp)
	if err := m.store.Set(creds); err != nil {
		return session.User{}, err
	}
	return creds.User, nil
}

// Logout clears the local credential. The remote revocation is best effort:
// a dead backend must not keep the user signed in locally.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.remote.Logout(ctx); err != nil {
		logger.Warnf("remote logout failed, clearing local session anyway: %v", err)
	}
	return m.store.Clear()
}

// DeleteAccount removes the account remotely and then clears the session.
// Unlike Logout, a remote failure aborts: the account still exists.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	if err := m.remote.DeleteAccount(ctx); err != nil {
		return err
	}
	return m.store.Clear()
}

func (m *Manager) Profile(ctx context.Context) (api.User, error) {
	return m.remote.Profile(ctx)
}

func (m *Manager) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (api.User, error) {
	return m.remote.UpdateProfile(ctx, upd)
}

// OnInvalidation runs fn for every forced session invalidation (recognized
// 401 from the backend) until the returned cancel func is called.
func (m *Manager) OnInvalidation(fn func(session.Invalidation)) (cancel func()) {
	ch, unsub := m.store.Subscribe()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev := <-ch:
				fn(ev)
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			unsub()
			close(done)
		})
	}
}

// CurrentUser returns the cached identity, if signed in.
func (m *Manager) CurrentUser() (session.User, bool) {
	creds, ok := m.store.Current()
	if !ok {
		return session.User{}, false
	}
	return creds.User, true
}
