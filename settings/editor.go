package settings

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionClosed is returned when a committed or discarded session is used
var ErrSessionClosed = errors.New("settings edit session is closed")

// Editor opens editing sessions over a Store
type Editor struct {
	store *Store
}

// NewEditor creates an editor
func NewEditor(store *Store) *Editor {
	return &Editor{store: store}
}

// Open loads the current settings afresh and starts a session on a
// private copy. Nothing is cached between sessions.
func (e *Editor) Open(ctx context.Context) *EditSession {
	return &EditSession{
		store: e.store,
		draft: e.store.Load(ctx),
	}
}

// EditSession is one open settings dialog. Edits stay in the draft until
// Commit succeeds.
type EditSession struct {
	mu     sync.Mutex
	store  *Store
	draft  Settings
	closed bool
}

// Draft returns the current draft
func (s *EditSession) Draft() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Set changes one field of the draft
func (s *EditSession) Set(f Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	next, err := s.draft.With(f, value)
	if err != nil {
		return err
	}
	s.draft = next
	return nil
}

// Replace swaps the whole draft, as when a form is read back in one go
func (s *EditSession) Replace(v Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.draft = v
	return nil
}

// Commit saves the draft. On failure the session stays open with the
// draft untouched so the caller can retry.
func (s *EditSession) Commit(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	draft := s.draft
	s.mu.Unlock()

	if err := s.store.Save(ctx, draft); err != nil {
		return err
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Discard closes the session without saving
func (s *EditSession) Discard() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether the session was committed or discarded
func (s *EditSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
