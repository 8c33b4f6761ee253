// Package session holds the translator's single session state.
package session

import (
	"errors"
	"sync"

	"go.aimuz.me/omni/internal/types"
)

// ErrBusy is returned when an operation is already in progress.
var ErrBusy = errors.New("operation in progress")

// ErrInvalidSide is returned for a side other than source or target.
var ErrInvalidSide = errors.New("invalid side")

// PlaybackStopper stops speech playback.
type PlaybackStopper interface {
	Stop()
	StopSide(side types.Side) bool
}

type noopPlayback struct{}

func (noopPlayback) Stop()                    {}
func (noopPlayback) StopSide(types.Side) bool { return false }

// Store is the session state. All methods are safe for concurrent use.
// Listeners are called outside the lock.
type Store struct {
	playback PlaybackStopper

	mu       sync.Mutex
	state    types.SessionSnapshot
	listener func(types.SessionSnapshot)
	// held is a status owned by a long-running task outside operations.
	// EndOperation restores it.
	held string
}

// New creates a store with the given language pair.
func New(sourceLang, targetLang string, playback PlaybackStopper) *Store {
	if playback == nil {
		playback = noopPlayback{}
	}
	return &Store{
		playback: playback,
		state: types.SessionSnapshot{
			SourceLang: sourceLang,
			TargetLang: targetLang,
		},
	}
}

// OnChange registers fn to receive a snapshot after every mutation.
func (s *Store) OnChange(fn func(types.SessionSnapshot)) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

// Snapshot returns a copy of the state.
func (s *Store) Snapshot() types.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ─────────────────────────────────────────────────────────────────────────────
// Buffers
// ─────────────────────────────────────────────────────────────────────────────

// SetSourceText overwrites the source buffer.
func (s *Store) SetSourceText(text string) {
	s.update(func(st *types.SessionSnapshot) { st.SourceText = text })
}

// SetTargetText overwrites the target buffer.
func (s *Store) SetTargetText(text string) {
	s.update(func(st *types.SessionSnapshot) { st.TargetText = text })
}

// SetText overwrites the buffer for side.
func (s *Store) SetText(side types.Side, text string) error {
	switch side {
	case types.SideSource:
		s.SetSourceText(text)
	case types.SideTarget:
		s.SetTargetText(text)
	default:
		return ErrInvalidSide
	}
	return nil
}

// AppendText appends text to the buffer for side, separated by one space
// when the buffer is not empty.
func (s *Store) AppendText(side types.Side, text string) error {
	if !side.Valid() {
		return ErrInvalidSide
	}
	s.update(func(st *types.SessionSnapshot) {
		buf := &st.SourceText
		if side == types.SideTarget {
			buf = &st.TargetText
		}
		if *buf == "" {
			*buf = text
		} else {
			*buf += " " + text
		}
	})
	return nil
}

// Clear empties the buffer for side, stopping playback first when that
// side is being read aloud.
func (s *Store) Clear(side types.Side) error {
	if !side.Valid() {
		return ErrInvalidSide
	}
	s.playback.StopSide(side)
	return s.SetText(side, "")
}

// ─────────────────────────────────────────────────────────────────────────────
// Languages
// ─────────────────────────────────────────────────────────────────────────────

// SetLanguage changes the language of side and stops playback.
func (s *Store) SetLanguage(side types.Side, code string) error {
	switch side {
	case types.SideSource:
		s.update(func(st *types.SessionSnapshot) { st.SourceLang = code })
	case types.SideTarget:
		s.update(func(st *types.SessionSnapshot) { st.TargetLang = code })
	default:
		return ErrInvalidSide
	}
	s.playback.Stop()
	return nil
}

// Swap exchanges both languages and both buffers in one step, then stops
// playback. Swap is its own inverse.
func (s *Store) Swap() {
	s.update(func(st *types.SessionSnapshot) {
		st.SourceLang, st.TargetLang = st.TargetLang, st.SourceLang
		st.SourceText, st.TargetText = st.TargetText, st.SourceText
	})
	s.playback.Stop()
}

// ─────────────────────────────────────────────────────────────────────────────
// Operations
// ─────────────────────────────────────────────────────────────────────────────

// BeginOperation marks the store busy with status. It fails with ErrBusy
// if an operation is already running.
func (s *Store) BeginOperation(status string) error {
	s.mu.Lock()
	if s.state.Busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state.Busy = true
	s.state.Status = status
	snap, fn := s.state, s.listener
	s.mu.Unlock()

	notify(fn, snap)
	return nil
}

// EndOperation clears busy and restores the held status, if any.
func (s *Store) EndOperation() {
	s.update(func(st *types.SessionSnapshot) {
		st.Busy = false
		st.Status = s.held
	})
}

// HoldStatus sets a status that outlives operations started after it.
// It fails with ErrBusy while an operation is running.
func (s *Store) HoldStatus(status string) error {
	s.mu.Lock()
	if s.state.Busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.held = status
	s.state.Status = status
	snap, fn := s.state, s.listener
	s.mu.Unlock()

	notify(fn, snap)
	return nil
}

// Busy reports whether an operation is running.
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Busy
}

// SetStatus sets a transient status message.
func (s *Store) SetStatus(status string) {
	s.update(func(st *types.SessionSnapshot) { st.Status = status })
}

// ClearStatusIf clears the status only if it still equals status.
// A held status equal to status is released as well.
func (s *Store) ClearStatusIf(status string) {
	s.mu.Lock()
	if s.held == status {
		s.held = ""
	}
	if s.state.Status != status {
		s.mu.Unlock()
		return
	}
	s.state.Status = ""
	snap, fn := s.state, s.listener
	s.mu.Unlock()

	notify(fn, snap)
}

// ReplaceStatusIf sets the status to next only if it still equals status.
// A held status equal to status is replaced as well.
func (s *Store) ReplaceStatusIf(status, next string) {
	s.mu.Lock()
	if s.held == status {
		s.held = next
	}
	if s.state.Status != status {
		s.mu.Unlock()
		return
	}
	s.state.Status = next
	snap, fn := s.state, s.listener
	s.mu.Unlock()

	notify(fn, snap)
}

func (s *Store) update(mutate func(*types.SessionSnapshot)) {
	s.mu.Lock()
	mutate(&s.state)
	snap, fn := s.state, s.listener
	s.mu.Unlock()

	notify(fn, snap)
}

func notify(fn func(types.SessionSnapshot), snap types.SessionSnapshot) {
	if fn != nil {
		fn(snap)
	}
}
