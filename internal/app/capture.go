package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.aimuz.me/omni/internal/session"
	"go.aimuz.me/omni/internal/types"
	"go.aimuz.me/omni/lang"
	"go.aimuz.me/omni/stt"
)

// ErrNoRecognizer is returned when speech recognition is unavailable.
var ErrNoRecognizer = errors.New("no speech recognizer")

// CaptureAdapter runs one speech capture at a time and appends the
// transcript to the session. Callbacks from superseded sessions are ignored.
type CaptureAdapter struct {
	recognizer stt.Recognizer
	store      *session.Store

	mu     sync.Mutex
	active stt.Recognition
	side   types.Side
	status string
	gen    uint64
}

// NewCaptureAdapter creates an adapter writing into store.
func NewCaptureAdapter(recognizer stt.Recognizer, store *session.Store) *CaptureAdapter {
	return &CaptureAdapter{recognizer: recognizer, store: store}
}

// Start aborts any capture in flight and listens for one utterance in the
// language identified by code, appending the result to side.
func (ca *CaptureAdapter) Start(ctx context.Context, code string, side types.Side) error {
	if !side.Valid() {
		return session.ErrInvalidSide
	}
	if ca.recognizer == nil || !ca.recognizer.Available() {
		return ErrNoRecognizer
	}

	if ca.store.Busy() {
		return session.ErrBusy
	}
	ca.Stop()

	locale := lang.Locale(code)
	status := fmt.Sprintf("Listening (%s)...", locale)

	ca.mu.Lock()
	ca.gen++
	gen := ca.gen
	ca.side = side
	ca.status = status
	ca.mu.Unlock()

	// Fails while an operation is running; the busy check and the status
	// change happen under one lock.
	if err := ca.store.HoldStatus(status); err != nil {
		ca.end(gen)
		return err
	}

	rec, err := ca.recognizer.Start(ctx, stt.Request{
		Locale:          locale,
		Interim:         false,
		MaxAlternatives: 1,
	}, ca.handler(gen, side, status))
	if err != nil {
		ca.end(gen)
		ca.store.ClearStatusIf(status)
		if errors.Is(err, stt.ErrUnavailable) {
			return ErrNoRecognizer
		}
		return fmt.Errorf("start recognition: %w", err)
	}

	ca.mu.Lock()
	superseded := ca.gen != gen
	if !superseded {
		ca.active = rec
	}
	ca.mu.Unlock()

	if superseded {
		rec.Abort()
		return nil
	}

	slog.Info("capture started", "locale", locale, "side", side)
	return nil
}

func (ca *CaptureAdapter) handler(gen uint64, side types.Side, status string) stt.Handler {
	var failed atomic.Bool
	return stt.Handler{
		OnResult: func(text string) {
			if !ca.current(gen) {
				return
			}
			if err := ca.store.AppendText(side, text); err != nil {
				slog.Error("append transcript", "error", err)
			}
			ca.store.ClearStatusIf(status)
		},
		OnError: func(err error) {
			if !ca.current(gen) {
				return
			}
			slog.Warn("speech recognition", "side", side, "error", err)
			failed.Store(true)
			ca.store.ReplaceStatusIf(status, StatusListenError)
		},
		OnEnd: func() {
			if !ca.end(gen) {
				return
			}
			ca.store.ClearStatusIf(status)
			if failed.Load() {
				ca.store.ClearStatusIf(StatusListenError)
			}
		},
	}
}

func (ca *CaptureAdapter) current(gen uint64) bool {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	return ca.gen == gen
}

// end retires session gen. It reports false if gen was already superseded.
func (ca *CaptureAdapter) end(gen uint64) bool {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	if ca.gen != gen {
		return false
	}
	ca.gen++
	ca.active = nil
	ca.side = types.SideNone
	return true
}

// Stop aborts the capture in flight, if any.
func (ca *CaptureAdapter) Stop() {
	ca.stopIf(func(types.Side) bool { return true })
}

// AbortIf aborts the capture in flight only if it writes into side.
func (ca *CaptureAdapter) AbortIf(side types.Side) bool {
	return ca.stopIf(func(s types.Side) bool { return s == side })
}

func (ca *CaptureAdapter) stopIf(match func(types.Side) bool) bool {
	ca.mu.Lock()
	if ca.side == types.SideNone || !match(ca.side) {
		ca.mu.Unlock()
		return false
	}
	rec, status := ca.active, ca.status
	ca.gen++
	ca.active = nil
	ca.side = types.SideNone
	ca.mu.Unlock()

	// Abort may call OnEnd synchronously; the lock must be released.
	// A nil rec is a session still starting; Start aborts it.
	if rec != nil {
		rec.Abort()
	}
	ca.store.ClearStatusIf(status)
	slog.Info("capture aborted")
	return true
}

// Side returns the side being captured, or SideNone.
func (ca *CaptureAdapter) Side() types.Side {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	return ca.side
}
