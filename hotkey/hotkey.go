// Package hotkey registers the application's global keyboard shortcuts.
package hotkey

import (
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"
)

// Binding is one global shortcut.
type Binding struct {
	Name string
	Keys []string // key first, then modifiers, e.g. {"t", "ctrl", "shift"}
	Fn   func()
}

// Manager owns the global keyboard hook. Only one Manager may run at a time.
type Manager struct {
	bindings []Binding

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewManager creates a manager for the given bindings.
func NewManager(bindings ...Binding) *Manager {
	return &Manager{bindings: bindings}
}

// Default returns the shortcuts: Ctrl+Shift+T shows the window and
// Ctrl+Shift+X stops playback and capture.
func Default(show, stop func()) []Binding {
	return []Binding{
		{Name: "show", Keys: []string{"t", "ctrl", "shift"}, Fn: show},
		{Name: "stop", Keys: []string{"x", "ctrl", "shift"}, Fn: stop},
	}
}

// Start installs the hook. Calling Start while running is a no-op.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	for _, b := range m.bindings {
		fn, name := b.Fn, b.Name
		hook.Register(hook.KeyDown, b.Keys, func(hook.Event) {
			slog.Debug("hotkey pressed", "name", name)
			if fn != nil {
				go fn()
			}
		})
	}

	events := hook.Start()
	m.done = make(chan struct{})
	m.running = true

	go func(done chan struct{}) {
		<-hook.Process(events)
		close(done)
	}(m.done)

	slog.Info("hotkeys registered", "count", len(m.bindings))
	return nil
}

// Stop removes the hook. Calling Stop when not running is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	hook.End()
	<-m.done
	m.running = false
	slog.Info("hotkeys stopped")
}

// Running reports whether the hook is installed.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
