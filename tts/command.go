//go:build !windows

package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// baseWordsPerMinute is the speaking rate used for Rate == 1.
const baseWordsPerMinute = 175

const voiceListTimeout = 10 * time.Second

type flavor int

const (
	flavorSay flavor = iota
	flavorEspeak
)

// CommandEngine speaks through the platform speech command:
// `say` on macOS, `espeak-ng` elsewhere.
type CommandEngine struct {
	bin    string
	flavor flavor

	mu        sync.Mutex
	cmd       *exec.Cmd
	gen       uint64
	voices    []Voice
	listeners []func()
	loadOnce  sync.Once
}

// NewCommandEngine locates the platform speech command.
func NewCommandEngine() (*CommandEngine, error) {
	name, f := "espeak-ng", flavorEspeak
	if runtime.GOOS == "darwin" {
		name, f = "say", flavorSay
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrUnsupported, name)
	}
	e := newCommandEngine(bin, f)
	go e.loadVoices()
	return e, nil
}

func newCommandEngine(bin string, f flavor) *CommandEngine {
	return &CommandEngine{bin: bin, flavor: f}
}

// Speak cancels any current utterance and starts u.
func (e *CommandEngine) Speak(u Utterance) error {
	cmd := exec.Command(e.bin, e.args(u)...)
	cmd.Stdin = strings.NewReader(u.Text)

	e.mu.Lock()
	e.stopLocked()
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("start %s: %w", e.bin, err)
	}
	e.gen++
	gen := e.gen
	e.cmd = cmd
	e.mu.Unlock()

	go e.wait(cmd, gen, u)
	return nil
}

func (e *CommandEngine) wait(cmd *exec.Cmd, gen uint64, u Utterance) {
	err := cmd.Wait()

	e.mu.Lock()
	current := e.gen == gen
	if current {
		e.cmd = nil
	}
	e.mu.Unlock()

	if !current {
		return
	}
	if err != nil {
		if u.OnError != nil {
			u.OnError(fmt.Errorf("%s: %w", e.bin, err))
		}
		return
	}
	if u.OnEnd != nil {
		u.OnEnd()
	}
}

func (e *CommandEngine) args(u Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	wpm := strconv.Itoa(int(rate * baseWordsPerMinute))

	switch e.flavor {
	case flavorSay:
		var args []string
		if u.Voice != nil {
			args = append(args, "-v", u.Voice.ID)
		}
		return append(args, "-r", wpm)
	default:
		voice := ""
		if u.Voice != nil {
			voice = u.Voice.ID
		} else if u.Lang != "" {
			voice = strings.ToLower(u.Lang)
		}
		args := []string{"--stdin", "-s", wpm}
		if voice != "" {
			args = append(args, "-v", voice)
		}
		return args
	}
}

// Pause suspends the speech process.
func (e *CommandEngine) Pause() {
	e.signal(syscall.SIGSTOP)
}

// Resume continues a paused speech process.
func (e *CommandEngine) Resume() {
	e.signal(syscall.SIGCONT)
}

func (e *CommandEngine) signal(sig syscall.Signal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd == nil || e.cmd.Process == nil {
		return
	}
	if err := e.cmd.Process.Signal(sig); err != nil {
		slog.Debug("signal speech process", "signal", sig, "error", err)
	}
}

// Cancel stops the current utterance without firing its callbacks.
func (e *CommandEngine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *CommandEngine) stopLocked() {
	if e.cmd == nil {
		return
	}
	// Bumping gen orphans the wait goroutine's callbacks.
	e.gen++
	if p := e.cmd.Process; p != nil {
		_ = p.Kill()
	}
	e.cmd = nil
}

// Speaking reports whether a speech process is alive.
func (e *CommandEngine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cmd != nil
}

// Voices returns the installed voices. The list is empty until loaded.
func (e *CommandEngine) Voices() []Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Voice, len(e.voices))
	copy(out, e.voices)
	return out
}

// OnVoicesChanged registers fn to run after the catalog loads.
func (e *CommandEngine) OnVoicesChanged(fn func()) {
	e.mu.Lock()
	e.listeners = append(e.listeners, fn)
	e.mu.Unlock()
}

func (e *CommandEngine) loadVoices() {
	e.loadOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), voiceListTimeout)
		defer cancel()

		var (
			out []byte
			err error
		)
		switch e.flavor {
		case flavorSay:
			out, err = exec.CommandContext(ctx, e.bin, "-v", "?").Output()
		default:
			out, err = exec.CommandContext(ctx, e.bin, "--voices").Output()
		}
		if err != nil {
			slog.Warn("list voices", "bin", e.bin, "error", err)
			return
		}

		var voices []Voice
		if e.flavor == flavorSay {
			voices = parseSayVoices(string(out))
		} else {
			voices = parseEspeakVoices(string(out))
		}

		e.mu.Lock()
		e.voices = voices
		listeners := make([]func(), len(e.listeners))
		copy(listeners, e.listeners)
		e.mu.Unlock()

		slog.Info("voices loaded", "count", len(voices))
		for _, fn := range listeners {
			fn()
		}
	})
}
