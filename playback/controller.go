package playback

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.aimuz.me/omni/internal/types"
	"go.aimuz.me/omni/lang"
	"go.aimuz.me/omni/tts"
)

// DefaultPollInterval is how often Run reconciles with the engine.
const DefaultPollInterval = 500 * time.Millisecond

// ErrInvalidSide is returned for a side other than source or target.
var ErrInvalidSide = errors.New("invalid side")

// Controller owns the single playback slot.
//
// The synthesizer must not invoke utterance callbacks synchronously from
// Speak.
type Controller struct {
	synth tts.Synthesizer
	rate  float64

	mu       sync.Mutex
	state    State
	gen      uint64
	voices   []tts.Voice
	listener func(types.PlaybackState)
}

// NewController creates a controller speaking at rate (1 is normal).
func NewController(synth tts.Synthesizer, rate float64) *Controller {
	if synth == nil {
		synth = tts.Noop{}
	}
	if rate <= 0 {
		rate = 1
	}
	c := &Controller{synth: synth, rate: rate, state: Idle}
	synth.OnVoicesChanged(c.refreshVoices)
	c.refreshVoices()
	return c
}

// OnChange registers fn to receive every published state change.
func (c *Controller) OnChange(fn func(types.PlaybackState)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// Snapshot returns the published state.
func (c *Controller) Snapshot() types.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Public()
}

// State returns the internal state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Toggle handles a play request for side. A request for the active side
// pauses or resumes; any other request starts speaking text in the language
// identified by code. Empty text is ignored.
func (c *Controller) Toggle(text, code string, side types.Side) error {
	if !side.Valid() {
		return ErrInvalidSide
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	next, act := toggle(c.state, side)
	switch act {
	case actPause:
		c.synth.Pause()
		c.state = next
	case actResume:
		c.synth.Resume()
		c.state = next
	case actSpeak:
		c.state = c.speakLocked(text, code, next)
	}
	c.mu.Unlock()

	c.publish()
	return nil
}

func (c *Controller) speakLocked(text, code string, next State) State {
	if c.state.Active() {
		c.synth.Cancel()
	}
	c.gen++
	gen := c.gen

	locale := lang.Locale(code)
	u := tts.Utterance{
		Text:  text,
		Lang:  locale,
		Voice: c.resolveVoiceLocked(locale, code),
		Rate:  c.rate,
		OnEnd: func() { c.finish(gen) },
		OnError: func(err error) {
			slog.Warn("speech synthesis", "side", next.Side, "error", err)
			c.finish(gen)
		},
	}
	if err := c.synth.Speak(u); err != nil {
		slog.Error("speak", "side", next.Side, "lang", locale, "error", err)
		return Idle
	}
	return next
}

// resolveVoiceLocked picks the voice whose tag equals locale, else one
// sharing the base language of code, else nil for the engine default.
func (c *Controller) resolveVoiceLocked(locale, code string) *tts.Voice {
	for i := range c.voices {
		if strings.EqualFold(lang.Normalize(c.voices[i].Lang), locale) {
			v := c.voices[i]
			return &v
		}
	}
	for i := range c.voices {
		if lang.SameBase(c.voices[i].Lang, code) {
			v := c.voices[i]
			return &v
		}
	}
	return nil
}

// finish handles the end of utterance gen.
func (c *Controller) finish(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.state.Active() {
		c.mu.Unlock()
		return
	}
	c.state = Idle
	c.mu.Unlock()

	c.publish()
}

// Stop cancels any utterance and returns to idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	changed := c.stopLocked()
	c.mu.Unlock()

	if changed {
		c.publish()
	}
}

// StopSide stops playback only if side is the active slot.
func (c *Controller) StopSide(side types.Side) bool {
	c.mu.Lock()
	if !c.state.Active() || c.state.Side != side {
		c.mu.Unlock()
		return false
	}
	c.stopLocked()
	c.mu.Unlock()

	c.publish()
	return true
}

func (c *Controller) stopLocked() bool {
	c.synth.Cancel()
	c.gen++
	if !c.state.Active() {
		return false
	}
	c.state = Idle
	return true
}

// Run reconciles the believed state with the engine every interval until
// ctx is done.
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.reconcile()
		}
	}
}

// reconcile forces idle when the engine stopped speaking without telling
// us. Paused utterances are left alone.
func (c *Controller) reconcile() {
	c.mu.Lock()
	if c.state.Phase != PhaseSpeaking || c.synth.Speaking() {
		c.mu.Unlock()
		return
	}
	slog.Debug("playback ended without callback", "side", c.state.Side)
	c.gen++
	c.state = Idle
	c.mu.Unlock()

	c.publish()
}

func (c *Controller) refreshVoices() {
	voices := c.synth.Voices()
	c.mu.Lock()
	c.voices = voices
	c.mu.Unlock()
}

func (c *Controller) publish() {
	c.mu.Lock()
	fn := c.listener
	s := c.state.Public()
	c.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}
