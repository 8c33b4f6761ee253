// Package tts provides text-to-speech over the platform speech engine.
package tts

import "errors"

// ErrUnsupported is returned when the platform has no usable speech engine.
var ErrUnsupported = errors.New("speech synthesis unsupported")

// Voice is one installed synthesis voice.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Lang string `json:"lang"` // BCP 47 tag, e.g. "en-US"
}

// Utterance is a single piece of text to speak.
type Utterance struct {
	Text  string
	Lang  string // BCP 47 tag
	Voice *Voice // nil selects the engine default for Lang
	Rate  float64

	// OnEnd fires when speech finishes naturally.
	OnEnd func()
	// OnError fires when the engine fails mid-utterance.
	OnError func(err error)
}

// Synthesizer speaks one utterance at a time.
// Cancel never fires the cancelled utterance's callbacks.
type Synthesizer interface {
	Speak(u Utterance) error
	Pause()
	Resume()
	Cancel()
	// Speaking reports whether an utterance is in progress, paused or not.
	Speaking() bool
	Voices() []Voice
	// OnVoicesChanged registers fn to run whenever the voice catalog changes.
	OnVoicesChanged(fn func())
}

// Noop is a Synthesizer for platforms without a speech engine.
type Noop struct{}

func (Noop) Speak(Utterance) error  { return ErrUnsupported }
func (Noop) Pause()                 {}
func (Noop) Resume()                {}
func (Noop) Cancel()                {}
func (Noop) Speaking() bool         { return false }
func (Noop) Voices() []Voice        { return nil }
func (Noop) OnVoicesChanged(func()) {}
