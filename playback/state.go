// Package playback reads one text pane aloud at a time.
package playback

import "go.aimuz.me/omni/internal/types"

// Phase is the controller's playback phase.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseSpeaking Phase = "speaking"
	PhasePaused   Phase = "paused"
)

// State is the playback slot. Side is SideNone when idle.
type State struct {
	Phase Phase
	Side  types.Side
}

// Idle is the empty slot.
var Idle = State{Phase: PhaseIdle}

// Active reports whether an utterance is speaking or paused.
func (s State) Active() bool {
	return s.Phase == PhaseSpeaking || s.Phase == PhasePaused
}

// Public converts s to the published form.
func (s State) Public() types.PlaybackState {
	if !s.Active() {
		return types.PlaybackState{}
	}
	return types.PlaybackState{Side: s.Side, Paused: s.Phase == PhasePaused}
}

type action int

const (
	actSpeak  action = iota // start a new utterance, cancelling any current one
	actPause                // pause the current utterance
	actResume               // resume the current utterance
)

// toggle returns the next state and the engine action for a play request
// on side.
func toggle(current State, side types.Side) (State, action) {
	switch {
	case current.Phase == PhaseSpeaking && current.Side == side:
		return State{Phase: PhasePaused, Side: side}, actPause
	case current.Phase == PhasePaused && current.Side == side:
		return State{Phase: PhaseSpeaking, Side: side}, actResume
	default:
		return State{Phase: PhaseSpeaking, Side: side}, actSpeak
	}
}
