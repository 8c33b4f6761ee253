package playback

import (
	"errors"
	"sync"

	"go.aimuz.me/omni/tts"
)

// fakeSynth records engine calls. Utterance callbacks fire only when the
// test calls end or fail.
type fakeSynth struct {
	mu        sync.Mutex
	spoken    []tts.Utterance
	pauses    int
	resumes   int
	cancels   int
	speaking  bool
	speakErr  error
	voices    []tts.Voice
	listeners []func()
}

func (f *fakeSynth) Speak(u tts.Utterance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.speakErr != nil {
		return f.speakErr
	}
	f.spoken = append(f.spoken, u)
	f.speaking = true
	return nil
}

func (f *fakeSynth) Pause() {
	f.mu.Lock()
	f.pauses++
	f.mu.Unlock()
}

func (f *fakeSynth) Resume() {
	f.mu.Lock()
	f.resumes++
	f.mu.Unlock()
}

func (f *fakeSynth) Cancel() {
	f.mu.Lock()
	f.cancels++
	f.speaking = false
	f.mu.Unlock()
}

func (f *fakeSynth) Speaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speaking
}

func (f *fakeSynth) Voices() []tts.Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tts.Voice(nil), f.voices...)
}

func (f *fakeSynth) OnVoicesChanged(fn func()) {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

func (f *fakeSynth) setVoices(v []tts.Voice) {
	f.mu.Lock()
	f.voices = v
	listeners := append([]func(){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (f *fakeSynth) speakCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.spoken)
}

func (f *fakeSynth) last() tts.Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spoken[len(f.spoken)-1]
}

// end finishes utterance i naturally.
func (f *fakeSynth) end(i int) {
	f.mu.Lock()
	u := f.spoken[i]
	if i == len(f.spoken)-1 {
		f.speaking = false
	}
	f.mu.Unlock()
	u.OnEnd()
}

// fail reports an engine error for utterance i.
func (f *fakeSynth) fail(i int) {
	f.mu.Lock()
	u := f.spoken[i]
	f.speaking = false
	f.mu.Unlock()
	u.OnError(errors.New("engine error"))
}
