//go:build !windows

package tts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speak")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestCommandEngine_NaturalEnd(t *testing.T) {
	e := newCommandEngine(writeScript(t, "cat >/dev/null"), flavorEspeak)

	ended := make(chan struct{})
	require.NoError(t, e.Speak(Utterance{Text: "hello", OnEnd: func() { close(ended) }}))

	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		t.Fatal("OnEnd not called")
	}
	require.Eventually(t, func() bool { return !e.Speaking() }, time.Second, 10*time.Millisecond)
}

func TestCommandEngine_FailureCallsOnError(t *testing.T) {
	e := newCommandEngine(writeScript(t, "exit 3"), flavorEspeak)

	errs := make(chan error, 1)
	require.NoError(t, e.Speak(Utterance{
		Text:    "hello",
		OnEnd:   func() { t.Error("OnEnd called on failure") },
		OnError: func(err error) { errs <- err },
	}))

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("OnError not called")
	}
}

func TestCommandEngine_CancelFiresNoCallbacks(t *testing.T) {
	e := newCommandEngine(writeScript(t, "sleep 5"), flavorEspeak)

	fired := make(chan struct{}, 2)
	require.NoError(t, e.Speak(Utterance{
		Text:    "hello",
		OnEnd:   func() { fired <- struct{}{} },
		OnError: func(error) { fired <- struct{}{} },
	}))
	require.True(t, e.Speaking())

	e.Pause()
	require.True(t, e.Speaking())
	e.Resume()

	e.Cancel()
	require.False(t, e.Speaking())

	select {
	case <-fired:
		t.Fatal("callback fired after Cancel")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCommandEngine_LoadVoices(t *testing.T) {
	script := `if [ "$2" = "?" ]; then echo "Alex                en_US    # hi"; fi`
	e := newCommandEngine(writeScript(t, script), flavorSay)

	changed := make(chan struct{}, 1)
	e.OnVoicesChanged(func() { changed <- struct{}{} })
	e.loadVoices()

	select {
	case <-changed:
	default:
		t.Fatal("OnVoicesChanged not called")
	}
	require.Equal(t, []Voice{{ID: "Alex", Name: "Alex", Lang: "en-US"}}, e.Voices())
}

func TestCommandEngine_Args(t *testing.T) {
	say := newCommandEngine("say", flavorSay)
	require.Equal(t, []string{"-v", "Alex", "-r", "175"},
		say.args(Utterance{Voice: &Voice{ID: "Alex"}, Rate: 1}))
	require.Equal(t, []string{"-r", "350"}, say.args(Utterance{Rate: 2}))

	espeak := newCommandEngine("espeak-ng", flavorEspeak)
	require.Equal(t, []string{"--stdin", "-s", "175", "-v", "en-us"},
		espeak.args(Utterance{Lang: "en-US"}))
}
