package stt

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWhisperAPI_Transcribe(t *testing.T) {
	var gotModel, gotLanguage, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" hello world "}`))
	}))
	defer srv.Close()

	w := NewWhisperAPI(WhisperAPIConfig{APIKey: "k", BaseURL: srv.URL + "/v1/"})
	res, err := w.Transcribe(context.Background(), []byte("clip"), "audio/webm", "en")
	require.NoError(t, err)
	require.Equal(t, "hello world", res.Text)
	require.Equal(t, "/v1/audio/transcriptions", gotPath)
	require.Equal(t, DefaultWhisperModel, gotModel)
	require.Equal(t, "en", gotLanguage)
}

func TestWhisperAPI_EmptyAudio(t *testing.T) {
	w := NewWhisperAPI(WhisperAPIConfig{APIKey: "k"})
	_, err := w.Transcribe(context.Background(), nil, "audio/webm", "")
	require.Error(t, err)
}

func TestAudioExt(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"audio/webm;codecs=opus", ".webm"},
		{"audio/ogg", ".ogg"},
		{"audio/mp4", ".m4a"},
		{"audio/mpeg", ".mp3"},
		{"", ".wav"},
	}
	for _, tt := range tests {
		if got := audioExt(tt.mime); got != tt.want {
			t.Errorf("audioExt(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestEncodeWAV(t *testing.T) {
	wav, err := EncodeWAV([]float32{0, 2, -2}, 16000)
	require.NoError(t, err)
	require.Len(t, wav, 44+6)
	require.Equal(t, "RIFF", string(wav[0:4]))
	require.Equal(t, "WAVE", string(wav[8:12]))
	require.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	// Samples are clamped to [-1, 1].
	require.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(wav[46:48])))
	require.Equal(t, int16(-32767), int16(binary.LittleEndian.Uint16(wav[48:50])))

	_, err = EncodeWAV(nil, 0)
	require.Error(t, err)
}
