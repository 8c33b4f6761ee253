package tts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSayVoices(t *testing.T) {
	out := `Alex                en_US    # Most people recognize me by my voice.
Bad News            en_US    # The light you see at the end of the tunnel is the headlamp of a fast approaching train.
Ting-Ting           zh_CN    # 你好，我叫婷婷。

`
	got := parseSayVoices(out)
	require.Equal(t, []Voice{
		{ID: "Alex", Name: "Alex", Lang: "en-US"},
		{ID: "Bad News", Name: "Bad News", Lang: "en-US"},
		{ID: "Ting-Ting", Name: "Ting-Ting", Lang: "zh-CN"},
	}, got)
}

func TestParseEspeakVoices(t *testing.T) {
	out := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-us           --/M      English_(America)  gmw/en-US            (en 3)
 5  cmn             --/M      Chinese_(Mandarin) sit/cmn              (zh-cmn 5)(zh 5)
`
	got := parseEspeakVoices(out)
	require.Equal(t, []Voice{
		{ID: "af", Name: "Afrikaans", Lang: "af"},
		{ID: "en-us", Name: "English (America)", Lang: "en-us"},
		{ID: "cmn", Name: "Chinese (Mandarin)", Lang: "cmn"},
	}, got)
}

func TestNoop(t *testing.T) {
	var s Synthesizer = Noop{}
	require.ErrorIs(t, s.Speak(Utterance{Text: "hi"}), ErrUnsupported)
	require.False(t, s.Speaking())
	require.Empty(t, s.Voices())
}
