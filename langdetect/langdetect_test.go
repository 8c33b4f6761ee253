package langdetect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantCode string
	}{
		{"blank", "   ", Auto},
		{"chinese", "今天天气很好，我们去公园散步吧。", "zh"},
		{"english", "The weather is lovely today, let's take a walk in the park.", "en"},
		{"german", "Das Wetter ist heute schön, lass uns im Park spazieren gehen.", "de"},
		{"french", "Il fait très beau aujourd'hui, allons nous promener dans le parc.", "fr"},
		{"spanish", "Hoy hace un tiempo precioso, vamos a pasear por el parque.", "es"},
		{"russian", "Сегодня прекрасная погода, давай погуляем в парке.", "ru"},
		{"japanese", "今日はとても良い天気なので、公園を散歩しましょう。", "ja"},
		{"korean", "오늘 날씨가 정말 좋네요, 공원에서 산책해요.", "ko"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, name := Detect(tt.text)
			require.Equal(t, tt.wantCode, code)
			require.NotEmpty(t, name)
		})
	}
}
