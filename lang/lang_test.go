package lang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocale(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"zh", "zh-CN"},
		{"en", "en-US"},
		{"pt", "pt-PT"},
		{"it", "it-IT"},
		{"sv", "sv"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			require.Equal(t, tt.want, Locale(tt.code))
		})
	}
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "简体中文", DisplayName("zh"))
	require.Equal(t, "英语", DisplayName("en"))
	require.Equal(t, "xx", DisplayName("xx"))
}

func TestEnglishNames(t *testing.T) {
	l, ok := Find("fr")
	require.True(t, ok)
	require.Equal(t, "French", l.EnglishName)
}

func TestSameBase(t *testing.T) {
	require.True(t, SameBase("fr-CA", "fr"))
	require.True(t, SameBase("en_GB", "en"))
	require.True(t, SameBase("zh-CN", "zh"))
	require.False(t, SameBase("de-DE", "fr"))
	require.False(t, SameBase("", "fr"))
}

func TestAllIsCopy(t *testing.T) {
	all := All()
	all[0].Name = "changed"
	require.Equal(t, "简体中文", Supported[0].Name)
}
