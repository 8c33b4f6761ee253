// Package lang holds the static catalog of supported languages and the
// mapping from catalog codes to host locale tags.
package lang

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"go.aimuz.me/omni/internal/types"
)

// Supported is the language catalog shown in both selectors.
var Supported = []types.Language{
	{Code: "zh", Name: "简体中文"},
	{Code: "en", Name: "英语"},
	{Code: "ja", Name: "日语"},
	{Code: "ko", Name: "韩语"},
	{Code: "fr", Name: "法语"},
	{Code: "es", Name: "西班牙语"},
	{Code: "de", Name: "德语"},
	{Code: "ru", Name: "俄语"},
	{Code: "pt", Name: "葡萄牙语"},
	{Code: "it", Name: "意大利语"},
}

// locales maps catalog codes to the locale tags speech engines expect.
var locales = map[string]string{
	"zh": "zh-CN",
	"en": "en-US",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"fr": "fr-FR",
	"es": "es-ES",
	"de": "de-DE",
	"ru": "ru-RU",
	"pt": "pt-PT",
	"it": "it-IT",
}

func init() {
	names := display.English.Languages()
	for i := range Supported {
		Supported[i].EnglishName = names.Name(language.Make(Supported[i].Code))
	}
}

// All returns a copy of the catalog.
func All() []types.Language {
	out := make([]types.Language, len(Supported))
	copy(out, Supported)
	return out
}

// Find looks up a catalog entry by code.
func Find(code string) (types.Language, bool) {
	for _, l := range Supported {
		if l.Code == code {
			return l, true
		}
	}
	return types.Language{}, false
}

// DisplayName returns the catalog name for code, or code itself if unknown.
func DisplayName(code string) string {
	if l, ok := Find(code); ok {
		return l.Name
	}
	return code
}

// Locale returns the host locale tag for code, or code itself if unmapped.
func Locale(code string) string {
	if l, ok := locales[code]; ok {
		return l
	}
	return code
}

// Normalize rewrites platform tags such as "en_US" into BCP 47 form.
func Normalize(tag string) string {
	return strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
}

// SameBase reports whether tag and code share a base language,
// e.g. "fr-CA" and "fr".
func SameBase(tag, code string) bool {
	t, err := language.Parse(Normalize(tag))
	if err != nil {
		return false
	}
	c, err := language.Parse(Normalize(code))
	if err != nil {
		return false
	}
	tb, _ := t.Base()
	cb, _ := c.Base()
	return tb == cb
}
