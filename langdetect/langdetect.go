// Package langdetect detects which catalog language a text is written in.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
	// Models register themselves with the detector on import.
	_ "github.com/pemistahl/lingua-go/language-models/de"
	_ "github.com/pemistahl/lingua-go/language-models/en"
	_ "github.com/pemistahl/lingua-go/language-models/es"
	_ "github.com/pemistahl/lingua-go/language-models/fr"
	_ "github.com/pemistahl/lingua-go/language-models/it"
	_ "github.com/pemistahl/lingua-go/language-models/ja"
	_ "github.com/pemistahl/lingua-go/language-models/ko"
	_ "github.com/pemistahl/lingua-go/language-models/pt"
	_ "github.com/pemistahl/lingua-go/language-models/ru"
	_ "github.com/pemistahl/lingua-go/language-models/zh"

	"go.aimuz.me/omni/lang"
)

// Auto is returned when no language could be determined.
const Auto = "auto"

// autoName is the display name paired with Auto.
const autoName = "自动检测"

var (
	once     sync.Once
	detector lingua.LanguageDetector
)

// catalog lists the lingua languages matching lang.Supported.
var catalog = []lingua.Language{
	lingua.Chinese,
	lingua.English,
	lingua.Japanese,
	lingua.Korean,
	lingua.French,
	lingua.Spanish,
	lingua.German,
	lingua.Russian,
	lingua.Portuguese,
	lingua.Italian,
}

func get() lingua.LanguageDetector {
	once.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(catalog...).
			Build()
	})
	return detector
}

// Detect returns the catalog code and display name of text's language.
// Blank or undecidable input yields Auto.
func Detect(text string) (code, name string) {
	if strings.TrimSpace(text) == "" {
		return Auto, autoName
	}

	detected, ok := get().DetectLanguageOf(text)
	if !ok {
		return Auto, autoName
	}

	code = strings.ToLower(detected.IsoCode639_1().String())
	if _, known := lang.Find(code); !known {
		return Auto, autoName
	}
	return code, lang.DisplayName(code)
}
