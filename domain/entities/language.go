package entities

// Language is a target-language code used at the backend boundary
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageJapanese   Language = "ja"
	LanguageChinese    Language = "zh-cn"
	LanguageVietnamese Language = "vi"
)

var languageNames = map[Language]string{
	LanguageEnglish:    "English",
	LanguageJapanese:   "Japanese",
	LanguageChinese:    "Chinese",
	LanguageVietnamese: "Vietnamese",
}

// SupportedLanguages returns the target languages in display order
func SupportedLanguages() []Language {
	return []Language{LanguageEnglish, LanguageJapanese, LanguageChinese, LanguageVietnamese}
}

// Supported reports whether the code is one of the four target languages
func (l Language) Supported() bool {
	_, ok := languageNames[l]
	return ok
}

// DisplayName returns the human-readable name for the language code
func (l Language) DisplayName() string {
	return languageNames[l]
}

// LanguageByName resolves a display name (e.g. "Japanese") to its code
func LanguageByName(name string) (Language, bool) {
	for code, display := range languageNames {
		if display == name {
			return code, true
		}
	}
	return "", false
}
