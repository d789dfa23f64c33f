package entities

import "testing"

func TestLanguageTable(t *testing.T) {
	langs := SupportedLanguages()
	if len(langs) != 4 {
		t.Fatalf("Expected 4 supported languages, got %d", len(langs))
	}

	expected := map[string]Language{
		"English":    LanguageEnglish,
		"Japanese":   LanguageJapanese,
		"Chinese":    LanguageChinese,
		"Vietnamese": LanguageVietnamese,
	}
	for name, code := range expected {
		got, ok := LanguageByName(name)
		if !ok || got != code {
			t.Errorf("LanguageByName(%q) = %q, %v; want %q", name, got, ok, code)
		}
		if code.DisplayName() != name {
			t.Errorf("DisplayName(%q) = %q; want %q", code, code.DisplayName(), name)
		}
		if !code.Supported() {
			t.Errorf("Expected %q to be supported", code)
		}
	}
}

func TestUnknownLanguage(t *testing.T) {
	if Language("ko").Supported() {
		t.Error("Expected ko to be unsupported")
	}
	if _, ok := LanguageByName("Korean"); ok {
		t.Error("Expected Korean to be unknown")
	}
}
