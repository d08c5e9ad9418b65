package domain

import "unicode"

// Language identifies a supported query/document language.
type Language string

// Supported languages.
const (
	// LanguageEnglish is English.
	LanguageEnglish Language = "en"

	// LanguageArabic is Arabic.
	LanguageArabic Language = "ar"
)

// IsValid returns true if the language is recognised.
func (l Language) IsValid() bool {
	switch l {
	case LanguageEnglish, LanguageArabic:
		return true
	default:
		return false
	}
}

// String returns the ISO 639-1 code.
func (l Language) String() string {
	return string(l)
}

// Description returns a human-readable description of the language.
func (l Language) Description() string {
	switch l {
	case LanguageEnglish:
		return "English"
	case LanguageArabic:
		return "Arabic"
	default:
		return unknownDescription
	}
}

// RightToLeft reports whether the language is written right-to-left.
// This is a presentation concern only; retrieval is direction-agnostic.
func (l Language) RightToLeft() bool {
	return l == LanguageArabic
}

// Other returns the other supported language.
// Used for alternate-language email drafts.
func (l Language) Other() Language {
	if l == LanguageArabic {
		return LanguageEnglish
	}
	return LanguageArabic
}

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{LanguageEnglish, LanguageArabic}
}

// DetectLanguage determines the dominant language of text by script counting.
// Returns the language and true when the text contains enough letters to
// decide, or the zero Language and false when detection is inconclusive
// (callers should fall back to a configured default).
func DetectLanguage(text string) (Language, bool) {
	var arabic, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.IsLetter(r):
			latin++
		}
	}

	if arabic == 0 && latin == 0 {
		return "", false
	}
	if arabic > latin {
		return LanguageArabic, true
	}
	return LanguageEnglish, true
}

// ContainsArabic reports whether text contains any Arabic-script characters.
// Used to verify that Arabic-language generation actually answered in Arabic.
func ContainsArabic(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}
