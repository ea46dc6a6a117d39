// Package i18n provides localized strings for user-facing API responses
package i18n

import (
	"fmt"
	"slices"
)

const (
	// DefaultLanguage is the fallback language when no translation is available
	DefaultLanguage = "en"
	// BerneseGerman is a Swiss dialect spoken in the Canton of Bern
	BerneseGerman = "ch_be"
)

// Message keys
const (
	KeyOAuthAuthorized   = "oauth.authorized"
	KeyOAuthAuthorizedAs = "oauth.authorized_as"
	KeyOAuthFailed       = "oauth.failed"
	KeyContactReceived   = "contact.received"
	KeyIndexMissing      = "page.index_missing"
	KeyAboutMissing      = "page.about_missing"
	KeyPlaybackEmpty     = "playback.empty"
)

// Localizer looks up response strings for one language
type Localizer struct {
	language string
	messages map[string]string
}

// NewLocalizer creates a localizer; unsupported languages resolve to English
func NewLocalizer(language string) *Localizer {
	if !IsSupported(language) {
		language = DefaultLanguage
	}
	return &Localizer{
		language: language,
		messages: getMessages(language),
	}
}

// Language returns the language this localizer resolves to
func (l *Localizer) Language() string {
	return l.language
}

// T translates a message key, formatting args into it when given
func (l *Localizer) T(key string, args ...any) string {
	message, exists := l.messages[key]
	if !exists && l.language != DefaultLanguage {
		message, exists = getMessages(DefaultLanguage)[key]
	}
	if !exists {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

// GetSupportedLanguages returns list of supported language codes
func GetSupportedLanguages() []string {
	return []string{DefaultLanguage, BerneseGerman}
}

// IsSupported reports whether language has a message table
func IsSupported(language string) bool {
	return slices.Contains(GetSupportedLanguages(), language)
}

func getMessages(language string) map[string]string {
	switch language {
	case BerneseGerman:
		return berneseGermanMessages
	default:
		return englishMessages
	}
}
