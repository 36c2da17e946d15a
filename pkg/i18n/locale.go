package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale is a site language. The storefront is bilingual.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleFR Locale = "fr"

	Default = LocaleEN
)

var (
	supportedLocales = []Locale{LocaleEN, LocaleFR}
	matcher          = language.NewMatcher([]language.Tag{language.English, language.French})
)

// Supported returns the locales the site is published in.
func Supported() []Locale {
	out := make([]Locale, len(supportedLocales))
	copy(out, supportedLocales)
	return out
}

// Parse maps a BCP 47 tag like "fr-CA" to a supported locale.
func Parse(raw string) (Locale, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", false
	}
	return match(tag)
}

// Negotiate picks a locale from an explicit query value first, then the
// Accept-Language header, then the default.
func Negotiate(query, acceptLanguage string) Locale {
	if loc, ok := Parse(query); ok {
		return loc
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err == nil && len(tags) > 0 {
		if loc, ok := match(tags...); ok {
			return loc
		}
	}
	return Default
}

// Pick returns the French value for LocaleFR when present, otherwise the English one.
func Pick(loc Locale, en, fr string) string {
	if loc == LocaleFR && strings.TrimSpace(fr) != "" {
		return fr
	}
	return en
}

func match(tags ...language.Tag) (Locale, bool) {
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	return supportedLocales[idx], true
}
