package domain

import (
	"fmt"
	"strings"
)

// Language is an output language for synthesized speech.
type Language struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

var languages = []Language{
	{Name: "Bengali", Code: "bn-IN"},
	{Name: "Hindi", Code: "hi-IN"},
	{Name: "English", Code: "en-IN"},
	{Name: "Tamil", Code: "ta-IN"},
	{Name: "Telugu", Code: "te-IN"},
	{Name: "Kannada", Code: "kn-IN"},
	{Name: "Malayalam", Code: "ml-IN"},
	{Name: "Marathi", Code: "mr-IN"},
	{Name: "Gujarati", Code: "gu-IN"},
	{Name: "Punjabi", Code: "pa-IN"},
}

// Languages returns the selectable languages in display order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// DefaultLanguage is the first entry of the table.
func DefaultLanguage() Language {
	return languages[0]
}

// LookupLanguage resolves a display name (case-insensitive) or a locale code.
// An empty selector yields the default language.
func LookupLanguage(selector string) (Language, error) {
	s := strings.TrimSpace(selector)
	if s == "" {
		return DefaultLanguage(), nil
	}
	for _, l := range languages {
		if strings.EqualFold(l.Name, s) || l.Code == s {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, selector)
}
