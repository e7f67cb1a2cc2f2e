package ai

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageName returns the self-name of a language code for prompts
// ("fr" -> "Français"). Unknown codes fall back to English.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil || code == "" {
		return "English"
	}
	name := display.Self.Name(tag)
	if name == "" {
		return "English"
	}
	return cases.Title(tag).String(name)
}
