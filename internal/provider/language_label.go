package provider

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageLabel returns a readable label for a language code: "en" -> "English (en)".
// The "*" wildcard reads as "any language".
func LanguageLabel(code string) string {
	switch code {
	case "":
		return ""
	case SourceLanguagesAny:
		return "any language"
	}

	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return fmt.Sprintf("language '%s'", code)
	}

	name := display.English.Tags().Name(tag)
	if name == "" || strings.EqualFold(name, code) {
		return fmt.Sprintf("language '%s'", code)
	}
	return fmt.Sprintf("%s (%s)", name, code)
}

// TranslationSummary describes a provider's translation direction,
// e.g. "any language -> English (en)". Empty when translation is unsupported.
func (p ApiProvider) TranslationSummary() string {
	if p.Translation == nil || !p.Capabilities.Translation {
		return ""
	}
	target := LanguageLabel(p.Translation.TargetLanguage)
	if p.Translation.AnySource() {
		return fmt.Sprintf("%s -> %s", LanguageLabel(SourceLanguagesAny), target)
	}
	sources := make([]string, 0, len(p.Translation.SourceLanguages))
	for _, code := range p.Translation.SourceLanguages {
		sources = append(sources, LanguageLabel(code))
	}
	return fmt.Sprintf("%s -> %s", strings.Join(sources, ", "), target)
}
