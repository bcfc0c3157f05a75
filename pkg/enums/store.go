package enums

import "fmt"

// Language is the store's display language.
type Language string

const (
	LanguageArabic  Language = "ar"
	LanguageFrench  Language = "fr"
	LanguageEnglish Language = "en"
)

// DefaultCurrency is applied to stores created without settings.
const DefaultCurrency = "TND"

func (l Language) String() string {
	return string(l)
}

func (l Language) IsValid() bool {
	switch l {
	case LanguageArabic, LanguageFrench, LanguageEnglish:
		return true
	}
	return false
}

// ParseLanguage converts raw input into a Language.
func ParseLanguage(value string) (Language, error) {
	l := Language(value)
	if !l.IsValid() {
		return "", fmt.Errorf("invalid language %q", value)
	}
	return l, nil
}
