package currency

import (
	"strings"

	"golang.org/x/text/language"
)

// FallbackLocale is used when a locale string cannot be parsed.
const FallbackLocale = "en-US"

// NormalizeLocale turns POSIX locale names such as "de_DE.UTF-8" into
// BCP 47 tags ("de-DE"). It returns "" for the C/POSIX locale and for
// input that does not parse.
func NormalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return ""
	}
	s = strings.ReplaceAll(s, "_", "-")
	tag, err := language.Parse(s)
	if err != nil {
		return ""
	}
	return tag.String()
}

// ParseLocale parses a BCP 47 or POSIX locale, falling back to en-US.
func ParseLocale(s string) language.Tag {
	if n := NormalizeLocale(s); n != "" {
		if tag, err := language.Parse(n); err == nil {
			return tag
		}
	}
	return language.AmericanEnglish
}

// CountryFromLocale returns the region of a locale when it is stated
// explicitly ("fr-CA" gives CA, "fr" gives nothing).
func CountryFromLocale(locale string) (string, bool) {
	n := NormalizeLocale(locale)
	if n == "" {
		return "", false
	}
	tag, err := language.Parse(n)
	if err != nil {
		return "", false
	}
	region, conf := tag.Region()
	if conf != language.Exact {
		return "", false
	}
	return region.String(), true
}

// Detect resolves the buyer's (country, locale) from environment-style
// variables. The locale comes from LC_ALL then LANG; the country from
// CART_COUNTRY, then the locale's region, then fallbackCountry.
func Detect(lookup func(string) string, fallbackCountry, fallbackLocale string) (country, locale string) {
	for _, key := range []string{"LC_ALL", "LANG"} {
		if l := NormalizeLocale(lookup(key)); l != "" {
			locale = l
			break
		}
	}
	if locale == "" {
		locale = NormalizeLocale(fallbackLocale)
	}
	if locale == "" {
		locale = FallbackLocale
	}

	if c := strings.TrimSpace(lookup("CART_COUNTRY")); c != "" {
		return strings.ToUpper(c), locale
	}
	if c, ok := CountryFromLocale(locale); ok {
		return c, locale
	}
	return strings.ToUpper(fallbackCountry), locale
}

// EnvLookup adapts a list of KEY=VALUE pairs, as returned by os.Environ or
// an SSH session, to a lookup function.
func EnvLookup(environ []string) func(string) string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return func(key string) string { return env[key] }
}
