// Package naming derives Go-identifier-safe names from spec metadata.
//
// Merged documents need identifiers derived from free-form spec titles
// (e.g. "billing service (v2)" becomes "BillingServiceV2") when schemas are
// renamed to resolve collisions.
package naming

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser performs Unicode-correct title casing without lowering
// characters that are already upper case, so "ServiceB" survives intact.
var titleCaser = cases.Title(language.Und, cases.NoLower)

// SanitizeIdentifier converts a free-form source title into an identifier
// suitable for use in schema names and $ref targets. Words are title-cased
// and concatenated; runes that are not letters, digits, or underscores are
// treated as word separators. An empty or fully non-identifier title yields
// "Spec".
func SanitizeIdentifier(title string) string {
	words := splitWords(title)
	if len(words) == 0 {
		return "Spec"
	}

	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(titleCaser.String(w))
	}

	name := sb.String()
	// Identifiers must not start with a digit.
	if r := []rune(name)[0]; unicode.IsDigit(r) {
		name = "Spec" + name
	}
	return name
}

// Unique returns name if taken reports it free, otherwise name with the
// lowest numeric suffix (starting at 2) that taken reports free.
func Unique(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + "_" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// splitWords splits on any rune that cannot appear in an identifier.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
