package compiler

import (
	"strconv"
	"strings"
	"unicode"
)

// FallbackDeclaration is served while no compilation has succeeded, or when a
// stylesheet yields no tokens.
const FallbackDeclaration = "declare const tokens: { [k: string]: string };\nexport = tokens;\n"

// Declaration renders the declaration document for keys, in order.
func Declaration(keys []string) string {
	if len(keys) == 0 {
		return FallbackDeclaration
	}

	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = fieldName(k) + ": string"
	}

	var b strings.Builder
	b.WriteString("declare const tokens: { ")
	b.WriteString(strings.Join(fields, ", "))
	b.WriteString(" };\nexport = tokens;\n")
	return b.String()
}

func fieldName(k string) string {
	if isIdentifier(k) {
		return k
	}
	return strconv.Quote(k)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
