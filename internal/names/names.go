// Package names canonicalizes participant display names coming from
// noisy spreadsheet input.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips diacritics: "Đorđević" -> "Dordevic".
func Fold(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		return s
	}
	return out
}

// Canon returns a lowercase, accent-stripped form used as a lookup key.
func Canon(s string) string {
	return strings.ToLower(Fold(strings.TrimSpace(s)))
}

// CollapseWhitespace trims the string and squeezes internal runs of
// whitespace into single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize converts "Last, First" or "First Last" input to the display
// form "First Middle LAST". All-uppercase input is assumed to already be
// in an intentional form and is returned untouched.
func Normalize(full string) string {
	name := CollapseWhitespace(full)
	if name == "" {
		return ""
	}

	if i := strings.Index(name, ","); i >= 0 {
		last := strings.TrimSpace(name[:i])
		first := strings.TrimSpace(name[i+1:])
		name = CollapseWhitespace(first + " " + last)
	}

	if name == strings.ToUpper(name) {
		return name
	}

	parts := strings.Split(name, " ")
	if len(parts) == 1 {
		return name
	}

	return strings.Join(parts[:len(parts)-1], " ") + " " + strings.ToUpper(parts[len(parts)-1])
}

// Key builds the canonical "last|first middle" key used to detect the
// same person across imports regardless of name ordering.
func Key(full string) string {
	name := CollapseWhitespace(full)
	if name == "" {
		return ""
	}

	var first, last string
	if i := strings.Index(name, ","); i >= 0 {
		last = strings.TrimSpace(name[:i])
		first = strings.TrimSpace(name[i+1:])
	} else {
		parts := strings.Split(name, " ")
		if len(parts) > 1 {
			last = parts[len(parts)-1]
			first = strings.Join(parts[:len(parts)-1], " ")
		} else {
			last = name
		}
	}

	return strings.TrimSpace(Canon(last) + "|" + Canon(first))
}
