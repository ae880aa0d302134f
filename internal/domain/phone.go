package domain

import "strings"

// NormalizePhone converts arbitrary phone input into a canonical string
// that starts with "+" and contains only digits (E.164 style, 8 to 15
// digits total). It returns "" when the input cannot be normalized.
func NormalizePhone(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	// "00" international prefix and a leading "+" are equivalent.
	if strings.HasPrefix(text, "00") {
		text = text[2:]
	} else if strings.HasPrefix(text, "+") {
		text = text[1:]
	}

	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	n := digits.Len()
	if n < 8 || n > 15 {
		return ""
	}
	return "+" + digits.String()
}
