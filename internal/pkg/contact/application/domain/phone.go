package domain

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`\+?\d[\d\s\-]{6,}\d`)

// NormalizePhone converts user-typed numbers to E.164. Nine-digit numbers
// without a country code are assumed Chilean.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	var b strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) < 8 || len(digits) > 15:
		return "", ErrInvalidPhone
	case strings.HasPrefix(trimmed, "+"):
		return "+" + digits, nil
	case strings.HasPrefix(digits, "56") && len(digits) == 11:
		return "+" + digits, nil
	case strings.HasPrefix(digits, "52") && len(digits) >= 12:
		return "+" + digits, nil
	case len(digits) == 9:
		return "+56" + digits, nil
	case len(digits) == 8:
		// landline-less mobile without the leading 9
		return "+569" + digits, nil
	default:
		return "+" + digits, nil
	}
}

// SplitNameAndPhone separates "Juan +56 9 1234 5678" into its name and
// phone parts. Either part may be empty.
func SplitNameAndPhone(input string) (name string, phone string) {
	input = strings.TrimSpace(input)
	loc := phonePattern.FindStringIndex(input)
	if loc == nil {
		return input, ""
	}
	phone = strings.TrimSpace(input[loc[0]:loc[1]])
	name = strings.TrimSpace(input[:loc[0]] + " " + input[loc[1]:])
	name = strings.Trim(name, " ,;:-")
	return name, phone
}

// IsPhoneLike reports whether s is only a phone number.
func IsPhoneLike(s string) bool {
	name, phone := SplitNameAndPhone(s)
	return phone != "" && name == ""
}
