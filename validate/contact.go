package validate

import (
	"regexp"
	"strings"
)

var (
	phoneChars = regexp.MustCompile(`^[\d\s().+\-]+$`)
	emailRe    = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
)

// IsValidPhone accepts digits with phone punctuation only, 10 digits or
// 11 with a leading country code 1.
func IsValidPhone(s string) bool {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "tel:"))
	if s == "" || !phoneChars.MatchString(s) {
		return false
	}
	d := Digits(s)
	return len(d) == 10 || (len(d) == 11 && d[0] == '1')
}

// IsValidEmail expects an already lower-cased address.
func IsValidEmail(s string) bool {
	return strings.Contains(s, "@") && emailRe.MatchString(s)
}

// Digits keeps only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
