package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// CompanyKeywords are words that mark a brokerage or office name.
var CompanyKeywords = []string{
	"realty", "group", "associates", "real estate", "properties", "brokerage", "homes",
	"realtors", "partners", "company", "inc", "llc", "keller williams", "coldwell banker",
	"re/max", "remax", "century 21", "compass", "sotheby's", "berkshire hathaway", "exp",
	"redfin", "douglas elliman", "corcoran", "team",
}

var officeChars = regexp.MustCompile(`^[\p{L}\p{N}\s&'.,/\-()’®]+$`)

// CompanyScore counts company keywords in s, matched on word boundaries.
func CompanyScore(s string) int {
	lower := " " + strings.ToLower(strings.Join(strings.Fields(s), " ")) + " "
	lower = strings.NewReplacer(",", " ", ".", " ", "(", " ", ")", " ").Replace(lower)
	score := 0
	for _, kw := range CompanyKeywords {
		if strings.Contains(lower, " "+kw+" ") {
			score++
		}
	}
	return score
}

// LooksLikePerson is the inverse check used to keep agent and office fields
// apart: a valid person name with no company vocabulary at all.
func LooksLikePerson(s string) bool {
	return IsValidName(s) && CompanyScore(s) == 0
}

// IsValidOfficeName accepts short, clean strings that do not look like a
// person's name.
func IsValidOfficeName(s string) bool {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < 3 || n > 120 {
		return false
	}
	if !officeChars.MatchString(s) {
		return false
	}
	if LooksLikePerson(s) {
		return false
	}
	if IsAddressLike(s) || IsValidPhone(s) {
		return false
	}
	return true
}
