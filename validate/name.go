package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// nameStopWords is domain and navigation vocabulary that never appears in a
// person's name. Multi-word entries match as phrases.
var nameStopWords = []string{
	"about", "account", "active", "address", "agent", "agents", "all", "apartment", "apply", "area",
	"associates", "bath", "baths", "bed", "beds", "blog", "broker", "brokerage", "browse", "buy",
	"buyer", "buyers", "calculator", "company", "condo", "contact", "cookie",
	"details", "email", "estate", "experience", "featured", "filter", "find", "follow", "for",
	"group", "guide", "help", "homes", "inc", "languages", "learn", "listed",
	"listing", "listings", "llc", "loading", "login", "logout", "map", "menu", "message", "more",
	"mortgage", "my", "news", "office", "open", "our", "photo", "photos", "phone", "policy",
	"privacy", "profile", "properties", "property", "rating", "ratings",
	"realtor", "realtors", "realty", "recommendations", "recommended", "reviews",
	"save", "search", "see", "sell", "seller", "send", "share", "show", "sign", "sold", "sort",
	"specializations", "sqft", "submit", "team", "terms", "the", "this", "to", "update",
	"us", "verified", "view", "website", "welcome", "with", "your",
	"square feet", "sq ft", "real estate", "get in touch", "open house",
	"asking", "click", "list", "request", "schedule",
}

// surnameStopWords are stop-list words that are also common surnames
// (Sam Price, Della Street). They are accepted only as the last token.
var surnameStopWords = map[string]bool{
	"call": true, "close": true, "home": true, "house": true, "new": true,
	"price": true, "read": true, "rent": true, "sale": true, "street": true,
}

var (
	nameChars      = regexp.MustCompile(`^[\p{L}\s\-'.’]+$`)
	businessSuffix = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*(?:&|and)\s+associates\b.*$`),
		regexp.MustCompile(`(?i)\s*[,|\-–—]\s+.*$`),
		regexp.MustCompile(`(?i)\s+(?:realty|real estate|realtors?|group|team|properties|homes|brokerage|partners|llc|inc\.?)\b.*$`),
	}
)

// IsValidName reports whether s looks like a person's name: 2–100 characters
// of letters, spaces, hyphens, apostrophes and periods, at least two
// capitalised tokens, and none of the stop-list vocabulary.
func IsValidName(s string) bool {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 100 {
		return false
	}
	if !nameChars.MatchString(s) {
		return false
	}

	capitalised := 0
	for _, tok := range strings.Fields(s) {
		r, _ := utf8.DecodeRuneInString(tok)
		if unicode.IsUpper(r) {
			capitalised++
		}
	}
	if capitalised < 2 {
		return false
	}
	return !containsStopWord(s)
}

func containsStopWord(s string) bool {
	lower := " " + strings.ToLower(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '.' || r == '-'
	}), " ")) + " "
	for _, w := range nameStopWords {
		if strings.Contains(lower, " "+w+" ") {
			return true
		}
	}
	toks := strings.Fields(lower)
	for i, tok := range toks {
		if surnameStopWords[tok] && i < len(toks)-1 {
			return true
		}
	}
	return false
}

// StripBusinessSuffix removes a trailing company designation ("& Associates",
// "Realty", "| Keller Williams") and returns the remainder when it still
// validates as a name.
func StripBusinessSuffix(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, re := range businessSuffix {
		rest := strings.TrimSpace(re.ReplaceAllString(s, ""))
		if rest != s && IsValidName(rest) {
			return rest, true
		}
	}
	return "", false
}

// AcceptName returns the name candidate itself when valid, or the person's
// name embedded in a company string.
func AcceptName(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if IsValidName(s) {
		return s, true
	}
	return StripBusinessSuffix(s)
}
