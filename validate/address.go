package validate

import (
	"regexp"
	"strings"
)

var (
	streetAddress = regexp.MustCompile(`(?i)^\s*\d+[a-z]?\s+(?:[nsew]\.?\s+)?[\p{L}\d.'\- ]+?\s+(?:st|street|ave|avenue|blvd|boulevard|rd|road|dr|drive|ln|lane|ct|court|way|pl|place|ter|terrace|cir|circle|pkwy|parkway|hwy|highway|sq|square|trl|trail|loop|row|run|pass|plz|plaza)\b`)
	cityStateZip  = regexp.MustCompile(`(?i)\b[\p{L} .'\-]+,\s*[A-Z]{2}\s+\d{5}(?:-\d{4})?\b`)
	unitTokens    = regexp.MustCompile(`(?i)(?:^|\s)(?:(?:apt|apartment|unit|suite|ste|bldg|building|rm|room)\b\.?|#)\s*#?\s*([a-z0-9\-]+)`)
	addrPunct     = regexp.MustCompile(`[.,#]`)
)

var streetSynonyms = map[string]string{
	"street": "st", "avenue": "ave", "av": "ave", "boulevard": "blvd", "road": "rd", "drive": "dr",
	"lane": "ln", "court": "ct", "place": "pl", "terrace": "ter", "circle": "cir",
	"parkway": "pkwy", "highway": "hwy", "square": "sq", "trail": "trl", "plaza": "plz",
	"north": "n", "south": "s", "east": "e", "west": "w",
}

// IsAddressLike reports whether s reads like a street address or a
// "City, ST 12345" line.
func IsAddressLike(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 6 || len(s) > 200 {
		return false
	}
	return streetAddress.MatchString(s) || cityStateZip.MatchString(s)
}

// NormalizeAddress produces the dedupe key of an address: case-folded,
// punctuation dropped, unit designators (apt, unit, suite, #) reduced to
// their value, street-type and direction synonyms folded, whitespace
// collapsed. "123 Main St" and "123 main st." share a key.
func NormalizeAddress(s string) string {
	s = strings.ToLower(s)
	s = unitTokens.ReplaceAllString(s, " $1")
	s = addrPunct.ReplaceAllString(s, " ")
	fields := strings.Fields(s)
	for i, f := range fields {
		if short, ok := streetSynonyms[f]; ok {
			fields[i] = short
		}
	}
	return strings.Join(fields, " ")
}

// AddressTokens returns the significant tokens of an address used for
// fuzzy co-occurrence matching (house number, street words, zip).
func AddressTokens(s string) []string {
	var out []string
	for _, f := range strings.Fields(NormalizeAddress(s)) {
		if len(f) < 2 && !isDigits(f) {
			continue
		}
		if _, isSuffix := suffixSet[f]; isSuffix {
			continue
		}
		out = append(out, f)
	}
	return out
}

var suffixSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(streetSynonyms))
	for _, v := range streetSynonyms {
		m[v] = struct{}{}
	}
	return m
}()

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CountTokenMatches counts how many tokens occur in text as whole words.
func CountTokenMatches(tokens []string, text string) int {
	hay := " " + NormalizeAddress(text) + " "
	n := 0
	for _, t := range tokens {
		if strings.Contains(hay, " "+t+" ") {
			n++
		}
	}
	return n
}
