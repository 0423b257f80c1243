package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"realtor-extractor/config"
)

// Rejection reasons for review text.
const (
	RejectTooShort       = "too_short"
	RejectRatingCategory = "rating_category"
	RejectPrompt         = "prompt"
	RejectContaminated   = "contaminated"
)

// RatingCategories are the sub-score labels rendered next to star bars.
var RatingCategories = []string{
	"professionalism & communication", "professionalism and communication",
	"local knowledge", "process expertise", "responsiveness", "negotiation skills",
	"market expertise", "communication", "professionalism", "knowledge", "expertise",
	"overall rating", "likely to recommend",
}

var promptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdid\s+.{1,60}?\s+help\s+you\b`),
	regexp.MustCompile(`(?i)\b(?:write|leave|add|submit)\s+(?:a|your)\s+(?:review|recommendation)\b`),
	regexp.MustCompile(`(?i)\bshare\s+your\s+experience\b`),
	regexp.MustCompile(`(?i)\b(?:see|show|view|read)\s+all\s+\d*\s*(?:reviews|recommendations)\b`),
	regexp.MustCompile(`(?i)\brate\s+(?:this|your)\s+agent\b`),
	regexp.MustCompile(`(?i)^\s*(?:no\s+reviews?|be\s+the\s+first)\b`),
}

// uiMarkers are control labels that bleed into scraped text when several
// elements are read as one.
var uiMarkers = []string{
	"read more", "show more", "see more", "show less", "see less", "was this helpful",
	"was this review helpful", "report review", "report abuse", "verified review", "share profile", "contact agent", "send message", "request info",
	"sort by", "filter by", "newest first", "load more", "back to top", "sign in",
}

var (
	gluedWords    = regexp.MustCompile(`\p{Ll}{2}\p{Lu}\p{Ll}`)
	letterRuns    = regexp.MustCompile(`\p{L}+`)
	categoryScore = regexp.MustCompile(`(?i)(?:communication|knowledge|expertise|responsiveness|skills)\s*\d(?:\.\d)?`)
	nonWord       = regexp.MustCompile(`[^\p{L}\s]+`)
)

// ReviewRejection returns why s is not an acceptable review body, or ""
// when it passes.
func ReviewRejection(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if IsRatingCategoryOnly(s) {
		return RejectRatingCategory
	}
	if utf8.RuneCountInString(s) < config.MinReviewLength {
		return RejectTooShort
	}
	if IsPromptText(s) {
		return RejectPrompt
	}
	if IsContaminated(s) {
		return RejectContaminated
	}
	return ""
}

// IsRatingCategoryOnly reports whether s is nothing but rating category
// labels, scores and punctuation ("Professionalism & communication 5.0").
func IsRatingCategoryOnly(s string) bool {
	lower := strings.ToLower(s)
	found := false
	for _, c := range RatingCategories {
		if strings.Contains(lower, c) {
			found = true
			lower = strings.ReplaceAll(lower, c, " ")
		}
	}
	if !found {
		return false
	}
	rest := strings.Fields(nonWord.ReplaceAllString(lower, " "))
	// Leftovers like "out of" / "stars" do not make a narrative.
	meaningful := 0
	for _, w := range rest {
		switch w {
		case "out", "of", "stars", "star", "and", "rating":
		default:
			meaningful++
		}
	}
	return meaningful < 3
}

// IsPromptText reports call-to-action copy such as "Did Jane help you with
// your property?".
func IsPromptText(s string) bool {
	for _, re := range promptPatterns {
		if re.MatchString(s) {
			// A long narrative that happens to say "share your experience"
			// is still a review.
			if utf8.RuneCountInString(s) > 160 && !strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "did ") {
				continue
			}
			return true
		}
	}
	return false
}

// IsContaminated reports concatenation artifacts: unrelated UI strings or
// category scores glued into the text.
func IsContaminated(s string) bool {
	lower := strings.ToLower(s)
	markers := 0
	for _, m := range uiMarkers {
		if strings.Contains(lower, m) {
			markers++
		}
	}
	if markers >= 2 {
		return true
	}
	if len(categoryScore.FindAllString(s, -1)) >= 2 {
		return true
	}
	if gluedJoins(s) >= 2 {
		return true
	}
	return hasRepeatedHalf(s)
}

// surnamePrefixes carry an inner capital in ordinary names (MacDonald,
// VanDyke, DelVecchio).
var surnamePrefixes = []string{"Mac", "Van", "Von", "Della", "Dela", "Del", "Des", "Fitz"}

// gluedJoins counts places where two words were rendered without a space
// between them ("houseProfessionalism").
func gluedJoins(s string) int {
	n := 0
	for _, w := range letterRuns.FindAllString(s, -1) {
		n += len(gluedWords.FindAllString(stripSurnamePrefix(w), -1))
	}
	return n
}

func stripSurnamePrefix(w string) string {
	for _, p := range surnamePrefixes {
		if rest, ok := strings.CutPrefix(w, p); ok {
			if r, _ := utf8.DecodeRuneInString(rest); unicode.IsUpper(r) {
				return rest
			}
		}
	}
	return w
}

// hasRepeatedHalf catches text rendered twice back to back, which happens
// when a truncated preview and the full body are read together.
func hasRepeatedHalf(s string) bool {
	words := strings.Fields(s)
	n := len(words)
	if n < 12 || n%2 != 0 {
		return false
	}
	return strings.Join(words[:n/2], " ") == strings.Join(words[n/2:], " ")
}

// CleanReviewText strips surrounding quotes and trailing expansion controls.
func CleanReviewText(s string) string {
	trim := func(s string) string {
		return strings.TrimFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) || r == '"' || r == '“' || r == '”'
		})
	}
	s = trim(strings.Join(strings.Fields(s), " "))
	for _, suffix := range []string{"read more", "... more", "…more", "… more", "see more", "show more", "...", "…"} {
		if strings.HasSuffix(strings.ToLower(s), suffix) {
			s = trim(s[:len(s)-len(suffix)])
		}
	}
	return s
}

// Tokens returns the lower-cased word tokens of s used for similarity.
func Tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) > 1 {
			out[w] = struct{}{}
		}
	}
	return out
}

// Similarity is the token-overlap ratio of a and b: shared tokens over the
// smaller token set, so a truncated preview scores 1 against the full text.
// The denominator never drops below half the larger set; a one-line blurb
// does not match every long review that happens to use its words.
func Similarity(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	if len(ta) > len(tb) {
		ta, tb = tb, ta
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	denom := len(ta)
	if half := (len(tb) + 1) / 2; denom < half {
		denom = half
	}
	return float64(shared) / float64(denom)
}
