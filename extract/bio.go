package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"realtor-extractor/config"
	"realtor-extractor/dom"
	"realtor-extractor/validate"
)

// BioSelectors locate the biography block.
var BioSelectors = []string{
	`[data-testid="agent-bio"]`,
	`[data-testid="agent-description"]`,
	`.agent-bio`,
	`.agent-description`,
	`#about-me`,
	`.about-agent`,
	`[itemprop="description"]`,
	`.bio`,
}

// BioExpandSelectors are the "see more" controls that reveal the rest of a
// truncated biography.
var BioExpandSelectors = []string{
	`[data-testid="bio-see-more"]`,
	`[data-testid="agent-bio"] button`,
	`.agent-bio .see-more`,
	`.bio .read-more`,
	`.about-agent button.see-more`,
}

var (
	bioHeading    = regexp.MustCompile(`(?i)^(?:about(?: me)?|about\s+[\p{L}'. \-]{2,60}|biography|my story|meet\s+[\p{L}'. \-]{2,60})$`)
	bioControls   = regexp.MustCompile(`(?i)\s*(?:\.\.\.|…)?\s*(?:see|read|show)\s+(?:more|less)\s*$`)
	reviewishArea = `[class*="review"], [class*="recommend"], [class*="testimonial"], [class*="listing"], [class*="property"]`
)

// Bio returns the agent's biography with line breaks preserved.
func (e *Extractor) Bio(doc *goquery.Document) (string, bool) {
	c, ok := Cascade[string]{
		Field: "bio",
		Strategies: []Strategy[string]{
			{
				Name:   "bio-selectors",
				Source: SourceSelector,
				Find: func(doc *goquery.Document) []string {
					var out []string
					for _, sel := range BioSelectors {
						doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
							if !dom.InChrome(s) {
								out = append(out, bioText(s))
							}
						})
					}
					return out
				},
			},
			{
				Name:   "bio-about-heading",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []string {
					var out []string
					doc.Find("h2, h3, h4").Each(func(_ int, h *goquery.Selection) {
						if dom.InChrome(h) || !bioHeading.MatchString(dom.Text(h)) {
							return
						}
						var parts []string
						for n := h.Next(); n.Length() > 0 && !n.Is("h1, h2, h3, h4"); n = n.Next() {
							parts = append(parts, dom.InnerText(n))
						}
						out = append(out, cleanBio(strings.Join(parts, "\n")))
					})
					return out
				},
			},
			{
				Name:   "bio-longest-paragraph",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []string {
					best := ""
					doc.Find("p").Each(func(_ int, p *goquery.Selection) {
						if dom.InChrome(p) || p.Closest(reviewishArea).Length() > 0 {
							return
						}
						if t := dom.Text(p); len(t) > len(best) && validate.ReviewRejection(t) != validate.RejectContaminated {
							best = t
						}
					})
					return []string{best}
				},
			},
		},
		Transform: func(s string) (string, bool) {
			return truncateRunes(s, config.MaxBioLength), true
		},
		Accept: validate.Func[string](func(s string) bool {
			return utf8.RuneCountInString(s) >= config.MinBioLength
		}),
	}.First(doc, e.logger)
	return c.Value, ok
}

func bioText(s *goquery.Selection) string {
	s = s.Clone()
	s.Find("button, " + strings.Join(BioExpandSelectors, ", ")).Remove()
	return cleanBio(dom.InnerText(s))
}

func cleanBio(s string) string {
	return strings.TrimSpace(bioControls.ReplaceAllString(strings.TrimSpace(s), ""))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
