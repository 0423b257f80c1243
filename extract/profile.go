package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"realtor-extractor/dom"
	"realtor-extractor/models"
	"realtor-extractor/validate"
)

// labeledList describes one list-valued profile field ("Languages: ...").
type labeledList struct {
	field     string
	selectors []string
	label     *regexp.Regexp
}

var (
	specializationList = labeledList{
		field:     "specializations",
		selectors: []string{`[data-testid="agent-specializations"]`, `.specializations`, `.specialties`},
		label:     regexp.MustCompile(`(?i)^(?:specialt(?:y|ies)|speciali[sz]ations?|areas? of expertise)\s*:?\s*`),
	}
	languageList = labeledList{
		field:     "languages",
		selectors: []string{`[data-testid="agent-languages"]`, `.languages`, `[itemprop="knowsLanguage"]`},
		label:     regexp.MustCompile(`(?i)^(?:languages?(?: spoken)?|speaks)\s*:?\s*`),
	}
	certificationList = labeledList{
		field:     "certifications",
		selectors: []string{`[data-testid="agent-certifications"]`, `.certifications`, `.designations`},
		label:     regexp.MustCompile(`(?i)^(?:certifications?|designations?|credentials)\s*:?\s*`),
	}
	serviceAreaList = labeledList{
		field:     "service_areas",
		selectors: []string{`[data-testid="agent-service-areas"]`, `.service-areas`, `.areas-served`},
		label:     regexp.MustCompile(`(?i)^(?:service areas?|areas? served|markets? served|cities served)\s*:?\s*`),
	}
)

var (
	listSplit  = regexp.MustCompile(`\s*(?:[,;•·|]|\s+and\s+)\s*`)
	stateToken = regexp.MustCompile(`^[A-Z]{2}$`)
	listNoise  = regexp.MustCompile(`(?i)^(?:see|show|view|read)\s+(?:more|less|all)$`)
)

const maxListItems = 30

func (l labeledList) cascade() Cascade[[]string] {
	return Cascade[[]string]{
		Field: l.field,
		Strategies: []Strategy[[]string]{
			{
				Name:   l.field + "-selectors",
				Source: SourceSelector,
				Find: func(doc *goquery.Document) [][]string {
					var out [][]string
					for _, sel := range l.selectors {
						doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
							out = append(out, listItems(s, l.label))
						})
					}
					return out
				},
			},
			{
				Name:   l.field + "-heading",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) [][]string {
					var out [][]string
					doc.Find("h2, h3, h4, h5, h6, dt, strong, b, label, span, p").Each(func(_ int, s *goquery.Selection) {
						t := dom.Text(s)
						if len(t) > 40 || !l.label.MatchString(t) || l.label.ReplaceAllString(t, "") != "" {
							return
						}
						next := s.Next()
						if next.Length() == 0 {
							next = s.Parent().Next()
						}
						if next.Length() > 0 && !dom.InChrome(next) {
							out = append(out, listItems(next, nil))
						}
					})
					return out
				},
			},
			{
				Name:   l.field + "-inline",
				Source: SourcePattern,
				Find: func(doc *goquery.Document) [][]string {
					var out [][]string
					for _, line := range strings.Split(dom.PageText(doc), "\n") {
						loc := l.label.FindStringIndex(line)
						if loc == nil || loc[1] == len(line) {
							continue
						}
						out = append(out, splitList(line[loc[1]:]))
					}
					return out
				},
			},
		},
		Accept: validate.Func[[]string](func(items []string) bool { return len(items) > 0 }),
	}
}

// listItems reads li children when present, otherwise splits the text.
func listItems(s *goquery.Selection, label *regexp.Regexp) []string {
	var items []string
	if lis := s.Find("li"); lis.Length() > 0 {
		lis.Each(func(_ int, li *goquery.Selection) {
			items = append(items, dom.Text(li))
		})
		return cleanList(items)
	}
	t := dom.Text(s)
	if label != nil {
		t = label.ReplaceAllString(t, "")
	}
	return splitList(t)
}

func splitList(s string) []string {
	var parts []string
	for _, p := range listSplit.Split(s, -1) {
		p = strings.TrimSpace(p)
		if stateToken.MatchString(p) && len(parts) > 0 {
			parts[len(parts)-1] += ", " + p
			continue
		}
		parts = append(parts, p)
	}
	return cleanList(parts)
}

func cleanList(items []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		it = strings.Trim(dom.CleanText(it), ".:-–— ")
		key := strings.ToLower(it)
		if len(it) < 2 || len(it) > 60 || seen[key] || listNoise.MatchString(it) {
			continue
		}
		seen[key] = true
		out = append(out, it)
		if len(out) == maxListItems {
			break
		}
	}
	return out
}

func (e *Extractor) list(doc *goquery.Document, l labeledList) []string {
	c, _ := l.cascade().First(doc, e.logger)
	return c.Value
}

// Specializations returns the agent's listed specialties.
func (e *Extractor) Specializations(doc *goquery.Document) []string {
	return e.list(doc, specializationList)
}

// Languages returns the languages the agent speaks.
func (e *Extractor) Languages(doc *goquery.Document) []string {
	return e.list(doc, languageList)
}

// Certifications returns professional designations.
func (e *Extractor) Certifications(doc *goquery.Document) []string {
	return e.list(doc, certificationList)
}

// ServiceAreas returns the cities or neighbourhoods the agent serves.
func (e *Extractor) ServiceAreas(doc *goquery.Document) []string {
	return e.list(doc, serviceAreaList)
}

var (
	ratingValuePattern = regexp.MustCompile(`(?i)(\d(?:\.\d{1,2})?)\s*(?:out of 5|/\s*5(?:\.0)?\b|stars?\b)`)
	ratingCountPattern = regexp.MustCompile(`(?i)\(?(\d[\d,]*)\s+(?:reviews?|ratings?|recommendations?)\b`)
)

// Rating returns the page-level aggregate score.
func (e *Extractor) Rating(doc *goquery.Document) models.AggregateRating {
	c, _ := Cascade[models.AggregateRating]{
		Field: "rating",
		Strategies: []Strategy[models.AggregateRating]{
			{
				Name:   "rating-linked-data",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []models.AggregateRating {
					var out []models.AggregateRating
					for _, obj := range linkedData(doc) {
						agg, ok := obj["aggregateRating"].(map[string]any)
						if !ok {
							continue
						}
						var r models.AggregateRating
						r.Value, _ = ldFloat(agg, "ratingValue")
						if n, ok := ldFloat(agg, "reviewCount"); ok {
							r.Count = int(n)
						} else if n, ok := ldFloat(agg, "ratingCount"); ok {
							r.Count = int(n)
						}
						out = append(out, r)
					}
					return out
				},
			},
			{
				Name:   "rating-microdata",
				Source: SourceSelector,
				Find: func(doc *goquery.Document) []models.AggregateRating {
					var out []models.AggregateRating
					doc.Find(`[itemprop="aggregateRating"]`).Each(func(_ int, s *goquery.Selection) {
						var r models.AggregateRating
						r.Value, _ = strconv.ParseFloat(itemprop(s, "ratingValue"), 64)
						count := itemprop(s, "reviewCount")
						if count == "" {
							count = itemprop(s, "ratingCount")
						}
						r.Count, _ = strconv.Atoi(strings.ReplaceAll(count, ",", ""))
						out = append(out, r)
					})
					return out
				},
			},
			{
				Name:   "rating-selectors",
				Source: SourceSelector,
				Find: func(doc *goquery.Document) []models.AggregateRating {
					var out []models.AggregateRating
					doc.Find(`[data-testid="agent-rating"], .agent-rating, .rating-summary`).Each(func(_ int, s *goquery.Selection) {
						out = append(out, parseRating(dom.Text(s)))
					})
					return out
				},
			},
			{
				Name:   "rating-pattern",
				Source: SourcePattern,
				Find: func(doc *goquery.Document) []models.AggregateRating {
					var out []models.AggregateRating
					for _, line := range strings.Split(dom.PageText(doc), "\n") {
						if ratingValuePattern.MatchString(line) {
							out = append(out, parseRating(line))
						}
					}
					return out
				},
			},
		},
		Accept: validate.Func[models.AggregateRating](func(r models.AggregateRating) bool {
			return r.Value > 0 && r.Value <= 5
		}),
	}.First(doc, e.logger)
	return c.Value
}

func itemprop(s *goquery.Selection, name string) string {
	el := s.Find(`[itemprop="` + name + `"]`).First()
	if v, ok := el.Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return dom.Text(el)
}

func parseRating(text string) models.AggregateRating {
	var r models.AggregateRating
	if m := ratingValuePattern.FindStringSubmatch(text); m != nil {
		r.Value, _ = strconv.ParseFloat(m[1], 64)
	} else if f, err := strconv.ParseFloat(strings.Fields(text + " x")[0], 64); err == nil {
		r.Value = f
	}
	if m := ratingCountPattern.FindStringSubmatch(text); m != nil {
		r.Count, _ = strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	}
	return r
}
