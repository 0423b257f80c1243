package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"realtor-extractor/dom"
	"realtor-extractor/models"
	"realtor-extractor/validate"
)

var (
	officeNameSelectors = []string{
		`[data-testid="office-name"]`,
		`[data-testid="broker-name"]`,
		`.office-name`,
		`.brokerage-name`,
		`.agent-office .name`,
		`[itemprop="worksFor"] [itemprop="name"]`,
	}
	officeAddressSelectors = []string{
		`[data-testid="office-address"]`,
		`.office-address`,
		`.agent-office .address`,
		`[itemprop="worksFor"] [itemprop="address"]`,
		`[itemprop="address"]`,
	}
	officeCandidateElements = "a, span, p, strong, b, div, h2, h3, h4, h5, li"
	officeLabelPrefix       = regexp.MustCompile(`(?i)^(?:office|brokerage|broker|company|agency)\s*:\s*`)
)

// maxProximityDepth bounds how far up from an office candidate we look for
// the agent's name block.
const maxProximityDepth = 4

// Office returns the brokerage the agent is affiliated with. name is the
// already accepted agent name, used to prefer company mentions close to
// the agent's own block over unrelated ones elsewhere on the page.
func (e *Extractor) Office(doc *goquery.Document, name string, phones []models.Phone) models.Office {
	var office models.Office

	var anchor *goquery.Selection
	c, ok := Cascade[string]{
		Field: "office_name",
		Strategies: []Strategy[string]{
			selectorTexts("office-selectors", officeNameSelectors...),
			{
				Name:   "office-linked-data",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []string {
					var out []string
					for _, obj := range linkedData(doc) {
						if works, ok := obj["worksFor"].(map[string]any); ok {
							out = append(out, ldString(works, "name"))
						}
					}
					return out
				},
			},
			{
				Name:   "office-keyword-scoring",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []string {
					best, sel := e.scoreOfficeCandidates(doc, name)
					anchor = sel
					return best
				},
			},
		},
		Transform: func(s string) (string, bool) {
			return strings.TrimSpace(officeLabelPrefix.ReplaceAllString(dom.CleanText(s), "")), true
		},
		Accept: validate.OfficeName,
	}.First(doc, e.logger)
	if ok {
		office.Name = c.Value
	}

	office.Address = e.officeAddress(doc, anchor)
	for _, p := range phones {
		if p.Kind == models.PhoneOffice {
			office.Phone = p.Number
			break
		}
	}
	return office
}

// scoreOfficeCandidates ranks short leaf-ish texts by company-keyword
// co-occurrence plus proximity to the agent's name. It returns the texts
// best first and the selection of the winner.
func (e *Extractor) scoreOfficeCandidates(doc *goquery.Document, name string) ([]string, *goquery.Selection) {
	type scored struct {
		text  string
		score int
		sel   *goquery.Selection
	}
	var cands []scored
	seen := make(map[string]bool)

	doc.Find(officeCandidateElements).Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 2 || dom.InChrome(s) {
			return
		}
		t := strings.TrimSpace(officeLabelPrefix.ReplaceAllString(dom.Text(s), ""))
		if len(t) < 3 || len(t) > 120 || seen[t] {
			return
		}
		kw := validate.CompanyScore(t)
		if kw == 0 || !validate.IsValidOfficeName(t) {
			return
		}
		seen[t] = true
		cands = append(cands, scored{text: t, score: kw*10 + proximity(s, name), sel: s})
	})
	if len(cands) == 0 {
		return nil, nil
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	e.logger.Debug("[extract] office candidates scored",
		zap.Int("candidates", len(cands)),
		zap.String("best", cands[0].text),
		zap.Int("score", cands[0].score),
	)
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.text
	}
	return out, cands[0].sel
}

// proximity rewards candidates sharing a close ancestor with the agent name.
func proximity(s *goquery.Selection, name string) int {
	if name == "" {
		return 0
	}
	p := s.Parent()
	for depth := 1; depth <= maxProximityDepth && p.Length() > 0; depth++ {
		if strings.Contains(dom.Text(p), name) {
			return (maxProximityDepth + 1 - depth) * 5
		}
		p = p.Parent()
	}
	return 0
}

func (e *Extractor) officeAddress(doc *goquery.Document, anchor *goquery.Selection) string {
	for _, sel := range officeAddressSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if dom.InChrome(s) {
				return true
			}
			if t := dom.Text(s); validate.IsAddressLike(t) {
				found = t
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	if anchor == nil {
		return ""
	}
	p := anchor.Parent()
	for depth := 0; depth < 2 && p.Length() > 0; depth++ {
		for _, line := range strings.Split(dom.InnerText(p), "\n") {
			if validate.IsAddressLike(line) {
				return line
			}
		}
		p = p.Parent()
	}
	return ""
}
