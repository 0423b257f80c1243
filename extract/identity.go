package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"realtor-extractor/dom"
	"realtor-extractor/validate"
)

// NameSelectors locate the agent's name, most specific first.
var NameSelectors = []string{
	`[data-testid="agent-name"]`,
	`[data-testid="profile-name"]`,
	`.agent-name`,
	`.profile-name`,
	`[itemprop="name"][class*="agent"]`,
	`h1[class*="AgentName"]`,
	`.agent-details h1`,
	`.profile-header h1`,
	`h1`,
}

// KeyContentSelectors signal that the profile has rendered enough to read.
var KeyContentSelectors = append([]string{
	`[data-testid="agent-profile"]`,
	`.agent-profile`,
}, NameSelectors[:len(NameSelectors)-1]...)

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:Listing Agent|Agent|REALTOR®?|Realtor®?|Broker)\s*[:®]\s*(\p{Lu}[\p{L}'’.\-]*(?:[ \t]+\p{Lu}[\p{L}'’.\-]*){1,3})`),
	regexp.MustCompile(`REALTOR®\s+(\p{Lu}[\p{L}'’.\-]*(?:[ \t]+\p{Lu}[\p{L}'’.\-]*){1,3})`),
	regexp.MustCompile(`(?:Meet|About|Contact)\s+(\p{Lu}[\p{L}'’.\-]*(?:[ \t]+\p{Lu}[\p{L}'’.\-]*){1,3})`),
}

var titleSeparators = regexp.MustCompile(`\s*(?:\||\s-\s|\s–\s|\s—\s|,|:)\s*`)

func nameCascade() Cascade[string] {
	return Cascade[string]{
		Field: "name",
		Strategies: []Strategy[string]{
			selectorTexts("name-selectors", NameSelectors...),
			{
				Name:   "name-text-patterns",
				Source: SourcePattern,
				Find: func(doc *goquery.Document) []string {
					text := dom.PageText(doc)
					var out []string
					for _, re := range namePatterns {
						for _, m := range re.FindAllStringSubmatch(text, -1) {
							out = append(out, m[1])
						}
					}
					return out
				},
			},
			{
				Name:   "name-linked-data",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []string {
					var out []string
					for _, obj := range linkedData(doc) {
						if ldTypeIs(obj, agentTypes...) {
							out = append(out, ldString(obj, "name"))
						}
					}
					return out
				},
			},
			{
				Name:   "name-document-title",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []string {
					var out []string
					for _, t := range []string{
						doc.Find("title").First().Text(),
						doc.Find(`meta[property="og:title"]`).AttrOr("content", ""),
					} {
						for _, part := range titleSeparators.Split(t, -1) {
							if part = strings.TrimSpace(part); part != "" {
								out = append(out, part)
							}
						}
					}
					return out
				},
			},
		},
		Transform: func(s string) (string, bool) {
			name, ok := validate.AcceptName(s)
			if !ok {
				return "", false
			}
			return TitleCase(name), true
		},
		Accept: validate.Name,
	}
}

// Name returns the agent's name.
func (e *Extractor) Name(doc *goquery.Document) (string, bool) {
	c, ok := nameCascade().First(doc, e.logger)
	return c.Value, ok
}

// TitleCase normalises whitespace and title-cases tokens written entirely
// in upper or lower case. Mixed-case tokens ("McDonald") are kept.
func TitleCase(s string) string {
	caser := cases.Title(language.English)
	fields := strings.Fields(s)
	for i, f := range fields {
		if isSingleCase(f) {
			fields[i] = caser.String(f)
		}
	}
	return strings.Join(fields, " ")
}

func isSingleCase(s string) bool {
	var upper, lower bool
	for _, r := range s {
		if unicode.IsUpper(r) {
			upper = true
		} else if unicode.IsLower(r) {
			lower = true
		}
	}
	return !(upper && lower)
}

var (
	titleSelectors = []string{`[data-testid="agent-title"]`, `.agent-title`, `.job-title`, `[itemprop="jobTitle"]`}
	titlePattern   = regexp.MustCompile(`(?i)\b(Broker[- ](?:Associate|Owner)|Managing Broker|Principal Broker|Associate Broker|Real Estate (?:Agent|Salesperson|Broker|Consultant)|Sales (?:Associate|Agent)|Listing Agent|Buyer'?s Agent|Team Lead(?:er)?|REALTOR®)`)
)

// Title returns the agent's professional title.
func (e *Extractor) Title(doc *goquery.Document) (string, bool) {
	c, ok := Cascade[string]{
		Field: "title",
		Strategies: []Strategy[string]{
			selectorTexts("title-selectors", titleSelectors...),
			{
				Name:   "title-pattern",
				Source: SourcePattern,
				Find: func(doc *goquery.Document) []string {
					return firstSubmatches(titlePattern, dom.PageText(doc))
				},
			},
			{
				Name:   "title-linked-data",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []string {
					var out []string
					for _, obj := range linkedData(doc) {
						if ldTypeIs(obj, agentTypes...) {
							out = append(out, ldString(obj, "jobTitle"))
						}
					}
					return out
				},
			},
		},
		Accept: validate.All[string](
			validate.Func[string](func(s string) bool {
				return len(s) >= 3 && len(s) <= 80 && !strings.ContainsAny(s, "0123456789@")
			}),
			validate.Func[string](func(s string) bool { return !validate.Name.Valid(s) }),
		),
	}.First(doc, e.logger)
	return c.Value, ok
}

var (
	licenseSelectors = []string{`[data-testid="agent-license"]`, `.agent-license`, `.license-number`, `.license`}
	licenseNumber    = regexp.MustCompile(`(?i)\b(?:licen[sc]e|lic\.|dre)\s*(?:number|no\.?|num)?\s*[:#]*\s*#?\s*:?\s*([a-z]{0,4}\d[\da-z\-]{3,18})\b`)
	licenseStateLead = regexp.MustCompile(`\b([A-Z]{2})\s+(?:Real Estate\s+|RE\s+)?(?:[Ll]icen[sc]e|LICENSE|Lic\.)`)
	licenseStateTail = regexp.MustCompile(`(?i)licen[sc]e[^\n]{0,40}?\(([A-Z]{2})\)`)
	dreMarker        = regexp.MustCompile(`\b(?:CA\s+)?DRE\b`)
)

var usStates = func() map[string]bool {
	m := make(map[string]bool)
	for _, s := range strings.Fields("AL AK AZ AR CA CO CT DE DC FL GA HI ID IL IN IA KS KY LA ME MD MA MI MN MS MO MT NE NV NH NJ NM NY NC ND OH OK OR PA RI SC SD TN TX UT VT VA WA WV WI WY PR") {
		m[s] = true
	}
	return m
}()

// License returns the license number and issuing state.
func (e *Extractor) License(doc *goquery.Document) (number, state string) {
	var texts []string
	for _, sel := range licenseSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if !dom.InChrome(s) {
				texts = append(texts, dom.Text(s))
			}
		})
	}
	texts = append(texts, strings.Split(dom.PageText(doc), "\n")...)

	for _, t := range texts {
		m := licenseNumber.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		number = strings.ToUpper(m[1])
		state = licenseState(t)
		break
	}
	return number, state
}

func licenseState(text string) string {
	for _, re := range []*regexp.Regexp{licenseStateLead, licenseStateTail} {
		if m := re.FindStringSubmatch(text); m != nil {
			if st := strings.ToUpper(m[1]); usStates[st] {
				return st
			}
		}
	}
	if dreMarker.MatchString(text) {
		return "CA"
	}
	return ""
}

var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d{1,2})\+?\s*(?:years?|yrs?\.?)\s+(?:of\s+)?(?:experience|in (?:the )?(?:business|real estate|industry))`),
	regexp.MustCompile(`(?i)experience\s*:?\s*(\d{1,2})\+?\s*(?:years?|yrs?)`),
	regexp.MustCompile(`(?i)(?:over|more than)\s+(\d{1,2})\s+years`),
}

// ExperienceYears returns the agent's years in the business, 0 when absent.
func (e *Extractor) ExperienceYears(doc *goquery.Document) int {
	c, ok := Cascade[int]{
		Field: "experience_years",
		Strategies: []Strategy[int]{
			{
				Name:   "experience-selectors",
				Source: SourceSelector,
				Find: func(doc *goquery.Document) []int {
					var out []int
					doc.Find(`[data-testid="agent-experience"], .agent-experience, .experience`).Each(func(_ int, s *goquery.Selection) {
						out = append(out, yearsIn(dom.Text(s))...)
					})
					return out
				},
			},
			{
				Name:   "experience-pattern",
				Source: SourcePattern,
				Find: func(doc *goquery.Document) []int {
					return yearsIn(dom.PageText(doc))
				},
			},
		},
		Accept: validate.Func[int](func(n int) bool { return n > 0 && n <= 70 }),
	}.First(doc, e.logger)
	if !ok {
		return 0
	}
	return c.Value
}

func yearsIn(text string) []int {
	var out []int
	for _, re := range experiencePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if n, err := strconv.Atoi(m[1]); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}

var profileImageSelectors = []string{
	`[data-testid="agent-photo"] img`,
	`img[data-testid="agent-photo"]`,
	`.agent-photo img`,
	`img.agent-photo`,
	`.profile-photo img`,
	`.agent-image img`,
	`.profile-image img`,
	`img[itemprop="image"]`,
}

// ProfileImage returns the absolute URL of the agent's headshot.
func (e *Extractor) ProfileImage(doc *goquery.Document) (string, bool) {
	c, ok := Cascade[string]{
		Field: "profile_image",
		Strategies: []Strategy[string]{
			{
				Name:   "profile-image-selectors",
				Source: SourceSelector,
				Find: func(doc *goquery.Document) []string {
					var out []string
					for _, sel := range profileImageSelectors {
						doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
							for _, img := range dom.ImagesIn(s, doc.Url) {
								out = append(out, img.URL)
							}
						})
					}
					return out
				},
			},
			{
				Name:   "profile-image-linked-data",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []string {
					var out []string
					for _, obj := range linkedData(doc) {
						if ldTypeIs(obj, agentTypes...) {
							out = append(out, dom.ResolveURL(doc.Url, ldString(obj, "image")))
						}
					}
					return out
				},
			},
			{
				Name:   "profile-image-og",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []string {
					return []string{dom.ResolveURL(doc.Url, doc.Find(`meta[property="og:image"]`).AttrOr("content", ""))}
				},
			},
		},
		Accept: validate.Func[string](func(s string) bool { return s != "" }),
	}.First(doc, e.logger)
	return c.Value, ok
}

func firstSubmatches(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
