package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"realtor-extractor/dom"
	"realtor-extractor/models"
	"realtor-extractor/validate"
)

var (
	phoneSelectors = []string{`[data-testid="agent-phone"]`, `.agent-phone`, `.phone-number`, `[itemprop="telephone"]`, `.phone`}
	emailSelectors = []string{`[data-testid="agent-email"]`, `.agent-email`, `[itemprop="email"]`, `.email`}

	phonePattern = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	mobileLabel = regexp.MustCompile(`(?i)\b(?:mobile|cell|direct|text)\b`)
	officeLabel = regexp.MustCompile(`(?i)\b(?:office|main|brokerage|work)\b`)
	faxLabel    = regexp.MustCompile(`(?i)\bfax\b`)
)

// portalDomains host the profile page itself and never count as the
// agent's own website or email.
var portalDomains = []string{"realtor.com", "move.com", "zillow.com", "trulia.com", "redfin.com", "homes.com"}

var socialHosts = map[string]string{
	"facebook.com":  "facebook",
	"fb.com":        "facebook",
	"linkedin.com":  "linkedin",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"instagram.com": "instagram",
}

var shareIntent = regexp.MustCompile(`(?i)/(?:sharer|share|intent|sharearticle|dialog)(?:[/.?]|$)|[?&](?:u|url)=`)

// Phones returns the agent's phone numbers, each labelled with its kind
// when a nearby label says so. Duplicate numbers keep the first label.
func (e *Extractor) Phones(doc *goquery.Document) []models.Phone {
	var out []models.Phone
	seen := make(map[string]int)
	add := func(raw, context string) {
		if !validate.Phone.Valid(raw) {
			return
		}
		key := validate.Digits(raw)
		key = key[len(key)-10:]
		kind := phoneKind(context)
		if i, ok := seen[key]; ok {
			if out[i].Kind == models.PhoneUnknown {
				out[i].Kind = kind
			}
			return
		}
		seen[key] = len(out)
		out = append(out, models.Phone{Kind: kind, Number: strings.TrimSpace(strings.TrimPrefix(raw, "tel:"))})
	}

	doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		if dom.InChrome(s) {
			return
		}
		href, _ := s.Attr("href")
		add(strings.TrimPrefix(href, "tel:"), labelContext(s))
	})
	for _, sel := range phoneSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if dom.InChrome(s) {
				return
			}
			for _, m := range phonePattern.FindAllString(dom.Text(s), -1) {
				add(m, labelContext(s))
			}
		})
	}
	if len(out) > 0 {
		e.logger.Debug("[extract] phones found by selectors")
		return out
	}

	body := withoutChrome(doc)
	for _, line := range strings.Split(dom.InnerText(body), "\n") {
		for _, loc := range phonePattern.FindAllStringIndex(line, -1) {
			start := loc[0] - 24
			if start < 0 {
				start = 0
			}
			add(line[loc[0]:loc[1]], line[start:loc[0]])
		}
	}
	return out
}

// labelContext is the text a phone label would live in: the element, its
// aria-label and its parent.
func labelContext(s *goquery.Selection) string {
	return s.AttrOr("aria-label", "") + " " + s.AttrOr("title", "") + " " + dom.Text(s.Parent())
}

func phoneKind(context string) string {
	switch {
	case faxLabel.MatchString(context):
		return models.PhoneFax
	case mobileLabel.MatchString(context):
		return models.PhoneMobile
	case officeLabel.MatchString(context):
		return models.PhoneOffice
	}
	return models.PhoneUnknown
}

// withoutChrome returns a detached copy of the body with page furniture
// removed. The snapshot itself is left untouched.
func withoutChrome(doc *goquery.Document) *goquery.Selection {
	body := doc.Find("body").Clone()
	body.Find(dom.Chrome).Remove()
	return body
}

// Email returns the agent's lower-cased email address.
func (e *Extractor) Email(doc *goquery.Document) (string, bool) {
	c, ok := Cascade[string]{
		Field: "email",
		Strategies: []Strategy[string]{
			{
				Name:   "email-mailto",
				Source: SourceSelector,
				Find: func(doc *goquery.Document) []string {
					var out []string
					doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
						if dom.InChrome(s) {
							return
						}
						addr := strings.TrimPrefix(s.AttrOr("href", ""), "mailto:")
						if i := strings.IndexByte(addr, '?'); i >= 0 {
							addr = addr[:i]
						}
						if u, err := url.QueryUnescape(addr); err == nil {
							addr = u
						}
						out = append(out, addr)
					})
					return out
				},
			},
			{
				Name:   "email-selectors",
				Source: SourceSelector,
				Find: func(doc *goquery.Document) []string {
					var out []string
					for _, sel := range emailSelectors {
						doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
							if !dom.InChrome(s) {
								out = append(out, emailPattern.FindAllString(dom.Text(s), -1)...)
							}
						})
					}
					return out
				},
			},
			{
				Name:   "email-pattern",
				Source: SourcePattern,
				Find: func(doc *goquery.Document) []string {
					return emailPattern.FindAllString(dom.InnerText(withoutChrome(doc)), -1)
				},
			},
		},
		Transform: func(s string) (string, bool) {
			s = strings.ToLower(strings.TrimSpace(s))
			return s, !onPortal(s[strings.LastIndexByte(s, '@')+1:])
		},
		Accept: validate.Email,
	}.First(doc, e.logger)
	return c.Value, ok
}

var websiteLabel = regexp.MustCompile(`(?i)\b(?:website|web site|visit my site|my site|homepage)\b`)

// Website returns the agent's own site, never a social profile or the
// portal hosting the page.
func (e *Extractor) Website(doc *goquery.Document) (string, bool) {
	c, ok := Cascade[string]{
		Field: "website",
		Strategies: []Strategy[string]{
			{
				Name:   "website-selectors",
				Source: SourceSelector,
				Find: func(doc *goquery.Document) []string {
					return hrefs(doc, `[data-testid="agent-website"] a, a[data-testid="agent-website"], .agent-website a, a.agent-website, a[itemprop="url"]`)
				},
			},
			{
				Name:   "website-labelled-link",
				Source: SourceStructural,
				Find: func(doc *goquery.Document) []string {
					var out []string
					doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
						if dom.InChrome(s) {
							return
						}
						label := dom.Text(s) + " " + s.AttrOr("aria-label", "") + " " + s.AttrOr("title", "")
						if websiteLabel.MatchString(label) {
							out = append(out, dom.ResolveURL(doc.Url, s.AttrOr("href", "")))
						}
					})
					return out
				},
			},
		},
		Accept: validate.Func[string](func(s string) bool {
			u, err := url.Parse(s)
			if err != nil || u.Host == "" {
				return false
			}
			_, social := socialNetwork(u.Host)
			return !social && !onPortal(u.Host)
		}),
	}.First(doc, e.logger)
	return c.Value, ok
}

func hrefs(doc *goquery.Document, selector string) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if !dom.InChrome(s) {
			out = append(out, dom.ResolveURL(doc.Url, s.AttrOr("href", "")))
		}
	})
	return out
}

// Social returns the agent's social profiles. Links in page chrome (the
// portal's own accounts) and share-intent URLs are ignored.
func (e *Extractor) Social(doc *goquery.Document) models.SocialLinks {
	var links models.SocialLinks
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if dom.InChrome(s) {
			return
		}
		raw := dom.ResolveURL(doc.Url, s.AttrOr("href", ""))
		u, err := url.Parse(raw)
		if err != nil || shareIntent.MatchString(u.Path+"?"+u.RawQuery) {
			return
		}
		network, ok := socialNetwork(u.Host)
		if !ok || strings.Trim(u.Path, "/") == "" {
			return
		}
		switch network {
		case "facebook":
			setOnce(&links.Facebook, raw)
		case "linkedin":
			setOnce(&links.LinkedIn, raw)
		case "twitter":
			setOnce(&links.Twitter, raw)
		case "instagram":
			setOnce(&links.Instagram, raw)
		}
	})
	return links
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func socialNetwork(host string) (string, bool) {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	host = strings.TrimPrefix(host, "m.")
	for domain, network := range socialHosts {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return network, true
		}
	}
	return "", false
}

func onPortal(host string) bool {
	host = strings.ToLower(host)
	for _, d := range portalDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
