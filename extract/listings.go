package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"realtor-extractor/dom"
	"realtor-extractor/models"
	"realtor-extractor/validate"
)

// ListingContainerSelectors locate property cards, most specific first.
// Only the first selector that matches anything is used for a snapshot.
var ListingContainerSelectors = []string{
	`[data-testid="listing-card"]`,
	`[data-testid="property-card"]`,
	`.listing-card`,
	`.property-card`,
	`[class*="ListingCard"]`,
	`.card-listing`,
}

// ListingLoadingSelectors are indicators that listings are still loading.
var ListingLoadingSelectors = []string{
	`[data-testid="listings-loading"]`,
	`.listings .loading`,
	`.listing-loader`,
	`.loading`,
	`.spinner`,
	`.skeleton`,
	`[aria-busy="true"]`,
}

// ListingTab is a status tab on the listings section.
type ListingTab struct {
	Status    string
	Selectors []string
}

// ListingTabs are visited in order by the orchestrator.
var ListingTabs = []ListingTab{
	{Status: models.StatusActive, Selectors: []string{`[data-testid="active-listings-tab"]`, `button[data-tab="active"]`, `#for-sale-tab`, `.listing-tabs .for-sale`}},
	{Status: models.StatusSold, Selectors: []string{`[data-testid="sold-listings-tab"]`, `button[data-tab="sold"]`, `#sold-tab`, `.listing-tabs .sold`}},
}

var (
	addressSelectors = []string{`[data-testid="card-address"]`, `.listing-address`, `.property-address`, `.address`, `[itemprop="streetAddress"]`}
	priceSelectors   = []string{`[data-testid="card-price"]`, `.listing-price`, `.price`}
	bedsSelectors    = []string{`[data-testid="property-meta-beds"]`, `.beds`, `.bed`}
	bathsSelectors   = []string{`[data-testid="property-meta-baths"]`, `.baths`, `.bath`}
	areaSelectors    = []string{`[data-testid="property-meta-sqft"]`, `.sqft`, `.area`}
	typeSelectors    = []string{`[data-testid="property-type"]`, `.property-type`}

	pricePattern  = regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d+)?(?:\s?[KkMm]\b)?`)
	bedsPattern   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:bds?|beds?|bedrooms?|br)\b`)
	bathsPattern  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\+?\s*(?:ba|baths?|bathrooms?)\b`)
	areaPattern   = regexp.MustCompile(`(?i)(\d[\d,]*)\s*(?:sq\.?\s*ft\.?|sqft|square\s+feet)`)
	bareNumber    = regexp.MustCompile(`^\s*(\d[\d,]*(?:\.\d+)?)\s*$`)
	typePattern   = regexp.MustCompile(`(?i)\b(single[- ]family(?: home)?|condo(?:minium)?|townho(?:use|me)|multi[- ]family|mobile home|manufactured|apartment|co-op|farm|ranch|land|lot)\b`)
	soldPattern   = regexp.MustCompile(`(?i)\bsold\b`)
	pendPattern   = regexp.MustCompile(`(?i)\b(?:pending|under contract|contingent)\b`)
	activePattern = regexp.MustCompile(`(?i)\b(?:for sale|active|new listing|coming soon)\b`)

	idAttrs     = []string{"data-listing-id", "data-property-id", "data-listingid", "data-id"}
	idInURL     = []*regexp.Regexp{regexp.MustCompile(`_M(\d{4,}-\d{3,})`), regexp.MustCompile(`(?i)(?:property|listing|prop)[_-]?id=(\w+)`), regexp.MustCompile(`/(\d{6,})(?:[/?#]|$)`)}
	leadingNums = regexp.MustCompile(`^(\d+)\s`)
)

// Listings reads up to limit distinct listings from the cards in doc.
// status is the tab the snapshot was taken on. truncated reports that more
// cards were present than the limit allowed.
func (e *Extractor) Listings(doc *goquery.Document, status string, limit int) (listings []models.ListingRecord, truncated bool) {
	cardSel, ok := dom.FirstPresent(doc, ListingContainerSelectors)
	if !ok {
		e.logger.Debug("[extract] no listing containers", zap.String("status", status))
		return nil, false
	}

	cards := doc.Find(cardSel)
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if limit > 0 && len(listings) >= limit {
			truncated = true
			return false
		}
		if dom.InChrome(card) {
			return true
		}
		rec := listingFromCard(doc, card, status)
		if rec.Address == "" && rec.RawPrice == "" && rec.ID == "" {
			return true
		}
		rec.Photos, rec.PhotoStrategy = e.associatePhotos(doc, card, cardSel, rec)
		listings = MergeListings(append(listings, rec))
		return true
	})

	e.logger.Info("[extract] listings extracted",
		zap.String("status", status),
		zap.Int("cards", cards.Length()),
		zap.Int("listings", len(listings)),
		zap.Bool("truncated", truncated),
	)
	return listings, truncated
}

func listingFromCard(doc *goquery.Document, card *goquery.Selection, status string) models.ListingRecord {
	text := dom.InnerText(card)
	rec := models.ListingRecord{
		Address:      cardAddress(card, text),
		RawPrice:     cardField(card, priceSelectors, pricePattern, text, false),
		RawBeds:      cardField(card, bedsSelectors, bedsPattern, text, true),
		RawBaths:     cardField(card, bathsSelectors, bathsPattern, text, true),
		RawArea:      cardField(card, areaSelectors, areaPattern, text, true),
		PropertyType: cardType(card, text),
		Status:       cardStatus(text, status),
		DetailURL:    cardLink(doc, card),
	}
	rec.ID = cardID(card, rec.DetailURL)
	return rec
}

func cardAddress(card *goquery.Selection, text string) string {
	if t := firstText(card, addressSelectors); t != "" {
		return t
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if !validate.Address.Valid(l) {
			continue
		}
		if i+1 < len(lines) && validate.Address.Valid(lines[i+1]) && !strings.Contains(l, ",") {
			return l + ", " + lines[i+1]
		}
		return l
	}
	return ""
}

// cardField returns a field's raw text: the selector text (or its captured
// number) first, then a pattern match anywhere in the card.
func cardField(card *goquery.Selection, selectors []string, re *regexp.Regexp, text string, capture bool) string {
	pick := func(s string) string {
		m := re.FindStringSubmatch(s)
		if m == nil {
			return ""
		}
		if capture {
			return m[1]
		}
		return strings.TrimSpace(m[0])
	}
	if t := firstText(card, selectors); t != "" {
		if v := pick(t); v != "" {
			return v
		}
		if m := bareNumber.FindStringSubmatch(t); m != nil {
			return m[1]
		}
		if !capture {
			return t
		}
	}
	return pick(text)
}

func cardType(card *goquery.Selection, text string) string {
	if t := firstText(card, typeSelectors); t != "" {
		return t
	}
	if m := typePattern.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

func cardStatus(text, tab string) string {
	switch {
	case soldPattern.MatchString(text):
		return models.StatusSold
	case pendPattern.MatchString(text):
		return models.StatusPending
	case activePattern.MatchString(text):
		return models.StatusActive
	case tab != "":
		return tab
	}
	return models.StatusActive
}

func cardLink(doc *goquery.Document, card *goquery.Selection) string {
	links := card.Filter("a[href]").AddSelection(card.Find("a[href]"))
	var out string
	links.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "mailto:") {
			return true
		}
		out = dom.ResolveURL(doc.Url, href)
		return out == ""
	})
	return out
}

func cardID(card *goquery.Selection, detailURL string) string {
	for _, attr := range idAttrs {
		if v := strings.TrimSpace(card.AttrOr(attr, "")); v != "" {
			return v
		}
		if v := strings.TrimSpace(card.Find("["+attr+"]").First().AttrOr(attr, "")); v != "" {
			return v
		}
	}
	for _, re := range idInURL {
		if m := re.FindStringSubmatch(detailURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// SameListing reports whether a and b describe the same property: equal
// ids, equal normalised addresses, or at least two of price, beds and
// baths equal where both sides have them. Conflicting house numbers or ids
// rule the last case out.
func SameListing(a, b models.ListingRecord) bool {
	if a.ID != "" && a.ID == b.ID {
		return true
	}
	na, nb := validate.NormalizeAddress(a.Address), validate.NormalizeAddress(b.Address)
	if na != "" && na == nb {
		return true
	}
	if a.ID != "" && b.ID != "" {
		return false
	}
	if ha, hb := houseNumber(na), houseNumber(nb); ha != "" && hb != "" && ha != hb {
		return false
	}

	matches := 0
	for _, pair := range [][2]string{{a.RawPrice, b.RawPrice}, {a.RawBeds, b.RawBeds}, {a.RawBaths, b.RawBaths}} {
		x, y := numberKey(pair[0]), numberKey(pair[1])
		if x != "" && x == y {
			matches++
		}
	}
	return matches >= 2
}

func houseNumber(normalized string) string {
	if m := leadingNums.FindStringSubmatch(normalized); m != nil {
		return m[1]
	}
	return ""
}

func numberKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.':
			return r
		case r == 'k' || r == 'K':
			return 'k'
		case r == 'm' || r == 'M':
			return 'm'
		}
		return -1
	}, s)
}

// MergeListings folds listings describing the same property into the first
// occurrence, filling its empty fields and unioning photos.
func MergeListings(in []models.ListingRecord) []models.ListingRecord {
	var out []models.ListingRecord
next:
	for _, l := range in {
		for i := range out {
			if SameListing(out[i], l) {
				out[i] = mergeListing(out[i], l)
				continue next
			}
		}
		out = append(out, l)
	}
	return out
}

func mergeListing(a, b models.ListingRecord) models.ListingRecord {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&a.ID, b.ID)
	fill(&a.Address, b.Address)
	fill(&a.RawPrice, b.RawPrice)
	fill(&a.RawBeds, b.RawBeds)
	fill(&a.RawBaths, b.RawBaths)
	fill(&a.RawArea, b.RawArea)
	fill(&a.PropertyType, b.PropertyType)
	fill(&a.Status, b.Status)
	fill(&a.DetailURL, b.DetailURL)
	fill(&a.PhotoStrategy, b.PhotoStrategy)
	a.Photos = unionStrings(a.Photos, b.Photos)
	return a
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
