package services

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"realtor-extractor/models"
	"realtor-extractor/utils"
	"realtor-extractor/validate"
)

var (
	// agentIDRegexp captures the id segment of /realestateagents/{id}
	agentIDRegexp = regexp.MustCompile(`/realestateagents/([^/?#]+)`)
	// priceRegexp captures a numeric amount with an optional K/M multiplier
	priceRegexp = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*([kKmM])?\b`)
	// countRegexp captures the first number in a bed/bath/area string
	countRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	// rdcpixSize matches the size suffix of realtor.com CDN photo names
	rdcpixSize = regexp.MustCompile(`^(https?://[^/]*rdcpix\.com/.*-[a-z]\d+)([a-z]{1,3})(\.(?:jpe?g|png|webp))$`)
)

// sizingParams are query parameters image CDNs use to serve thumbnails.
var sizingParams = []string{"w", "h", "width", "height", "size", "resize", "fit", "crop", "quality", "q"}

// trackingParams never identify a page.
var trackingPrefixes = []string{"utm_", "fbclid", "gclid", "cid"}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"01/02/2006",
	"1/2/2006",
	"02 Jan 2006",
}

var monthLayouts = []string{"January 2006", "Jan 2006", "01/2006", "2006-01"}

// Normalizer projects an ExtractionResult onto the canonical AgentProfile.
type Normalizer struct {
	logger utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger utils.Logger) *Normalizer {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Normalizer{logger: logger}
}

// Normalize builds the canonical record. Absent values come out as null
// strings and empty arrays.
func (n *Normalizer) Normalize(res *models.ExtractionResult) *models.AgentProfile {
	a := res.Agent
	p := &models.AgentProfile{
		AgentID:   AgentID(res.SourceURL),
		SourceURL: res.SourceURL,
		Name:      models.Str(normaliseText(a.Name)),
		Title:     models.Str(normaliseText(a.Title)),
		Company:   models.Str(normaliseText(a.Office.Name)),
		Email:     models.Str(NormalizeEmail(a.Contact.Email)),
		Address:   models.Str(normaliseText(a.Office.Address)),
		Website:   models.Str(NormalizeURL(a.Contact.Website)),
		Bio:       models.Str(normaliseBio(a.Bio)),

		Specializations: normaliseList(a.Specializations),
		Languages:       normaliseList(a.Languages),
		Certifications:  normaliseList(a.Certifications),
		ServiceAreas:    normaliseList(a.ServiceAreas),

		ExperienceYears: a.ExperienceYears,
		LicenseNumber:   models.Str(strings.TrimSpace(a.License.Number)),
		LicenseState:    models.Str(strings.ToUpper(strings.TrimSpace(a.License.State))),
		ProfileImageURL: models.Str(UpgradeImageURL(a.ProfileImageURL)),

		SocialMedia: models.SocialMedia{
			Facebook:  NormalizeURL(a.Contact.Social.Facebook),
			LinkedIn:  NormalizeURL(a.Contact.Social.LinkedIn),
			Twitter:   NormalizeURL(a.Contact.Social.Twitter),
			Instagram: NormalizeURL(a.Contact.Social.Instagram),
		},

		Properties:      make([]models.Property, 0, len(res.Listings)),
		Recommendations: make([]models.Recommendation, 0, len(res.Reviews)),
	}

	phone := FormatPhone(a.Contact.PrimaryPhone())
	if phone == "" {
		phone = FormatPhone(a.Office.Phone)
	}
	p.Phone = models.Str(phone)

	if a.Rating.Value > 0 {
		v := a.Rating.Value
		p.Ratings.Rating = &v
	}
	if a.Rating.Count > 0 {
		c := a.Rating.Count
		p.Ratings.Count = &c
	}

	for _, l := range res.Listings {
		p.Properties = append(p.Properties, n.property(res.SourceURL, l))
	}
	for _, r := range res.Reviews {
		p.Recommendations = append(p.Recommendations, models.Recommendation{
			Text:   normaliseText(r.Text),
			Author: normaliseText(r.Author),
			Date:   NormalizeDate(r.Date),
		})
	}

	n.logger.Debug("[normalizer] profile built",
		zap.String("agent_id", p.AgentID),
		zap.Int("properties", len(p.Properties)),
		zap.Int("recommendations", len(p.Recommendations)),
	)
	return p
}

func (n *Normalizer) property(sourceURL string, l models.ListingRecord) models.Property {
	prop := models.Property{
		PropertyID:    l.ID,
		Address:       normaliseText(l.Address),
		Price:         ParsePrice(l.RawPrice),
		Bedrooms:      ParseCount(l.RawBeds),
		Bathrooms:     ParseCount(l.RawBaths),
		SquareFeet:    int(ParseCount(l.RawArea)),
		PropertyType:  strings.ToLower(normaliseText(l.PropertyType)),
		ListingStatus: l.Status,
		ImageURLs:     make([]string, 0, len(l.Photos)),
	}
	if prop.PropertyID == "" {
		prop.PropertyID = PropertyID(sourceURL, l.Address)
	}
	seen := make(map[string]bool)
	for _, u := range l.Photos {
		if u = UpgradeImageURL(u); u != "" && !seen[u] {
			seen[u] = true
			prop.ImageURLs = append(prop.ImageURLs, u)
		}
	}
	return prop
}

// AgentID derives the agent id from the profile URL: the segment after
// /realestateagents/, else the last path segment.
func AgentID(sourceURL string) string {
	if m := agentIDRegexp.FindStringSubmatch(sourceURL); m != nil {
		return m[1]
	}
	u, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	return segs[len(segs)-1]
}

// PropertyID is a stable id for a listing without a page-provided one.
func PropertyID(sourceURL, address string) string {
	key := sourceURL + "|" + validate.NormalizeAddress(address)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// FormatPhone renders a US number as "(512) 555-0142", or "" when invalid.
func FormatPhone(raw string) string {
	if !validate.IsValidPhone(raw) {
		return ""
	}
	d := validate.Digits(raw)
	d = d[len(d)-10:]
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(raw string) string {
	e := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "mailto:")))
	if !validate.IsValidEmail(e) {
		return ""
	}
	return e
}

// NormalizeURL makes raw an absolute http(s) URL with a lower-cased host and
// no tracking parameters. Bare domains get https.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	} else if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || !strings.Contains(u.Host, ".") {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		for _, prefix := range trackingPrefixes {
			if strings.HasPrefix(strings.ToLower(k), prefix) {
				q.Del(k)
			}
		}
	}
	u.RawQuery = q.Encode()
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String()
}

// UpgradeImageURL asks image CDNs for the full-resolution variant: realtor.com
// photo size suffixes become "od" (original) and thumbnail sizing query
// parameters are dropped.
func UpgradeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}

	q := u.Query()
	changed := false
	for _, p := range sizingParams {
		if q.Has(p) {
			q.Del(p)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	out := u.String()

	if m := rdcpixSize.FindStringSubmatch(out); m != nil && m[2] != "od" {
		out = m[1] + "od" + m[3]
	}
	return out
}

// ParsePrice converts "$450,000", "$1.2M" or "$850K" to a number.
func ParsePrice(raw string) float64 {
	m := priceRegexp.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(m[2]) {
	case "k":
		v *= 1_000
	case "m":
		v *= 1_000_000
	}
	return v
}

// ParseCount extracts the first number of a bed, bath or area string.
func ParseCount(raw string) float64 {
	m := countRegexp.FindString(raw)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// NormalizeDate renders full dates as 2006-01-02 and month-only dates as
// 2006-01. Anything else ("3 months ago") is kept as written.
func NormalizeDate(raw string) string {
	raw = normaliseText(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01")
		}
	}
	return raw
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), unicode.IsSpace)
	return strings.Join(fields, " ")
}

// normaliseBio keeps paragraph breaks and collapses everything else.
func normaliseBio(s string) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = normaliseText(l); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func normaliseList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool)
	for _, it := range items {
		it = normaliseText(it)
		key := strings.ToLower(it)
		if it == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
