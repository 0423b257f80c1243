package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"realtor-extractor/config"
	"realtor-extractor/dom"
	"realtor-extractor/models"
	"realtor-extractor/validate"
)

// ReviewState is where a candidate review block stands.
type ReviewState string

// Review candidate states. A candidate moves Discovered → Validated →
// Deduplicated and ends Accepted or Rejected.
const (
	ReviewDiscovered   ReviewState = "discovered"
	ReviewValidated    ReviewState = "validated"
	ReviewDeduplicated ReviewState = "deduplicated"
	ReviewAccepted     ReviewState = "accepted"
	ReviewRejected     ReviewState = "rejected"
)

// RejectDuplicate is the rejection reason of a candidate folded into an
// earlier accepted review.
const RejectDuplicate = "duplicate"

// ReviewCandidate is one discovered review block and what became of it.
type ReviewCandidate struct {
	Record models.ReviewRecord
	State  ReviewState
	Reason string
	// DuplicateOf indexes ReviewResult.Accepted when Reason is
	// RejectDuplicate, -1 otherwise.
	DuplicateOf int
}

// ReviewResult holds the accepted reviews and the trail of every candidate.
type ReviewResult struct {
	Accepted   []models.ReviewRecord
	Candidates []ReviewCandidate
}

// Rejected returns the candidates that did not make it, with reasons.
func (r ReviewResult) Rejected() []ReviewCandidate {
	var out []ReviewCandidate
	for _, c := range r.Candidates {
		if c.State == ReviewRejected {
			out = append(out, c)
		}
	}
	return out
}

// ReviewExpandSelectors reveal the full review list.
var ReviewExpandSelectors = []string{
	`[data-testid="show-all-reviews"]`,
	`[data-testid="see-all-recommendations"]`,
	`.reviews .show-all`,
	`button.show-more-reviews`,
	`.recommendations .see-all`,
}

// ReviewSectionSelectors locate the reviews area once rendered.
var ReviewSectionSelectors = []string{
	`[data-testid="reviews-section"]`,
	`[data-testid="recommendations-section"]`,
	`#reviews`,
	`.reviews`,
	`.recommendations`,
}

var (
	reviewContainers = []string{
		`[data-testid="review-card"]`,
		`[data-testid="recommendation-card"]`,
		`[itemprop="review"]`,
		`.review-card`,
		`.recommendation-card`,
		`.review-item`,
		`.testimonial`,
	}
	reviewTextSelectors   = []string{`[itemprop="reviewBody"]`, `.review-text`, `.review-body`, `.recommendation-text`, `.review-content`, `blockquote`, `p`}
	reviewAuthorSelectors = []string{`[itemprop="author"]`, `.review-author`, `.reviewer-name`, `.recommendation-author`, `.author`, `cite`}
	reviewDateSelectors   = []string{`[itemprop="datePublished"]`, `time`, `.review-date`, `.date`}

	genericReviewAreas = `[class*="review"], [id*="review"], [class*="recommend"], [id*="recommend"], [class*="testimonial"]`

	modernCards  = `[class*="RecommendationCard"], [class*="ReviewCard"], [class*="ReviewsCard"], li[data-testid*="review-item"]`
	modernText   = `[class*="Comment"], [class*="comment"], [class*="Description"], [class*="ReviewText"]`
	modernAuthor = `[class*="Reviewer"], [class*="Author"], [class*="author"]`
	modernDate   = `[class*="Date"], time`

	quotedReview = regexp.MustCompile(`[“"]([^”"]{40,})[”"]\s*(?:\n\s*)?[-—–]\s*(\p{Lu}[\p{L}.'’\-]*(?:[ \t]+\p{Lu}[\p{L}.'’\-]*){0,3})`)
	dashAuthor   = regexp.MustCompile(`^\s*[-—–]\s*(.+)$`)
	ratingNumber = regexp.MustCompile(`(\d(?:\.\d)?)`)
	authorPrefix = regexp.MustCompile(`(?i)^\s*(?:[-—–]\s*|by\s+|from\s+)`)
)

func reviewCascade() Cascade[models.ReviewRecord] {
	return Cascade[models.ReviewRecord]{
		Field: "reviews",
		Strategies: []Strategy[models.ReviewRecord]{
			{Name: "structural", Source: SourceSelector, Find: structuralReviews},
			{Name: "generic-page", Source: SourceStructural, Find: genericPageReviews},
			{Name: "text-pattern", Source: SourcePattern, Find: textPatternReviews},
			{Name: "modern-layout", Source: SourceSelector, Find: modernLayoutReviews},
		},
	}
}

// DiscoverReviews runs every discovery strategy and unions the results in
// strategy order. Nothing is validated yet.
func DiscoverReviews(doc *goquery.Document) []models.ReviewRecord {
	var out []models.ReviewRecord
	for _, c := range reviewCascade().All(doc) {
		r := c.Value
		r.Strategy = c.Strategy
		out = append(out, r)
	}
	return out
}

// Reviews discovers, validates and deduplicates the reviews on the page.
func (e *Extractor) Reviews(doc *goquery.Document) ReviewResult {
	res := ProcessReviews(DiscoverReviews(doc))
	e.logger.Info("[extract] reviews processed",
		zap.Int("discovered", len(res.Candidates)),
		zap.Int("accepted", len(res.Accepted)),
		zap.Int("rejected", len(res.Rejected())),
	)
	return res
}

// ProcessReviews moves each discovered candidate through validation and
// deduplication.
func ProcessReviews(discovered []models.ReviewRecord) ReviewResult {
	var res ReviewResult
	for _, rec := range discovered {
		c := ReviewCandidate{Record: rec, State: ReviewDiscovered, DuplicateOf: -1}
		c.Record.Text = validate.CleanReviewText(rec.Text)
		c.Record.Author = cleanAuthor(rec.Author)

		if reason := validate.ReviewRejection(c.Record.Text); reason != "" {
			c.State, c.Reason = ReviewRejected, reason
			res.Candidates = append(res.Candidates, c)
			continue
		}
		c.State = ReviewValidated

		var idx int
		res.Accepted, idx = mergeReview(res.Accepted, c.Record)
		c.State = ReviewDeduplicated
		if idx >= 0 {
			c.State, c.Reason, c.DuplicateOf = ReviewRejected, RejectDuplicate, idx
		} else {
			c.State = ReviewAccepted
		}
		res.Candidates = append(res.Candidates, c)
	}
	return res
}

// MergeReviews folds near-duplicate reviews into the first one seen.
// Applying it to its own output changes nothing.
func MergeReviews(records []models.ReviewRecord) []models.ReviewRecord {
	var out []models.ReviewRecord
	for _, r := range records {
		out, _ = mergeReview(out, r)
	}
	return out
}

// mergeReview appends r unless it is similar to an accepted review, in
// which case it fills that review's missing fields and returns its index.
func mergeReview(accepted []models.ReviewRecord, r models.ReviewRecord) ([]models.ReviewRecord, int) {
	for i, a := range accepted {
		if validate.Similarity(a.Text, r.Text) > config.ReviewSimilarity {
			accepted[i] = foldReview(a, r)
			return accepted, i
		}
	}
	return append(accepted, r), -1
}

func foldReview(first, dup models.ReviewRecord) models.ReviewRecord {
	if first.Author == "" {
		first.Author = dup.Author
	}
	if first.Rating == 0 {
		first.Rating = dup.Rating
	}
	if first.Date == "" {
		first.Date = dup.Date
	}
	first.Verified = first.Verified || dup.Verified
	return first
}

func cleanAuthor(s string) string {
	s = dom.CleanText(authorPrefix.ReplaceAllString(s, ""))
	if len(s) > 80 || validate.IsRatingCategoryOnly(s) {
		return ""
	}
	return s
}

func structuralReviews(doc *goquery.Document) []models.ReviewRecord {
	var out []models.ReviewRecord
	seen := make(map[*html.Node]bool)
	for _, sel := range reviewContainers {
		doc.Find(sel).Each(func(_ int, card *goquery.Selection) {
			if seen[card.Get(0)] || dom.InChrome(card) {
				return
			}
			seen[card.Get(0)] = true
			out = append(out, reviewFromCard(card, reviewTextSelectors, reviewAuthorSelectors, reviewDateSelectors))
		})
	}
	return out
}

func modernLayoutReviews(doc *goquery.Document) []models.ReviewRecord {
	var out []models.ReviewRecord
	doc.Find(modernCards).Each(func(_ int, card *goquery.Selection) {
		if dom.InChrome(card) {
			return
		}
		out = append(out, reviewFromCard(card, []string{modernText}, []string{modernAuthor}, []string{modernDate}))
	})
	return out
}

func reviewFromCard(card *goquery.Selection, textSel, authorSel, dateSel []string) models.ReviewRecord {
	var r models.ReviewRecord

	r.Author = firstText(card, authorSel)
	r.Date = reviewDate(card, dateSel)
	r.Rating = reviewRating(card)
	r.Verified = card.Find(`.verified, [data-testid="verified"]`).Length() > 0 ||
		strings.Contains(strings.ToLower(dom.Text(card)), "verified")

	for _, sel := range textSel {
		var parts []string
		card.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if t := dom.Text(s); t != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) > 0 {
			r.Text = strings.Join(parts, " ")
			return r
		}
	}

	body := card.Clone()
	body.Find(strings.Join(append(append([]string{}, authorSel...), dateSel...), ", ")).Remove()
	body.Find(`[itemprop="reviewRating"], .rating, .stars, button`).Remove()
	r.Text = dom.Text(body)
	return r
}

func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := dom.Text(s.Find(sel).First()); t != "" {
			return t
		}
	}
	return ""
}

func reviewDate(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		el := card.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		for _, attr := range []string{"datetime", "content"} {
			if v := strings.TrimSpace(el.AttrOr(attr, "")); v != "" {
				return v
			}
		}
		if t := dom.Text(el); t != "" {
			return t
		}
	}
	return ""
}

func reviewRating(card *goquery.Selection) float64 {
	var raw string
	if el := card.Find(`[itemprop="ratingValue"]`).First(); el.Length() > 0 {
		raw = el.AttrOr("content", dom.Text(el))
	} else if el := card.Find(`[data-rating]`).First(); el.Length() > 0 {
		raw = el.AttrOr("data-rating", "")
	} else if el := card.Find(`[aria-label*="star"], [aria-label*="rating"], [aria-label*="Rated"]`).First(); el.Length() > 0 {
		raw = el.AttrOr("aria-label", "")
	}
	m := ratingNumber.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil || f <= 0 || f > 5 {
		return 0
	}
	return f
}

func genericPageReviews(doc *goquery.Document) []models.ReviewRecord {
	var out []models.ReviewRecord
	seen := make(map[*html.Node]bool)
	doc.Find(genericReviewAreas).Each(func(_ int, area *goquery.Selection) {
		if dom.InChrome(area) {
			return
		}
		area.Find("p, blockquote, q").Each(func(_ int, b *goquery.Selection) {
			if seen[b.Get(0)] {
				return
			}
			seen[b.Get(0)] = true
			text := dom.Text(b)
			if len(text) < config.MinReviewLength {
				return
			}
			out = append(out, models.ReviewRecord{Text: text, Author: nearbyAuthor(b)})
		})
	})
	return out
}

// nearbyAuthor finds attribution next to a review block: a "— Name" line
// right after it or an author-looking element in the same parent.
func nearbyAuthor(b *goquery.Selection) string {
	if m := dashAuthor.FindStringSubmatch(dom.Text(b.Next())); m != nil {
		return m[1]
	}
	return dom.Text(b.Parent().Find(`[class*="author"], [class*="reviewer"], [class*="name"], cite`).First())
}

func textPatternReviews(doc *goquery.Document) []models.ReviewRecord {
	var out []models.ReviewRecord
	for _, m := range quotedReview.FindAllStringSubmatch(dom.InnerText(withoutChrome(doc)), -1) {
		if utf8.RuneCountInString(m[1]) > config.MaxReviewLength {
			continue
		}
		out = append(out, models.ReviewRecord{Text: m[1], Author: m[2]})
	}
	return out
}
