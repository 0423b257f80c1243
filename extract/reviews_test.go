package extract

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtor-extractor/config"
	"realtor-extractor/models"
	"realtor-extractor/validate"
)

const (
	reviewA = "Jane was fantastic from start to finish. She negotiated a great price on our first home and kept us informed every step of the way."
	reviewB = "Selling our house felt impossible until we hired Jane. Her staging advice and pricing strategy got us three offers in the first weekend."
)

func TestProcessReviews_FiltersAndRecordsReasons(t *testing.T) {
	res := ProcessReviews([]models.ReviewRecord{
		{Text: "Professionalism & communication", Author: "Sam"},
		{Text: reviewA, Author: "Alex P."},
		{Text: "Did Jane Doe help you with your property? Write a review", Author: ""},
		{Text: "Great agent!", Author: "Kim"},
	})

	require.Len(t, res.Accepted, 1)
	assert.Equal(t, reviewA, res.Accepted[0].Text)

	reasons := map[string]string{}
	for _, c := range res.Rejected() {
		reasons[c.Record.Text] = c.Reason
	}
	assert.Equal(t, map[string]string{
		"Professionalism & communication":                          validate.RejectRatingCategory,
		"Did Jane Doe help you with your property? Write a review": validate.RejectPrompt,
		"Great agent!": validate.RejectTooShort,
	}, reasons)
}

func TestProcessReviews_FoldsNearDuplicatesKeepingFirstAuthor(t *testing.T) {
	res := ProcessReviews([]models.ReviewRecord{
		{Text: reviewA + " Read more", Author: "Alex P.", Strategy: "structural"},
		{Text: reviewB, Author: "", Strategy: "structural"},
		{Text: reviewA + " Highly recommend!", Author: "A. Parker", Rating: 5, Strategy: "modern-layout"},
		{Text: "“" + reviewB + "”", Author: "Morgan", Strategy: "text-pattern"},
	})

	require.Len(t, res.Accepted, 2)
	assert.Equal(t, reviewA, res.Accepted[0].Text)
	assert.Equal(t, "Alex P.", res.Accepted[0].Author)
	assert.Equal(t, 5.0, res.Accepted[0].Rating)
	assert.Equal(t, "Morgan", res.Accepted[1].Author, "missing author is filled from the duplicate")

	dups := 0
	for _, c := range res.Candidates {
		if c.Reason == RejectDuplicate {
			dups++
			assert.GreaterOrEqual(t, c.DuplicateOf, 0)
		}
	}
	assert.Equal(t, 2, dups)
}

func TestMergeReviews_Idempotent(t *testing.T) {
	in := []models.ReviewRecord{
		{Text: reviewA, Author: "Alex P."},
		{Text: reviewA + " Thanks again Jane!", Author: "Alex"},
		{Text: reviewB},
		{Text: reviewB, Author: "Morgan", Verified: true},
	}
	once := MergeReviews(in)
	twice := MergeReviews(once)

	assert.Equal(t, once, twice)
	require.Len(t, once, 2)
	assert.Equal(t, "Morgan", once[1].Author)
	assert.True(t, once[1].Verified)
}

func TestReviews_UnionAcrossStrategies(t *testing.T) {
	doc := parse(t, `<html><body>
	<section class="reviews">
		<h2>Recommendations (4)</h2>
		<div class="review-card">
			<p class="review-text">`+reviewA+`</p>
			<span class="review-author">Alex P.</span>
			<span itemprop="ratingValue" content="5">5.0</span>
		</div>
		<div class="review-card">
			<p class="review-text">`+reviewA+` Highly recommend!</p>
			<span class="review-author">Alex Parker</span>
		</div>
		<div class="review-card">
			<p class="review-text">Professionalism &amp; communication</p>
		</div>
		<div class="review-card">
			<p class="review-text">`+reviewB+`</p>
			<span class="review-author">Morgan L.</span>
			<time datetime="2024-03-02">March 2024</time>
		</div>
	</section>
	</body></html>`)

	res := newTestExtractor().Reviews(doc)

	require.Len(t, res.Accepted, 2)
	assert.Equal(t, "Alex P.", res.Accepted[0].Author)
	assert.Equal(t, 5.0, res.Accepted[0].Rating)
	assert.Equal(t, "structural", res.Accepted[0].Strategy)
	assert.Equal(t, "Morgan L.", res.Accepted[1].Author)
	assert.Equal(t, "2024-03-02", res.Accepted[1].Date)
}

func TestReviews_TextPatternFallback(t *testing.T) {
	doc := parse(t, `<html><body><div class="content">
		<div>“`+reviewB+`”</div>
		<div>— Morgan Lee</div>
	</div></body></html>`)

	res := newTestExtractor().Reviews(doc)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, reviewB, res.Accepted[0].Text)
	assert.Equal(t, "Morgan Lee", res.Accepted[0].Author)
	assert.Equal(t, "text-pattern", res.Accepted[0].Strategy)
}

func longQuote(sentences int) string {
	parts := make([]string, sentences)
	for i := range parts {
		parts[i] = fmt.Sprintf("On visit %d Jane walked us through another home and answered every question we had.", i+1)
	}
	return strings.Join(parts, " ")
}

func TestReviews_TextPatternLongQuotes(t *testing.T) {
	long := longQuote(14)
	require.Greater(t, utf8.RuneCountInString(long), 1000)
	require.LessOrEqual(t, utf8.RuneCountInString(long), config.MaxReviewLength)

	tooLong := longQuote(30)
	require.Greater(t, utf8.RuneCountInString(tooLong), config.MaxReviewLength)

	t.Run("quote over a thousand characters is read", func(t *testing.T) {
		doc := parse(t, `<html><body><div class="content">
			<div>“`+long+`”</div>
			<div>— Morgan Lee</div>
		</div></body></html>`)

		res := newTestExtractor().Reviews(doc)
		require.Len(t, res.Accepted, 1)
		assert.Equal(t, long, res.Accepted[0].Text)
		assert.Equal(t, "Morgan Lee", res.Accepted[0].Author)
		assert.Equal(t, "text-pattern", res.Accepted[0].Strategy)
	})

	t.Run("quote over the length ceiling is ignored", func(t *testing.T) {
		doc := parse(t, `<html><body><div class="content">
			<div>“`+tooLong+`”</div>
			<div>— Morgan Lee</div>
		</div></body></html>`)

		assert.Empty(t, newTestExtractor().Reviews(doc).Accepted)
	})
}
