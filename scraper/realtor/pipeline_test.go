package realtor

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtor-extractor/config"
	"realtor-extractor/dom"
	"realtor-extractor/models"
	"realtor-extractor/storage"
	"realtor-extractor/utils"
)

const profileURL = "https://www.realtor.com/realestateagents/5f1a2b3c4d/jane-doe"

const (
	reviewA = "Jane was fantastic from start to finish. She negotiated a great price on our first home and kept us informed every step of the way."
	// reviewAPreview is reviewA cut short the way collapsed cards render it.
	reviewAPreview = "Jane was fantastic from start to finish. She negotiated a great price on our first home and kept us…"
	reviewB        = "Selling our house felt impossible until we hired Jane. Her staging advice and pricing strategy got us three offers in the first weekend."
)

const loadingFrame = `<html><body><div class="spinner"></div></body></html>`

const agentBlock = `
<div class="agent-profile">
  <h1 class="agent-name">Jane Doe</h1>
  <div class="agent-contact"><span>Mobile</span> <a href="tel:(512) 555-0142">(512) 555-0142</a></div>
</div>`

const listingBlock = `
<div class="listings">
  <div class="listing-card" data-listing-id="M7001-11">
    <a href="/realestateandhomes-detail/123-Main-St_Austin_TX_78701_M7001-11">
      <img src="/photos/7001-front.jpg" width="640" height="480" alt="property">
      <img src="/photos/7001-kitchen.jpg" width="640" height="480">
    </a>
    <div class="price">$450,000</div>
    <div class="address">123 Main St, Austin, TX 78701</div>
  </div>
</div>`

const collapsedReviews = `
<section class="reviews">
  <div class="review-card"><p class="review-text">` + reviewA + `</p><span class="review-author">Alex P.</span></div>
  <button class="show-all">Show all recommendations</button>
</section>`

const expandedReviews = `
<section class="reviews">
  <div class="review-card"><p class="review-text">` + reviewA + `</p><span class="review-author">Alex P.</span></div>
  <div class="review-card"><p class="review-text">Professionalism &amp; communication</p></div>
  <div class="review-card"><p class="review-text">Great agent!</p><span class="review-author">Kim</span></div>
  <div class="review-card"><p class="review-text">` + reviewB + `</p><span class="review-author">Morgan L.</span></div>
  <div class="review-card"><p class="review-text">` + reviewAPreview + `</p><span class="review-author">Alex Parker</span></div>
</section>`

func frame(blocks ...string) string {
	out := "<html><body>"
	for _, b := range blocks {
		out += b
	}
	return out + "</body></html>"
}

func testBudgets() config.Budgets {
	b := config.DefaultBudgets()
	b.KeyContent = 500 * time.Millisecond
	b.Agent = time.Second
	b.Listings = time.Second
	b.Reviews = time.Second
	b.Total = 3 * time.Second
	b.DuplicateCheck = 200 * time.Millisecond
	b.PollInterval = 5 * time.Millisecond
	b.PollMaxAttempts = 1000
	b.PollTimeout = 300 * time.Millisecond
	b.StabilityDwell = 10 * time.Millisecond
	return b
}

type stubChecker struct {
	check storage.DuplicateCheck
	err   error
	calls []string
}

func (s *stubChecker) CheckDuplicate(_ context.Context, sourceURL string) (storage.DuplicateCheck, error) {
	s.calls = append(s.calls, sourceURL)
	return s.check, s.err
}

func TestRun_EndToEnd(t *testing.T) {
	page := dom.NewFixturePage(profileURL,
		loadingFrame,
		frame(agentBlock, listingBlock, collapsedReviews),
	).OnClick(".reviews .show-all", frame(agentBlock, listingBlock, expandedReviews))

	checker := &stubChecker{}
	p := New(testBudgets(), checker, utils.NewNopLogger())
	res := p.Run(context.Background(), models.ExtractionTarget{Page: page, SourceURL: profileURL})

	assert.Equal(t, models.StateComplete, res.Metadata.FinalState)
	assert.Empty(t, res.Metadata.Errors)
	assert.Equal(t, []models.State{
		models.StateIdle,
		models.StateWaitingForKeyContent,
		models.StateExtractingAgent,
		models.StateExtractingListings,
		models.StateExtractingReviews,
		models.StateNormalizing,
		models.StateCheckingDuplicate,
		models.StateComplete,
	}, res.Metadata.States)

	assert.Equal(t, "Jane Doe", res.Agent.Name)
	assert.Equal(t, "(512) 555-0142", res.Agent.Contact.PrimaryPhone())

	require.Len(t, res.Listings, 1)
	assert.Equal(t, "M7001-11", res.Listings[0].ID)
	assert.Len(t, res.Listings[0].Photos, 2)
	assert.Equal(t, 2, res.Photos.Count())

	require.Len(t, res.Reviews, 2, "near-duplicate preview folds into the full review")
	assert.Equal(t, "Alex P.", res.Reviews[0].Author)
	assert.Equal(t, reviewA, res.Reviews[0].Text)
	assert.Equal(t, "Morgan L.", res.Reviews[1].Author)
	assert.Equal(t, []string{".reviews .show-all"}, page.Clicks())

	require.NotNil(t, res.Profile)
	assert.Equal(t, "5f1a2b3c4d", res.Profile.AgentID)
	assert.Equal(t, "Jane Doe", models.Deref(res.Profile.Name))
	require.Len(t, res.Profile.Properties, 1)
	assert.Equal(t, 450000.0, res.Profile.Properties[0].Price)
	assert.Len(t, res.Profile.Recommendations, 2)

	assert.Equal(t, []string{profileURL}, checker.calls)
	assert.True(t, res.Duplicate.Checked)
	assert.False(t, res.Duplicate.IsDuplicate)
}

func TestRun_ListingsBudgetKeepsPartialOutput(t *testing.T) {
	never := `<div class="listings"><div class="listing-loader">Loading listings…</div></div>`
	page := dom.NewFixturePage(profileURL, frame(agentBlock, never, expandedReviews))

	b := testBudgets()
	b.Listings = 150 * time.Millisecond
	b.PollTimeout = 5 * time.Second

	start := time.Now()
	res := New(b, nil, nil).Run(context.Background(), models.ExtractionTarget{Page: page})
	elapsed := time.Since(start)

	assert.Equal(t, models.ErrTimeout, res.Metadata.Errors[models.PhaseListings])
	assert.Less(t, res.Metadata.PhaseDurations[models.PhaseListings], b.Listings+100*time.Millisecond)
	assert.Less(t, elapsed, b.Total)
	assert.Equal(t, models.StatePartialTimeout, res.Metadata.FinalState)
	assert.True(t, res.TimedOut())

	assert.Equal(t, profileURL, res.SourceURL, "source url falls back to the page")
	assert.Equal(t, "Jane Doe", res.Agent.Name)
	assert.Empty(t, res.Listings)
	assert.Len(t, res.Reviews, 2, "later phases still run")
	require.NotNil(t, res.Profile)
	assert.NotNil(t, res.Profile.Properties)
}

// scaledBudgets keeps the production ratios between budgets and poll
// limits, only shorter.
func scaledBudgets(div time.Duration) config.Budgets {
	b := config.DefaultBudgets()
	for _, d := range []*time.Duration{
		&b.KeyContent, &b.Agent, &b.Listings, &b.Reviews, &b.Total,
		&b.DuplicateCheck, &b.PollInterval, &b.PollTimeout, &b.StabilityDwell,
	} {
		*d /= div
	}
	return b
}

func TestRun_ListingsNeverSettleWithProductionRatios(t *testing.T) {
	never := `<div class="listings"><div class="listing-loader">Loading listings…</div></div>`
	page := dom.NewFixturePage(profileURL, frame(agentBlock, never, expandedReviews))

	b := scaledBudgets(100)
	require.Less(t, b.PollTimeout, b.Listings)

	res := New(b, nil, nil).Run(context.Background(), models.ExtractionTarget{Page: page})

	assert.Equal(t, models.ErrTimeout, res.Metadata.Errors[models.PhaseListings])
	assert.Less(t, res.Metadata.PhaseDurations[models.PhaseListings], b.Listings)
	assert.Equal(t, models.StatePartialTimeout, res.Metadata.FinalState)
	assert.Empty(t, res.Listings)
	assert.Equal(t, "Jane Doe", res.Agent.Name)
}

func TestRun_NoListingsIsNotATimeout(t *testing.T) {
	page := dom.NewFixturePage(profileURL, frame(agentBlock, expandedReviews))

	res := New(testBudgets(), nil, nil).Run(context.Background(), models.ExtractionTarget{Page: page})

	assert.NotContains(t, res.Metadata.Errors, models.PhaseListings)
	assert.Equal(t, models.StateComplete, res.Metadata.FinalState)
	assert.Empty(t, res.Listings)
}

func TestRun_TotalBudgetSkipsRemainingPhases(t *testing.T) {
	page := dom.NewFixturePage(profileURL, loadingFrame)

	b := testBudgets()
	b.Total = 100 * time.Millisecond
	b.PollTimeout = 5 * time.Second

	checker := &stubChecker{}
	res := New(b, checker, nil).Run(context.Background(), models.ExtractionTarget{Page: page, SourceURL: profileURL})

	assert.Equal(t, models.ErrTimeout, res.Metadata.Errors[models.PhaseKeyContent])
	for _, phase := range []models.Phase{models.PhaseAgent, models.PhaseListings, models.PhaseReviews} {
		assert.Equal(t, models.ErrSkipped, res.Metadata.Errors[phase], phase)
	}
	assert.Equal(t, models.StatePartialTimeout, res.Metadata.FinalState)
	assert.Contains(t, res.Metadata.States, models.StateNormalizing)
	require.NotNil(t, res.Profile)
	assert.Len(t, checker.calls, 1, "duplicate check has its own budget")
}

func TestRun_DuplicateCheck(t *testing.T) {
	loaded := frame(agentBlock, listingBlock, expandedReviews)

	t.Run("existing profile is reported", func(t *testing.T) {
		existing := &models.AgentProfile{AgentID: "5f1a2b3c4d", Name: models.Str("Jane Doe")}
		checker := &stubChecker{check: storage.DuplicateCheck{IsDuplicate: true, Existing: existing}}

		res := New(testBudgets(), checker, nil).Run(context.Background(),
			models.ExtractionTarget{Page: dom.NewFixturePage(profileURL, loaded), SourceURL: profileURL})

		assert.True(t, res.Duplicate.Checked)
		assert.True(t, res.Duplicate.IsDuplicate)
		assert.Same(t, existing, res.Duplicate.Existing)
		assert.Equal(t, models.StateComplete, res.Metadata.FinalState)
	})

	t.Run("unavailable collaborator degrades to not duplicate", func(t *testing.T) {
		checker := &stubChecker{err: eris.Wrap(storage.ErrUnavailable, "connection refused")}

		res := New(testBudgets(), checker, nil).Run(context.Background(),
			models.ExtractionTarget{Page: dom.NewFixturePage(profileURL, loaded), SourceURL: profileURL})

		assert.False(t, res.Duplicate.Checked)
		assert.False(t, res.Duplicate.IsDuplicate)
		assert.Equal(t, models.ErrUnavailable, res.Metadata.Errors[models.PhaseDuplicateCheck])
		assert.Equal(t, models.StateComplete, res.Metadata.FinalState)
		require.NotNil(t, res.Profile)
		assert.Equal(t, "Jane Doe", models.Deref(res.Profile.Name))
	})
}
