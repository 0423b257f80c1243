// Package realtor drives one extraction run over a rendered agent profile:
// it waits for content, expands collapsed sections, runs the extractors
// phase by phase under time budgets and hands back whatever was found.
package realtor

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"realtor-extractor/config"
	"realtor-extractor/dom"
	"realtor-extractor/extract"
	"realtor-extractor/models"
	"realtor-extractor/poller"
	"realtor-extractor/services"
	"realtor-extractor/storage"
	"realtor-extractor/utils"
)

// ErrPhaseTimeout is logged when a phase runs out of budget.
var ErrPhaseTimeout = eris.New("realtor: phase timed out")

// Pipeline runs extractions. It holds no per-run state and may be reused.
type Pipeline struct {
	budgets    config.Budgets
	extractor  *extract.Extractor
	normalizer *services.Normalizer
	duplicates storage.DuplicateChecker
	logger     utils.Logger
}

// New creates a Pipeline. duplicates may be nil, in which case the
// duplicate check is skipped.
func New(budgets config.Budgets, duplicates storage.DuplicateChecker, logger utils.Logger) *Pipeline {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Pipeline{
		budgets:    budgets,
		extractor:  extract.New(logger),
		normalizer: services.NewNormalizer(logger),
		duplicates: duplicates,
		logger:     logger,
	}
}

// run is the state of a single Run call.
type run struct {
	*Pipeline
	res        *models.ExtractionResult
	page       dom.Page
	interactor dom.Interactor
	poll       *poller.Poller
	ctx        context.Context // bounded by budgets.Total
	logger     utils.Logger
}

// Run extracts everything it can from target within the budgets. It never
// fails: phases that run out of time keep their partial output and are
// recorded in the result's metadata.
func (p *Pipeline) Run(ctx context.Context, target models.ExtractionTarget) *models.ExtractionResult {
	sourceURL := target.SourceURL
	if sourceURL == "" && target.Page != nil {
		sourceURL = target.Page.URL()
	}

	res := &models.ExtractionResult{
		SourceURL: sourceURL,
		Metadata: models.Metadata{
			StartedAt:      time.Now(),
			PhaseDurations: make(map[models.Phase]time.Duration),
			Errors:         make(map[models.Phase]string),
			Truncated:      make(map[models.Phase]bool),
		},
	}

	runCtx, cancel := context.WithTimeout(ctx, p.budgets.Total)
	defer cancel()

	r := &run{
		Pipeline: p,
		res:      res,
		page:     target.Page,
		ctx:      runCtx,
		logger:   p.logger.With(zap.String("source_url", sourceURL)),
	}
	r.interactor, _ = target.Page.(dom.Interactor)
	r.poll = poller.New(target.Page, poller.Config{
		Interval:    p.budgets.PollInterval,
		MaxAttempts: p.budgets.PollMaxAttempts,
		Timeout:     p.budgets.PollTimeout,
	}, p.logger)

	r.logger.Info("[realtor] extraction started")
	r.enter(models.StateIdle)

	r.enter(models.StateWaitingForKeyContent)
	r.phase(models.PhaseKeyContent, p.budgets.KeyContent, r.waitForKeyContent)

	r.enter(models.StateExtractingAgent)
	r.phase(models.PhaseAgent, p.budgets.Agent, r.extractAgent)

	r.enter(models.StateExtractingListings)
	r.phase(models.PhaseListings, p.budgets.Listings, r.extractListings)

	r.enter(models.StateExtractingReviews)
	r.phase(models.PhaseReviews, p.budgets.Reviews, r.extractReviews)

	r.enter(models.StateNormalizing)
	start := time.Now()
	res.Profile = p.normalizer.Normalize(res)
	res.Metadata.PhaseDurations[models.PhaseNormalize] = time.Since(start)

	r.enter(models.StateCheckingDuplicate)
	r.checkDuplicate(ctx)

	final := models.StateComplete
	for _, e := range res.Metadata.Errors {
		if e == models.ErrTimeout || e == models.ErrSkipped {
			final = models.StatePartialTimeout
		}
	}
	r.enter(final)
	res.Metadata.FinalState = final
	res.Metadata.FinishedAt = time.Now()

	r.logger.Info("[realtor] extraction finished",
		zap.String("state", string(final)),
		zap.Duration("elapsed", res.Metadata.FinishedAt.Sub(res.Metadata.StartedAt)),
		zap.Int("listings", len(res.Listings)),
		zap.Int("reviews", len(res.Reviews)),
		zap.Int("photos", res.Photos.Count()),
	)
	return res
}

func (r *run) enter(s models.State) {
	r.res.Metadata.States = append(r.res.Metadata.States, s)
	r.logger.Debug("[realtor] state", zap.String("state", string(s)))
}

// phase runs fn under its own budget. A phase is skipped outright when the
// run budget is already spent.
func (r *run) phase(phase models.Phase, budget time.Duration, fn func(ctx context.Context)) {
	if r.ctx.Err() != nil {
		r.res.Metadata.Errors[phase] = models.ErrSkipped
		r.logger.Warn("[realtor] phase skipped, run budget spent", zap.String("phase", string(phase)))
		return
	}

	phaseCtx, cancel := context.WithTimeout(r.ctx, budget)
	defer cancel()

	start := time.Now()
	fn(phaseCtx)
	elapsed := time.Since(start)
	r.res.Metadata.PhaseDurations[phase] = elapsed

	if phaseCtx.Err() != nil {
		r.res.Metadata.Errors[phase] = models.ErrTimeout
		r.logger.Warn("[realtor] keeping partial output",
			zap.String("phase", string(phase)),
			zap.Duration("budget", budget),
			zap.Duration("elapsed", elapsed),
			zap.Error(eris.Wrapf(ErrPhaseTimeout, "%s", phase)),
		)
	}
}

// snapshot reads the current document. It runs under the run budget rather
// than the phase budget so a phase that just timed out can still read what
// rendered.
func (r *run) snapshot() *goquery.Document {
	doc, err := r.page.Snapshot(r.ctx)
	if err != nil {
		r.logger.Warn("[realtor] snapshot failed", zap.Error(err))
		return nil
	}
	return doc
}

// click presses the first control in selectors present in doc. It reports
// whether anything was clicked.
func (r *run) click(ctx context.Context, doc *goquery.Document, selectors []string) bool {
	if r.interactor == nil || doc == nil {
		return false
	}
	sel, ok := dom.FirstPresent(doc, selectors)
	if !ok {
		return false
	}
	if err := r.interactor.Click(ctx, sel); err != nil {
		if !eris.Is(err, dom.ErrNoElement) {
			r.logger.Warn("[realtor] click failed", zap.String("selector", sel), zap.Error(err))
		}
		return false
	}
	r.logger.Debug("[realtor] clicked", zap.String("selector", sel))
	return true
}

func (r *run) waitForKeyContent(ctx context.Context) {
	if !r.poll.ElementPresent(ctx, extract.KeyContentSelectors...) {
		r.logger.Warn("[realtor] key content not found, proceeding with what is present")
	}
}

func (r *run) extractAgent(ctx context.Context) {
	doc := r.snapshot()
	if doc == nil {
		return
	}
	if r.click(ctx, doc, extract.BioExpandSelectors) {
		if bioSel, ok := dom.FirstPresent(doc, extract.BioSelectors); ok {
			r.poll.ContentStable(ctx, bioSel, r.budgets.StabilityDwell)
		}
		if next := r.snapshot(); next != nil {
			doc = next
		}
	}
	r.res.Agent = r.extractor.Agent(doc)
}

func (r *run) extractListings(ctx context.Context) {
	var (
		listings   []models.ListingRecord
		galleryDoc *goquery.Document
	)
	limit := r.budgets.MaxListings

	for i, tab := range extract.ListingTabs {
		if ctx.Err() != nil || len(listings) >= limit {
			break
		}

		doc := r.snapshot()
		if doc == nil {
			break
		}
		if !r.click(ctx, doc, tab.Selectors) && i > 0 {
			// Only the default view is read without its tab.
			continue
		}

		wait := r.poll.ListingContent(ctx, extract.ListingLoadingSelectors, extract.ListingContainerSelectors)

		if doc = r.snapshot(); doc == nil {
			break
		}
		if !wait.Ready() && dom.AnyPresent(doc, extract.ListingLoadingSelectors) {
			// Still loading: read what rendered, but the section never settled.
			r.res.Metadata.Errors[models.PhaseListings] = models.ErrTimeout
			r.logger.Warn("[realtor] listings never settled",
				zap.String("tab", tab.Status),
				zap.String("reason", string(wait.Reason)),
				zap.Int("attempts", wait.Attempts),
			)
		}
		if galleryDoc == nil {
			galleryDoc = doc
		}

		found, truncated := r.extractor.Listings(doc, tab.Status, limit-len(listings))
		listings = extract.MergeListings(append(listings, found...))
		if truncated {
			r.res.Metadata.Truncated[models.PhaseListings] = true
		}
		r.logger.Debug("[realtor] listings read",
			zap.String("tab", tab.Status),
			zap.Int("found", len(found)),
			zap.Int("total", len(listings)),
		)
	}

	if len(listings) > limit {
		listings = listings[:limit]
		r.res.Metadata.Truncated[models.PhaseListings] = true
	}
	r.res.Listings = listings
	r.res.Photos = r.extractor.Photos(galleryDoc, listings, r.res.Agent.ProfileImageURL)
}

func (r *run) extractReviews(ctx context.Context) {
	doc := r.snapshot()
	if doc == nil {
		return
	}
	if r.click(ctx, doc, extract.ReviewExpandSelectors) {
		r.poll.ContentStable(ctx, strings.Join(extract.ReviewSectionSelectors, ", "), r.budgets.StabilityDwell)
		if next := r.snapshot(); next != nil {
			doc = next
		}
	}

	result := r.extractor.Reviews(doc)
	r.res.Reviews = result.Accepted
	for _, c := range result.Rejected() {
		r.logger.Debug("[realtor] review rejected",
			zap.String("reason", c.Reason),
			zap.String("strategy", c.Record.Strategy),
		)
	}
}

// checkDuplicate asks persistence about the source URL under its own budget,
// independent of the run budget. Failures degrade to "not a duplicate".
func (r *run) checkDuplicate(parent context.Context) {
	if r.duplicates == nil {
		return
	}

	ctx, cancel := context.WithTimeout(parent, r.budgets.DuplicateCheck)
	defer cancel()

	start := time.Now()
	check, err := r.duplicates.CheckDuplicate(ctx, r.res.SourceURL)
	r.res.Metadata.PhaseDurations[models.PhaseDuplicateCheck] = time.Since(start)

	if err != nil {
		reason := models.ErrUnavailable
		if ctx.Err() != nil {
			reason = models.ErrTimeout
		}
		r.res.Metadata.Errors[models.PhaseDuplicateCheck] = reason
		r.logger.Warn("[realtor] duplicate check failed, treating as new", zap.Error(err))
		return
	}

	r.res.Duplicate = models.DuplicateStatus{
		Checked:     true,
		IsDuplicate: check.IsDuplicate,
		Existing:    check.Existing,
	}
	if check.IsDuplicate {
		r.logger.Info("[realtor] profile already stored")
	}
}
