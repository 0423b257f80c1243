package services

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"realtor-extractor/models"
	"realtor-extractor/utils"
)

// phaseOrder is the order phases are printed in.
var phaseOrder = []models.Phase{
	models.PhaseKeyContent,
	models.PhaseAgent,
	models.PhaseListings,
	models.PhaseReviews,
	models.PhaseNormalize,
	models.PhaseDuplicateCheck,
}

type SummaryService struct {
	logger utils.Logger
}

func NewSummaryService(logger utils.Logger) *SummaryService {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &SummaryService{logger: logger}
}

// Generate digests a finished run. Prices come from the normalized profile,
// so a run that never reached Normalizing reports none.
func (s *SummaryService) Generate(res *models.ExtractionResult) *models.Summary {
	sum := &models.Summary{
		SourceURL:        res.SourceURL,
		AgentName:        res.Agent.Name,
		State:            res.Metadata.FinalState,
		TotalListings:    len(res.Listings),
		ListingsByStatus: make(map[string]int),
		PhotoCount:       res.Photos.Count(),
		GalleryCount:     len(res.Photos.Gallery),
		ReviewCount:      len(res.Reviews),
		PhaseDurations:   res.Metadata.PhaseDurations,
		Errors:           res.Metadata.Errors,
		Duplicate:        res.Duplicate.IsDuplicate,
	}

	for _, l := range res.Listings {
		sum.ListingsByStatus[l.Status]++
	}

	var rated int
	var ratingTotal float64
	for _, r := range res.Reviews {
		if r.Rating > 0 {
			rated++
			ratingTotal += r.Rating
		}
	}
	if rated > 0 {
		sum.AverageRating = round2(ratingTotal / float64(rated))
	}

	if res.Profile != nil {
		var priced []*models.Property
		for i := range res.Profile.Properties {
			if res.Profile.Properties[i].Price > 0 {
				priced = append(priced, &res.Profile.Properties[i])
			}
		}
		if len(priced) > 0 {
			sum.MinPrice = priced[0].Price
			sum.MaxPrice = priced[0].Price
			sum.MostExpensive = priced[0]
			var total float64
			for _, p := range priced {
				total += p.Price
				if p.Price < sum.MinPrice {
					sum.MinPrice = p.Price
				}
				if p.Price > sum.MaxPrice {
					sum.MaxPrice = p.Price
					sum.MostExpensive = p
				}
			}
			sum.AveragePrice = round2(total / float64(len(priced)))
			sum.MinPrice = round2(sum.MinPrice)
			sum.MaxPrice = round2(sum.MaxPrice)
		}
	}

	s.logger.Debug("[summary] generated",
		zap.String("source_url", sum.SourceURL),
		zap.Int("listings", sum.TotalListings),
		zap.Int("reviews", sum.ReviewCount),
	)
	return sum
}

// Print renders the summary as tables on w.
func (s *SummaryService) Print(w io.Writer, sum *models.Summary) {
	overview := table.NewWriter()
	overview.SetOutputMirror(w)
	overview.SetStyle(table.StyleLight)
	overview.SetTitle("Extraction Summary")
	overview.AppendRow(table.Row{"Source", truncate(sum.SourceURL, 70)})
	overview.AppendRow(table.Row{"Agent", orDash(sum.AgentName)})
	overview.AppendRow(table.Row{"State", sum.State})
	overview.AppendRow(table.Row{"Duplicate", sum.Duplicate})
	overview.AppendSeparator()
	overview.AppendRow(table.Row{"Listings", sum.TotalListings})
	for _, status := range sortedKeys(sum.ListingsByStatus) {
		overview.AppendRow(table.Row{"  " + orDash(status), sum.ListingsByStatus[status]})
	}
	overview.AppendRow(table.Row{"Photos", sum.PhotoCount})
	overview.AppendRow(table.Row{"Gallery photos", sum.GalleryCount})
	overview.AppendRow(table.Row{"Reviews", sum.ReviewCount})
	if sum.AverageRating > 0 {
		overview.AppendRow(table.Row{"Average rating", fmt.Sprintf("%.2f", sum.AverageRating)})
	}
	overview.AppendSeparator()
	if sum.AveragePrice > 0 {
		overview.AppendRow(table.Row{"Average price", fmt.Sprintf("$%.2f", sum.AveragePrice)})
		overview.AppendRow(table.Row{"Minimum price", fmt.Sprintf("$%.2f", sum.MinPrice)})
		overview.AppendRow(table.Row{"Maximum price", fmt.Sprintf("$%.2f", sum.MaxPrice)})
	} else {
		overview.AppendRow(table.Row{"Prices", "no price data"})
	}
	if sum.MostExpensive != nil {
		overview.AppendRow(table.Row{"Most expensive", truncate(sum.MostExpensive.Address, 50)})
	}
	overview.Render()

	phases := table.NewWriter()
	phases.SetOutputMirror(w)
	phases.SetStyle(table.StyleLight)
	phases.AppendHeader(table.Row{"Phase", "Duration", "Error"})
	var errCount int
	for _, p := range phaseOrder {
		d, ran := sum.PhaseDurations[p]
		e := sum.Errors[p]
		if !ran && e == "" {
			continue
		}
		if e != "" {
			errCount++
		}
		phases.AppendRow(table.Row{p, d.Round(time.Millisecond).String(), orDash(e)})
	}
	phases.AppendFooter(table.Row{"", "errors", errCount})
	phases.Render()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
