// Package extract turns document snapshots into typed records. Every
// extractor is a pure read of one *goquery.Document: it never clicks, waits
// or mutates anything, so the orchestrator decides when a snapshot is taken.
package extract

import (
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"realtor-extractor/dom"
	"realtor-extractor/utils"
	"realtor-extractor/validate"
)

// Source is the kind of heuristic that produced a candidate.
type Source string

// Candidate sources, strongest first.
const (
	SourceSelector   Source = "selector"
	SourcePattern    Source = "pattern"
	SourceStructural Source = "structural"
)

// Candidate is a value proposed by one strategy, not yet accepted.
type Candidate[T any] struct {
	Value    T
	Source   Source
	Strategy string
	// Rank orders candidates across one cascade; lower wins.
	Rank int
}

// Strategy is one heuristic for locating a field. Find returns its
// candidates in its own preference order.
type Strategy[T any] struct {
	Name   string
	Source Source
	Find   func(doc *goquery.Document) []T
}

// Cascade tries strategies in declared order and accepts the first
// candidate the validator passes. Later strategies are not run once one
// candidate is accepted.
type Cascade[T any] struct {
	Field      string
	Strategies []Strategy[T]
	Accept     validate.Validator[T]
	// Transform, when set, rewrites a candidate before validation and
	// reports false to drop it.
	Transform func(T) (T, bool)
}

// First runs the cascade against doc.
func (c Cascade[T]) First(doc *goquery.Document, logger utils.Logger) (Candidate[T], bool) {
	rank := 0
	for _, s := range c.Strategies {
		for _, v := range s.Find(doc) {
			rank++
			if c.Transform != nil {
				var ok bool
				if v, ok = c.Transform(v); !ok {
					continue
				}
			}
			if c.Accept != nil && !c.Accept.Valid(v) {
				continue
			}
			logger.Debug("[extract] candidate accepted",
				zap.String("field", c.Field),
				zap.String("strategy", s.Name),
				zap.String("source", string(s.Source)),
				zap.Int("rank", rank),
			)
			return Candidate[T]{Value: v, Source: s.Source, Strategy: s.Name, Rank: rank}, true
		}
	}
	logger.Debug("[extract] field absent", zap.String("field", c.Field))
	var zero Candidate[T]
	return zero, false
}

// All runs every strategy and returns every accepted candidate in cascade
// order. Used where results are unioned rather than short-circuited.
func (c Cascade[T]) All(doc *goquery.Document) []Candidate[T] {
	var out []Candidate[T]
	rank := 0
	for _, s := range c.Strategies {
		for _, v := range s.Find(doc) {
			rank++
			if c.Transform != nil {
				var ok bool
				if v, ok = c.Transform(v); !ok {
					continue
				}
			}
			if c.Accept != nil && !c.Accept.Valid(v) {
				continue
			}
			out = append(out, Candidate[T]{Value: v, Source: s.Source, Strategy: s.Name, Rank: rank})
		}
	}
	return out
}

// selectorTexts builds a strategy returning the one-line text of every
// element matching the selectors, in selector order, skipping page chrome.
func selectorTexts(name string, selectors ...string) Strategy[string] {
	return Strategy[string]{
		Name:   name,
		Source: SourceSelector,
		Find: func(doc *goquery.Document) []string {
			var out []string
			for _, sel := range selectors {
				doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
					if dom.InChrome(s) {
						return
					}
					if t := dom.Text(s); t != "" {
						out = append(out, t)
					}
				})
			}
			return out
		},
	}
}

// Extractor bundles the field extractors with the logger they report to.
type Extractor struct {
	logger utils.Logger
}

// New creates an Extractor.
func New(logger utils.Logger) *Extractor {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Extractor{logger: logger}
}
