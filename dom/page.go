// Package dom is the pipeline's view of a rendered document. Extractors read
// immutable goquery snapshots through Page; the few permitted writes (clicking
// "see more", switching listing tabs) go through Interactor.
package dom

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// ErrNoElement is returned by Interactor.Click when nothing matches.
var ErrNoElement = eris.New("dom: no element matches selector")

// Page is a read-only handle on a live document.
type Page interface {
	// URL is the page's canonical source URL.
	URL() string
	// Snapshot returns the document as it is rendered right now.
	Snapshot(ctx context.Context) (*goquery.Document, error)
}

// Interactor triggers UI expansion on the live document.
type Interactor interface {
	Click(ctx context.Context, selector string) error
}

// FirstPresent returns the first selector matching at least one element.
func FirstPresent(doc *goquery.Document, selectors []string) (string, bool) {
	for _, s := range selectors {
		if doc.Find(s).Length() > 0 {
			return s, true
		}
	}
	return "", false
}

// AnyPresent reports whether any selector matches.
func AnyPresent(doc *goquery.Document, selectors []string) bool {
	_, ok := FirstPresent(doc, selectors)
	return ok
}
