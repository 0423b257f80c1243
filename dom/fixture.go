package dom

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// RenderFunc returns the document markup for the n-th snapshot (0-based)
// since the page was loaded or last switched by a click.
type RenderFunc func(n int) string

// FixturePage is an in-memory Page and Interactor. Successive snapshots walk
// through a list of frames (the last one repeats), which lets tests model
// lazily rendered content, and clicks can switch to a new frame list.
type FixturePage struct {
	mu      sync.Mutex
	url     string
	render  RenderFunc
	n       int
	onClick map[string]RenderFunc
	clicks  []string
}

// NewFixturePage creates a page that renders the given frames in order.
func NewFixturePage(pageURL string, frames ...string) *FixturePage {
	return NewDynamicPage(pageURL, Frames(frames...))
}

// NewDynamicPage creates a page whose markup is computed per snapshot.
func NewDynamicPage(pageURL string, render RenderFunc) *FixturePage {
	return &FixturePage{
		url:     pageURL,
		render:  render,
		onClick: make(map[string]RenderFunc),
	}
}

// Frames builds a RenderFunc that walks frames and then sticks on the last.
func Frames(frames ...string) RenderFunc {
	return func(n int) string {
		if len(frames) == 0 {
			return ""
		}
		if n >= len(frames) {
			return frames[len(frames)-1]
		}
		return frames[n]
	}
}

// OnClick registers the frames shown after a successful click on selector.
func (p *FixturePage) OnClick(selector string, frames ...string) *FixturePage {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick[selector] = Frames(frames...)
	return p
}

// URL implements Page.
func (p *FixturePage) URL() string { return p.url }

// Snapshot implements Page.
func (p *FixturePage) Snapshot(ctx context.Context) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "fixture: snapshot")
	}

	p.mu.Lock()
	markup := p.render(p.n)
	p.n++
	p.mu.Unlock()

	return Parse(p.url, markup)
}

// Click implements Interactor. The element must exist in the current frame.
func (p *FixturePage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "fixture: click")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.n - 1
	if current < 0 {
		current = 0
	}
	doc, err := Parse(p.url, p.render(current))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return eris.Wrapf(ErrNoElement, "fixture: click %q", selector)
	}

	p.clicks = append(p.clicks, selector)
	if next, ok := p.onClick[selector]; ok {
		p.render = next
		p.n = 0
	}
	return nil
}

// Clicks returns the selectors clicked so far, in order.
func (p *FixturePage) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// Parse builds a goquery document from markup and attaches pageURL so
// relative links can be resolved.
func Parse(pageURL, markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, eris.Wrap(err, "dom: parse document")
	}
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			doc.Url = u
		}
	}
	return doc, nil
}
