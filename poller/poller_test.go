package poller

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"

	"realtor-extractor/dom"
	"realtor-extractor/utils"
)

func fastConfig() Config {
	return Config{Interval: 5 * time.Millisecond, MaxAttempts: 200, Timeout: 2 * time.Second}
}

func TestWait_ReadyAfterLazyRender(t *testing.T) {
	page := dom.NewFixturePage("https://example.com",
		`<div class="spinner"></div>`,
		`<div class="spinner"></div>`,
		`<div class="agent-name">Jane Doe</div>`,
	)
	p := New(page, fastConfig(), utils.NewNopLogger())

	o := p.Wait(context.Background(), "name", func(doc *goquery.Document) bool {
		return doc.Find(".agent-name").Length() > 0
	})

	assert.True(t, o.Ready())
	assert.Equal(t, 3, o.Attempts)
}

func TestWait_AttemptCeiling(t *testing.T) {
	page := dom.NewFixturePage("https://example.com", `<p>never</p>`)
	p := New(page, Config{Interval: time.Millisecond, MaxAttempts: 4, Timeout: time.Minute}, nil)

	o := p.Wait(context.Background(), "never", func(*goquery.Document) bool { return false })

	assert.Equal(t, Exhausted, o.Reason)
	assert.Equal(t, 4, o.Attempts)
}

func TestWait_Timeout(t *testing.T) {
	page := dom.NewFixturePage("https://example.com", `<p>never</p>`)
	p := New(page, Config{Interval: 10 * time.Millisecond, MaxAttempts: 1000, Timeout: 60 * time.Millisecond}, nil)

	start := time.Now()
	o := p.Wait(context.Background(), "never", func(*goquery.Document) bool { return false })

	assert.Equal(t, TimedOut, o.Reason)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWait_ContextDeadlineWins(t *testing.T) {
	page := dom.NewFixturePage("https://example.com", `<p>never</p>`)
	p := New(page, Config{Interval: 10 * time.Millisecond, MaxAttempts: 1000, Timeout: time.Minute}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	ok := p.Until(ctx, "never", func(*goquery.Document) bool { return false })

	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestElementPresentAndAbsent(t *testing.T) {
	page := dom.NewFixturePage("https://example.com",
		`<div class="loading"></div>`,
		`<ul><li class="listing-card">1</li></ul>`,
	)
	p := New(page, fastConfig(), nil)
	ctx := context.Background()

	assert.True(t, p.ElementAbsent(ctx, ".loading", ".spinner"))
	assert.True(t, p.ElementPresent(ctx, ".nope", ".listing-card"))
}

func TestListingContent_NeverSettles(t *testing.T) {
	page := dom.NewDynamicPage("https://example.com", func(n int) string {
		return fmt.Sprintf(`<div class="loading">%d</div><div class="listing-card">x</div>`, n)
	})
	p := New(page, Config{Interval: 5 * time.Millisecond, MaxAttempts: 10, Timeout: time.Second}, nil)

	out := p.ListingContent(context.Background(), []string{".loading"}, []string{".listing-card"})
	assert.False(t, out.Ready())
	assert.Equal(t, Exhausted, out.Reason)
}

func TestContentStable(t *testing.T) {
	frames := []string{
		`<div class="bio">Jane has</div>`,
		`<div class="bio">Jane has sold homes</div>`,
		`<div class="bio">Jane has sold homes for twenty years.</div>`,
	}
	page := dom.NewFixturePage("https://example.com", frames...)
	p := New(page, Config{Interval: 5 * time.Millisecond, MaxAttempts: 200, Timeout: 2 * time.Second}, nil)

	ok := p.ContentStable(context.Background(), ".bio", 20*time.Millisecond)
	assert.True(t, ok)
}

func TestContentStable_KeepsChanging(t *testing.T) {
	page := dom.NewDynamicPage("https://example.com", func(n int) string {
		return fmt.Sprintf(`<div class="bio">tick %d</div>`, n)
	})
	p := New(page, Config{Interval: 2 * time.Millisecond, MaxAttempts: 15, Timeout: time.Second}, nil)

	assert.False(t, p.ContentStable(context.Background(), ".bio", 10*time.Millisecond))
}
