package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"realtor-extractor/config"
	"realtor-extractor/dom"
	"realtor-extractor/models"
	"realtor-extractor/validate"
)

// Photo association strategies, in the order they are tried.
const (
	PhotoNested       = "nested"
	PhotoMatchingCard = "matching-card"
	PhotoAncestorWalk = "ancestor-walk"
	PhotoURLID        = "url-id"
)

// photoBlocks are elements that may hold a listing's photos outside the
// listing card itself (carousels, galleries, detached cards).
const photoBlocks = `[class*="card"], [class*="photo"], [class*="gallery"], [class*="carousel"], [class*="slide"], article, li, figure`

// maxMatchingBlockText keeps page-sized wrappers out of the matching-card
// search.
const maxMatchingBlockText = 1500

type photoStrategy struct {
	name string
	find func() []string
}

// associatePhotos tries the association strategies in order and returns the
// first non-empty result with the name of the strategy that produced it.
func (e *Extractor) associatePhotos(doc *goquery.Document, card *goquery.Selection, cardSel string, rec models.ListingRecord) ([]string, string) {
	strategies := []photoStrategy{
		{PhotoNested, func() []string { return validImageURLs(dom.ImagesIn(card, doc.Url)) }},
		{PhotoMatchingCard, func() []string { return matchingCardPhotos(doc, card, cardSel, rec) }},
		{PhotoAncestorWalk, func() []string { return ancestorPhotos(doc, card, cardSel) }},
		{PhotoURLID, func() []string { return urlIDPhotos(doc, rec.ID) }},
	}
	for _, s := range strategies {
		if urls := s.find(); len(urls) > 0 {
			e.logger.Debug("[extract] photos associated",
				zap.String("listing", rec.Key()),
				zap.String("strategy", s.name),
				zap.Int("photos", len(urls)),
			)
			return urls, s.name
		}
	}
	return nil, ""
}

func validImageURLs(imgs []dom.Image) []string {
	var out []string
	for _, img := range imgs {
		if validate.PhotoImage.Valid(img) {
			out = append(out, img.URL)
		}
	}
	return out
}

// matchingCardPhotos looks for a separate block elsewhere on the page that
// mentions the listing's id, price or at least two address tokens.
func matchingCardPhotos(doc *goquery.Document, card *goquery.Selection, cardSel string, rec models.ListingRecord) []string {
	tokens := validate.AddressTokens(rec.Address)
	var out []string
	doc.Find(photoBlocks).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if dom.InChrome(s) || s.Closest(cardSel).Length() > 0 || s.Find(cardSel).Length() > 0 {
			return true
		}
		text := dom.Text(s)
		if len(text) > maxMatchingBlockText {
			return true
		}
		hay := text + " " + s.AttrOr("data-listing-id", "") + " " + s.AttrOr("data-property-id", "")
		matched := (rec.ID != "" && strings.Contains(hay, rec.ID)) ||
			(rec.RawPrice != "" && strings.Contains(text, rec.RawPrice)) ||
			(len(tokens) >= config.MinAddressTokenMatch && validate.CountTokenMatches(tokens, text) >= config.MinAddressTokenMatch)
		if !matched {
			return true
		}
		out = validImageURLs(dom.ImagesIn(s, doc.Url))
		return len(out) == 0
	})
	return out
}

// ancestorPhotos walks up to MaxPhotoAncestorWalk levels from the card and
// takes the images outside any listing card. A level holding more than one
// card is ambiguous and ends the walk.
func ancestorPhotos(doc *goquery.Document, card *goquery.Selection, cardSel string) []string {
	p := card.Parent()
	for depth := 1; depth <= config.MaxPhotoAncestorWalk && p.Length() > 0 && !p.Is("body, html"); depth++ {
		if p.Find(cardSel).Length() > 1 {
			return nil
		}
		outside := p.Clone()
		outside.Find(cardSel).Remove()
		if urls := validImageURLs(dom.ImagesIn(outside, doc.Url)); len(urls) > 0 {
			return urls
		}
		p = p.Parent()
	}
	return nil
}

// urlIDPhotos takes every valid image whose URL contains the listing id.
func urlIDPhotos(doc *goquery.Document, id string) []string {
	if len(id) < 4 {
		return nil
	}
	var out []string
	for _, img := range dom.ImagesIn(withoutChrome(doc), doc.Url) {
		if strings.Contains(img.URL, id) || strings.Contains(img.URL, url.PathEscape(id)) {
			if validate.PhotoImage.Valid(img) {
				out = append(out, img.URL)
			}
		}
	}
	return out
}

// Gallery returns the valid property photos on the page that no listing
// claimed. exclude lists URLs that are known not to be property photos,
// such as the agent's headshot.
func (e *Extractor) Gallery(doc *goquery.Document, listings []models.ListingRecord, exclude ...string) []string {
	skip := make(map[string]bool)
	for _, l := range listings {
		for _, u := range l.Photos {
			skip[u] = true
		}
	}
	for _, u := range exclude {
		skip[u] = true
	}
	var out []string
	for _, u := range validImageURLs(dom.ImagesIn(withoutChrome(doc), doc.Url)) {
		if !skip[u] {
			skip[u] = true
			out = append(out, u)
		}
	}
	return out
}

// Photos files listing photos under their listing keys and adds the gallery.
func (e *Extractor) Photos(doc *goquery.Document, listings []models.ListingRecord, exclude ...string) models.PhotoSet {
	set := models.PhotoSet{ByListing: make(map[string][]string)}
	for _, l := range listings {
		if len(l.Photos) > 0 {
			set.ByListing[l.Key()] = append([]string(nil), l.Photos...)
		}
	}
	if doc != nil {
		set.Gallery = e.Gallery(doc, listings, exclude...)
	}
	return set
}
