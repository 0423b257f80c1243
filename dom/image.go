package dom

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Image is a picture reference found in the document.
type Image struct {
	URL    string
	Alt    string
	Class  string
	Width  int // 0 when unknown
	Height int // 0 when unknown
}

var (
	backgroundURL = regexp.MustCompile(`background(?:-image)?\s*:[^;]*url\(\s*['"]?([^'")]+)['"]?\s*\)`)
	srcsetWidth   = regexp.MustCompile(`^(\S+)\s+(\d+)w$`)
)

// imageSourceAttrs are tried in order; lazy loaders park the real URL in a
// data attribute and leave a placeholder in src.
var imageSourceAttrs = []string{"data-src", "data-lazy-src", "data-original", "data-lazy", "src"}

// ImagesIn collects the images under sel (including sel itself), resolving
// URLs against base. Inline data URIs are skipped.
func ImagesIn(sel *goquery.Selection, base *url.URL) []Image {
	var out []Image
	seen := make(map[string]bool)
	add := func(img Image) {
		if img.URL == "" || seen[img.URL] {
			return
		}
		seen[img.URL] = true
		out = append(out, img)
	}

	imgs := sel.Find("img").AddSelection(sel.Filter("img"))
	imgs.Each(func(_ int, s *goquery.Selection) {
		add(imageFrom(s, base))
	})

	styled := sel.Find("[style]").AddSelection(sel.Filter("[style]"))
	styled.Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		m := backgroundURL.FindStringSubmatch(style)
		if m == nil {
			return
		}
		w, h := dimensions(s)
		add(Image{
			URL:    ResolveURL(base, m[1]),
			Alt:    s.AttrOr("aria-label", ""),
			Class:  s.AttrOr("class", ""),
			Width:  w,
			Height: h,
		})
	})
	return out
}

func imageFrom(s *goquery.Selection, base *url.URL) Image {
	raw := ""
	for _, attr := range imageSourceAttrs {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" && !strings.HasPrefix(v, "data:") {
			raw = v
			break
		}
	}
	if best := largestSrcset(s.AttrOr("srcset", s.AttrOr("data-srcset", ""))); best != "" {
		if raw == "" || !strings.HasPrefix(raw, "http") {
			raw = best
		}
	}
	w, h := dimensions(s)
	return Image{
		URL:    ResolveURL(base, raw),
		Alt:    CleanText(s.AttrOr("alt", "")),
		Class:  s.AttrOr("class", ""),
		Width:  w,
		Height: h,
	}
}

// dimensions prefers rendered sizes recorded by the browser snapshot over
// the markup's width/height attributes.
func dimensions(s *goquery.Selection) (int, int) {
	w := attrInt(s, "data-natural-width")
	h := attrInt(s, "data-natural-height")
	if w == 0 {
		w = attrInt(s, "width")
	}
	if h == 0 {
		h = attrInt(s, "height")
	}
	return w, h
}

func attrInt(s *goquery.Selection, name string) int {
	v, ok := s.Attr(name)
	if !ok {
		return 0
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func largestSrcset(srcset string) string {
	best, bestW := "", -1
	for _, part := range strings.Split(srcset, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if m := srcsetWidth.FindStringSubmatch(part); m != nil {
			w, _ := strconv.Atoi(m[2])
			if w > bestW {
				best, bestW = m[1], w
			}
			continue
		}
		if bestW < 0 {
			best = strings.Fields(part)[0]
			bestW = 0
		}
	}
	if strings.HasPrefix(best, "data:") {
		return ""
	}
	return best
}

// ResolveURL makes raw absolute against base. Protocol-relative URLs get
// https. Unparseable or non-http(s) references resolve to "".
func ResolveURL(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "javascript:") {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if base == nil {
			return ""
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
