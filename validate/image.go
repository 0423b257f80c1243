package validate

import (
	"net/url"
	"path"
	"strings"

	"realtor-extractor/config"
	"realtor-extractor/dom"
)

// Image is the validator's view of a picture.
type Image = dom.Image

// nonPhotoKeywords mark icons, logos, avatars and other page furniture.
var nonPhotoKeywords = []string{
	"icon", "logo", "avatar", "headshot", "profile-pic", "profile_pic", "agent-photo", "badge",
	"sprite", "placeholder", "spinner", "loading", "favicon", "pixel", "tracking", "emoji",
	"equal-housing", "equalhousing", "realtor-r", "mls-logo", "watermark", "blank.gif",
}

// IsValidPropertyImage rejects icons/logos/avatars (filename, alt text or
// class keyword), images smaller than the minimum in either axis, and
// extreme aspect ratios that indicate decorative bars. Unknown dimensions
// are not held against the image.
func IsValidPropertyImage(img Image) bool {
	if img.URL == "" {
		return false
	}
	if hasNonPhotoKeyword(fileName(img.URL)) ||
		hasNonPhotoKeyword(strings.ToLower(img.Alt)) ||
		hasNonPhotoKeyword(strings.ToLower(img.Class)) {
		return false
	}
	if strings.HasSuffix(strings.ToLower(fileName(img.URL)), ".svg") {
		return false
	}

	w, h := img.Width, img.Height
	if (w > 0 && w < config.MinImageDimension) || (h > 0 && h < config.MinImageDimension) {
		return false
	}
	if w > 0 && h > 0 {
		ratio := float64(w) / float64(h)
		if ratio > config.MaxImageAspectRatio || ratio < 1/config.MaxImageAspectRatio {
			return false
		}
	}
	return true
}

func fileName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	return strings.ToLower(path.Base(u.Path))
}

func hasNonPhotoKeyword(s string) bool {
	if s == "" {
		return false
	}
	for _, kw := range nonPhotoKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
