package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPropertyImage(t *testing.T) {
	tests := []struct {
		name string
		img  Image
		want bool
	}{
		{"tiny", Image{URL: "https://cdn.example.com/p/1.jpg", Width: 50, Height: 50}, false},
		{"property photo", Image{URL: "https://cdn.example.com/p/2.jpg", Alt: "property", Width: 400, Height: 300}, true},
		{"logo filename", Image{URL: "https://cdn.example.com/brand/logo-large.png", Width: 1200, Height: 900}, false},
		{"avatar alt", Image{URL: "https://cdn.example.com/u/9.jpg", Alt: "Agent avatar", Width: 400, Height: 400}, false},
		{"icon class", Image{URL: "https://cdn.example.com/u/9.png", Class: "social-icon", Width: 400, Height: 400}, false},
		{"decorative bar", Image{URL: "https://cdn.example.com/bar.jpg", Width: 1800, Height: 120}, false},
		{"tall strip", Image{URL: "https://cdn.example.com/strip.jpg", Width: 110, Height: 1000}, false},
		{"unknown size", Image{URL: "https://cdn.example.com/p/3.jpg"}, true},
		{"svg", Image{URL: "https://cdn.example.com/p/house.svg", Width: 400, Height: 300}, false},
		{"empty", Image{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPropertyImage(tt.img))
		})
	}
}

func TestPhoneAndEmail(t *testing.T) {
	assert.True(t, IsValidPhone("(555) 123-4567"))
	assert.True(t, IsValidPhone("tel:+1 555.123.4567"))
	assert.False(t, IsValidPhone("555-1234"))
	assert.False(t, IsValidPhone("call 555 123 4567"))

	assert.True(t, IsValidEmail("jane@example-realty.com"))
	assert.False(t, IsValidEmail("Jane@Example.com"))
	assert.False(t, IsValidEmail("jane.example.com"))
}
