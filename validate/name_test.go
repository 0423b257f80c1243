package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"John Smith", true},
		{"Mary-Jane O'Connor", true},
		{"J. R. Ewing", true},
		{"José Álvarez", true},
		{"Contact Us", false},
		{"123 Main St", false},
		{"john smith", false},
		{"Madonna", false},
		{"View All Listings", false},
		{"Square Feet Total", false},
		{"Smith Realty Group", false},
		{"A", false},
		{"John Smith!", false},
		{"Sam Price", true},
		{"Della Street", true},
		{"Glenn Close", true},
		{"Price Reduced Today", false},
		{"Read More", false},
		{"Open House", false},
		{"Request Call", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidName(tt.in), tt.in)
	}
}

func TestStripBusinessSuffix(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"John Smith & Associates", "John Smith", true},
		{"Jane Doe Realty", "Jane Doe", true},
		{"Jane Doe, REALTOR®", "Jane Doe", true},
		{"Jane Doe | Keller Williams", "Jane Doe", true},
		{"Acme Realty", "", false},
		{"John Smith", "", false},
	}
	for _, tt := range tests {
		got, ok := StripBusinessSuffix(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestAcceptName(t *testing.T) {
	got, ok := AcceptName("  John   Smith  ")
	assert.True(t, ok)
	assert.Equal(t, "John Smith", got)

	got, ok = AcceptName("The Smith Team & Associates")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestOfficeNameIsNotAPerson(t *testing.T) {
	assert.True(t, IsValidOfficeName("Keller Williams Realty"))
	assert.True(t, IsValidOfficeName("Compass"))
	assert.True(t, IsValidOfficeName("RE/MAX Estate Properties"))
	assert.False(t, IsValidOfficeName("John Smith"))
	assert.False(t, IsValidOfficeName("123 Main St, Springfield, IL 62704"))
	assert.False(t, IsValidOfficeName("(555) 123-4567"))
	assert.False(t, IsValidOfficeName("<b>"))
}

func TestCompanyScore(t *testing.T) {
	assert.Equal(t, 0, CompanyScore("John Smith"))
	assert.Equal(t, 2, CompanyScore("Smith Realty Group"))
	assert.Equal(t, 1, CompanyScore("Coldwell Banker"))
}

func TestValidatorCombinators(t *testing.T) {
	short := Func[string](func(s string) bool { return len(s) < 12 })
	v := All[string](Name, short)

	assert.True(t, v.Valid("John Smith"))
	assert.False(t, v.Valid("Johnathan Smithson"))
	assert.False(t, v.Valid("Contact"))
}
