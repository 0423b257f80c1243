package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, NormalizeAddress("123 Main St"), NormalizeAddress("123 main st."))
	assert.Equal(t, NormalizeAddress("123 Main Street"), NormalizeAddress("123 MAIN ST"))
	assert.Equal(t, NormalizeAddress("45 Oak Ave Apt 2B"), NormalizeAddress("45 Oak Avenue #2B"))
	assert.Equal(t, NormalizeAddress("9 Elm Rd, Suite 100"), NormalizeAddress("9 elm road 100"))
	assert.Equal(t, "10 n lake dr miami fl 33101", NormalizeAddress("10 North Lake Drive, Miami, FL 33101"))
	assert.NotEqual(t, NormalizeAddress("123 Main St"), NormalizeAddress("125 Main St"))
}

func TestIsAddressLike(t *testing.T) {
	assert.True(t, IsAddressLike("123 Main St"))
	assert.True(t, IsAddressLike("4500 W. Sunset Boulevard"))
	assert.True(t, IsAddressLike("Los Angeles, CA 90028"))
	assert.False(t, IsAddressLike("John Smith"))
	assert.False(t, IsAddressLike("3 beds"))
}

func TestAddressTokenMatching(t *testing.T) {
	tokens := AddressTokens("123 Main St, Springfield, IL 62704")
	assert.Equal(t, []string{"123", "main", "springfield", "il", "62704"}, tokens)

	assert.Equal(t, 2, CountTokenMatches(tokens, "Photo of 123 Main"))
	assert.Equal(t, 0, CountTokenMatches(tokens, "1234 Mainland Ave"))
}
