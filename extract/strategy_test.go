package extract

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"

	"realtor-extractor/utils"
	"realtor-extractor/validate"
)

func TestCascade_FirstStopsAtFirstAcceptedCandidate(t *testing.T) {
	var calls []string
	strategy := func(name string, src Source, values ...string) Strategy[string] {
		return Strategy[string]{Name: name, Source: src, Find: func(*goquery.Document) []string {
			calls = append(calls, name)
			return values
		}}
	}
	c := Cascade[string]{
		Field: "test",
		Strategies: []Strategy[string]{
			strategy("selectors", SourceSelector, "Contact Us", "Find an Agent"),
			strategy("patterns", SourcePattern, "John Smith"),
			strategy("structural", SourceStructural, "Mary Jones"),
		},
		Accept: validate.Name,
	}

	got, ok := c.First(nil, utils.NewNopLogger())

	assert.True(t, ok)
	assert.Equal(t, "John Smith", got.Value)
	assert.Equal(t, SourcePattern, got.Source)
	assert.Equal(t, "patterns", got.Strategy)
	assert.Equal(t, 3, got.Rank)
	assert.Equal(t, []string{"selectors", "patterns"}, calls)
}

func TestCascade_AbsentWhenNothingValidates(t *testing.T) {
	c := Cascade[string]{
		Strategies: []Strategy[string]{{Name: "s", Find: func(*goquery.Document) []string { return []string{"123 Main St"} }}},
		Accept:     validate.Name,
	}
	_, ok := c.First(nil, utils.NewNopLogger())
	assert.False(t, ok)
}

func TestCascade_AllUnionsInOrder(t *testing.T) {
	c := Cascade[int]{
		Strategies: []Strategy[int]{
			{Name: "a", Find: func(*goquery.Document) []int { return []int{1, -2} }},
			{Name: "b", Find: func(*goquery.Document) []int { return []int{3} }},
		},
		Accept: validate.Func[int](func(n int) bool { return n > 0 }),
	}
	got := c.All(nil)
	if assert.Len(t, got, 2) {
		assert.Equal(t, 1, got[0].Value)
		assert.Equal(t, "b", got[1].Strategy)
		assert.Equal(t, 3, got[1].Rank)
	}
}
