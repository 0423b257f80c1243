package extract

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"realtor-extractor/dom"
	"realtor-extractor/utils"
)

const profileURL = "https://www.realtor.com/realestateagents/5f1a2b3c4d/jane-doe"

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := dom.Parse(profileURL, markup)
	require.NoError(t, err)
	return doc
}

func newTestExtractor() *Extractor {
	return New(utils.NewNopLogger())
}
