package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
		found  bool
	}{
		{
			name:   "selector, title-cased",
			markup: `<html><body><header><h1>Find an Agent</h1></header><div class="agent-name">JANE   DOE</div></body></html>`,
			want:   "Jane Doe",
			found:  true,
		},
		{
			name: "invalid selector falls through to text pattern",
			markup: `<html><body><header><h1>Find an Agent</h1></header>
				<div class="agent-name">Contact Us</div>
				<p>Listing Agent: John Smith</p></body></html>`,
			want:  "John Smith",
			found: true,
		},
		{
			name:   "business suffix stripped",
			markup: `<html><body><div class="agent-name">Robert Chen Realty Group</div></body></html>`,
			want:   "Robert Chen",
			found:  true,
		},
		{
			name:   "document title",
			markup: `<html><head><title>Maria Garcia-Lopez | Compass | realtor.com</title></head><body></body></html>`,
			want:   "Maria Garcia-Lopez",
			found:  true,
		},
		{
			name: "linked data",
			markup: `<html><head><script type="application/ld+json">
				{"@context":"https://schema.org","@type":"RealEstateAgent","name":"Priya Patel"}
				</script></head><body></body></html>`,
			want:  "Priya Patel",
			found: true,
		},
		{
			name:   "absent",
			markup: `<html><body><h1>Real Estate Agents Near You</h1></body></html>`,
			found:  false,
		},
	}
	e := newTestExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Name(parse(t, tt.markup))
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "John Smith", TitleCase("JOHN  SMITH"))
	assert.Equal(t, "Ronald McDonald", TitleCase("Ronald McDonald"))
	assert.Equal(t, "Ann Lee", TitleCase(" ann lee "))
}

func TestLicenseAndExperience(t *testing.T) {
	doc := parse(t, `<html><body>
		<p>TX License #0654321</p>
		<p>15+ years of experience helping buyers in Austin.</p>
	</body></html>`)
	e := newTestExtractor()

	number, state := e.License(doc)
	assert.Equal(t, "0654321", number)
	assert.Equal(t, "TX", state)
	assert.Equal(t, 15, e.ExperienceYears(doc))
}

func TestLicense_DRE(t *testing.T) {
	doc := parse(t, `<html><body><div class="license">DRE# 01234567</div></body></html>`)
	number, state := newTestExtractor().License(doc)
	assert.Equal(t, "01234567", number)
	assert.Equal(t, "CA", state)
}

func TestTitle(t *testing.T) {
	doc := parse(t, `<html><body><div class="agent-name">Jane Doe</div><p>Broker Associate at Compass</p></body></html>`)
	got, ok := newTestExtractor().Title(doc)
	assert.True(t, ok)
	assert.Equal(t, "Broker Associate", got)
}

func TestProfileImage(t *testing.T) {
	doc := parse(t, `<html><head><meta property="og:image" content="https://cdn.example.com/og.jpg"></head>
		<body><div class="agent-photo"><img src="/photos/jane.jpg" alt="Jane Doe"></div></body></html>`)
	got, ok := newTestExtractor().ProfileImage(doc)
	assert.True(t, ok)
	assert.Equal(t, "https://www.realtor.com/photos/jane.jpg", got)
}

func TestProfileLists(t *testing.T) {
	doc := parse(t, `<html><body><div class="profile-details">
		<h3>Specializations</h3><ul><li>Buyer's agent</li><li>Relocation</li></ul>
		<p>Languages: English, Spanish and French</p>
		<dl><dt>Service areas</dt><dd>Austin, TX; Round Rock, TX</dd></dl>
		<div class="agent-rating">4.9 (37 reviews)</div>
	</div></body></html>`)
	e := newTestExtractor()

	assert.Equal(t, []string{"Buyer's agent", "Relocation"}, e.Specializations(doc))
	assert.Equal(t, []string{"English", "Spanish", "French"}, e.Languages(doc))
	assert.Equal(t, []string{"Austin, TX", "Round Rock, TX"}, e.ServiceAreas(doc))
	assert.Empty(t, e.Certifications(doc))

	r := e.Rating(doc)
	assert.InDelta(t, 4.9, r.Value, 0.001)
	assert.Equal(t, 37, r.Count)
}

func TestRating_LinkedData(t *testing.T) {
	doc := parse(t, `<html><head><script type="application/ld+json">
		{"@graph":[{"@type":"RealEstateAgent","name":"Jane Doe","aggregateRating":{"ratingValue":"4.8","reviewCount":12}}]}
	</script></head><body></body></html>`)
	r := newTestExtractor().Rating(doc)
	assert.InDelta(t, 4.8, r.Value, 0.001)
	assert.Equal(t, 12, r.Count)
}
