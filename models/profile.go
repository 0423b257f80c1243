package models

// AgentProfile is the canonical flat record handed to persistence.
// Nullable strings are pointers so they encode as JSON null.
type AgentProfile struct {
	AgentID   string  `json:"agent_id"`
	SourceURL string  `json:"source_url"`
	Name      *string `json:"name"`
	Title     *string `json:"title"`
	Company   *string `json:"company"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Address   *string `json:"address"`
	Website   *string `json:"website"`
	Bio       *string `json:"bio"`

	Specializations []string `json:"specializations"`
	Languages       []string `json:"languages"`
	Certifications  []string `json:"certifications"`
	ServiceAreas    []string `json:"service_areas"`

	ExperienceYears int     `json:"experience_years"`
	LicenseNumber   *string `json:"license_number"`
	LicenseState    *string `json:"license_state"`
	ProfileImageURL *string `json:"profile_image_url"`

	SocialMedia SocialMedia `json:"social_media"`
	Ratings     Ratings     `json:"ratings"`

	Properties      []Property       `json:"properties"`
	Recommendations []Recommendation `json:"recommendations"`
}

// SocialMedia lists the agent's social profiles.
type SocialMedia struct {
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Ratings is the aggregate review score.
type Ratings struct {
	Rating *float64 `json:"rating,omitempty"`
	Count  *int     `json:"count,omitempty"`
}

// Property is one canonical listing.
type Property struct {
	PropertyID    string   `json:"property_id"`
	Address       string   `json:"address"`
	Price         float64  `json:"price"`
	Bedrooms      float64  `json:"bedrooms"`
	Bathrooms     float64  `json:"bathrooms"`
	SquareFeet    int      `json:"square_feet"`
	PropertyType  string   `json:"property_type"`
	ListingStatus string   `json:"listing_status"`
	ImageURLs     []string `json:"image_urls"`
}

// Recommendation is one canonical review.
type Recommendation struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Date   string `json:"date,omitempty"`
}

// CountByStatus returns how many properties carry the given listing status.
func (p *AgentProfile) CountByStatus(status string) int {
	n := 0
	for _, prop := range p.Properties {
		if prop.ListingStatus == status {
			n++
		}
	}
	return n
}

// Str returns a pointer to s, or nil when s is empty.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
