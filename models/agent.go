package models

// AgentRecord is everything the pipeline learned about the professional
// whose profile page was extracted.
type AgentRecord struct {
	Name            string
	Title           string
	License         License
	ExperienceYears int
	ProfileImageURL string

	Specializations []string
	Languages       []string
	Certifications  []string
	ServiceAreas    []string

	Rating  AggregateRating
	Contact Contact
	Office  Office
	Bio     string
}

// License identifies the agent's real estate license.
type License struct {
	Number string
	State  string
}

// AggregateRating is the page-level review summary ("4.9 (37 reviews)").
type AggregateRating struct {
	Value float64
	Count int
}

// Phone kinds recognised from nearby labels.
const (
	PhoneMobile  = "mobile"
	PhoneOffice  = "office"
	PhoneFax     = "fax"
	PhoneUnknown = ""
)

// Phone is one phone number variant with the label it was found under.
type Phone struct {
	Kind   string
	Number string
}

// Contact groups the agent's direct contact channels.
type Contact struct {
	Phones  []Phone
	Email   string
	Website string
	Social  SocialLinks
}

// PrimaryPhone returns the best phone for display: mobile first, then any
// non-fax number.
func (c Contact) PrimaryPhone() string {
	for _, p := range c.Phones {
		if p.Kind == PhoneMobile {
			return p.Number
		}
	}
	for _, p := range c.Phones {
		if p.Kind != PhoneFax {
			return p.Number
		}
	}
	return ""
}

// SocialLinks holds profile URLs per network.
type SocialLinks struct {
	Facebook  string
	LinkedIn  string
	Twitter   string
	Instagram string
}

// Office is the brokerage the agent works for.
type Office struct {
	Name    string
	Address string
	Phone   string
}
