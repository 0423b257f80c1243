package extract

import (
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"realtor-extractor/models"
)

// Agent reads every agent-level field from one snapshot. Absent fields stay
// at their zero value.
func (e *Extractor) Agent(doc *goquery.Document) models.AgentRecord {
	var a models.AgentRecord

	a.Name, _ = e.Name(doc)
	a.Title, _ = e.Title(doc)
	a.License.Number, a.License.State = e.License(doc)
	a.ExperienceYears = e.ExperienceYears(doc)
	a.ProfileImageURL, _ = e.ProfileImage(doc)

	a.Specializations = e.Specializations(doc)
	a.Languages = e.Languages(doc)
	a.Certifications = e.Certifications(doc)
	a.ServiceAreas = e.ServiceAreas(doc)
	a.Rating = e.Rating(doc)

	a.Contact.Phones = e.Phones(doc)
	a.Contact.Email, _ = e.Email(doc)
	a.Contact.Website, _ = e.Website(doc)
	a.Contact.Social = e.Social(doc)

	a.Office = e.Office(doc, a.Name, a.Contact.Phones)
	a.Bio, _ = e.Bio(doc)

	e.logger.Info("[extract] agent extracted",
		zap.String("name", a.Name),
		zap.String("office", a.Office.Name),
		zap.Int("phones", len(a.Contact.Phones)),
		zap.Bool("has_email", a.Contact.Email != ""),
		zap.Int("bio_chars", len(a.Bio)),
	)
	return a
}
