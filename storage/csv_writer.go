package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"realtor-extractor/models"
)

// CRMHeader is the column layout the CRM import expects.
var CRMHeader = []string{
	"REALTOR.COM", "PROFILE PIC", "NAME", "AGENCY", "Experience:",
	"Phone", "For sale:", "Sold:", "Listed a house:", "Languages:",
	"id", "Notes", "Status", "LastContacted", "FollowUpAt",
}

// statusNew is the pipeline status every exported lead starts in.
const statusNew = "New"

// CSVWriter exports canonical profiles as CRM import rows.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	newID  func() string
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, eris.Wrap(err, "csv: create output dir")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: create file %q", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(CRMHeader); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "csv: write header")
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w, newID: func() string { return uuid.NewString() }}, nil
}

// Write appends one row per profile.
func (c *CSVWriter) Write(profiles []*models.AgentProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range profiles {
		if err := c.writer.Write(c.row(p)); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

func (c *CSVWriter) row(p *models.AgentProfile) []string {
	experience := ""
	if p.ExperienceYears > 0 {
		experience = strconv.Itoa(p.ExperienceYears)
	}
	forSale := p.CountByStatus(models.StatusActive) + p.CountByStatus(models.StatusPending)

	return []string{
		p.SourceURL,
		models.Deref(p.ProfileImageURL),
		models.Deref(p.Name),
		models.Deref(p.Company),
		experience,
		models.Deref(p.Phone),
		strconv.Itoa(forSale),
		strconv.Itoa(p.CountByStatus(models.StatusSold)),
		listedAHouse(p),
		strings.Join(p.Languages, ", "),
		c.newID(),
		"",
		statusNew,
		"",
		"",
	}
}

// listedAHouse is "Yes" when the profile shows any listing, "" otherwise.
func listedAHouse(p *models.AgentProfile) string {
	if len(p.Properties) > 0 {
		return "Yes"
	}
	return ""
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
