package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"realtor-extractor/models"
)

func TestShouldSubmit(t *testing.T) {
	named := &models.AgentProfile{Name: models.Str("Jane Doe")}

	tests := []struct {
		name        string
		res         *models.ExtractionResult
		submit      bool
		onDuplicate string
		want        bool
		reason      string
	}{
		{"disabled", &models.ExtractionResult{Profile: named}, false, OnDuplicateSkip, false, "submission disabled"},
		{"new profile", &models.ExtractionResult{Profile: named}, true, OnDuplicateSkip, true, ""},
		{"no name", &models.ExtractionResult{Profile: &models.AgentProfile{}}, true, OnDuplicateSkip, false, "no agent name"},
		{"no profile", &models.ExtractionResult{}, true, OnDuplicateSkip, false, "no profile"},
		{
			"duplicate skipped",
			&models.ExtractionResult{Profile: named, Duplicate: models.DuplicateStatus{Checked: true, IsDuplicate: true}},
			true, OnDuplicateSkip, false, "duplicate",
		},
		{
			"duplicate resubmitted",
			&models.ExtractionResult{Profile: named, Duplicate: models.DuplicateStatus{Checked: true, IsDuplicate: true}},
			true, OnDuplicateSubmit, true, "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := shouldSubmit(tt.res, tt.submit, tt.onDuplicate)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestExtractCmd_RejectsUnknownDuplicatePolicy(t *testing.T) {
	onDuplicateFlag = "merge"
	t.Cleanup(func() { onDuplicateFlag = OnDuplicateSkip })

	err := extractCmd.PreRunE(extractCmd, []string{"https://x.test"})
	assert.Error(t, err)
}
