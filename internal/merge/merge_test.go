package merge

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/models"
)

// ==========================
// Fixtures
// ==========================

func backendExtraction() *models.ExtractionResult {
	return &models.ExtractionResult{
		JobTitle:     &models.ScoredText{Value: "Backend Engineer", Confidence: 0.9},
		Company:      &models.ScoredText{Value: "Acme", Confidence: 0.9},
		ContractType: []string{"Internship"},
	}
}

func fullExtraction() *models.ExtractionResult {
	return &models.ExtractionResult{
		Fingerprint:  "abc",
		RawText:      "We are hiring a Go developer in Paris.",
		Language:     "en",
		JobTitle:     &models.ScoredText{Value: "Go Developer", Confidence: 0.8},
		Company:      &models.ScoredText{Value: "Gopher Inc", Confidence: 0.7},
		Location:     &models.ScoredList{Value: []string{"Paris", "Remote"}, Confidence: 0.8},
		ContractType: []string{"CDI", "Full-time"},
		Type:         "Job",
		Salary:       []string{"50k", "60k"},
		Duration:     []string{"6 months"},
		Deadline:     []string{"2025-11-01"},
		Contacts: &models.Contacts{
			Emails: []string{"jobs@gopher.io"},
			URLs:   []string{"https://gopher.io"},
			Phones: []string{},
		},
		Skills: []models.SkillScore{
			{Skill: "go", Confidence: 0.9},
			{Skill: "postgres", Confidence: 0.6},
			{Skill: "kubernetes", Confidence: 0.5, Label: "devops"},
		},
		InferredDomain: "Software Development",
	}
}

func seededRecord() models.JobOfferRecord {
	return models.JobOfferRecord{
		ID:           4,
		OwnerID:      9,
		Title:        "Old title",
		Company:      "Old company",
		Location:     "Berlin",
		ContractType: "CDD",
		Domain:       "Data",
		Skills:       "python",
		Salary:       "40k",
		Duration:     "3 months",
		Deadline:     "soon",
		Description:  "Existing description",
		Contacts:     `{"emails":["old@x.io"]}`,
		Language:     "de",
		Type:         "Internship",
		Active:       true,
	}
}

// ==========================
// Scenarios
// ==========================

func TestMerge_BlankOverrideTakesExtractedTitle(t *testing.T) {
	got := Merge(models.JobOfferRecord{}, Overrides{Title: ""}, backendExtraction(), logger.NewTestLogger(t))

	assert.Equal(t, "Backend Engineer", got.Title)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "Internship", got.ContractType)
}

func TestMerge_TitleOverrideWinsCompanyFromExtraction(t *testing.T) {
	got := Merge(models.JobOfferRecord{}, Overrides{Title: "Senior Engineer", Company: "Mine"}, backendExtraction(), logger.NewTestLogger(t))

	assert.Equal(t, "Senior Engineer", got.Title)
	assert.Equal(t, "Acme", got.Company)
}

func TestMerge_CompanyOverrideUsedWhenExtractionHasNone(t *testing.T) {
	ext := backendExtraction()
	ext.Company = &models.ScoredText{Value: "   ", Confidence: 0.2}

	got := Merge(models.JobOfferRecord{}, Overrides{Company: "Y"}, ext, logger.NewTestLogger(t))
	assert.Equal(t, "Y", got.Company)
}

func TestMerge_NilExtractionAppliesOnlyOverrides(t *testing.T) {
	tests := []struct {
		name      string
		existing  models.JobOfferRecord
		overrides Overrides
		want      models.JobOfferRecord
	}{
		{
			name:      "empty record",
			existing:  models.JobOfferRecord{},
			overrides: Overrides{Title: "X", Company: "Y", Description: "Z"},
			want:      models.JobOfferRecord{Title: "X", Company: "Y", Description: "Z"},
		},
		{
			name:      "no overrides keeps everything",
			existing:  seededRecord(),
			overrides: Overrides{},
			want:      seededRecord(),
		},
		{
			name:      "partial overrides",
			existing:  seededRecord(),
			overrides: Overrides{Description: "New text"},
			want: func() models.JobOfferRecord {
				r := seededRecord()
				r.Description = "New text"
				return r
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.existing, tt.overrides, nil, logger.NewTestLogger(t))
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// Field policy
// ==========================

func TestMerge_FlattensMultiValuedFields(t *testing.T) {
	got := Merge(models.JobOfferRecord{}, Overrides{}, fullExtraction(), logger.NewTestLogger(t))

	assert.Equal(t, "Go Developer", got.Title)
	assert.Equal(t, "Gopher Inc", got.Company)
	assert.Equal(t, "Paris, Remote", got.Location)
	assert.Equal(t, "CDI, Full-time", got.ContractType)
	assert.Equal(t, "go, postgres, kubernetes", got.Skills)
	assert.Equal(t, "50k, 60k", got.Salary)
	assert.Equal(t, "6 months", got.Duration)
	assert.Equal(t, "2025-11-01", got.Deadline)
	assert.Equal(t, "Software Development", got.Domain)
	assert.Equal(t, "en", got.Language)
	assert.Equal(t, "Job", got.Type)
	assert.Equal(t, "We are hiring a Go developer in Paris.", got.Description)

	var contacts models.Contacts
	require.NoError(t, json.Unmarshal([]byte(got.Contacts), &contacts))
	assert.Equal(t, []string{"jobs@gopher.io"}, contacts.Emails)
}

func TestMerge_DescriptionNeverOverwrittenOnceSet(t *testing.T) {
	got := Merge(seededRecord(), Overrides{}, fullExtraction(), logger.NewTestLogger(t))
	assert.Equal(t, "Existing description", got.Description)
}

func TestMerge_IsMonotonic(t *testing.T) {
	empty := &models.ExtractionResult{
		JobTitle:     &models.ScoredText{Value: ""},
		Location:     &models.ScoredList{Value: []string{}},
		ContractType: []string{" "},
		Skills:       []models.SkillScore{{Skill: ""}},
	}

	got := Merge(seededRecord(), Overrides{}, empty, logger.NewTestLogger(t))
	assert.Equal(t, seededRecord(), got)
}

func TestMerge_OverrideNeverReplacedByExtraction(t *testing.T) {
	overrides := Overrides{Title: "Chosen title", Description: "Chosen description"}
	for _, existing := range []models.JobOfferRecord{{}, seededRecord()} {
		got := Merge(existing, overrides, fullExtraction(), logger.NewTestLogger(t))
		assert.Equal(t, "Chosen title", got.Title)
		assert.Equal(t, "Chosen description", got.Description)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	overrides := Overrides{Title: "T"}
	first := Merge(seededRecord(), overrides, fullExtraction(), logger.NewNoOpLogger())
	second := Merge(seededRecord(), overrides, fullExtraction(), logger.NewNoOpLogger())

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	existing := seededRecord()
	ext := fullExtraction()

	_ = Merge(existing, Overrides{Title: "Z"}, ext, logger.NewNoOpLogger())

	assert.Equal(t, seededRecord(), existing)
	assert.Equal(t, fullExtraction(), ext)
}

func TestMerge_ContactsSerializationFailureKeepsField(t *testing.T) {
	orig := marshalContacts
	marshalContacts = func(*models.Contacts) ([]byte, error) { return nil, errors.New("boom") }
	defer func() { marshalContacts = orig }()

	got := Merge(seededRecord(), Overrides{}, fullExtraction(), logger.NewTestLogger(t))
	assert.Equal(t, seededRecord().Contacts, got.Contacts)
	assert.Equal(t, "Paris, Remote", got.Location)
}

// ==========================
// Payload
// ==========================

func TestPayloadRoundTrip(t *testing.T) {
	payload, err := Payload(fullExtraction())
	require.NoError(t, err)
	assert.Contains(t, payload, `"jobTitle":{"value":"Go Developer"`)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, fullExtraction(), decoded)
}

func TestPayload_Nil(t *testing.T) {
	payload, err := Payload(nil)
	require.NoError(t, err)
	assert.Empty(t, payload)

	decoded, err := Decode("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestPayload_Errors(t *testing.T) {
	_, err := Payload(&models.ExtractionResult{Embedding: []float64{math.NaN()}})
	assert.ErrorIs(t, err, apperrors.ErrSerialization)

	_, err = Decode("{broken")
	assert.ErrorIs(t, err, apperrors.ErrSerialization)
}
