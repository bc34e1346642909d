// Package merge combines extraction results, caller overrides and the
// existing record into one flattened job offer.
package merge

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/models"
)

// Separator joins multi-valued extracted fields into one display string.
const Separator = ", "

// Overrides are caller-supplied values. Blank means "not supplied".
type Overrides struct {
	Title       string
	Company     string
	Description string
}

var marshalContacts = func(c *models.Contacts) ([]byte, error) { return json.Marshal(c) }

// Merge returns existing updated field by field: an override wins when
// supplied, otherwise an extracted value wins when present, otherwise the
// existing value is kept. Company is the exception, where the extracted
// value takes precedence over the override. Nothing is ever cleared, so a
// nil extraction leaves only the overrides applied.
func Merge(existing models.JobOfferRecord, overrides Overrides, extraction *models.ExtractionResult, log logger.Logger) models.JobOfferRecord {
	out := existing

	if v := strings.TrimSpace(overrides.Title); v != "" {
		out.Title = v
	} else if extraction != nil && extraction.JobTitle.HasText() {
		out.Title = strings.TrimSpace(extraction.JobTitle.Value)
	}

	if extraction != nil && extraction.Company.HasText() {
		out.Company = strings.TrimSpace(extraction.Company.Value)
	} else if v := strings.TrimSpace(overrides.Company); v != "" {
		out.Company = v
	}

	if strings.TrimSpace(overrides.Description) != "" {
		out.Description = overrides.Description
	}

	if extraction == nil {
		return out
	}

	if strings.TrimSpace(out.Description) == "" && strings.TrimSpace(extraction.RawText) != "" {
		out.Description = extraction.RawText
	}

	setJoined(&out.Location, extraction.Location.Values())
	setJoined(&out.ContractType, models.NonBlank(extraction.ContractType))
	setJoined(&out.Skills, skillNames(extraction.Skills))
	setJoined(&out.Salary, models.NonBlank(extraction.Salary))
	setJoined(&out.Duration, models.NonBlank(extraction.Duration))
	setJoined(&out.Deadline, models.NonBlank(extraction.Deadline))

	setText(&out.Domain, extraction.InferredDomain)
	setText(&out.Language, extraction.Language)
	setText(&out.Type, extraction.Type)

	if extraction.Contacts != nil {
		data, err := marshalContacts(extraction.Contacts)
		if err != nil {
			if log != nil {
				log.Warn("contacts not serialized, keeping previous value", map[string]interface{}{
					"error": fmt.Errorf("%w: %v", apperrors.ErrSerialization, err),
				})
			}
		} else {
			out.Contacts = string(data)
		}
	}

	return out
}

func setJoined(field *string, values []string) {
	if len(values) > 0 {
		*field = strings.Join(values, Separator)
	}
}

func setText(field *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*field = v
	}
}

func skillNames(skills []models.SkillScore) []string {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.Skill)
	}
	return models.NonBlank(names)
}

// Payload serializes the full extraction for storage alongside the record.
func Payload(extraction *models.ExtractionResult) (string, error) {
	if extraction == nil {
		return "", nil
	}
	data, err := json.Marshal(extraction)
	if err != nil {
		return "", fmt.Errorf("%w: extraction payload: %v", apperrors.ErrSerialization, err)
	}
	return string(data), nil
}

// Decode parses a stored payload back into an extraction result. An empty
// payload decodes to nil.
func Decode(payload string) (*models.ExtractionResult, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}
	var out models.ExtractionResult
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("%w: stored extraction payload: %v", apperrors.ErrSerialization, err)
	}
	return &out, nil
}
