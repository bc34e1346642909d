package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/models"
)

// Confidences applied to values that arrive without one.
const (
	DefaultFieldConfidence = 0.7
	DefaultSkillConfidence = 0.8
)

// Normalize parses an extractor response. It accepts the nested shape
// (jobTitle: {value, confidence}) and the flat snake_case shape
// (job_title: "...") and returns ErrExtractionDecodeError for anything else.
func Normalize(raw []byte) (*models.ExtractionResult, error) {
	res, err := responseValidator.ValidateBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExtractionDecodeError, err)
	}
	if !res.Valid {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrExtractionDecodeError, res.Summary())
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExtractionDecodeError, err)
	}

	def := DefaultFieldConfidence
	if c, ok := doc["extraction_confidence"].(float64); ok {
		def = c
	}

	return &models.ExtractionResult{
		Fingerprint:    text(first(doc, "fingerprint")),
		Embedding:      floats(first(doc, "embedding")),
		RawText:        rawString(first(doc, "rawText", "raw_text")),
		Language:       text(first(doc, "language")),
		JobTitle:       scoredText(first(doc, "jobTitle", "job_title"), def),
		Company:        scoredText(first(doc, "company"), def),
		Location:       scoredList(first(doc, "location"), def),
		ContractType:   stringList(first(doc, "contractType", "contract_type")),
		Type:           text(first(doc, "type")),
		Salary:         stringList(first(doc, "salary")),
		Duration:       stringList(first(doc, "duration")),
		Deadline:       stringList(first(doc, "deadline")),
		Contacts:       contacts(first(doc, "contacts")),
		Skills:         skills(first(doc, "skills")),
		InferredDomain: text(first(doc, "inferredDomain", "inferred_domain", "domain")),
		Metadata:       object(first(doc, "metadata")),
	}, nil
}

func first(doc map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := doc[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func rawString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func text(v interface{}) string {
	return strings.TrimSpace(rawString(v))
}

func number(v interface{}, fallback float64) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return fallback
}

func object(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func floats(v interface{}) []float64 {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		if f, ok := item.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

func stringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []interface{}:
		var out []string
		for _, item := range t {
			if s := text(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func scoredText(v interface{}, def float64) *models.ScoredText {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return &models.ScoredText{Value: s, Confidence: def}
		}
	case map[string]interface{}:
		if s := text(t["value"]); s != "" {
			return &models.ScoredText{Value: s, Confidence: number(first(t, "confidence", "score"), def)}
		}
	}
	return nil
}

func scoredList(v interface{}, def float64) *models.ScoredList {
	var values []string
	conf := def
	switch t := v.(type) {
	case string, []interface{}:
		values = stringList(t)
	case map[string]interface{}:
		values = stringList(t["value"])
		conf = number(first(t, "confidence", "score"), def)
	}
	if len(values) == 0 {
		return nil
	}
	return &models.ScoredList{Value: values, Confidence: conf}
}

func contacts(v interface{}) *models.Contacts {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return &models.Contacts{
		Emails: stringList(m["emails"]),
		URLs:   stringList(m["urls"]),
		Phones: stringList(m["phones"]),
	}
}

func skills(v interface{}) []models.SkillScore {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []models.SkillScore
	for _, item := range list {
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, models.SkillScore{Skill: s, Confidence: DefaultSkillConfidence})
			}
		case map[string]interface{}:
			name := text(first(t, "skill", "name"))
			if name == "" {
				continue
			}
			out = append(out, models.SkillScore{
				Skill:      name,
				Confidence: number(first(t, "confidence", "score"), DefaultSkillConfidence),
				Label:      text(t["label"]),
			})
		}
	}
	return out
}
