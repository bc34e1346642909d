// internal/models/extraction.go
package models

import "strings"

// ScoredText is a single extracted value with its confidence.
type ScoredText struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ScoredList is a multi-valued extracted field with one confidence.
type ScoredList struct {
	Value      []string `json:"value"`
	Confidence float64  `json:"confidence"`
}

type Contacts struct {
	Emails []string `json:"emails"`
	URLs   []string `json:"urls"`
	Phones []string `json:"phones"`
}

type SkillScore struct {
	Skill      string  `json:"skill"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label,omitempty"`
}

// ExtractionResult is the structured output of the extractor for one input.
// Every field is optional and independent of the others.
type ExtractionResult struct {
	Fingerprint    string                 `json:"fingerprint,omitempty"`
	Embedding      []float64              `json:"embedding,omitempty"`
	RawText        string                 `json:"rawText,omitempty"`
	Language       string                 `json:"language,omitempty"`
	JobTitle       *ScoredText            `json:"jobTitle,omitempty"`
	Company        *ScoredText            `json:"company,omitempty"`
	Location       *ScoredList            `json:"location,omitempty"`
	ContractType   []string               `json:"contractType,omitempty"`
	Type           string                 `json:"type,omitempty"`
	Salary         []string               `json:"salary,omitempty"`
	Duration       []string               `json:"duration,omitempty"`
	Deadline       []string               `json:"deadline,omitempty"`
	Contacts       *Contacts              `json:"contacts,omitempty"`
	Skills         []SkillScore           `json:"skills,omitempty"`
	InferredDomain string                 `json:"inferredDomain,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// HasText reports whether a scored value carries a non-blank value.
func (s *ScoredText) HasText() bool {
	return s != nil && strings.TrimSpace(s.Value) != ""
}

// Values returns the non-blank entries of the list in order.
func (s *ScoredList) Values() []string {
	if s == nil {
		return nil
	}
	return NonBlank(s.Value)
}

// NonBlank returns the trimmed, non-empty entries of values in order.
func NonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
