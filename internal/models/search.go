// internal/models/search.go
package models

import (
	"math"
	"strings"
)

// Sortable fields, keyed by their API name.
var SortFields = map[string]string{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"title":        "title",
	"company":      "company",
	"domain":       "domain",
	"contractType": "contract_type",
	"location":     "location",
}

const (
	DefaultSortBy  = "createdAt"
	DefaultSortDir = "desc"

	// MaxOffset bounds Page*Size so offsets never overflow.
	MaxOffset = math.MaxInt32
)

// PageRequest is a zero-based page with a sort order.
type PageRequest struct {
	Page    int    `json:"page"`
	Size    int    `json:"size"`
	SortBy  string `json:"sortBy"`
	SortDir string `json:"sortDir"`
}

// Normalize clamps the size to [1, maxSize] and the page so its offset
// stays within MaxOffset, and replaces unknown sort fields and directions
// with the defaults.
func (p PageRequest) Normalize(defaultSize, maxSize int) PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	if p.Size > 0 && p.Page > MaxOffset/p.Size {
		p.Page = MaxOffset / p.Size
	}
	if _, ok := SortFields[p.SortBy]; !ok {
		p.SortBy = DefaultSortBy
	}
	if p.SortDir = strings.ToLower(p.SortDir); p.SortDir != "asc" {
		p.SortDir = DefaultSortDir
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// SearchCriteria filters active job offers. Blank fields impose no constraint.
type SearchCriteria struct {
	Keyword      string      `json:"keyword,omitempty"`
	Domain       string      `json:"domain,omitempty"`
	ContractType string      `json:"contractType,omitempty"`
	Location     string      `json:"location,omitempty"`
	Page         PageRequest `json:"page"`
}

type JobOfferPage struct {
	Items      []JobOfferRecord `json:"content"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	TotalItems int64            `json:"totalElements"`
	TotalPages int              `json:"totalPages"`
}

type JobOfferLitePage struct {
	Items      []JobOfferLite `json:"content"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	TotalItems int64          `json:"totalElements"`
	TotalPages int            `json:"totalPages"`
}

// TotalPages computes the page count for total items at the given size.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// AggregateStats is computed per request over active job offers.
type AggregateStats struct {
	TotalActive      int64        `json:"totalActive"`
	TopDomains       []LabelCount `json:"topDomains"`
	TopContractTypes []LabelCount `json:"topContractTypes"`
	TopLocations     []LabelCount `json:"topLocations"`
}
