// internal/models/job_offer.go
package models

import "time"

// JobOfferRecord is the persisted, flattened job offer. An empty string
// means the field is unset.
type JobOfferRecord struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"offererId"`
	Title         string    `json:"title"`
	Company       string    `json:"company"`
	Location      string    `json:"location,omitempty"`
	ContractType  string    `json:"contractType,omitempty"`
	Domain        string    `json:"domain,omitempty"`
	Skills        string    `json:"skills,omitempty"`
	Salary        string    `json:"salary,omitempty"`
	Duration      string    `json:"duration,omitempty"`
	Deadline      string    `json:"deadline,omitempty"`
	Description   string    `json:"description,omitempty"`
	RawText       string    `json:"rawText,omitempty"`
	ExtractedData string    `json:"extractedData,omitempty"`
	Contacts      string    `json:"contacts,omitempty"`
	Language      string    `json:"language,omitempty"`
	Type          string    `json:"type,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Active        bool      `json:"isActive"`
}

// JobOfferLite is the owner dashboard projection.
type JobOfferLite struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"offererId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Active    bool      `json:"isActive"`
	RawText   string    `json:"rawText,omitempty"`
}

type OwnerStats struct {
	OwnerID     int64 `json:"offererId"`
	TotalActive int64 `json:"totalActive"`
}

// ExtractorStatus is the result of probing the extraction capability.
type ExtractorStatus struct {
	Available bool   `json:"available"`
	Endpoint  string `json:"url"`
}

// JobOfferEvent is published after a committed job offer write.
type JobOfferEvent struct {
	EventID    string    `json:"eventId"`
	Type       string    `json:"type"`
	JobOfferID int64     `json:"jobOfferId"`
	OwnerID    int64     `json:"offererId,omitempty"`
	Title      string    `json:"title,omitempty"`
	Active     bool      `json:"isActive"`
	OccurredAt time.Time `json:"occurredAt"`
}

const (
	EventJobOfferCreated    = "job_offer.created"
	EventJobOfferUpdated    = "job_offer.updated"
	EventJobOfferActivated  = "job_offer.activated"
	EventJobOfferDeactivate = "job_offer.deactivated"
	EventJobOfferDeleted    = "job_offer.deleted"
	EventJobOffersPurged    = "job_offer.purged"
)
