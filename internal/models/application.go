// internal/models/application.go
package models

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationAccepted ApplicationStatus = "ACCEPTED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

type Application struct {
	ID          int64             `json:"id"`
	SeekerID    int64             `json:"seekerId"`
	JobOfferID  int64             `json:"jobOfferId"`
	Status      ApplicationStatus `json:"status"`
	CoverLetter string            `json:"coverLetter,omitempty"`
	ResumeURL   string            `json:"resumeUrl,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type Favorite struct {
	ID         int64     `json:"id"`
	SeekerID   int64     `json:"seekerId"`
	JobOfferID int64     `json:"jobOfferId"`
	CreatedAt  time.Time `json:"createdAt"`
}
