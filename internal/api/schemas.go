package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/common/validation"
	"job-offer-pipeline/internal/models"
)

var (
	idProperty     = map[string]interface{}{"type": "integer", "minimum": 1}
	stringProperty = map[string]interface{}{"type": "string"}
)

func requiredFields(fields ...string) []interface{} {
	out := make([]interface{}, len(fields))
	for i, f := range fields {
		out[i] = f
	}
	return out
}

var createOfferSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": requiredFields("offererId"),
	"properties": map[string]interface{}{
		"offererId":   idProperty,
		"title":       stringProperty,
		"company":     stringProperty,
		"description": stringProperty,
	},
})

var updateOfferSchema = validation.MustCompile(map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title":       stringProperty,
		"company":     stringProperty,
		"description": stringProperty,
	},
})

var statusSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": requiredFields("isActive"),
	"properties": map[string]interface{}{
		"isActive": map[string]interface{}{"type": "boolean"},
	},
})

var favoriteSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": requiredFields("seekerId", "jobOfferId"),
	"properties": map[string]interface{}{
		"seekerId":   idProperty,
		"jobOfferId": idProperty,
	},
})

var applicationSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": requiredFields("seekerId", "jobOfferId"),
	"properties": map[string]interface{}{
		"seekerId":    idProperty,
		"jobOfferId":  idProperty,
		"coverLetter": stringProperty,
		"resumeUrl":   stringProperty,
	},
})

var applicationStatusSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": requiredFields("status"),
	"properties": map[string]interface{}{
		"status": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{
				string(models.ApplicationPending),
				string(models.ApplicationAccepted),
				string(models.ApplicationRejected),
			},
		},
	},
})

type createOfferRequest struct {
	OffererID   int64  `json:"offererId"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

type updateOfferRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

type statusRequest struct {
	IsActive bool `json:"isActive"`
}

type favoriteRequest struct {
	SeekerID   int64 `json:"seekerId"`
	JobOfferID int64 `json:"jobOfferId"`
}

type applicationRequest struct {
	SeekerID    int64  `json:"seekerId"`
	JobOfferID  int64  `json:"jobOfferId"`
	CoverLetter string `json:"coverLetter"`
	ResumeURL   string `json:"resumeUrl"`
}

type applicationStatusRequest struct {
	Status string `json:"status"`
}

// bind validates the request body against schema and decodes it into dst.
func bind(c *gin.Context, schema *validation.Validator, dst interface{}) error {
	raw, err := c.GetRawData()
	if err != nil {
		return apperrors.NewValidationError("request body could not be read")
	}
	if len(raw) == 0 {
		return apperrors.NewValidationError("request body is required")
	}

	result, err := schema.ValidateBytes(raw)
	if err != nil {
		return apperrors.NewValidationError("request body is not valid JSON")
	}
	if !result.Valid {
		return apperrors.NewValidationError(result.Summary())
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}
