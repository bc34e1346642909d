package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/models"
)

func pathID(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		return 0, apperrors.NewValidationError(name + " must be a positive integer")
	}
	return v, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperrors.NewValidationError(name + " must be a non-negative integer")
	}
	return v, nil
}

// pageRequest reads page, size, sortBy and sortDir. Out-of-range values are
// clamped by the search backends.
func pageRequest(c *gin.Context) (models.PageRequest, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return models.PageRequest{}, err
	}
	size, err := queryInt(c, "size")
	if err != nil {
		return models.PageRequest{}, err
	}
	return models.PageRequest{
		Page:    page,
		Size:    size,
		SortBy:  c.Query("sortBy"),
		SortDir: c.Query("sortDir"),
	}, nil
}
