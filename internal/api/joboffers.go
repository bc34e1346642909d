package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/joboffer"
	"job-offer-pipeline/internal/models"
)

// ==========================
// Search
// ==========================

func (s *Server) listActive(c *gin.Context) {
	page, err := pageRequest(c)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	result, err := s.search.ListActive(c.Request.Context(), page)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) searchOffers(c *gin.Context) {
	page, err := pageRequest(c)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	criteria := models.SearchCriteria{
		Keyword:      c.Query("keyword"),
		Domain:       c.Query("domain"),
		ContractType: c.Query("contractType"),
		Location:     c.Query("location"),
		Page:         page,
	}
	result, err := s.search.Search(c.Request.Context(), criteria)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) stats(c *gin.Context) {
	result, err := s.search.Stats(c.Request.Context())
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ==========================
// Writes
// ==========================

func (s *Server) createOffer(c *gin.Context) {
	var req createOfferRequest
	if err := bind(c, createOfferSchema, &req); err != nil {
		s.errors.Respond(c, err)
		return
	}

	rec, err := s.jobOffers.Create(c.Request.Context(), joboffer.CreateInput{
		OwnerID:     req.OffererID,
		Title:       req.Title,
		Company:     req.Company,
		Description: req.Description,
	})
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) uploadOffer(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	ownerID, err := strconv.ParseInt(strings.TrimSpace(c.PostForm("offererId")), 10, 64)
	if err != nil || ownerID <= 0 {
		s.errors.Respond(c, apperrors.NewValidationError("offererId must be a positive integer"))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		s.errors.Respond(c, apperrors.NewValidationError("file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		s.errors.Respond(c, apperrors.NewValidationError("file could not be opened"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.errors.Respond(c, apperrors.NewValidationError("file could not be read"))
		return
	}

	rec, err := s.jobOffers.CreateFromFile(c.Request.Context(), joboffer.FileInput{
		OwnerID:  ownerID,
		Title:    c.PostForm("title"),
		Filename: header.Filename,
		Content:  content,
	})
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) updateOffer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	var req updateOfferRequest
	if err := bind(c, updateOfferSchema, &req); err != nil {
		s.errors.Respond(c, err)
		return
	}

	rec, err := s.jobOffers.Update(c.Request.Context(), id, joboffer.UpdateInput{
		Title:       req.Title,
		Company:     req.Company,
		Description: req.Description,
	})
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) setStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	var req statusRequest
	if err := bind(c, statusSchema, &req); err != nil {
		s.errors.Respond(c, err)
		return
	}

	rec, err := s.jobOffers.SetActive(c.Request.Context(), id, req.IsActive)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) rederive(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	rec, err := s.jobOffers.Rederive(c.Request.Context(), id)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteOffer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	if err := s.jobOffers.Delete(c.Request.Context(), id); err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) purgeOffers(c *gin.Context) {
	removed, err := s.jobOffers.DeleteAll(c.Request.Context())
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}

// ==========================
// Reads
// ==========================

func (s *Server) getOffer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	rec, err := s.jobOffers.Get(c.Request.Context(), id)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) listByOwner(c *gin.Context) {
	ownerID, err := pathID(c, "offererId")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	page, err := pageRequest(c)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}

	if c.Query("lite") == "true" {
		result, err := s.jobOffers.ListByOwnerLite(c.Request.Context(), ownerID, page)
		if err != nil {
			s.errors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	result, err := s.jobOffers.ListByOwner(c.Request.Context(), ownerID, page)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ownerStats(c *gin.Context) {
	ownerID, err := pathID(c, "offererId")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	result, err := s.jobOffers.StatsByOwner(c.Request.Context(), ownerID)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) extractorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.jobOffers.ExtractorStatus(c.Request.Context()))
}
