package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"job-offer-pipeline/internal/engagement"
)

// ==========================
// Favorites
// ==========================

func (s *Server) addFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := bind(c, favoriteSchema, &req); err != nil {
		s.errors.Respond(c, err)
		return
	}
	fav, err := s.engagement.AddFavorite(c.Request.Context(), req.SeekerID, req.JobOfferID)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, fav)
}

func (s *Server) listFavorites(c *gin.Context) {
	seekerID, err := pathID(c, "seekerId")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	favs, err := s.engagement.ListFavorites(c.Request.Context(), seekerID)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, favs)
}

func (s *Server) isFavorite(c *gin.Context) {
	seekerID, err := pathID(c, "seekerId")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	jobOfferID, err := pathID(c, "jobOfferId")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	ok, err := s.engagement.IsFavorite(c.Request.Context(), seekerID, jobOfferID)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": ok})
}

func (s *Server) removeFavorite(c *gin.Context) {
	seekerID, err := pathID(c, "seekerId")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	jobOfferID, err := pathID(c, "jobOfferId")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	if err := s.engagement.RemoveFavorite(c.Request.Context(), seekerID, jobOfferID); err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ==========================
// Applications
// ==========================

func (s *Server) apply(c *gin.Context) {
	var req applicationRequest
	if err := bind(c, applicationSchema, &req); err != nil {
		s.errors.Respond(c, err)
		return
	}
	app, err := s.engagement.Apply(c.Request.Context(), engagement.ApplyInput{
		SeekerID:    req.SeekerID,
		JobOfferID:  req.JobOfferID,
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
	})
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (s *Server) applicationsBySeeker(c *gin.Context) {
	seekerID, err := pathID(c, "seekerId")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	apps, err := s.engagement.ListBySeeker(c.Request.Context(), seekerID)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (s *Server) applicationsByJobOffer(c *gin.Context) {
	jobOfferID, err := pathID(c, "jobOfferId")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	apps, err := s.engagement.ListByJobOffer(c.Request.Context(), jobOfferID)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (s *Server) updateApplicationStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	var req applicationStatusRequest
	if err := bind(c, applicationStatusSchema, &req); err != nil {
		s.errors.Respond(c, err)
		return
	}
	app, err := s.engagement.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}
