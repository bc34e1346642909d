// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/engagement"
	"job-offer-pipeline/internal/joboffer"
	"job-offer-pipeline/internal/models"
	"job-offer-pipeline/internal/search"
)

// JobOffers is the write pipeline and owner-facing reads.
type JobOffers interface {
	Create(ctx context.Context, in joboffer.CreateInput) (*models.JobOfferRecord, error)
	CreateFromFile(ctx context.Context, in joboffer.FileInput) (*models.JobOfferRecord, error)
	Update(ctx context.Context, id int64, in joboffer.UpdateInput) (*models.JobOfferRecord, error)
	Rederive(ctx context.Context, id int64) (*models.JobOfferRecord, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.JobOfferRecord, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*models.JobOfferRecord, error)
	ListByOwner(ctx context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferPage, error)
	ListByOwnerLite(ctx context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferLitePage, error)
	StatsByOwner(ctx context.Context, ownerID int64) (*models.OwnerStats, error)
	ExtractorStatus(ctx context.Context) models.ExtractorStatus
}

// Engagement covers favorites and applications.
type Engagement interface {
	AddFavorite(ctx context.Context, seekerID, jobOfferID int64) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, seekerID, jobOfferID int64) error
	ListFavorites(ctx context.Context, seekerID int64) ([]models.Favorite, error)
	IsFavorite(ctx context.Context, seekerID, jobOfferID int64) (bool, error)
	Apply(ctx context.Context, in engagement.ApplyInput) (*models.Application, error)
	ListBySeeker(ctx context.Context, seekerID int64) ([]models.Application, error)
	ListByJobOffer(ctx context.Context, jobOfferID int64) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Application, error)
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Dependencies struct {
	JobOffers  JobOffers
	Search     search.Engine
	Engagement Engagement
	Readiness  map[string]ReadinessCheck
}

type Options struct {
	CORSOrigins    []string
	MaxUploadBytes int64
	ReadyTimeout   time.Duration
}

type Server struct {
	jobOffers  JobOffers
	search     search.Engine
	engagement Engagement
	readiness  map[string]ReadinessCheck
	opts       Options
	errors     *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewServer(deps Dependencies, opts Options, log logger.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 2 * time.Second
	}
	log = log.WithFields(map[string]interface{}{"component": "http-api"})
	return &Server{
		jobOffers:  deps.JobOffers,
		search:     deps.Search,
		engagement: deps.Engagement,
		readiness:  deps.Readiness,
		opts:       opts,
		errors:     apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), observeRequests(s.logger))

	corsConfig := cors.DefaultConfig()
	if len(s.opts.CORSOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.opts.CORSOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		offers := api.Group("/job-offers")
		offers.GET("", s.listActive)
		offers.GET("/search", s.searchOffers)
		offers.GET("/stats", s.stats)
		offers.POST("", s.createOffer)
		offers.POST("/upload", s.uploadOffer)
		offers.GET("/offerer/:offererId", s.listByOwner)
		offers.GET("/offerer/:offererId/stats", s.ownerStats)
		offers.GET("/:id", s.getOffer)
		offers.PUT("/:id", s.updateOffer)
		offers.PATCH("/:id/status", s.setStatus)
		offers.POST("/:id/rederive", s.rederive)
		offers.DELETE("/:id", s.deleteOffer)

		api.DELETE("/admin/job-offers", s.purgeOffers)
		api.GET("/extractor/status", s.extractorStatus)

		favorites := api.Group("/favorites")
		favorites.POST("", s.addFavorite)
		favorites.GET("/:seekerId", s.listFavorites)
		favorites.GET("/:seekerId/:jobOfferId", s.isFavorite)
		favorites.DELETE("/:seekerId/:jobOfferId", s.removeFavorite)

		applications := api.Group("/applications")
		applications.POST("", s.apply)
		applications.GET("/seeker/:seekerId", s.applicationsBySeeker)
		applications.GET("/job-offer/:jobOfferId", s.applicationsByJobOffer)
		applications.PATCH("/:id/status", s.updateApplicationStatus)
	}

	return r
}
