// Package engagement handles job seekers' favorites and applications.
package engagement

import (
	"context"
	"strings"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/models"
)

type Store interface {
	Get(ctx context.Context, id int64) (*models.JobOfferRecord, error)

	AddFavorite(ctx context.Context, seekerID, jobOfferID int64) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, seekerID, jobOfferID int64) error
	ListFavorites(ctx context.Context, seekerID int64) ([]models.Favorite, error)
	IsFavorite(ctx context.Context, seekerID, jobOfferID int64) (bool, error)

	CreateApplication(ctx context.Context, app *models.Application) error
	ListApplicationsBySeeker(ctx context.Context, seekerID int64) ([]models.Application, error)
	ListApplicationsByJobOffer(ctx context.Context, jobOfferID int64) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus) (*models.Application, error)
}

type Service struct {
	store  Store
	logger logger.Logger
}

func NewService(store Store, log logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "engagement-service"}),
	}
}

// ==========================
// Favorites
// ==========================

func (s *Service) AddFavorite(ctx context.Context, seekerID, jobOfferID int64) (*models.Favorite, error) {
	if seekerID <= 0 || jobOfferID <= 0 {
		return nil, apperrors.NewValidationError("seekerId and jobOfferId are required")
	}
	if _, err := s.store.Get(ctx, jobOfferID); err != nil {
		return nil, err
	}

	fav, err := s.store.AddFavorite(ctx, seekerID, jobOfferID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("favorite added", map[string]interface{}{"seekerId": seekerID, "jobOfferId": jobOfferID})
	return fav, nil
}

func (s *Service) RemoveFavorite(ctx context.Context, seekerID, jobOfferID int64) error {
	return s.store.RemoveFavorite(ctx, seekerID, jobOfferID)
}

func (s *Service) ListFavorites(ctx context.Context, seekerID int64) ([]models.Favorite, error) {
	return s.store.ListFavorites(ctx, seekerID)
}

func (s *Service) IsFavorite(ctx context.Context, seekerID, jobOfferID int64) (bool, error) {
	return s.store.IsFavorite(ctx, seekerID, jobOfferID)
}

// ==========================
// Applications
// ==========================

type ApplyInput struct {
	SeekerID    int64
	JobOfferID  int64
	CoverLetter string
	ResumeURL   string
}

// Apply records a seeker's application. Only active offers accept
// applications and a seeker applies at most once per offer.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (*models.Application, error) {
	if in.SeekerID <= 0 || in.JobOfferID <= 0 {
		return nil, apperrors.NewValidationError("seekerId and jobOfferId are required")
	}

	offer, err := s.store.Get(ctx, in.JobOfferID)
	if err != nil {
		return nil, err
	}
	if !offer.Active {
		return nil, apperrors.NewValidationError("job offer is not accepting applications")
	}

	app := &models.Application{
		SeekerID:    in.SeekerID,
		JobOfferID:  in.JobOfferID,
		CoverLetter: strings.TrimSpace(in.CoverLetter),
		ResumeURL:   strings.TrimSpace(in.ResumeURL),
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("application created", map[string]interface{}{
		"applicationId": app.ID,
		"seekerId":      app.SeekerID,
		"jobOfferId":    app.JobOfferID,
	})
	return app, nil
}

func (s *Service) ListBySeeker(ctx context.Context, seekerID int64) ([]models.Application, error) {
	return s.store.ListApplicationsBySeeker(ctx, seekerID)
}

func (s *Service) ListByJobOffer(ctx context.Context, jobOfferID int64) ([]models.Application, error) {
	return s.store.ListApplicationsByJobOffer(ctx, jobOfferID)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*models.Application, error) {
	st := models.ApplicationStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !st.Valid() {
		return nil, apperrors.NewValidationError("unknown application status: " + status)
	}
	return s.store.UpdateApplicationStatus(ctx, id, st)
}
