package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"job-offer-pipeline/internal/engagement"
	"job-offer-pipeline/internal/joboffer"
	"job-offer-pipeline/internal/models"
)

type MockJobOffers struct {
	mock.Mock
}

func (m *MockJobOffers) record(args mock.Arguments) (*models.JobOfferRecord, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobOfferRecord), args.Error(1)
}

func (m *MockJobOffers) Create(ctx context.Context, in joboffer.CreateInput) (*models.JobOfferRecord, error) {
	return m.record(m.Called(ctx, in))
}

func (m *MockJobOffers) CreateFromFile(ctx context.Context, in joboffer.FileInput) (*models.JobOfferRecord, error) {
	return m.record(m.Called(ctx, in))
}

func (m *MockJobOffers) Update(ctx context.Context, id int64, in joboffer.UpdateInput) (*models.JobOfferRecord, error) {
	return m.record(m.Called(ctx, id, in))
}

func (m *MockJobOffers) Rederive(ctx context.Context, id int64) (*models.JobOfferRecord, error) {
	return m.record(m.Called(ctx, id))
}

func (m *MockJobOffers) SetActive(ctx context.Context, id int64, active bool) (*models.JobOfferRecord, error) {
	return m.record(m.Called(ctx, id, active))
}

func (m *MockJobOffers) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockJobOffers) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobOffers) Get(ctx context.Context, id int64) (*models.JobOfferRecord, error) {
	return m.record(m.Called(ctx, id))
}

func (m *MockJobOffers) ListByOwner(ctx context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferPage, error) {
	args := m.Called(ctx, ownerID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobOfferPage), args.Error(1)
}

func (m *MockJobOffers) ListByOwnerLite(ctx context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferLitePage, error) {
	args := m.Called(ctx, ownerID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobOfferLitePage), args.Error(1)
}

func (m *MockJobOffers) StatsByOwner(ctx context.Context, ownerID int64) (*models.OwnerStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OwnerStats), args.Error(1)
}

func (m *MockJobOffers) ExtractorStatus(ctx context.Context) models.ExtractorStatus {
	return m.Called(ctx).Get(0).(models.ExtractorStatus)
}

type MockSearch struct {
	mock.Mock
}

func (m *MockSearch) Search(ctx context.Context, criteria models.SearchCriteria) (*models.JobOfferPage, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobOfferPage), args.Error(1)
}

func (m *MockSearch) ListActive(ctx context.Context, page models.PageRequest) (*models.JobOfferPage, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobOfferPage), args.Error(1)
}

func (m *MockSearch) Stats(ctx context.Context) (*models.AggregateStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AggregateStats), args.Error(1)
}

type MockEngagement struct {
	mock.Mock
}

func (m *MockEngagement) AddFavorite(ctx context.Context, seekerID, jobOfferID int64) (*models.Favorite, error) {
	args := m.Called(ctx, seekerID, jobOfferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Favorite), args.Error(1)
}

func (m *MockEngagement) RemoveFavorite(ctx context.Context, seekerID, jobOfferID int64) error {
	return m.Called(ctx, seekerID, jobOfferID).Error(0)
}

func (m *MockEngagement) ListFavorites(ctx context.Context, seekerID int64) ([]models.Favorite, error) {
	args := m.Called(ctx, seekerID)
	return args.Get(0).([]models.Favorite), args.Error(1)
}

func (m *MockEngagement) IsFavorite(ctx context.Context, seekerID, jobOfferID int64) (bool, error) {
	args := m.Called(ctx, seekerID, jobOfferID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEngagement) Apply(ctx context.Context, in engagement.ApplyInput) (*models.Application, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *MockEngagement) ListBySeeker(ctx context.Context, seekerID int64) ([]models.Application, error) {
	args := m.Called(ctx, seekerID)
	return args.Get(0).([]models.Application), args.Error(1)
}

func (m *MockEngagement) ListByJobOffer(ctx context.Context, jobOfferID int64) ([]models.Application, error) {
	args := m.Called(ctx, jobOfferID)
	return args.Get(0).([]models.Application), args.Error(1)
}

func (m *MockEngagement) UpdateStatus(ctx context.Context, id int64, status string) (*models.Application, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}
