// Package joboffer runs the extraction-and-merge pipeline behind every job
// offer write and exposes the owner-facing reads.
package joboffer

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/common/metrics"
	"job-offer-pipeline/internal/common/observability"
	"job-offer-pipeline/internal/extraction"
	"job-offer-pipeline/internal/merge"
	"job-offer-pipeline/internal/models"
	"job-offer-pipeline/internal/notify"
	"job-offer-pipeline/internal/search"
)

// Store is the persistence the pipeline writes through.
type Store interface {
	Create(ctx context.Context, rec *models.JobOfferRecord) error
	Modify(ctx context.Context, id int64, fn func(*models.JobOfferRecord) error) (*models.JobOfferRecord, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.JobOfferRecord, error)
	Delete(ctx context.Context, id int64) (*models.JobOfferLite, error)
	DeleteAll(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*models.JobOfferRecord, error)
	ListByOwner(ctx context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferPage, error)
	ListByOwnerLite(ctx context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferLitePage, error)
	CountActiveByOwner(ctx context.Context, ownerID int64) (int64, error)
	ListAll(ctx context.Context, batchSize int, fn func([]models.JobOfferRecord) error) error
}

// StatsInvalidator drops cached aggregate statistics.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Dependencies wires a Service. Indexer, Cache, Publisher and
// Observability are optional.
type Dependencies struct {
	Store         Store
	Extractor     extraction.Extractor
	Indexer       search.Indexer
	Cache         StatsInvalidator
	Publisher     notify.Publisher
	Observability *observability.Observability
}

type Service struct {
	store     Store
	extractor extraction.Extractor
	indexer   search.Indexer
	cache     StatsInvalidator
	publisher notify.Publisher
	obs       *observability.Observability
	logger    logger.Logger
}

func NewService(deps Dependencies, log logger.Logger) *Service {
	s := &Service{
		store:     deps.Store,
		extractor: deps.Extractor,
		indexer:   deps.Indexer,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		obs:       deps.Observability,
		logger:    log.WithFields(map[string]interface{}{"component": "job-offer-service"}),
	}
	if s.indexer == nil {
		s.indexer = search.NoopIndexer{}
	}
	if s.publisher == nil {
		s.publisher = notify.NewLogPublisher(log)
	}
	return s
}

type CreateInput struct {
	OwnerID     int64
	Title       string
	Company     string
	Description string
}

type FileInput struct {
	OwnerID  int64
	Title    string
	Filename string
	Content  []byte
}

type UpdateInput struct {
	Title       string
	Company     string
	Description string
}

// ==========================
// Writes
// ==========================

// Create extracts fields from the description, merges them under the
// caller's values and persists the result. An unreachable extractor does
// not fail the create.
func (s *Service) Create(ctx context.Context, in CreateInput) (rec *models.JobOfferRecord, err error) {
	defer s.observe(ctx, "create", time.Now(), &err)

	if in.OwnerID <= 0 {
		return nil, apperrors.NewValidationError("offererId is required")
	}

	var result *models.ExtractionResult
	if strings.TrimSpace(in.Description) != "" {
		result = s.extract(ctx, "create", func() (*models.ExtractionResult, error) {
			return s.extractor.Extract(ctx, in.Description)
		})
	}

	merged := merge.Merge(
		models.JobOfferRecord{OwnerID: in.OwnerID, Active: true},
		merge.Overrides{Title: in.Title, Company: in.Company, Description: in.Description},
		result, s.logger,
	)
	merged.RawText = in.Description
	merged.ExtractedData = s.payload(result)

	if err := validate(&merged); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, &merged); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, models.EventJobOfferCreated, &merged)
	return &merged, nil
}

// CreateFromFile extracts from an uploaded document. Only the title can be
// overridden; when neither the caller nor the extractor provides one, the
// file name is used.
func (s *Service) CreateFromFile(ctx context.Context, in FileInput) (rec *models.JobOfferRecord, err error) {
	defer s.observe(ctx, "create_from_file", time.Now(), &err)

	if in.OwnerID <= 0 {
		return nil, apperrors.NewValidationError("offererId is required")
	}
	if len(in.Content) == 0 {
		return nil, apperrors.NewValidationError("file is empty")
	}

	result := s.extract(ctx, "create_from_file", func() (*models.ExtractionResult, error) {
		return s.extractor.ExtractFromSource(ctx, in.Content, in.Filename)
	})

	merged := merge.Merge(
		models.JobOfferRecord{OwnerID: in.OwnerID, Active: true},
		merge.Overrides{Title: in.Title},
		result, s.logger,
	)
	switch {
	case result != nil && strings.TrimSpace(result.RawText) != "":
		merged.RawText = result.RawText
	case !extraction.IsBinaryDocument(in.Filename):
		merged.RawText = extraction.DecodeText(in.Content)
	}
	if strings.TrimSpace(merged.Title) == "" {
		merged.Title = strings.TrimSuffix(filepath.Base(in.Filename), filepath.Ext(in.Filename))
	}
	merged.ExtractedData = s.payload(result)

	if err := validate(&merged); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, &merged); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, models.EventJobOfferCreated, &merged)
	return &merged, nil
}

// Update re-extracts from the new description, or the stored one when none
// is given, and merges the result into the locked record.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (rec *models.JobOfferRecord, err error) {
	defer s.observe(ctx, "update", time.Now(), &err)

	text := in.Description
	if strings.TrimSpace(text) == "" {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		text = current.Description
	}

	var result *models.ExtractionResult
	if strings.TrimSpace(text) != "" {
		result = s.extract(ctx, "update", func() (*models.ExtractionResult, error) {
			return s.extractor.Extract(ctx, text)
		})
	}
	payload := s.payload(result)

	updated, err := s.store.Modify(ctx, id, func(current *models.JobOfferRecord) error {
		merged := merge.Merge(*current,
			merge.Overrides{Title: in.Title, Company: in.Company, Description: in.Description},
			result, s.logger)
		if strings.TrimSpace(in.Description) != "" {
			merged.RawText = in.Description
		}
		if payload != "" {
			merged.ExtractedData = payload
		}
		if err := validate(&merged); err != nil {
			return err
		}
		*current = merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, models.EventJobOfferUpdated, updated)
	return updated, nil
}

// Rederive merges the stored extraction payload into the record again
// without calling the extractor. The stored title and a non-blank stored
// company are kept.
func (s *Service) Rederive(ctx context.Context, id int64) (rec *models.JobOfferRecord, err error) {
	defer s.observe(ctx, "rederive", time.Now(), &err)

	updated, err := s.store.Modify(ctx, id, func(current *models.JobOfferRecord) error {
		result, err := merge.Decode(current.ExtractedData)
		if err != nil {
			return err
		}
		if result == nil {
			return apperrors.NewValidationError("job offer has no stored extraction")
		}
		company := current.Company
		*current = merge.Merge(*current, merge.Overrides{Title: current.Title, Company: company}, result, s.logger)
		if strings.TrimSpace(company) != "" {
			current.Company = company
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, models.EventJobOfferUpdated, updated)
	return updated, nil
}

func (s *Service) SetActive(ctx context.Context, id int64, active bool) (rec *models.JobOfferRecord, err error) {
	defer s.observe(ctx, "set_active", time.Now(), &err)

	updated, err := s.store.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}

	eventType := models.EventJobOfferDeactivate
	if active {
		eventType = models.EventJobOfferActivated
	}
	s.afterWrite(ctx, eventType, updated)
	return updated, nil
}

// Delete removes the record and everything that references it.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer s.observe(ctx, "delete", time.Now(), &err)

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}

	if err := s.indexer.Remove(ctx, id); err != nil {
		s.logger.Warn("search index not updated", map[string]interface{}{"jobOfferId": id, "error": err})
	}
	s.invalidateStats(ctx)
	s.publish(ctx, notify.NewEvent(models.EventJobOfferDeleted, deleted.ID, deleted.OwnerID, deleted.Title, false))
	return nil
}

// DeleteAll purges every job offer.
func (s *Service) DeleteAll(ctx context.Context) (removed int64, err error) {
	defer s.observe(ctx, "delete_all", time.Now(), &err)

	removed, err = s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.indexer.RemoveAll(ctx); err != nil {
		s.logger.Warn("search index not purged", map[string]interface{}{"error": err})
	}
	s.invalidateStats(ctx)
	s.publish(ctx, notify.NewEvent(models.EventJobOffersPurged, 0, 0, "", false))
	return removed, nil
}

// Reindex copies every stored record into the search index.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if err := s.indexer.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	indexed := 0
	err := s.store.ListAll(ctx, 500, func(batch []models.JobOfferRecord) error {
		for i := range batch {
			if err := s.indexer.Index(ctx, &batch[i]); err != nil {
				return err
			}
			indexed++
		}
		return nil
	})
	if err != nil {
		return indexed, err
	}

	s.invalidateStats(ctx)
	s.logger.Info("search index rebuilt", map[string]interface{}{"indexed": indexed})
	return indexed, nil
}

// ==========================
// Reads
// ==========================

func (s *Service) Get(ctx context.Context, id int64) (*models.JobOfferRecord, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferPage, error) {
	return s.store.ListByOwner(ctx, ownerID, page)
}

func (s *Service) ListByOwnerLite(ctx context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferLitePage, error) {
	return s.store.ListByOwnerLite(ctx, ownerID, page)
}

func (s *Service) StatsByOwner(ctx context.Context, ownerID int64) (*models.OwnerStats, error) {
	total, err := s.store.CountActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &models.OwnerStats{OwnerID: ownerID, TotalActive: total}, nil
}

func (s *Service) ExtractorStatus(ctx context.Context) models.ExtractorStatus {
	return s.extractor.Status(ctx)
}

// ==========================
// Helpers
// ==========================

func validate(rec *models.JobOfferRecord) error {
	if strings.TrimSpace(rec.Title) == "" {
		return apperrors.NewValidationError("title is required")
	}
	return nil
}

// extract runs call and treats any failure as "no extraction".
func (s *Service) extract(ctx context.Context, operation string, call func() (*models.ExtractionResult, error)) *models.ExtractionResult {
	if s.extractor == nil {
		return nil
	}
	result, err := call()
	if err != nil {
		metrics.ExtractionFallbacks.WithLabelValues(operation).Inc()
		s.logger.Warn("continuing without extraction", map[string]interface{}{
			"operation": operation,
			"error":     err,
		})
		return nil
	}
	return result
}

func (s *Service) payload(result *models.ExtractionResult) string {
	payload, err := merge.Payload(result)
	if err != nil {
		s.logger.Warn("extraction payload not stored", map[string]interface{}{"error": err})
		return ""
	}
	return payload
}

func (s *Service) afterWrite(ctx context.Context, eventType string, rec *models.JobOfferRecord) {
	if err := s.indexer.Index(ctx, rec); err != nil {
		s.logger.Warn("search index not updated", map[string]interface{}{"jobOfferId": rec.ID, "error": err})
	}
	s.invalidateStats(ctx)
	s.publish(ctx, notify.NewEvent(eventType, rec.ID, rec.OwnerID, rec.Title, rec.Active))
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("stats cache not invalidated", map[string]interface{}{"error": err})
	}
}

func (s *Service) publish(ctx context.Context, event models.JobOfferEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event not published", map[string]interface{}{
			"eventType":  event.Type,
			"jobOfferId": event.JobOfferID,
			"error":      err,
		})
	}
}

func (s *Service) observe(ctx context.Context, operation string, start time.Time, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = string(apperrors.Normalize(*err).Code)
	}
	metrics.JobOfferWrites.WithLabelValues(operation, outcome).Inc()
	s.obs.Record(ctx, operation, outcome, time.Since(start))
}
