package joboffer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/models"
)

// memoryStore keeps records in a map and mimics the transactional
// contract of the postgres store: a failing Modify callback leaves the
// record untouched.
type memoryStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]models.JobOfferRecord
	owners  map[int64]bool
}

func newMemoryStore(owners ...int64) *memoryStore {
	s := &memoryStore{records: map[int64]models.JobOfferRecord{}, owners: map[int64]bool{}}
	for _, o := range owners {
		s.owners[o] = true
	}
	return s
}

func (s *memoryStore) Create(_ context.Context, rec *models.JobOfferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.owners[rec.OwnerID] {
		return apperrors.NewNotFoundError("offerer", rec.OwnerID)
	}
	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rec.UpdatedAt = rec.CreatedAt
	s.records[rec.ID] = *rec
	return nil
}

func (s *memoryStore) Modify(_ context.Context, id int64, fn func(*models.JobOfferRecord) error) (*models.JobOfferRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("job offer", id)
	}
	working := current
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.ID = id
	s.records[id] = working
	return &working, nil
}

func (s *memoryStore) SetActive(_ context.Context, id int64, active bool) (*models.JobOfferRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("job offer", id)
	}
	rec.Active = active
	s.records[id] = rec
	return &rec, nil
}

func (s *memoryStore) Delete(_ context.Context, id int64) (*models.JobOfferLite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("job offer", id)
	}
	delete(s.records, id)
	return &models.JobOfferLite{ID: id, OwnerID: rec.OwnerID, Title: rec.Title, Active: rec.Active}, nil
}

func (s *memoryStore) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.records))
	s.records = map[int64]models.JobOfferRecord{}
	return n, nil
}

func (s *memoryStore) Get(_ context.Context, id int64) (*models.JobOfferRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("job offer", id)
	}
	return &rec, nil
}

func (s *memoryStore) owned(ownerID int64) []models.JobOfferRecord {
	var out []models.JobOfferRecord
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) ListByOwner(_ context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.owned(ownerID)
	return &models.JobOfferPage{Items: items, TotalItems: int64(len(items)), Page: page.Page, Size: page.Size}, nil
}

func (s *memoryStore) ListByOwnerLite(_ context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferLitePage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.JobOfferLite
	for _, rec := range s.owned(ownerID) {
		items = append(items, models.JobOfferLite{ID: rec.ID, OwnerID: rec.OwnerID, Title: rec.Title, Active: rec.Active})
	}
	return &models.JobOfferLitePage{Items: items, TotalItems: int64(len(items)), Page: page.Page, Size: page.Size}, nil
}

func (s *memoryStore) CountActiveByOwner(_ context.Context, ownerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rec := range s.owned(ownerID) {
		if rec.Active {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) ListAll(_ context.Context, batchSize int, fn func([]models.JobOfferRecord) error) error {
	s.mu.Lock()
	var all []models.JobOfferRecord
	for _, rec := range s.records {
		all = append(all, rec)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	for start := 0; start < len(all); start += batchSize {
		end := start + batchSize
		if end > len(all) {
			end = len(all)
		}
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// MockExtractor is a testify mock of extraction.Extractor.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, text string) (*models.ExtractionResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExtractionResult), args.Error(1)
}

func (m *MockExtractor) ExtractFromSource(ctx context.Context, content []byte, filename string) (*models.ExtractionResult, error) {
	args := m.Called(ctx, content, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExtractionResult), args.Error(1)
}

func (m *MockExtractor) Status(ctx context.Context) models.ExtractorStatus {
	return m.Called(ctx).Get(0).(models.ExtractorStatus)
}

// recordingIndexer remembers what was mirrored and can be told to fail.
type recordingIndexer struct {
	indexed  []int64
	removed  []int64
	purged   int
	ensured  int
	indexErr error
}

func (r *recordingIndexer) Index(_ context.Context, rec *models.JobOfferRecord) error {
	if r.indexErr != nil {
		return r.indexErr
	}
	r.indexed = append(r.indexed, rec.ID)
	return nil
}

func (r *recordingIndexer) Remove(_ context.Context, id int64) error {
	r.removed = append(r.removed, id)
	return r.indexErr
}

func (r *recordingIndexer) RemoveAll(context.Context) error {
	r.purged++
	return r.indexErr
}

func (r *recordingIndexer) EnsureIndex(context.Context) error {
	r.ensured++
	return nil
}

type recordingPublisher struct {
	events []models.JobOfferEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event models.JobOfferEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type countingCache struct {
	invalidations int
	err           error
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return c.err
}

var errBroken = errors.New("broken")
