package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/models"
	"job-offer-pipeline/internal/search"
)

type fixedEngine struct {
	stats *models.AggregateStats
}

func (e fixedEngine) Search(context.Context, models.SearchCriteria) (*models.JobOfferPage, error) {
	return &models.JobOfferPage{}, nil
}

func (e fixedEngine) ListActive(context.Context, models.PageRequest) (*models.JobOfferPage, error) {
	return &models.JobOfferPage{}, nil
}

func (e fixedEngine) Stats(context.Context) (*models.AggregateStats, error) {
	return e.stats, nil
}

type reindexFunc func(ctx context.Context) (int, error)

func (f reindexFunc) Reindex(ctx context.Context) (int, error) { return f(ctx) }

// ==========================
// Jobs
// ==========================

func TestStatsRefreshJob_PrimesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	stats := &models.AggregateStats{TotalActive: 5, TopDomains: []models.LabelCount{{Label: "Software", Count: 5}}}
	cached := search.NewCachedEngine(fixedEngine{stats: stats}, rdb, time.Minute, logger.NewTestLogger(t))

	s := New(logger.NewTestLogger(t))
	require.True(t, s.RunNow(context.Background(), StatsRefreshJob("@every 5m", cached)))

	raw, err := mr.Get(search.StatsCacheKey)
	require.NoError(t, err)
	var got models.AggregateStats
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, int64(5), got.TotalActive)
	assert.True(t, mr.TTL(search.StatsCacheKey) > 0)
}

func TestRunNow_FailuresAreContained(t *testing.T) {
	tests := []struct {
		name string
		run  func(ctx context.Context) (int, error)
	}{
		{"error", func(context.Context) (int, error) { return 0, errors.New("index down") }},
		{"panic", func(context.Context) (int, error) { panic("boom") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(logger.NewTestLogger(t))
			assert.False(t, s.RunNow(context.Background(), ReindexJob("", reindexFunc(tt.run))))
		})
	}
}

// ==========================
// Cron loop
// ==========================

func TestStart_RunsScheduledJobs(t *testing.T) {
	var runs int32
	job := Job{
		Name: "tick",
		Spec: "@every 1s",
		Run: func(context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	}
	disabled := Job{
		Name: "disabled",
		Run: func(context.Context) error {
			t.Error("disabled job must not run")
			return nil
		},
	}

	s := New(logger.NewTestLogger(t), job, disabled)
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestStart_InvalidSpec(t *testing.T) {
	s := New(logger.NewNoOpLogger(), Job{Name: "bad", Spec: "not a cron spec", Run: func(context.Context) error { return nil }})
	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "schedule bad")
}
