// Package search serves multi-criteria search and aggregate statistics
// over active job offers.
package search

import (
	"context"
	"fmt"

	"job-offer-pipeline/internal/common/config"
	"job-offer-pipeline/internal/models"
)

// Engine answers read queries. Only active records are ever returned or
// counted.
type Engine interface {
	Search(ctx context.Context, criteria models.SearchCriteria) (*models.JobOfferPage, error)
	ListActive(ctx context.Context, page models.PageRequest) (*models.JobOfferPage, error)
	Stats(ctx context.Context) (*models.AggregateStats, error)
}

// Indexer mirrors committed writes into a search backend.
type Indexer interface {
	Index(ctx context.Context, rec *models.JobOfferRecord) error
	Remove(ctx context.Context, id int64) error
	RemoveAll(ctx context.Context) error
	EnsureIndex(ctx context.Context) error
}

// Options holds the paging and aggregation limits shared by the backends.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	StatsTopN       int
}

func (o Options) withDefaults() Options {
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 10
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
	if o.StatsTopN <= 0 {
		o.StatsTopN = 10
	}
	return o
}

// Select returns the engine configured by backend. elastic may be nil when
// the Elasticsearch backend is not selected.
func Select(backend string, sqlEngine Engine, elastic *ElasticEngine) (Engine, error) {
	switch backend {
	case "", config.BackendPostgres:
		return sqlEngine, nil
	case config.BackendElasticsearch:
		if elastic == nil {
			return nil, fmt.Errorf("search backend %q selected but elasticsearch is not configured", backend)
		}
		return elastic, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", backend)
	}
}

// NoopIndexer is used when no search index mirrors the store.
type NoopIndexer struct{}

func (NoopIndexer) Index(context.Context, *models.JobOfferRecord) error { return nil }
func (NoopIndexer) Remove(context.Context, int64) error                  { return nil }
func (NoopIndexer) RemoveAll(context.Context) error                      { return nil }
func (NoopIndexer) EnsureIndex(context.Context) error                    { return nil }
