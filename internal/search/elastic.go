package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/common/metrics"
	"job-offer-pipeline/internal/models"
)

const elasticBackend = "elasticsearch"

// maxResultWindow matches the index.max_result_window default; from+size
// past it is rejected by Elasticsearch.
const maxResultWindow = 10000

// indexMapping stores filterable fields as keywords and the description as
// a wildcard field so substring matching works on long text.
const indexMapping = `{
	"mappings": {
		"properties": {
			"id":             {"type": "long"},
			"offerer_id":     {"type": "long"},
			"title":          {"type": "keyword"},
			"company":        {"type": "keyword"},
			"location":       {"type": "keyword"},
			"contract_type":  {"type": "keyword"},
			"domain":         {"type": "keyword"},
			"skills":         {"type": "keyword"},
			"salary":         {"type": "keyword", "index": false},
			"duration":       {"type": "keyword", "index": false},
			"deadline":       {"type": "keyword", "index": false},
			"description":    {"type": "wildcard"},
			"raw_text":       {"type": "text", "index": false},
			"extracted_data": {"type": "text", "index": false},
			"contacts":       {"type": "text", "index": false},
			"language":       {"type": "keyword"},
			"type":           {"type": "keyword"},
			"created_at":     {"type": "date"},
			"updated_at":     {"type": "date"},
			"is_active":      {"type": "boolean"}
		}
	}
}`

// document is the indexed form of a job offer.
type document struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"offerer_id"`
	Title         string    `json:"title"`
	Company       string    `json:"company"`
	Location      string    `json:"location,omitempty"`
	ContractType  string    `json:"contract_type,omitempty"`
	Domain        string    `json:"domain,omitempty"`
	Skills        string    `json:"skills,omitempty"`
	Salary        string    `json:"salary,omitempty"`
	Duration      string    `json:"duration,omitempty"`
	Deadline      string    `json:"deadline,omitempty"`
	Description   string    `json:"description,omitempty"`
	RawText       string    `json:"raw_text,omitempty"`
	ExtractedData string    `json:"extracted_data,omitempty"`
	Contacts      string    `json:"contacts,omitempty"`
	Language      string    `json:"language,omitempty"`
	Type          string    `json:"type,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Active        bool      `json:"is_active"`
}

func toDocument(r *models.JobOfferRecord) document {
	return document{
		ID: r.ID, OwnerID: r.OwnerID, Title: r.Title, Company: r.Company,
		Location: blankToEmpty(r.Location), ContractType: blankToEmpty(r.ContractType),
		Domain: blankToEmpty(r.Domain), Skills: r.Skills, Salary: r.Salary,
		Duration: r.Duration, Deadline: r.Deadline, Description: r.Description,
		RawText: r.RawText, ExtractedData: r.ExtractedData, Contacts: r.Contacts,
		Language: r.Language, Type: r.Type,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Active: r.Active,
	}
}

func (d document) record() models.JobOfferRecord {
	return models.JobOfferRecord{
		ID: d.ID, OwnerID: d.OwnerID, Title: d.Title, Company: d.Company,
		Location: d.Location, ContractType: d.ContractType, Domain: d.Domain,
		Skills: d.Skills, Salary: d.Salary, Duration: d.Duration, Deadline: d.Deadline,
		Description: d.Description, RawText: d.RawText, ExtractedData: d.ExtractedData,
		Contacts: d.Contacts, Language: d.Language, Type: d.Type,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt, Active: d.Active,
	}
}

// blankToEmpty keeps whitespace-only values out of aggregations.
func blankToEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// ElasticEngine searches the job offer mirror index and keeps it in sync.
type ElasticEngine struct {
	client *elasticsearch.Client
	index  string
	opts   Options
	logger logger.Logger
}

func NewElasticEngine(client *elasticsearch.Client, index string, opts Options, log logger.Logger) *ElasticEngine {
	return &ElasticEngine{
		client: client,
		index:  index,
		opts:   opts.withDefaults(),
		logger: log.WithFields(map[string]interface{}{"component": "elastic-engine", "index": index}),
	}
}

// ==========================
// Queries
// ==========================

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func containsClause(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{
			field: map[string]interface{}{
				"value":            "*" + wildcardEscaper.Replace(value) + "*",
				"case_insensitive": true,
			},
		},
	}
}

func activeFilter() map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{"is_active": true}}
}

func buildSearchQuery(criteria models.SearchCriteria) map[string]interface{} {
	filters := []interface{}{activeFilter()}

	if strings.TrimSpace(criteria.Keyword) != "" {
		filters = append(filters, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					containsClause("title", criteria.Keyword),
					containsClause("company", criteria.Keyword),
					containsClause("description", criteria.Keyword),
				},
				"minimum_should_match": 1,
			},
		})
	}
	for _, f := range []struct{ field, value string }{
		{"domain", criteria.Domain},
		{"contract_type", criteria.ContractType},
		{"location", criteria.Location},
	} {
		if strings.TrimSpace(f.value) != "" {
			filters = append(filters, containsClause(f.field, f.value))
		}
	}

	return map[string]interface{}{"bool": map[string]interface{}{"filter": filters}}
}

func buildSort(page models.PageRequest) []interface{} {
	return []interface{}{
		map[string]interface{}{models.SortFields[page.SortBy]: map[string]interface{}{"order": page.SortDir, "missing": "_last"}},
		map[string]interface{}{"id": map[string]interface{}{"order": page.SortDir}},
	}
}

func (e *ElasticEngine) Search(ctx context.Context, criteria models.SearchCriteria) (*models.JobOfferPage, error) {
	metrics.SearchRequests.WithLabelValues(elasticBackend, "search").Inc()
	return e.page(ctx, buildSearchQuery(criteria), criteria.Page)
}

func (e *ElasticEngine) ListActive(ctx context.Context, page models.PageRequest) (*models.JobOfferPage, error) {
	metrics.SearchRequests.WithLabelValues(elasticBackend, "list").Inc()
	query := map[string]interface{}{"bool": map[string]interface{}{"filter": []interface{}{activeFilter()}}}
	return e.page(ctx, query, page)
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key      string `json:"key"`
			DocCount int64  `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

func (e *ElasticEngine) page(ctx context.Context, query map[string]interface{}, page models.PageRequest) (*models.JobOfferPage, error) {
	page = page.Normalize(e.opts.DefaultPageSize, e.opts.MaxPageSize)

	body := map[string]interface{}{
		"query":            query,
		"from":             page.Offset(),
		"size":             page.Size,
		"sort":             buildSort(page),
		"track_total_hits": true,
	}
	if page.Offset()+page.Size > maxResultWindow {
		// Beyond the window only the total is fetched; the page is empty.
		body = map[string]interface{}{"query": query, "size": 0, "track_total_hits": true}
	}

	resp, err := e.search(ctx, body)
	if err != nil {
		return nil, err
	}

	items := make([]models.JobOfferRecord, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		items = append(items, hit.Source.record())
	}

	return &models.JobOfferPage{
		Items:      items,
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: resp.Hits.Total.Value,
		TotalPages: models.TotalPages(resp.Hits.Total.Value, page.Size),
	}, nil
}

var statsAggregations = []struct {
	name  string
	field string
}{
	{"domains", "domain"},
	{"contract_types", "contract_type"},
	{"locations", "location"},
}

func (e *ElasticEngine) Stats(ctx context.Context) (*models.AggregateStats, error) {
	metrics.SearchRequests.WithLabelValues(elasticBackend, "stats").Inc()

	aggs := map[string]interface{}{}
	for _, a := range statsAggregations {
		aggs[a.name] = map[string]interface{}{
			"terms": map[string]interface{}{
				"field":   a.field,
				"size":    e.opts.StatsTopN,
				"exclude": []string{""},
				"order":   []interface{}{map[string]string{"_count": "desc"}, map[string]string{"_key": "asc"}},
			},
		}
	}

	resp, err := e.search(ctx, map[string]interface{}{
		"query":            map[string]interface{}{"bool": map[string]interface{}{"filter": []interface{}{activeFilter()}}},
		"size":             0,
		"track_total_hits": true,
		"aggs":             aggs,
	})
	if err != nil {
		return nil, err
	}

	buckets := func(name string) []models.LabelCount {
		out := []models.LabelCount{}
		for _, b := range resp.Aggregations[name].Buckets {
			out = append(out, models.LabelCount{Label: b.Key, Count: b.DocCount})
		}
		return out
	}

	return &models.AggregateStats{
		TotalActive:      resp.Hits.Total.Value,
		TopDomains:       buckets("domains"),
		TopContractTypes: buckets("contract_types"),
		TopLocations:     buckets("locations"),
	}, nil
}

func (e *ElasticEngine) search(ctx context.Context, body map[string]interface{}) (*searchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(elasticBackend, err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(elasticBackend, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(elasticBackend, responseError(res))
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(elasticBackend, fmt.Errorf("decode response: %w", err))
	}
	return &out, nil
}

func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%s: %s", res.Status(), strings.TrimSpace(string(body)))
}

// ==========================
// Indexing
// ==========================

// Index writes rec into the mirror, replacing any previous version.
func (e *ElasticEngine) Index(ctx context.Context, rec *models.JobOfferRecord) error {
	payload, err := json.Marshal(toDocument(rec))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrSerialization, err)
	}

	res, err := e.client.Index(e.index, bytes.NewReader(payload),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(strconv.FormatInt(rec.ID, 10)),
		e.client.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("index job offer %d: %w", rec.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index job offer %d: %w", rec.ID, responseError(res))
	}
	return nil
}

// Remove deletes one document. A missing document is not an error.
func (e *ElasticEngine) Remove(ctx context.Context, id int64) error {
	res, err := e.client.Delete(e.index, strconv.FormatInt(id, 10),
		e.client.Delete.WithContext(ctx),
		e.client.Delete.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("remove job offer %d: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove job offer %d: %w", id, responseError(res))
	}
	return nil
}

// RemoveAll empties the index without dropping its mapping.
func (e *ElasticEngine) RemoveAll(ctx context.Context) error {
	res, err := e.client.DeleteByQuery([]string{e.index},
		strings.NewReader(`{"query":{"match_all":{}}}`),
		e.client.DeleteByQuery.WithContext(ctx),
		e.client.DeleteByQuery.WithRefresh(true),
		e.client.DeleteByQuery.WithConflicts("proceed"),
	)
	if err != nil {
		return fmt.Errorf("purge index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("purge index: %w", responseError(res))
	}
	return nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (e *ElasticEngine) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index: unexpected status %s", res.Status())
	}

	res, err = e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index: %w", responseError(res))
	}
	e.logger.Info("search index created", nil)
	return nil
}
