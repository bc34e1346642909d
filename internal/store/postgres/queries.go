package postgres

import (
	"context"
	"fmt"
	"strings"

	"job-offer-pipeline/internal/common/metrics"
	"job-offer-pipeline/internal/models"
)

const backendName = "postgres"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive substring pattern for LIKE.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
}

// orderBy renders a normalized page's sort; the column comes from the
// whitelist in models.SortFields. id breaks ties so pages are stable.
func orderBy(page models.PageRequest) string {
	dir := "DESC"
	if page.SortDir == "asc" {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s, id %s", models.SortFields[page.SortBy], dir, dir)
}

type filter struct {
	clauses []string
	args    []interface{}
}

func (f *filter) contains(value string, columns ...string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	f.args = append(f.args, containsPattern(value))
	n := len(f.args)

	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("LOWER(COALESCE(%s, '')) LIKE $%d", col, n)
	}
	if len(parts) == 1 {
		f.clauses = append(f.clauses, parts[0])
		return
	}
	f.clauses = append(f.clauses, "("+strings.Join(parts, " OR ")+")")
}

func (f *filter) where() string {
	return strings.Join(append([]string{"is_active = TRUE"}, f.clauses...), " AND ")
}

// Search returns one page of active records matching every non-blank
// criterion.
func (s *Store) Search(ctx context.Context, criteria models.SearchCriteria) (*models.JobOfferPage, error) {
	metrics.SearchRequests.WithLabelValues(backendName, "search").Inc()

	var f filter
	f.contains(criteria.Keyword, "title", "company", "description")
	f.contains(criteria.Domain, "domain")
	f.contains(criteria.ContractType, "contract_type")
	f.contains(criteria.Location, "location")

	return s.page(ctx, "search job offers", f, criteria.Page)
}

// ListActive returns one page of active records.
func (s *Store) ListActive(ctx context.Context, page models.PageRequest) (*models.JobOfferPage, error) {
	metrics.SearchRequests.WithLabelValues(backendName, "list").Inc()
	return s.page(ctx, "list active job offers", filter{}, page)
}

func (s *Store) page(ctx context.Context, operation string, f filter, page models.PageRequest) (*models.JobOfferPage, error) {
	page = page.Normalize(s.opts.DefaultPageSize, s.opts.MaxPageSize)
	where := f.where()

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM job_offers WHERE `+where, f.args...).Scan(&total); err != nil {
		return nil, mapError(operation, err)
	}

	n := len(f.args)
	args := append(append([]interface{}{}, f.args...), page.Size, page.Offset())
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM job_offers WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		jobOfferColumns, where, orderBy(page), n+1, n+2), args...)
	if err != nil {
		return nil, mapError(operation, err)
	}
	items, err := scanJobOffers(rows)
	if err != nil {
		return nil, mapError(operation, err)
	}

	return &models.JobOfferPage{
		Items:      items,
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: total,
		TotalPages: models.TotalPages(total, page.Size),
	}, nil
}

// Stats groups active records by domain, contract type and location.
// Blank keys are excluded; ties are broken by label.
func (s *Store) Stats(ctx context.Context) (*models.AggregateStats, error) {
	metrics.SearchRequests.WithLabelValues(backendName, "stats").Inc()

	stats := &models.AggregateStats{}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM job_offers WHERE is_active = TRUE`).Scan(&stats.TotalActive); err != nil {
		return nil, mapError("count active job offers", err)
	}

	groups := []struct {
		column string
		target *[]models.LabelCount
	}{
		{"domain", &stats.TopDomains},
		{"contract_type", &stats.TopContractTypes},
		{"location", &stats.TopLocations},
	}
	for _, g := range groups {
		counts, err := s.topCounts(ctx, g.column)
		if err != nil {
			return nil, err
		}
		*g.target = counts
	}
	return stats, nil
}

func (s *Store) topCounts(ctx context.Context, column string) ([]models.LabelCount, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %[1]s, COUNT(*) AS total
		FROM job_offers
		WHERE is_active = TRUE AND %[1]s IS NOT NULL AND TRIM(%[1]s) <> ''
		GROUP BY %[1]s
		ORDER BY total DESC, %[1]s ASC
		LIMIT $1`, column), s.opts.StatsTopN)
	if err != nil {
		return nil, mapError("stats by "+column, err)
	}
	defer rows.Close()

	counts := []models.LabelCount{}
	for rows.Next() {
		var lc models.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, mapError("stats by "+column, err)
		}
		counts = append(counts, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("stats by "+column, err)
	}
	return counts, nil
}
