// Package postgres is the relational Job Offer Store and the SQL search
// backend. Every multi-statement write runs in a single transaction.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	"job-offer-pipeline/internal/common/database"
	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/models"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

const jobOfferColumns = `id, offerer_id, title, company, location, contract_type, domain,
	skills, salary, duration, deadline, description, raw_text, extracted_data,
	contacts, language, type, created_at, updated_at, is_active`

// Options tunes paging and aggregation.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	StatsTopN       int
}

type Store struct {
	db     *sql.DB
	opts   Options
	logger logger.Logger
}

func New(db *sql.DB, opts Options, log logger.Logger) *Store {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 10
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	if opts.StatsTopN <= 0 {
		opts.StatsTopN = 10
	}
	return &Store{
		db:     db,
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"component": "job-offer-store"}),
	}
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return database.WithTx(ctx, s.db, fn)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJobOffer(row rowScanner) (*models.JobOfferRecord, error) {
	var rec models.JobOfferRecord
	var location, contractType, domain, skills, salary sql.NullString
	var duration, deadline, description, rawText sql.NullString
	var extractedData, contacts, language, offerType sql.NullString
	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.Title, &rec.Company,
		&location, &contractType, &domain, &skills, &salary,
		&duration, &deadline, &description, &rawText, &extractedData,
		&contacts, &language, &offerType,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.Active,
	)
	if err != nil {
		return nil, err
	}
	rec.Location = location.String
	rec.ContractType = contractType.String
	rec.Domain = domain.String
	rec.Skills = skills.String
	rec.Salary = salary.String
	rec.Duration = duration.String
	rec.Deadline = deadline.String
	rec.Description = description.String
	rec.RawText = rawText.String
	rec.ExtractedData = extractedData.String
	rec.Contacts = contacts.String
	rec.Language = language.String
	rec.Type = offerType.String
	return &rec, nil
}

func scanJobOffers(rows *sql.Rows) ([]models.JobOfferRecord, error) {
	defer rows.Close()
	items := []models.JobOfferRecord{}
	for rows.Next() {
		rec, err := scanJobOffer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	return items, rows.Err()
}

// nullIfEmpty stores unset fields as NULL.
func nullIfEmpty(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// mapError translates driver failures into the shared error types.
func mapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return apperrors.NewDuplicateConstraintError("Duplicate resource", pqErr.Detail)
		case pqForeignKeyViolation:
			return apperrors.NewNotFoundError("referenced row", pqErr.Constraint)
		}
	}
	return apperrors.NewQueryExecutionFailedError(operation, err)
}
