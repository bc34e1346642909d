package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/models"
)

const jobOfferResource = "job offer"

// Create verifies the owner exists and inserts rec, filling its ID and
// timestamps.
func (s *Store) Create(ctx context.Context, rec *models.JobOfferRecord) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, rec.OwnerID).Scan(&exists); err != nil {
			return mapError("check offerer", err)
		}
		if !exists {
			return apperrors.NewNotFoundError("offerer", rec.OwnerID)
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO job_offers (
				offerer_id, title, company, location, contract_type, domain,
				skills, salary, duration, deadline, description, raw_text,
				extracted_data, contacts, language, type, is_active
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING id, created_at, updated_at`,
			rec.OwnerID, rec.Title, rec.Company,
			nullIfEmpty(rec.Location), nullIfEmpty(rec.ContractType), nullIfEmpty(rec.Domain),
			nullIfEmpty(rec.Skills), nullIfEmpty(rec.Salary), nullIfEmpty(rec.Duration),
			nullIfEmpty(rec.Deadline), nullIfEmpty(rec.Description), nullIfEmpty(rec.RawText),
			nullIfEmpty(rec.ExtractedData), nullIfEmpty(rec.Contacts),
			nullIfEmpty(rec.Language), nullIfEmpty(rec.Type), rec.Active,
		).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
		return mapError("insert job offer", err)
	})
	if err != nil {
		return err
	}

	s.logger.Info("job offer created", map[string]interface{}{
		"jobOfferId": rec.ID,
		"offererId":  rec.OwnerID,
	})
	return nil
}

// Modify locks the row, applies fn to it and writes the result back. The
// owner, creation time and active flag are not changed by Modify.
func (s *Store) Modify(ctx context.Context, id int64, fn func(*models.JobOfferRecord) error) (*models.JobOfferRecord, error) {
	var updated *models.JobOfferRecord
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rec, err := scanJobOffer(tx.QueryRowContext(ctx,
			`SELECT `+jobOfferColumns+` FROM job_offers WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError(jobOfferResource, id)
		}
		if err != nil {
			return mapError("lock job offer", err)
		}

		if err := fn(rec); err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE job_offers SET
				title = $2, company = $3, location = $4, contract_type = $5, domain = $6,
				skills = $7, salary = $8, duration = $9, deadline = $10, description = $11,
				raw_text = $12, extracted_data = $13, contacts = $14, language = $15, type = $16,
				updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`,
			id, rec.Title, rec.Company,
			nullIfEmpty(rec.Location), nullIfEmpty(rec.ContractType), nullIfEmpty(rec.Domain),
			nullIfEmpty(rec.Skills), nullIfEmpty(rec.Salary), nullIfEmpty(rec.Duration),
			nullIfEmpty(rec.Deadline), nullIfEmpty(rec.Description), nullIfEmpty(rec.RawText),
			nullIfEmpty(rec.ExtractedData), nullIfEmpty(rec.Contacts),
			nullIfEmpty(rec.Language), nullIfEmpty(rec.Type),
		).Scan(&rec.UpdatedAt)
		if err != nil {
			return mapError("update job offer", err)
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job offer updated", map[string]interface{}{"jobOfferId": id})
	return updated, nil
}

// SetActive flips the active flag and returns the updated record.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) (*models.JobOfferRecord, error) {
	rec, err := scanJobOffer(s.db.QueryRowContext(ctx, `
		UPDATE job_offers SET is_active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+jobOfferColumns, id, active))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(jobOfferResource, id)
	}
	if err != nil {
		return nil, mapError("set job offer status", err)
	}
	return rec, nil
}

// Delete removes the record together with its favorites and applications.
// Nothing is removed when the record does not exist.
func (s *Store) Delete(ctx context.Context, id int64) (*models.JobOfferLite, error) {
	deleted := &models.JobOfferLite{ID: id}
	var favorites, applications int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE job_offer_id = $1`, id)
		if err != nil {
			return mapError("delete favorites", err)
		}
		favorites, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM applications WHERE job_offer_id = $1`, id)
		if err != nil {
			return mapError("delete applications", err)
		}
		applications, _ = res.RowsAffected()

		err = tx.QueryRowContext(ctx,
			`DELETE FROM job_offers WHERE id = $1 RETURNING offerer_id, title, is_active`, id,
		).Scan(&deleted.OwnerID, &deleted.Title, &deleted.Active)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError(jobOfferResource, id)
		}
		return mapError("delete job offer", err)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job offer deleted", map[string]interface{}{
		"jobOfferId":   id,
		"favorites":    favorites,
		"applications": applications,
	})
	return deleted, nil
}

// DeleteAll purges every job offer and its dependents.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{`DELETE FROM favorites`, `DELETE FROM applications`} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return mapError("purge dependents", err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM job_offers`)
		if err != nil {
			return mapError("purge job offers", err)
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Warn("all job offers purged", map[string]interface{}{"removed": removed})
	return removed, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.JobOfferRecord, error) {
	rec, err := scanJobOffer(s.db.QueryRowContext(ctx,
		`SELECT `+jobOfferColumns+` FROM job_offers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(jobOfferResource, id)
	}
	if err != nil {
		return nil, mapError("get job offer", err)
	}
	return rec, nil
}

// ListByOwner returns every record of the owner, active or not.
func (s *Store) ListByOwner(ctx context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferPage, error) {
	page = page.Normalize(s.opts.DefaultPageSize, s.opts.MaxPageSize)

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM job_offers WHERE offerer_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, mapError("count owner job offers", err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM job_offers WHERE offerer_id = $1 ORDER BY %s LIMIT $2 OFFSET $3`,
		jobOfferColumns, orderBy(page)), ownerID, page.Size, page.Offset())
	if err != nil {
		return nil, mapError("list owner job offers", err)
	}
	items, err := scanJobOffers(rows)
	if err != nil {
		return nil, mapError("list owner job offers", err)
	}

	return &models.JobOfferPage{
		Items:      items,
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: total,
		TotalPages: models.TotalPages(total, page.Size),
	}, nil
}

// ListByOwnerLite is ListByOwner projected to the dashboard fields.
func (s *Store) ListByOwnerLite(ctx context.Context, ownerID int64, page models.PageRequest) (*models.JobOfferLitePage, error) {
	page = page.Normalize(s.opts.DefaultPageSize, s.opts.MaxPageSize)

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM job_offers WHERE offerer_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, mapError("count owner job offers", err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, offerer_id, title, created_at, is_active, COALESCE(raw_text, '')
		FROM job_offers WHERE offerer_id = $1 ORDER BY %s LIMIT $2 OFFSET $3`,
		orderBy(page)), ownerID, page.Size, page.Offset())
	if err != nil {
		return nil, mapError("list owner job offers", err)
	}
	defer rows.Close()

	items := []models.JobOfferLite{}
	for rows.Next() {
		var lite models.JobOfferLite
		if err := rows.Scan(&lite.ID, &lite.OwnerID, &lite.Title, &lite.CreatedAt, &lite.Active, &lite.RawText); err != nil {
			return nil, mapError("list owner job offers", err)
		}
		items = append(items, lite)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list owner job offers", err)
	}

	return &models.JobOfferLitePage{
		Items:      items,
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: total,
		TotalPages: models.TotalPages(total, page.Size),
	}, nil
}

func (s *Store) CountActiveByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM job_offers WHERE offerer_id = $1 AND is_active = TRUE`, ownerID).Scan(&total)
	if err != nil {
		return 0, mapError("count active owner job offers", err)
	}
	return total, nil
}

// ListAll streams every record in id order, batchSize rows at a time.
func (s *Store) ListAll(ctx context.Context, batchSize int, fn func([]models.JobOfferRecord) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}

	var lastID int64
	for {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+jobOfferColumns+` FROM job_offers WHERE id > $1 ORDER BY id LIMIT $2`, lastID, batchSize)
		if err != nil {
			return mapError("scan job offers", err)
		}
		batch, err := scanJobOffers(rows)
		if err != nil {
			return mapError("scan job offers", err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		lastID = batch[len(batch)-1].ID
	}
}
