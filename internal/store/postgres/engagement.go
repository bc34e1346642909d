package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/models"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// ==========================
// Favorites
// ==========================

func (s *Store) AddFavorite(ctx context.Context, seekerID, jobOfferID int64) (*models.Favorite, error) {
	fav := &models.Favorite{SeekerID: seekerID, JobOfferID: jobOfferID}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO favorites (seeker_id, job_offer_id) VALUES ($1, $2)
		RETURNING id, created_at`, seekerID, jobOfferID).Scan(&fav.ID, &fav.CreatedAt)
	if isUniqueViolation(err) {
		return nil, apperrors.NewDuplicateConstraintError("Job offer already in favorites",
			"seeker has already saved this job offer")
	}
	if err != nil {
		return nil, mapError("add favorite", err)
	}
	return fav, nil
}

func (s *Store) RemoveFavorite(ctx context.Context, seekerID, jobOfferID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE seeker_id = $1 AND job_offer_id = $2`, seekerID, jobOfferID)
	if err != nil {
		return mapError("remove favorite", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("favorite", jobOfferID)
	}
	return nil
}

func (s *Store) ListFavorites(ctx context.Context, seekerID int64) ([]models.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seeker_id, job_offer_id, created_at
		FROM favorites WHERE seeker_id = $1 ORDER BY created_at DESC, id DESC`, seekerID)
	if err != nil {
		return nil, mapError("list favorites", err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.SeekerID, &f.JobOfferID, &f.CreatedAt); err != nil {
			return nil, mapError("list favorites", err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list favorites", err)
	}
	return favorites, nil
}

func (s *Store) IsFavorite(ctx context.Context, seekerID, jobOfferID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE seeker_id = $1 AND job_offer_id = $2)`,
		seekerID, jobOfferID).Scan(&exists)
	if err != nil {
		return false, mapError("check favorite", err)
	}
	return exists, nil
}

// ==========================
// Applications
// ==========================

const applicationColumns = `id, seeker_id, job_offer_id, status,
	COALESCE(cover_letter, ''), COALESCE(resume_url, ''), created_at, updated_at`

func scanApplication(row rowScanner) (*models.Application, error) {
	var app models.Application
	err := row.Scan(&app.ID, &app.SeekerID, &app.JobOfferID, &app.Status,
		&app.CoverLetter, &app.ResumeURL, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// CreateApplication inserts app with PENDING status and fills its ID and
// timestamps.
func (s *Store) CreateApplication(ctx context.Context, app *models.Application) error {
	app.Status = models.ApplicationPending
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO applications (seeker_id, job_offer_id, status, cover_letter, resume_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		app.SeekerID, app.JobOfferID, string(app.Status),
		nullIfEmpty(app.CoverLetter), nullIfEmpty(app.ResumeURL),
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.NewDuplicateConstraintError("Already applied",
			"seeker has already applied to this job offer")
	}
	return mapError("create application", err)
}

func (s *Store) ListApplicationsBySeeker(ctx context.Context, seekerID int64) ([]models.Application, error) {
	return s.listApplications(ctx, "seeker_id", seekerID)
}

func (s *Store) ListApplicationsByJobOffer(ctx context.Context, jobOfferID int64) ([]models.Application, error) {
	return s.listApplications(ctx, "job_offer_id", jobOfferID)
}

func (s *Store) listApplications(ctx context.Context, column string, id int64) ([]models.Application, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+applicationColumns+`
		FROM applications WHERE `+column+` = $1 ORDER BY created_at DESC, id DESC`, id)
	if err != nil {
		return nil, mapError("list applications", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, mapError("list applications", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list applications", err)
	}
	return apps, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus) (*models.Application, error) {
	app, err := scanApplication(s.db.QueryRowContext(ctx, `
		UPDATE applications SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+applicationColumns, id, string(status)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("application", id)
	}
	if err != nil {
		return nil, mapError("update application status", err)
	}
	return app, nil
}
