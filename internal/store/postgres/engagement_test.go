package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "job-offer-pipeline/internal/common/errors"
	"job-offer-pipeline/internal/models"
)

var applicationColumnNames = []string{
	"id", "seeker_id", "job_offer_id", "status", "cover_letter", "resume_url", "created_at", "updated_at",
}

func TestStore_AddFavorite(t *testing.T) {
	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "added",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO favorites \(seeker_id, job_offer_id\)`).
					WithArgs(int64(7), int64(12)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, testTime))
			},
		},
		{
			name: "already saved",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO favorites`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: apperrors.ErrDuplicateConstraint,
		},
		{
			name: "unknown job offer",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO favorites`).
					WillReturnError(&pq.Error{Code: "23503", Constraint: "favorites_job_offer_id_fkey"})
			},
			wantErr: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newTestStore(t)
			tt.mock(mock)

			fav, err := store.AddFavorite(context.Background(), 7, 12)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &models.Favorite{ID: 1, SeekerID: 7, JobOfferID: 12, CreatedAt: testTime}, fav)
		})
	}
}

func TestStore_RemoveFavorite(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(`DELETE FROM favorites WHERE seeker_id = \$1 AND job_offer_id = \$2`).
		WithArgs(int64(7), int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM favorites`).
		WithArgs(int64(7), int64(13)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.RemoveFavorite(context.Background(), 7, 12))
	assert.ErrorIs(t, store.RemoveFavorite(context.Background(), 7, 13), apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListFavoritesAndIsFavorite(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`FROM favorites WHERE seeker_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seeker_id", "job_offer_id", "created_at"}).
			AddRow(2, 7, 14, testTime).
			AddRow(1, 7, 12, testTime))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM favorites`).
		WithArgs(int64(7), int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	favs, err := store.ListFavorites(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, favs, 2)
	assert.Equal(t, int64(14), favs[0].JobOfferID)

	ok, err := store.IsFavorite(context.Background(), 7, 12)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_CreateApplication(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`INSERT INTO applications`).
		WithArgs(int64(7), int64(12), "PENDING", "Hello", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(5, testTime, testTime))
	mock.ExpectQuery(`INSERT INTO applications`).
		WillReturnError(&pq.Error{Code: "23505"})

	app := &models.Application{SeekerID: 7, JobOfferID: 12, CoverLetter: "Hello", Status: models.ApplicationAccepted}
	require.NoError(t, store.CreateApplication(context.Background(), app))
	assert.Equal(t, int64(5), app.ID)
	assert.Equal(t, models.ApplicationPending, app.Status)

	err := store.CreateApplication(context.Background(), &models.Application{SeekerID: 7, JobOfferID: 12})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateConstraint)
	assert.Equal(t, "Already applied", apperrors.Normalize(err).Message)
}

func TestStore_ListApplications(t *testing.T) {
	store, mock := newTestStore(t)

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows(applicationColumnNames).
			AddRow(5, 7, 12, "PENDING", "", "", testTime, testTime)
	}
	mock.ExpectQuery(`FROM applications WHERE seeker_id = \$1`).WithArgs(int64(7)).WillReturnRows(rows())
	mock.ExpectQuery(`FROM applications WHERE job_offer_id = \$1`).WithArgs(int64(12)).WillReturnRows(rows())

	bySeeker, err := store.ListApplicationsBySeeker(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, bySeeker, 1)
	assert.Equal(t, models.ApplicationPending, bySeeker[0].Status)

	byOffer, err := store.ListApplicationsByJobOffer(context.Background(), 12)
	require.NoError(t, err)
	assert.Len(t, byOffer, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateApplicationStatus(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`UPDATE applications SET status = \$2`).
		WithArgs(int64(5), "ACCEPTED").
		WillReturnRows(sqlmock.NewRows(applicationColumnNames).
			AddRow(5, 7, 12, "ACCEPTED", "", "", testTime, testTime))
	mock.ExpectQuery(`UPDATE applications`).
		WithArgs(int64(6), "REJECTED").
		WillReturnRows(sqlmock.NewRows(applicationColumnNames))

	app, err := store.UpdateApplicationStatus(context.Background(), 5, models.ApplicationAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, app.Status)

	_, err = store.UpdateApplicationStatus(context.Background(), 6, models.ApplicationRejected)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
