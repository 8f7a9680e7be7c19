package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenaops/ticket-pricing/internal/model"
)

func TestHospitalityServiceCreatePopulatesRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO hospitality_services`).
		WithArgs("Lounge", "Lounge access", true, uint32(10)).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(`SELECT created_at, updated_at FROM hospitality_services WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	repo := NewHospitalityServiceRepo(db)
	svc := &model.HospitalityService{Name: "Lounge", Description: "Lounge access", Active: true, SortOrder: 10}
	require.NoError(t, repo.Create(context.Background(), svc))

	assert.Equal(t, uint64(5), svc.ID)
	assert.Equal(t, now, svc.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHospitalityServiceUpdateUnknownID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE hospitality_services`).
		WithArgs("Lounge", "", false, uint32(0), uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM hospitality_services WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	repo := NewHospitalityServiceRepo(db)
	err = repo.Update(context.Background(), &model.HospitalityService{ID: 99, Name: "Lounge"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHospitalityServiceDeleteStillAssigned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Two hierarchical assignments still reference the service.
	mock.ExpectQuery(`SELECT`).
		WithArgs(uint64(3), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"refs"}).AddRow(2))

	repo := NewHospitalityServiceRepo(db)
	err = repo.DeleteByID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHospitalityServiceDeleteUnreferenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs(uint64(3), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"refs"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM hospitality_services WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewHospitalityServiceRepo(db)
	require.NoError(t, repo.DeleteByID(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}
