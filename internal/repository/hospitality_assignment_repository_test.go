package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenaops/ticket-pricing/internal/model"
)

func eventScope(t *testing.T) model.ScopeKey {
	t.Helper()
	k, err := model.NewScopeKey("tennis", "wimbledon", "", "E1", "")
	require.NoError(t, err)
	return k
}

func TestReplaceAtScopeCommitsDeleteAndInsertTogether(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM hospitality_assignments").
		WithArgs("tennis", "wimbledon", "", "E1", "").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO hospitality_assignments").
		WithArgs(
			"tennis", "wimbledon", "", "E1", "", "EVENT", uint64(10), uint64(7), uint64(7),
			"tennis", "wimbledon", "", "E1", "", "EVENT", uint64(20), uint64(7), uint64(7),
		).
		WillReturnResult(sqlmock.NewResult(101, 2))
	mock.ExpectCommit()

	repo := NewAssignmentRepo(db)
	deleted, inserted, err := repo.ReplaceAtScope(context.Background(), eventScope(t), []uint64{10, 20}, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, int64(2), inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAtScopeRollsBackOnFailedInsert(t *testing.T) {
	// A failing insert (e.g. an unknown hospitality id rejected by the
	// foreign key) must undo the delete too, leaving the prior
	// assignment set fully intact.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fkErr := errors.New("Error 1452: Cannot add or update a child row: a foreign key constraint fails")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM hospitality_assignments").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO hospitality_assignments").
		WillReturnError(fkErr)
	mock.ExpectRollback()

	repo := NewAssignmentRepo(db)
	_, _, err = repo.ReplaceAtScope(context.Background(), eventScope(t), []uint64{999}, 7)
	require.Error(t, err)
	assert.Equal(t, fkErr, err, "underlying storage error propagates unchanged")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAtScopeWithEmptySetOnlyDeletes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM hospitality_assignments").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	repo := NewAssignmentRepo(db)
	deleted, inserted, err := repo.ReplaceAtScope(context.Background(), eventScope(t), nil, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, int64(0), inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpsertPopulatesIDAndTimestamps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO hospitality_assignments").
		WithArgs("tennis", "wimbledon", "", "E1", "", "EVENT", uint64(10), true, uint64(7), uint64(7)).
		WillReturnResult(sqlmock.NewResult(42, 1))
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT created_by, created_at, updated_at FROM hospitality_assignments").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"created_by", "created_at", "updated_at"}).
			AddRow(7, now, now))

	repo := NewAssignmentRepo(db)
	as := &model.HospitalityAssignment{
		Scope:         eventScope(t),
		HospitalityID: 10,
		Active:        true,
		CreatedBy:     7,
		UpdatedBy:     7,
	}
	require.NoError(t, repo.Upsert(context.Background(), as))
	assert.Equal(t, uint64(42), as.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCandidatesForTicketQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "level", "ticket_id", "hospitality_id", "name", "description", "sort_order"}).
		AddRow(1, "SPORT", "", 10, "Parking", "On-site parking", 2).
		AddRow(2, "TICKET", "T42", 20, "Lounge", "VIP lounge", 1)
	mock.ExpectQuery("FROM hospitality_assignments a").
		WithArgs("tennis", "T42", "E1", "", "wimbledon").
		WillReturnRows(rows)

	repo := NewAssignmentRepo(db)
	got, err := repo.CandidatesForTicket(context.Background(), model.TicketAncestry{
		SportType: "tennis", TournamentID: "wimbledon", EventID: "E1", TicketID: "T42",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.LevelSport, got[0].Level)
	assert.Equal(t, model.LevelTicket, got[1].Level)
	assert.Equal(t, "T42", got[1].TicketID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentDeleteByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM hospitality_assignments WHERE id").
		WithArgs(uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewAssignmentRepo(db)
	err = repo.DeleteByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
