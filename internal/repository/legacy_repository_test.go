package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyTicketMarkupAbsenceIsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM legacy_ticket_markups").
		WithArgs("E1", "T42").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_id", "ticket_id", "markup_type", "markup_amount", "created_at", "updated_at",
		}))

	repo := NewLegacyRepo(db)
	got, err := repo.TicketMarkup(context.Background(), "E1", "T42")
	require.NoError(t, err)
	assert.Nil(t, got, "a ticket without a legacy markup is not an error")
}

func TestLegacyTicketMarkupsBatchUsesSingleInQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "event_id", "ticket_id", "markup_type", "markup_amount", "created_at", "updated_at",
	}).
		AddRow(1, "E1", "T1", "FIXED", 3.0, now, now).
		AddRow(2, "E1", "T3", "PERCENTAGE", 12.5, now, now)
	mock.ExpectQuery("ticket_id IN").
		WithArgs("E1", "T1", "T2", "T3").
		WillReturnRows(rows)

	repo := NewLegacyRepo(db)
	got, err := repo.TicketMarkups(context.Background(), "E1", []string{"T1", "T2", "T3"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "T1", got[0].TicketID)
	assert.Equal(t, "T3", got[1].TicketID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLegacyTicketMarkupsEmptyIDsSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLegacyRepo(db)
	got, err := repo.TicketMarkups(context.Background(), "E1", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLegacyDeleteTicketMarkupNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM legacy_ticket_markups").
		WithArgs("E1", "T404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewLegacyRepo(db)
	err = repo.DeleteTicketMarkup(context.Background(), "E1", "T404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLegacyTicketAssignmentsJoinActiveServices(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "ticket_id", "hospitality_id", "name", "description", "sort_order"}).
		AddRow(9, "T42", 10, "Parking", "On-site parking", 2)
	mock.ExpectQuery("FROM legacy_ticket_hospitality l").
		WithArgs("E1", "T42").
		WillReturnRows(rows)

	repo := NewLegacyRepo(db)
	got, err := repo.TicketAssignments(context.Background(), "E1", "T42")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(10), got[0].HospitalityID)
	assert.Equal(t, "Parking", got[0].Name)
}
