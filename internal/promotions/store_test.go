package promotions

import (
	"context"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*PgStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PgStore{DB: mock}, mock
}

func TestClaimStartIsConditional(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE promotions SET is_processing=true, status=$2`)).
		WithArgs("p1", StatusActiveScheduled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE promotions SET is_processing=true, status=$2`)).
		WithArgs("p1", StatusActiveScheduled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	claimed, err := s.ClaimStart(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, claimed)

	// second caller loses the conditional update
	claimed, err = s.ClaimStart(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, claimed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimEndMarksEmailSentUpFront(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE promotions SET is_processing=true, email_sent=true`)).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	claimed, err := s.ClaimEnd(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDueToStartPredicate(t *testing.T) {
	s, mock := newStore(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, status, start_date, end_date`).
		WithArgs(StatusScheduled, now).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "status", "start_date", "end_date",
			"is_processing", "is_completed", "email_sent",
		}).AddRow("p1", "Inverno", string(StatusScheduled),
			now.Add(-time.Hour), now.AddDate(0, 1, 0), false, false, false))

	due, err := s.DueToStart(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "p1", due[0].ID)
	assert.Equal(t, StatusScheduled, due[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
