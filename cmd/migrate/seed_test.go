package main

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/waitwise/backend/internal/infrastructure/clients/postgres"
)

func TestSeed_ResetThenCreatesDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(resetStatement)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "clinics"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	for i := 0; i < 3; i++ {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "clinics"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	}

	created, err := seed(context.Background(), postgres.NewFromDB(db), true)

	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed_SkipsPopulatedDirectory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "clinics"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	created, err := seed(context.Background(), postgres.NewFromDB(db), false)

	require.NoError(t, err)
	assert.Zero(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
