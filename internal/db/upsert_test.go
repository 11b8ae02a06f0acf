package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestBulkUpsert(t *testing.T) {
	mock := newMockPool(t)

	cols := []string{"fr24_id", "callsign", "path_km"}
	rows := [][]any{
		{"a1", "UAL123", 3950.0},
		{"a2", "DAL456", 1200.0},
	}

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_flights"}, cols).WillReturnResult(2)
	mock.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "flights",
		Columns:      cols,
		ConflictKeys: []string{"fr24_id"},
	}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertEmptyRowsIsNoop(t *testing.T) {
	mock := newMockPool(t)

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "flights",
		Columns:      []string{"fr24_id"},
		ConflictKeys: []string{"fr24_id"},
	}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertValidatesConfig(t *testing.T) {
	mock := newMockPool(t)
	rows := [][]any{{"a1"}}

	_, err := BulkUpsert(context.Background(), mock, UpsertConfig{Table: "flights", ConflictKeys: []string{"fr24_id"}}, rows)
	assert.Error(t, err)

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{Table: "flights", Columns: []string{"fr24_id"}}, rows)
	assert.Error(t, err)
}

func TestBulkUpsertRollsBackOnFailure(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "flights",
		Columns:      []string{"fr24_id"},
		ConflictKeys: []string{"fr24_id"},
	}, [][]any{{"a1"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom(t *testing.T) {
	mock := newMockPool(t)

	cols := []string{"fr24_id", "sampled_at"}
	mock.ExpectCopyFrom(pgx.Identifier{"flight_positions"}, cols).WillReturnResult(3)

	n, err := CopyFrom(context.Background(), mock, "flight_positions", cols, [][]any{{"a"}, {"b"}, {"c"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromEmpty(t *testing.T) {
	mock := newMockPool(t)

	n, err := CopyFrom(context.Background(), mock, "flight_positions", []string{"fr24_id"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
