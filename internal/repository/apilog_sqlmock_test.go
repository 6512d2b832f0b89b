package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/totargaming/stockinfo/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockRepo(t *testing.T) (APILogRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewAPILogRepository(db), mock
}

func TestAPILogRepository_Insert(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "api_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	userID := uint64(7)
	err := repo.Insert(&models.APILog{
		UserID:         &userID,
		Endpoint:       "quote",
		RequestTime:    time.Now(),
		ResponseTimeMs: 42,
		Success:        true,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAPILogRepository_List_AppliesFilters(t *testing.T) {
	repo, mock := newMockRepo(t)

	endpoint := "quote"
	success := true

	mock.ExpectQuery(`SELECT count\(\*\) FROM "api_logs" WHERE endpoint = \$1 AND success = \$2`).
		WithArgs(endpoint, success).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows([]string{"id", "user_id", "endpoint", "request_time", "response_time_ms", "success", "error_message"}).
		AddRow(1, nil, "quote", time.Now(), 42, true, "")
	mock.ExpectQuery(`SELECT \* FROM "api_logs" WHERE endpoint = \$1 AND success = \$2 ORDER BY request_time DESC LIMIT \$3`).
		WithArgs(endpoint, success, 20).
		WillReturnRows(rows)

	logs, total, err := repo.List(APILogFilter{Endpoint: &endpoint, Success: &success}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	require.Equal(t, "quote", logs[0].Endpoint)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAPILogRepository_Stats(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total_calls`).
		WillReturnRows(sqlmock.NewRows([]string{"total_calls", "success_calls", "avg_latency_ms"}).
			AddRow(10, 8, 115.5))

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.EqualValues(t, 10, stats.TotalCalls)
	require.EqualValues(t, 8, stats.SuccessCalls)
	require.InDelta(t, 115.5, stats.AvgLatencyMs, 0.001)
	require.InDelta(t, 0.8, stats.SuccessRate, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAPILogRepository_Stats_EmptyTable(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total_calls`).
		WillReturnRows(sqlmock.NewRows([]string{"total_calls", "success_calls", "avg_latency_ms"}).
			AddRow(0, 0, 0))

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.EqualValues(t, 0, stats.TotalCalls)
	require.Zero(t, stats.SuccessRate)
	require.NoError(t, mock.ExpectationsWereMet())
}
