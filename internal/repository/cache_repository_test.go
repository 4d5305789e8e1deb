package repository

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

func TestCacheRepositoryGetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client, nil)

	mock.ExpectGet("balance:employee:1").RedisNil()

	var dest models.EmployeeBalance
	err := repo.Get(context.Background(), "balance:employee:1", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositorySetAndGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client, nil)

	payload := models.EmployeeBalance{EmployeeID: "1", TotalAvailable: 12, Periods: []models.PeriodBalance{}}
	encoded := `{"employee_id":"1","employee_name":"","periods":[],"total_entitled":0,"total_taken":0,"total_sold":0,"total_pending":0,"total_available":12,"has_expiring_period":false}`

	mock.ExpectSet("balance:employee:1", []byte(encoded), time.Minute).SetVal("OK")
	mock.ExpectGet("balance:employee:1").SetVal(encoded)

	require.NoError(t, repo.Set(context.Background(), "balance:employee:1", payload, time.Minute))

	var dest models.EmployeeBalance
	require.NoError(t, repo.Get(context.Background(), "balance:employee:1", &dest))
	assert.Equal(t, 12, dest.TotalAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryDelete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCacheRepository(client, nil)

	mock.ExpectDel("balance:employee:1", "dashboard:summary").SetVal(2)

	require.NoError(t, repo.Delete(context.Background(), "balance:employee:1", "dashboard:summary"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryNilClientIsMiss(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest map[string]int
	assert.ErrorIs(t, repo.Get(context.Background(), "any", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "any", 1, time.Second))
}
