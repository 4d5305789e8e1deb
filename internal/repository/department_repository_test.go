package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ferias-api/internal/models"
)

var departmentCols = []string{"id", "name", "code", "absence_limit", "active", "created_at", "updated_at"}

func TestDepartmentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	now := time.Now()
	active := true
	mock.ExpectQuery(regexp.QuoteMeta("AND active = $1 AND (LOWER(name) LIKE $2 OR LOWER(COALESCE(code, '')) LIKE $2) ORDER BY name ASC")).
		WithArgs(true, "%fin%").
		WillReturnRows(sqlmock.NewRows(departmentCols).AddRow("dept-1", "Financeiro", "FIN", 2, true, now, now))

	departments, err := repo.List(context.Background(), models.DepartmentFilter{Active: &active, Search: "FIN"})
	require.NoError(t, err)
	require.Len(t, departments, 1)
	assert.Equal(t, "Financeiro", departments[0].Name)
	assert.Equal(t, 2, departments[0].AbsenceLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM departments WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestDepartmentRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name) = LOWER($1) AND id::text <> $2")).
		WithArgs("Vendas", "dept-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByName(context.Background(), "Vendas", "dept-2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDepartmentRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO departments")).WillReturnResult(sqlmock.NewResult(1, 1))

	department := &models.Department{Name: "Vendas", AbsenceLimit: 1, Active: true}
	require.NoError(t, repo.Create(context.Background(), department))
	assert.NotEmpty(t, department.ID)
	assert.False(t, department.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositorySummaries(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	today := day(2025, time.October, 19)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY d.id, d.name, d.absence_limit")).
		WithArgs(today).
		WillReturnRows(sqlmock.NewRows([]string{"department_id", "department_name", "absence_limit", "headcount", "on_leave_today"}).
			AddRow("dept-1", "Financeiro", 2, 8, 1))

	rows, err := repo.Summaries(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 8, rows[0].Headcount)
	assert.Equal(t, 1, rows[0].OnLeaveToday)
}
