package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ferias-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "postgres")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userColumns = []string{"id", "email", "password_hash", "full_name", "role", "active", "last_login_at", "created_at", "updated_at"}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userColumns).
		AddRow("1", "rh@example.com", "hash", "Ana RH", string(models.RoleHR), true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, active, last_login_at, created_at, updated_at FROM users WHERE email = $1")).
		WithArgs("rh@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "rh@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleHR, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepositorySessions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Date(2025, time.October, 19, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at, revoked_at, client_ip, user_agent)")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE token_hash = $1")).
		WithArgs("digest").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at", "revoked_at", "client_ip", "user_agent"}).
			AddRow("s1", "u1", "digest", now.Add(time.Hour), now, nil, "10.0.0.1", "curl"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL")).
		WithArgs("s1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE user_id = $1 AND revoked_at IS NULL")).
		WithArgs("u1", now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	session := &models.Session{UserID: "u1", TokenHash: "digest", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.CreateSession(context.Background(), session))
	assert.NotEmpty(t, session.ID)

	found, err := repo.FindSession(context.Background(), "digest")
	require.NoError(t, err)
	assert.True(t, found.Usable(now))
	assert.False(t, found.Usable(now.Add(time.Hour)))

	require.NoError(t, repo.RevokeSession(context.Background(), "s1", now))
	require.NoError(t, repo.RevokeUserSessions(context.Background(), "u1", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindSessionMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE token_hash = $1")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindSession(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepositoryCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestUserRepositoryCreateAuditLogAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionRequestApprove, Resource: "vacation_requests"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}
