package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/models"
	"github.com/atinyakov/go-shortage/internal/storage"
)

// Helper to set up a mock DB and repository
func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *UserRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock, CreateUserRepository(db, zap.NewNop())
}

func TestSave_Insert(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("1", "octocat").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), models.User{ID: "1", Login: "octocat"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_ExistingUserUpdates(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("1", "monalisa").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	mock.ExpectExec(`UPDATE users SET login`).
		WithArgs("1", "monalisa").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), models.User{ID: "1", Login: "monalisa"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_OtherError(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("1", "octocat").
		WillReturnError(errors.New("connection reset"))

	err := repo.Save(context.Background(), models.User{ID: "1", Login: "octocat"})
	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, login FROM users WHERE id = \$1`).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "login"}).AddRow("1", "octocat"))

	u, err := repo.FindByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: "1", Login: "octocat"}, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, login FROM users`).
		WithArgs("2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "login"}))

	_, err := repo.FindByID(context.Background(), "2")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPingContext(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	repo := CreateUserRepository(db, zap.NewNop())
	mock.ExpectPing()

	assert.NoError(t, repo.PingContext(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_users.sql", entries[0].Name())
}
