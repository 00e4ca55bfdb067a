// Package repository stores OAuth users in Postgres so sessions survive a
// restart. Short links are never written here.
package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortage/internal/models"
	"github.com/atinyakov/go-shortage/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.Infof(format, v...)
}

// InitDB opens the database, waits for it to answer and applies migrations.
func InitDB(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("database not ready", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, err
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("Database connected and migrated.")
	return db, nil
}

// UserRepository is a Postgres-backed user store.
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// CreateUserRepository wraps an open database.
func CreateUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts the user, or refreshes the login of a known one.
func (r *UserRepository) Save(ctx context.Context, u models.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users(id, login) VALUES ($1, $2);",
		u.ID, u.Login,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		r.logger.Debug("user exists, updating", zap.String("id", u.ID))
		_, err = r.db.ExecContext(ctx,
			"UPDATE users SET login = $2, updated_at = now() WHERE id = $1;",
			u.ID, u.Login,
		)
	}

	if err != nil {
		r.logger.Error("save user", zap.String("id", u.ID), zap.Error(err))
		return err
	}

	return nil
}

// FindByID looks a user up.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, login FROM users WHERE id = $1;", id)

	var u models.User
	err := row.Scan(&u.ID, &u.Login)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// PingContext checks the connection.
func (r *UserRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
