package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"geofence/internal/domain"
	"geofence/pkg/errors"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, username string) (*domain.User, error) {
	user := &domain.User{}
	query := `
		INSERT INTO users (username, created_at)
		VALUES ($1, NOW())
		RETURNING id, username, created_at
	`
	err := r.db.GetContext(ctx, user, query, username)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, errors.ErrUserAlreadyExists
		}
		return nil, errors.Storage(err, "failed to create user")
	}
	return user, nil
}

func (r *UserRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, username, created_at FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.Storage(err, "failed to find user by id")
	}
	return user, nil
}
