package sqlite

import (
	"context"
	"fmt"

	"github.com/prn-tf/kvitok/internal/domain"
	"github.com/prn-tf/kvitok/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (nickname, name, password)
		VALUES (?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, user.Nickname, user.Name, user.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: nickname or name already taken", domain.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, nickname, name, password
		FROM users
		WHERE id = ?
	`

	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Nickname,
		&user.Name,
		&user.PasswordHash,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetByNickname retrieves a user by nickname.
func (r *userRepository) GetByNickname(ctx context.Context, nickname string) (*domain.User, error) {
	query := `
		SELECT id, nickname, name, password
		FROM users
		WHERE nickname = ?
	`

	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, nickname).Scan(
		&user.ID,
		&user.Nickname,
		&user.Name,
		&user.PasswordHash,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by nickname: %w", err)
	}

	return user, nil
}

// Ensure userRepository implements repository.UserRepository
var _ repository.UserRepository = (*userRepository)(nil)
