package storage

import (
	"context"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

// CreateUser сохраняет нового пользователя. Занятый email возвращает apperr.ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.CreateUser"
	if err := ctxErr(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO users (id, email, name, password_hash, role)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING created_at`
	err := s.DB.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role).Scan(&user.CreatedAt)
	if err != nil {
		return translate(op, err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, email, name, password_hash, role, created_at
			  FROM users
			  WHERE email = $1`
	return s.scanUser(ctx, op, query, email)
}

// GetUser возвращает пользователя по id.
func (s *Storage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, email, name, password_hash, role, created_at
			  FROM users
			  WHERE id = $1`
	return s.scanUser(ctx, op, query, userID)
}

func (s *Storage) scanUser(ctx context.Context, op, query string, arg any) (*models.User, error) {
	u := &models.User{}
	err := s.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, translate(op, err)
	}
	return u, nil
}
