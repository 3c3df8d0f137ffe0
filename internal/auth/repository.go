package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/school-dashboard/backend/internal/models"
)

// Repository handles user account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, email, COALESCE(password_hash,''), COALESCE(full_name,''), role, school_id, created_at, updated_at
		FROM users WHERE id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role, &u.SchoolID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT id, email, COALESCE(password_hash,''), COALESCE(full_name,''), role, school_id, created_at, updated_at
		FROM users WHERE email = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role, &u.SchoolID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateAdmin inserts a new admin account with a password hash.
func (r *Repository) CreateAdmin(ctx context.Context, email, passwordHash, fullName string, schoolID *uuid.UUID) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name, role, school_id)
		VALUES ($1, $2, NULLIF($3,''), $4, $5)
		RETURNING id, email, COALESCE(password_hash,''), COALESCE(full_name,''), role, school_id, created_at, updated_at`
	var u models.User
	err := r.pool.QueryRow(ctx, q, email, passwordHash, fullName, string(models.RoleAdmin), schoolID).
		Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role, &u.SchoolID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
