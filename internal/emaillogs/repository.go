package emaillogs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/school-dashboard/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending email log entry for an invite delivery attempt.
func (r *Repository) Create(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (invite_id, school_id, email_type, recipient_email, subject)
		VALUES ($1, $2, $3, $4, NULLIF($5,''))
		RETURNING id, status, created_at`
	return r.pool.QueryRow(ctx, q, el.InviteID, el.SchoolID, el.EmailType, el.RecipientEmail, el.Subject).
		Scan(&el.ID, &el.Status, &el.CreatedAt)
}

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_logs SET status = $2, sent_at = NOW(), error_message = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, models.EmailLogStatusSent)
	return err
}

// MarkFailed records a failed delivery with the error message.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	const q = `UPDATE email_logs SET status = $2, error_message = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, models.EmailLogStatusFailed, errMsg)
	return err
}

// ListBySchool returns a school's email logs, newest first.
func (r *Repository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*models.EmailLog, error) {
	const q = `SELECT id, invite_id, school_id, email_type, recipient_email, COALESCE(subject,''), status, sent_at, COALESCE(error_message,''), created_at
		FROM email_logs
		WHERE school_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		if err := rows.Scan(&el.ID, &el.InviteID, &el.SchoolID, &el.EmailType, &el.RecipientEmail,
			&el.Subject, &el.Status, &el.SentAt, &el.ErrorMessage, &el.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
