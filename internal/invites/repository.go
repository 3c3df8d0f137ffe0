package invites

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/school-dashboard/backend/internal/models"
)

// Repository handles invitation persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an invites repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const inviteColumns = `id, email, role, school_id, status, name, subjects, class_ids, student_id,
	accepted_by_uid, created_by, created_at, accepted_at`

// Create inserts a pending invitation. The id, status and created_at are
// server-assigned and written back into inv.
func (r *Repository) Create(ctx context.Context, inv *models.Invite) error {
	const q = `INSERT INTO invites (email, role, school_id, name, subjects, class_ids, student_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, created_at`
	subjects := inv.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	classIDs := inv.ClassIDs
	if classIDs == nil {
		classIDs = []uuid.UUID{}
	}
	return r.pool.QueryRow(ctx, q,
		inv.Email, string(inv.Role), inv.SchoolID, inv.Name, subjects, classIDs, inv.StudentID, inv.CreatedBy).
		Scan(&inv.ID, &inv.Status, &inv.CreatedAt)
}

// GetByID returns an invitation by id, or ErrInviteNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	const q = `SELECT ` + inviteColumns + ` FROM invites WHERE id = $1`
	inv, err := scanInvite(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	return inv, err
}

// ListBySchool returns a school's invitations, newest first.
func (r *Repository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*models.Invite, error) {
	const q = `SELECT ` + inviteColumns + ` FROM invites WHERE school_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// MarkAccepted transitions an invitation to accepted inside the caller's
// onboarding transaction. It must never be issued standalone: marking an
// invitation accepted without the corresponding onboarding writes would
// strand the invitee. The status guard makes the claim exclusive: a second
// attempt sees zero rows and gets ErrAlreadyAccepted.
func (r *Repository) MarkAccepted(ctx context.Context, tx pgx.Tx, id, uid uuid.UUID) error {
	const q = `UPDATE invites SET status = $3, accepted_at = NOW(), accepted_by_uid = $2
		WHERE id = $1 AND status = $4`
	tag, err := tx.Exec(ctx, q, id, uid, models.InviteStatusAccepted, models.InviteStatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyAccepted
	}
	return nil
}

func scanInvite(row pgx.Row) (*models.Invite, error) {
	var inv models.Invite
	var role string
	err := row.Scan(&inv.ID, &inv.Email, &role, &inv.SchoolID, &inv.Status,
		&inv.Name, &inv.Subjects, &inv.ClassIDs, &inv.StudentID,
		&inv.AcceptedByUID, &inv.CreatedBy, &inv.CreatedAt, &inv.AcceptedAt)
	if err != nil {
		return nil, err
	}
	inv.Role = models.Role(role)
	return &inv, nil
}
