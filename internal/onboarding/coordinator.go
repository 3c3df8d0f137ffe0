// Package onboarding applies the multi-record write set that turns an
// accepted invitation into a working account: user creation, role-specific
// linkage and the invitation status change commit together or not at all.
package onboarding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/school-dashboard/backend/internal/invites"
	"github.com/school-dashboard/backend/internal/models"
)

// Coordinator runs the atomic onboarding transaction.
type Coordinator struct {
	pool    *pgxpool.Pool
	invites *invites.Repository
	logger  *zap.Logger
}

// NewCoordinator creates an onboarding coordinator.
func NewCoordinator(pool *pgxpool.Pool, invRepo *invites.Repository, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{pool: pool, invites: invRepo, logger: logger}
}

// Onboard commits the full write set for a validated invitation in a single
// serializable transaction:
//
//   - claim the invitation (pending → accepted, re-validated at this point so
//     concurrent accepts resolve to one winner)
//   - upsert the user record keyed by uid
//   - teacher: insert the teacher profile and link every invited class
//   - parent: link the student to the new parent uid
//
// Any rejected write rolls the whole set back; no partial onboarding is ever
// observable. A missing class or student is a hard failure.
func (c *Coordinator) Onboard(ctx context.Context, inv *models.Invite, uid uuid.UUID, email string) error {
	email = invites.NormalizeEmail(email)

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("%w: begin: %v", invites.ErrOnboardingFailed, err)
	}
	defer tx.Rollback(ctx)

	if err := c.invites.MarkAccepted(ctx, tx, inv.ID, uid); err != nil {
		return c.classify(ctx, inv.ID, err)
	}

	const upsertUser = `INSERT INTO users (id, email, role, school_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, role = EXCLUDED.role, school_id = EXCLUDED.school_id, updated_at = NOW()`
	if _, err := tx.Exec(ctx, upsertUser, uid, email, string(inv.Role), inv.SchoolID); err != nil {
		return c.classify(ctx, inv.ID, fmt.Errorf("upsert user: %w", err))
	}

	switch inv.Role {
	case models.RoleTeacher:
		if err := c.onboardTeacher(ctx, tx, inv, uid, email); err != nil {
			return c.classify(ctx, inv.ID, err)
		}
	case models.RoleParent:
		if err := c.onboardParent(ctx, tx, inv, uid); err != nil {
			return c.classify(ctx, inv.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return c.classify(ctx, inv.ID, fmt.Errorf("commit: %w", err))
	}

	c.logger.Info("onboarding committed",
		zap.String("invite_id", inv.ID.String()),
		zap.String("uid", uid.String()),
		zap.String("role", string(inv.Role)))
	return nil
}

func (c *Coordinator) onboardTeacher(ctx context.Context, tx pgx.Tx, inv *models.Invite, uid uuid.UUID, email string) error {
	subjects := inv.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	const insertTeacher = `INSERT INTO teachers (uid, email, name, school_id, subjects, status)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.Exec(ctx, insertTeacher, uid, email, inv.Name, inv.SchoolID, subjects, models.TeacherStatusActive); err != nil {
		return fmt.Errorf("insert teacher profile: %w", err)
	}

	const linkClass = `UPDATE classes SET class_teacher_id = $1, updated_at = NOW()
		WHERE id = $2 AND school_id = $3`
	for _, classID := range inv.ClassIDs {
		tag, err := tx.Exec(ctx, linkClass, uid, classID, inv.SchoolID)
		if err != nil {
			return fmt.Errorf("link class %s: %w", classID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: class %s does not exist", invites.ErrOnboardingFailed, classID)
		}
	}
	return nil
}

func (c *Coordinator) onboardParent(ctx context.Context, tx pgx.Tx, inv *models.Invite, uid uuid.UUID) error {
	if inv.StudentID == nil {
		return nil
	}
	const linkStudent = `UPDATE students SET parent_uid = $1
		WHERE id = $2 AND school_id = $3`
	tag, err := tx.Exec(ctx, linkStudent, uid, *inv.StudentID, inv.SchoolID)
	if err != nil {
		return fmt.Errorf("link student %s: %w", *inv.StudentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: student %s does not exist", invites.ErrOnboardingFailed, *inv.StudentID)
	}
	return nil
}

// classify maps transaction failures onto the invitation error taxonomy.
// A serialization failure means a concurrent transaction touched the same
// rows; if the invitation turned out accepted, the caller lost the race.
func (c *Coordinator) classify(ctx context.Context, inviteID uuid.UUID, err error) error {
	if errors.Is(err, invites.ErrAlreadyAccepted) || errors.Is(err, invites.ErrOnboardingFailed) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
		if inv, gerr := c.invites.GetByID(ctx, inviteID); gerr == nil && !inv.Pending() {
			return invites.ErrAlreadyAccepted
		}
	}
	return fmt.Errorf("%w: %v", invites.ErrOnboardingFailed, err)
}
