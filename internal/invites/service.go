package invites

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/school-dashboard/backend/internal/models"
)

// Store is the invitation persistence contract the lifecycle manager needs.
type Store interface {
	Create(ctx context.Context, inv *models.Invite) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error)
}

// Onboarder applies the atomic onboarding write set for a validated
// invitation. Implemented by the onboarding coordinator.
type Onboarder interface {
	Onboard(ctx context.Context, inv *models.Invite, uid uuid.UUID, email string) error
}

// Service is the invitation lifecycle manager: it validates creation input,
// guards acceptance and hands validated invitations to the onboarder.
type Service struct {
	store     Store
	onboarder Onboarder
	logger    *zap.Logger
}

// NewService creates an invitation lifecycle service.
func NewService(store Store, onboarder Onboarder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, onboarder: onboarder, logger: logger}
}

// CreateParams are the fields for a new invitation. Name, Subjects and
// ClassIDs apply to teacher invitations; StudentID to parent invitations.
type CreateParams struct {
	Email     string
	Role      models.Role
	SchoolID  uuid.UUID
	Name      string
	Subjects  []string
	ClassIDs  []uuid.UUID
	StudentID *uuid.UUID
	CreatedBy *uuid.UUID
}

// Create validates params and persists a pending invitation.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Invite, error) {
	email := NormalizeEmail(p.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !p.Role.Invitable() {
		return nil, fmt.Errorf("%w: role must be teacher or parent", ErrValidation)
	}
	if p.SchoolID == uuid.Nil {
		return nil, fmt.Errorf("%w: school_id is required", ErrValidation)
	}

	inv := &models.Invite{
		Email:     email,
		Role:      p.Role,
		SchoolID:  p.SchoolID,
		CreatedBy: p.CreatedBy,
	}
	switch p.Role {
	case models.RoleTeacher:
		inv.Name = strings.TrimSpace(p.Name)
		inv.Subjects = p.Subjects
		inv.ClassIDs = p.ClassIDs
	case models.RoleParent:
		if p.StudentID == nil || *p.StudentID == uuid.Nil {
			return nil, fmt.Errorf("%w: student_id is required for parent invitations", ErrValidation)
		}
		inv.StudentID = p.StudentID
	}

	if err := s.store.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}
	s.logger.Info("invite created",
		zap.String("invite_id", inv.ID.String()),
		zap.String("role", string(inv.Role)),
		zap.String("school_id", inv.SchoolID.String()))
	return inv, nil
}

// Accept validates the invitation against the authenticated identity and, on
// success, applies the onboarding write set. The returned invitation carries
// the role the caller routes subsequent behavior on.
//
// Failures here are caller errors and are never retried internally; the
// onboarder re-validates the pending status at commit time, so concurrent
// accepts of the same invitation resolve to exactly one winner.
func (s *Service) Accept(ctx context.Context, inviteID, uid uuid.UUID, claimedEmail string) (*models.Invite, error) {
	inv, err := s.store.GetByID(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if !inv.Pending() {
		return nil, ErrAlreadyAccepted
	}
	email := NormalizeEmail(claimedEmail)
	if !strings.EqualFold(inv.Email, email) {
		return nil, ErrEmailMismatch
	}

	if err := s.onboarder.Onboard(ctx, inv, uid, email); err != nil {
		return nil, err
	}

	now := time.Now()
	inv.Status = models.InviteStatusAccepted
	inv.AcceptedByUID = &uid
	inv.AcceptedAt = &now
	s.logger.Info("invite accepted",
		zap.String("invite_id", inv.ID.String()),
		zap.String("uid", uid.String()),
		zap.String("role", string(inv.Role)))
	return inv, nil
}

// NormalizeEmail lower-cases and trims an address the way invitation emails
// are stored and compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
