package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus for redemption. Transitions are monotonic: pending → accepted.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
)

// Invite represents a pending or redeemed invitation to join a school as a
// teacher or parent. The role-specific fields form a tagged union selected
// by Role: Name/Subjects/ClassIDs apply to teachers, StudentID to parents.
type Invite struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	SchoolID uuid.UUID `json:"school_id"`
	Status   string    `json:"status"`

	// Teacher payload.
	Name     string      `json:"name,omitempty"`
	Subjects []string    `json:"subjects,omitempty"`
	ClassIDs []uuid.UUID `json:"class_ids,omitempty"`

	// Parent payload.
	StudentID *uuid.UUID `json:"student_id,omitempty"`

	AcceptedByUID *uuid.UUID `json:"accepted_by_uid,omitempty"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty"`
}

// Pending reports whether the invite is still redeemable.
func (i *Invite) Pending() bool {
	return i.Status == InviteStatusPending
}
