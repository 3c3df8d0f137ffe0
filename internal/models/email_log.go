package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType for outbound invitation mail.
const (
	EmailTypeTeacherInvite = "teacher_invite"
	EmailTypeParentInvite  = "parent_invite"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records attempted invite email deliveries. A failed delivery
// never invalidates the invite it references.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	InviteID       *uuid.UUID `json:"invite_id,omitempty"`
	SchoolID       *uuid.UUID `json:"school_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// EmailTypeForRole returns the invite email type for an invited role.
func EmailTypeForRole(r Role) string {
	if r == RoleParent {
		return EmailTypeParentInvite
	}
	return EmailTypeTeacherInvite
}
