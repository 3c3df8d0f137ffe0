package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's role in the dashboard.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleParent
}

// Invitable reports whether the role can be granted through an invitation.
func (r Role) Invitable() bool {
	return r == RoleTeacher || r == RoleParent
}

// User represents a dashboard user. Admins carry a password hash; users
// onboarded through an invitation authenticate via the identity provider
// and have no password.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	FullName  string     `json:"full_name,omitempty"`
	Role      Role       `json:"role"`
	SchoolID  *uuid.UUID `json:"school_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name,omitempty"`
	Role      Role       `json:"role"`
	SchoolID  *uuid.UUID `json:"school_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		SchoolID:  u.SchoolID,
		CreatedAt: u.CreatedAt,
	}
}

// TeacherProfile is the teacher record created during onboarding.
type TeacherProfile struct {
	UID       uuid.UUID `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	SchoolID  uuid.UUID `json:"school_id"`
	Subjects  []string  `json:"subjects"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TeacherStatusActive is the status assigned to newly onboarded teachers.
const TeacherStatusActive = "active"
