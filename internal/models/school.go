package models

import (
	"time"

	"github.com/google/uuid"
)

// School is the owning organization for classes, students and invitations.
type School struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Class is a school class. ClassTeacherID is set when a teacher invitation
// naming the class is accepted.
type Class struct {
	ID             uuid.UUID  `json:"id"`
	SchoolID       uuid.UUID  `json:"school_id"`
	Name           string     `json:"name"`
	ClassTeacherID *uuid.UUID `json:"class_teacher_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Student is a school student. ParentUID is set when a parent invitation
// referencing the student is accepted.
type Student struct {
	ID        uuid.UUID  `json:"id"`
	SchoolID  uuid.UUID  `json:"school_id"`
	FullName  string     `json:"full_name"`
	ParentUID *uuid.UUID `json:"parent_uid,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
