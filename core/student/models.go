package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/hagwon/portal/core"
)

// Portal roles. A student row carries two credential pairs, one per role.
const (
	RoleStudent = "student"
	RoleParent  = "parent"
)

// Student is one enrolled student with their portal credentials. The login
// and parent credential pairs are import-managed fixed values, stored and
// exported verbatim so a roster export/import round-trips exactly.
type Student struct {
	ID             string      `json:"id" db:"id"`
	StudentID      string      `json:"student_id" db:"student_id"`
	Name           string      `json:"name" db:"name"`
	Class          string      `json:"class" db:"class"`
	LoginID        string      `json:"login_id" db:"login_id"`
	LoginPassword  string      `json:"-" db:"login_password"`
	ParentID       string      `json:"parent_id" db:"parent_id"`
	ParentPassword string      `json:"-" db:"parent_password"`
	Email          null.String `json:"email" db:"email"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// HasEmail reports whether the student can receive notice mail.
func (s Student) HasEmail() bool {
	return s.Email.Valid && s.Email.String != ""
}

// NewStudent is the payload for creating a student.
type NewStudent struct {
	StudentID      string `json:"student_id" validate:"required,alphanum_"`
	Name           string `json:"name" validate:"required"`
	Class          string `json:"class" validate:"omitempty,class_label"`
	LoginID        string `json:"login_id" validate:"required,alphanum_"`
	LoginPassword  string `json:"login_password" validate:"required"`
	ParentID       string `json:"parent_id" validate:"required,alphanum_"`
	ParentPassword string `json:"parent_password" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
}

// UpdateStudent is the payload for updating a student. Empty credential
// fields keep the stored values.
type UpdateStudent struct {
	Name           string `json:"name"`
	Class          string `json:"class" validate:"omitempty,class_label"`
	LoginPassword  string `json:"login_password"`
	ParentPassword string `json:"parent_password"`
	Email          string `json:"email" validate:"omitempty,email"`
}

// QueryFilter narrows roster queries. Zero values are ignored; Search does
// a case-insensitive match on name or student_id. Ordering fields outside
// OrderableFields are dropped.
type QueryFilter struct {
	Search   string
	Class    string
	Ordering []core.DBOrdering
}

// OrderableFields are the columns roster queries may be ordered by.
var OrderableFields = map[string]bool{
	"student_id": true,
	"name":       true,
	"class":      true,
	"created_at": true,
}
