package notice

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Notice audience targeting.
const (
	TargetAll     = "all"
	TargetStudent = "student"
	TargetParent  = "parent"

	// ClassAll as target_class addresses every class.
	ClassAll = "all"
)

// Mail delivery statuses. A row moves pending -> sent or pending -> failed
// and never back; there is no retry path.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

type Notice struct {
	ID            string      `json:"id" db:"id"`
	Title         string      `json:"title" db:"title"`
	Content       string      `json:"content" db:"content"`
	TargetType    string      `json:"target_type" db:"target_type"`
	TargetClass   string      `json:"target_class" db:"target_class"`
	AttachmentURL null.String `json:"attachment_url" db:"attachment_url"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// MailSendHistory is the per-(notice, student) delivery ledger entry.
type MailSendHistory struct {
	ID           string      `json:"id" db:"id"`
	NoticeID     string      `json:"notice_id" db:"notice_id"`
	StudentID    string      `json:"student_id" db:"student_id"`
	Email        string      `json:"email" db:"email"`
	Status       string      `json:"status" db:"status"`
	ErrorMessage string      `json:"error_message" db:"error_message"`
	SentAt       null.Time   `json:"sent_at" db:"sent_at"`
}

type NewNotice struct {
	Title         string `json:"title" validate:"required"`
	Content       string `json:"content"`
	TargetType    string `json:"target_type" validate:"required,oneof=all student parent"`
	TargetClass   string `json:"target_class"`
	AttachmentURL string `json:"attachment_url" validate:"omitempty,url"`
}

type UpdateNotice struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	TargetType    string `json:"target_type" validate:"omitempty,oneof=all student parent"`
	TargetClass   string `json:"target_class"`
	AttachmentURL string `json:"attachment_url" validate:"omitempty,url"`
}

// BroadcastResult counts one broadcast run. Resolved is the number of
// matched recipients with an email address; students without one are
// excluded silently and appear in no count.
type BroadcastResult struct {
	NoticeID string `json:"notice_id"`
	Resolved int    `json:"resolved"`
	Sent     int    `json:"sent"`
	Failed   int    `json:"failed"`
}
