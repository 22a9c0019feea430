package notice

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/hagwon/portal/core"
	"github.com/hagwon/portal/core/student"
)

var (
	ErrNotFound = errors.New("notice not found")
)

type (
	Repository interface {
		CreateNotice(ctx context.Context, ntc Notice) (Notice, error)
		QueryAllNotices(ctx context.Context) ([]Notice, error)
		GetNoticeByID(ctx context.Context, id string) (Notice, error)
		UpdateNotice(ctx context.Context, ntc Notice) (Notice, error)
		DeleteNotice(ctx context.Context, id string) error

		// UpsertMailHistory inserts or replaces the ledger row keyed by
		// (notice_id, student_id).
		UpsertMailHistory(ctx context.Context, h MailSendHistory) (MailSendHistory, error)
		QueryMailHistoryByNotice(ctx context.Context, noticeID string) ([]MailSendHistory, error)
	}

	// StudentDirectory is the slice of the student repository the broadcaster
	// needs to resolve recipients.
	StudentDirectory interface {
		QueryAllStudents(ctx context.Context) ([]student.Student, error)
		FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
		mail     core.EmailService
		conf     *core.Config
		logger   core.Logger
	}
)

func NewService(repo Repository, students StudentDirectory, mailSvc core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		students: students,
		mail:     mailSvc,
		conf:     conf,
		logger:   logger,
	}
}

func (svc *Service) Create(ctx context.Context, nn NewNotice) (Notice, error) {
	now := time.Now().UTC()
	ntc := Notice{
		ID:            uuid.New().String(),
		Title:         core.CleanString(nn.Title),
		Content:       nn.Content,
		TargetType:    nn.TargetType,
		TargetClass:   core.CleanString(nn.TargetClass),
		AttachmentURL: core.CleanNullString(nn.AttachmentURL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if ntc.TargetClass == "" {
		ntc.TargetClass = ClassAll
	}
	return svc.repo.CreateNotice(ctx, ntc)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Notice, error) {
	return svc.repo.QueryAllNotices(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Notice, error) {
	return svc.repo.GetNoticeByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, un UpdateNotice) (Notice, error) {
	ntc, err := svc.repo.GetNoticeByID(ctx, id)
	if err != nil {
		return Notice{}, err
	}
	if un.Title != "" {
		ntc.Title = core.CleanString(un.Title)
	}
	if un.Content != "" {
		ntc.Content = un.Content
	}
	if un.TargetType != "" {
		ntc.TargetType = un.TargetType
	}
	if un.TargetClass != "" {
		ntc.TargetClass = core.CleanString(un.TargetClass)
	}
	if un.AttachmentURL != "" {
		ntc.AttachmentURL = null.StringFrom(un.AttachmentURL)
	}
	ntc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateNotice(ctx, ntc)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteNotice(ctx, id)
}

func (svc *Service) History(ctx context.Context, noticeID string) ([]MailSendHistory, error) {
	return svc.repo.QueryMailHistoryByNotice(ctx, noticeID)
}

// ResolveRecipients returns the students a notice's mail goes to: those in
// the target class (or all classes) with an email address on file.
// Only target types "all" and "parent" produce mail; "student" notices are
// visible in the portal but never emailed (legacy portal behavior, kept
// until the product decides otherwise).
func (svc *Service) ResolveRecipients(ctx context.Context, ntc Notice) ([]student.Student, error) {
	switch ntc.TargetType {
	case TargetAll, TargetParent:
	default:
		return nil, nil
	}

	var matched []student.Student
	var err error
	if ntc.TargetClass == "" || ntc.TargetClass == ClassAll {
		matched, err = svc.students.QueryAllStudents(ctx)
	} else {
		matched, err = svc.students.FilterStudents(ctx, student.QueryFilter{Class: ntc.TargetClass})
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolving recipients")
	}

	recipients := make([]student.Student, 0, len(matched))
	for _, st := range matched {
		if st.HasEmail() {
			recipients = append(recipients, st)
		}
	}
	return recipients, nil
}

type noticeMailData struct {
	Title         string
	Content       string
	AttachmentURL string
}

// Broadcast emails a notice to every resolved recipient, one at a time, and
// records the outcome per recipient in the mail_send_history ledger. Sends
// are independent and best-effort: a failure is recorded and logged, never
// retried, and never blocks the remaining recipients. Re-broadcasting
// resends to everyone; there is no idempotency key.
func (svc *Service) Broadcast(ctx context.Context, noticeID string) (BroadcastResult, error) {
	ntc, err := svc.repo.GetNoticeByID(ctx, noticeID)
	if err != nil {
		return BroadcastResult{}, err
	}
	recipients, err := svc.ResolveRecipients(ctx, ntc)
	if err != nil {
		return BroadcastResult{}, err
	}

	res := BroadcastResult{NoticeID: ntc.ID, Resolved: len(recipients)}
	for _, st := range recipients {
		hist := MailSendHistory{
			ID:        uuid.New().String(),
			NoticeID:  ntc.ID,
			StudentID: st.StudentID,
			Email:     st.Email.String,
			Status:    StatusPending,
		}
		if hist, err = svc.repo.UpsertMailHistory(ctx, hist); err != nil {
			svc.logger.Error("notice.Broadcast: recording pending send", err)
		}

		sendErr := svc.send(ntc, st)
		hist.SentAt = null.TimeFrom(time.Now().UTC())
		if sendErr != nil {
			hist.Status = StatusFailed
			hist.ErrorMessage = sendErr.Error()
			res.Failed++
			svc.logger.Error("notice.Broadcast: sending to "+hist.Email, sendErr)
		} else {
			hist.Status = StatusSent
			hist.ErrorMessage = ""
			res.Sent++
		}
		if _, err = svc.repo.UpsertMailHistory(ctx, hist); err != nil {
			svc.logger.Error("notice.Broadcast: recording send status", err)
		}
	}
	return res, nil
}

func (svc *Service) send(ntc Notice, st student.Student) error {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: st.Name, Address: st.Email.String}},
		Subject:      ntc.Title,
		TemplateName: "notice",
		TemplateData: noticeMailData{
			Title:         ntc.Title,
			Content:       ntc.Content,
			AttachmentURL: ntc.AttachmentURL.String,
		},
	}
	return svc.mail.SendMessage(msg)
}
