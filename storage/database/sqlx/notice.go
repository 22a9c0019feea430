package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hagwon/portal/core/notice"
)

type noticeRepository struct {
	db *sqlx.DB
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *sqlx.DB) *noticeRepository {
	return &noticeRepository{db: db}
}

const (
	noticeCols  = `id, title, content, target_type, target_class, attachment_url, created_at, updated_at`
	historyCols = `id, notice_id, student_id, email, status, error_message, sent_at`
)

func (repo noticeRepository) CreateNotice(ctx context.Context, ntc notice.Notice) (notice.Notice, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO notices (`+noticeCols+`)
		 VALUES (:id, :title, :content, :target_type, :target_class, :attachment_url, :created_at, :updated_at)`,
		ntc,
	)
	if err != nil {
		return notice.Notice{}, errors.Wrap(err, "creating notice")
	}
	return ntc, nil
}

func (repo noticeRepository) QueryAllNotices(ctx context.Context) ([]notice.Notice, error) {
	notices := []notice.Notice{}
	err := repo.db.SelectContext(ctx, &notices,
		`SELECT `+noticeCols+` FROM notices ORDER BY created_at DESC`,
	)
	return notices, errors.Wrap(err, "querying notices")
}

func (repo noticeRepository) GetNoticeByID(ctx context.Context, id string) (notice.Notice, error) {
	var ntc notice.Notice
	err := repo.db.GetContext(ctx, &ntc,
		`SELECT `+noticeCols+` FROM notices WHERE id = $1`, id,
	)
	if err == sql.ErrNoRows {
		return notice.Notice{}, notice.ErrNotFound
	}
	return ntc, errors.Wrap(err, "getting notice")
}

func (repo noticeRepository) UpdateNotice(ctx context.Context, ntc notice.Notice) (notice.Notice, error) {
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE notices
		 SET title = :title, content = :content, target_type = :target_type,
		     target_class = :target_class, attachment_url = :attachment_url, updated_at = :updated_at
		 WHERE id = :id`,
		ntc,
	)
	if err != nil {
		return notice.Notice{}, errors.Wrap(err, "updating notice")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notice.Notice{}, notice.ErrNotFound
	}
	return ntc, nil
}

func (repo noticeRepository) DeleteNotice(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notice.ErrNotFound
	}
	return nil
}

func (repo noticeRepository) UpsertMailHistory(ctx context.Context, h notice.MailSendHistory) (notice.MailSendHistory, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO mail_send_history (`+historyCols+`)
		 VALUES (:id, :notice_id, :student_id, :email, :status, :error_message, :sent_at)
		 ON CONFLICT (notice_id, student_id) DO UPDATE SET
		     email = EXCLUDED.email,
		     status = EXCLUDED.status,
		     error_message = EXCLUDED.error_message,
		     sent_at = EXCLUDED.sent_at`,
		h,
	)
	if err != nil {
		return notice.MailSendHistory{}, errors.Wrap(err, "upserting mail history")
	}

	var saved notice.MailSendHistory
	err = repo.db.GetContext(ctx, &saved,
		`SELECT `+historyCols+` FROM mail_send_history WHERE notice_id = $1 AND student_id = $2`,
		h.NoticeID, h.StudentID,
	)
	return saved, errors.Wrap(err, "reloading mail history")
}

func (repo noticeRepository) QueryMailHistoryByNotice(ctx context.Context, noticeID string) ([]notice.MailSendHistory, error) {
	hist := []notice.MailSendHistory{}
	err := repo.db.SelectContext(ctx, &hist,
		`SELECT `+historyCols+` FROM mail_send_history WHERE notice_id = $1 ORDER BY email`,
		noticeID,
	)
	return hist, errors.Wrap(err, "querying mail history")
}
