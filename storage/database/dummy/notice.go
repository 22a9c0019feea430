package dummydb

import (
	"context"
	"sort"

	"github.com/hagwon/portal/core/notice"
)

type noticeRepository struct {
	db *noticeTable
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *DB) *noticeRepository {
	return &noticeRepository{db: db.notice}
}

func historyKey(noticeID, studentID string) string {
	return noticeID + "|" + studentID
}

func (repo *noticeRepository) CreateNotice(_ context.Context, ntc notice.Notice) (notice.Notice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.notices[ntc.ID] = &ntc
	return ntc, nil
}

func (repo *noticeRepository) QueryAllNotices(_ context.Context) ([]notice.Notice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notices := make([]notice.Notice, 0, len(repo.db.notices))
	for _, ntc := range repo.db.notices {
		notices = append(notices, *ntc)
	}
	sort.Slice(notices, func(i, j int) bool { return notices[i].CreatedAt.After(notices[j].CreatedAt) })
	return notices, nil
}

func (repo *noticeRepository) GetNoticeByID(_ context.Context, id string) (notice.Notice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ntc, ok := repo.db.notices[id]; ok {
		return *ntc, nil
	}
	return notice.Notice{}, notice.ErrNotFound
}

func (repo *noticeRepository) UpdateNotice(_ context.Context, ntc notice.Notice) (notice.Notice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.notices[ntc.ID]; !ok {
		return notice.Notice{}, notice.ErrNotFound
	}
	repo.db.notices[ntc.ID] = &ntc
	return ntc, nil
}

func (repo *noticeRepository) DeleteNotice(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.notices[id]; !ok {
		return notice.ErrNotFound
	}
	delete(repo.db.notices, id)
	for key, h := range repo.db.history {
		if h.NoticeID == id {
			delete(repo.db.history, key)
		}
	}
	return nil
}

func (repo *noticeRepository) UpsertMailHistory(_ context.Context, h notice.MailSendHistory) (notice.MailSendHistory, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := historyKey(h.NoticeID, h.StudentID)
	if existing, ok := repo.db.history[key]; ok {
		h.ID = existing.ID
	}
	repo.db.history[key] = &h
	return h, nil
}

func (repo *noticeRepository) QueryMailHistoryByNotice(_ context.Context, noticeID string) ([]notice.MailSendHistory, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	hist := make([]notice.MailSendHistory, 0)
	for _, h := range repo.db.history {
		if h.NoticeID == noticeID {
			hist = append(hist, *h)
		}
	}
	sort.Slice(hist, func(i, j int) bool { return hist[i].Email < hist[j].Email })
	return hist, nil
}
