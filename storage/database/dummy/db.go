package dummydb

import (
	"sync"

	"github.com/hagwon/portal/core/admin"
	"github.com/hagwon/portal/core/notice"
	"github.com/hagwon/portal/core/score"
	"github.com/hagwon/portal/core/student"
)

// DB is an in-memory stand-in for the real database, used by tests and
// local experiments. Keys are entity IDs unless noted.
type (
	DB struct {
		student *studentTable
		score   *scoreTable
		notice  *noticeTable
		admin   *adminTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	scoreTable struct {
		sync.RWMutex
		scores   map[string]*score.TestScoreRecord
		counts   map[string]*score.QuestionCount  // by test_name
		criteria map[string]*score.CriteriaRecord // by test_name|criteria_type
	}

	noticeTable struct {
		sync.RWMutex
		notices map[string]*notice.Notice
		history map[string]*notice.MailSendHistory // by notice_id|student_id
	}

	adminTable struct {
		sync.RWMutex
		table map[string]*admin.Admin
	}
)

func Open() (*DB, error) {
	db := &DB{
		student: &studentTable{table: make(map[string]*student.Student)},
		score: &scoreTable{
			scores:   make(map[string]*score.TestScoreRecord),
			counts:   make(map[string]*score.QuestionCount),
			criteria: make(map[string]*score.CriteriaRecord),
		},
		notice: &noticeTable{
			notices: make(map[string]*notice.Notice),
			history: make(map[string]*notice.MailSendHistory),
		},
		admin: &adminTable{table: make(map[string]*admin.Admin)},
	}
	return db, nil
}
