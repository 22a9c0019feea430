package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hagwon/portal/core"
	"github.com/hagwon/portal/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, st := range repo.db.table {
		students = append(students, *st)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Class != students[j].Class {
			return students[i].Class < students[j].Class
		}
		return students[i].Name < students[j].Name
	})
	return students
}

func (repo *studentRepository) CheckUniqueness(_ context.Context, studentID, loginID string, excludedIDs ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for _, st := range repo.db.table {
		if excluded[st.ID] {
			continue
		}
		if st.StudentID == studentID {
			return student.ErrStudentIDExists
		}
		if st.LoginID == loginID {
			return student.ErrLoginIDExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) QueryAllStudents(_ context.Context) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) FilterStudents(_ context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	filtered := make([]student.Student, 0)
	search := strings.ToLower(filter.Search)
	for _, st := range repo.query() {
		if filter.Class != "" && st.Class != filter.Class {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(st.Name), search) &&
			!strings.Contains(strings.ToLower(st.StudentID), search) {
			continue
		}
		filtered = append(filtered, st)
	}
	applyOrdering(filtered, filter.Ordering)
	return filtered, nil
}

func applyOrdering(students []student.Student, ordering []core.DBOrdering) {
	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		if !student.OrderableFields[ord.Field] {
			continue
		}
		key := func(st student.Student) string {
			switch ord.Field {
			case "student_id":
				return st.StudentID
			case "name":
				return st.Name
			case "class":
				return st.Class
			default:
				return st.CreatedAt.Format(time.RFC3339Nano)
			}
		}
		sort.SliceStable(students, func(a, b int) bool {
			if ord.Ascending {
				return key(students[a]) < key(students[b])
			}
			return key(students[a]) > key(students[b])
		})
	}
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return *st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) getBy(match func(student.Student) bool) (student.Student, error) {
	for _, st := range repo.db.table {
		if match(*st) {
			return *st, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByStudentID(_ context.Context, studentID string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.getBy(func(st student.Student) bool { return st.StudentID == studentID })
}

func (repo *studentRepository) GetStudentByLoginID(_ context.Context, loginID string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.getBy(func(st student.Student) bool { return st.LoginID == loginID })
}

func (repo *studentRepository) GetStudentByParentID(_ context.Context, parentID string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.getBy(func(st student.Student) bool { return st.ParentID == parentID })
}

func (repo *studentRepository) UpdateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[st.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.table[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) UpsertStudentByStudentID(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.StudentID == st.StudentID {
			st.ID = existing.ID
			st.CreatedAt = existing.CreatedAt
			break
		}
	}
	repo.db.table[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
