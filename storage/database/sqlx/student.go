package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hagwon/portal/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

const studentCols = `id, student_id, name, class, login_id, login_password,
	parent_id, parent_password, email, created_at, updated_at`

func (repo studentRepository) CheckUniqueness(ctx context.Context, studentID, loginID string, excludedIDs ...string) error {
	type match struct {
		ID        string `db:"id"`
		StudentID string `db:"student_id"`
		LoginID   string `db:"login_id"`
	}
	var matches []match
	err := repo.db.SelectContext(ctx, &matches,
		`SELECT id, student_id, login_id FROM students WHERE student_id = $1 OR login_id = $2`,
		studentID, loginID,
	)
	if err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}

	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for _, m := range matches {
		if excluded[m.ID] {
			continue
		}
		if m.StudentID == studentID {
			return student.ErrStudentIDExists
		}
		if m.LoginID == loginID {
			return student.ErrLoginIDExists
		}
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO students (`+studentCols+`)
		 VALUES (:id, :student_id, :name, :class, :login_id, :login_password,
		         :parent_id, :parent_password, :email, :created_at, :updated_at)`,
		st,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "creating student")
	}
	return st, nil
}

func (repo studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	students := []student.Student{}
	err := repo.db.SelectContext(ctx, &students,
		`SELECT `+studentCols+` FROM students ORDER BY class, name`,
	)
	return students, errors.Wrap(err, "querying students")
}

func (repo studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	query := `SELECT ` + studentCols + ` FROM students WHERE 1=1`
	args := map[string]interface{}{}
	if filter.Class != "" {
		query += ` AND class = :class`
		args["class"] = filter.Class
	}
	if filter.Search != "" {
		query += ` AND (name ILIKE :search OR student_id ILIKE :search)`
		args["search"] = "%" + filter.Search + "%"
	}
	orderBy := make([]string, 0, len(filter.Ordering))
	for _, ord := range filter.Ordering {
		if student.OrderableFields[ord.Field] {
			orderBy = append(orderBy, ord.String())
		}
	}
	if len(orderBy) == 0 {
		orderBy = []string{"class", "name"}
	}
	query += ` ORDER BY ` + strings.Join(orderBy, ", ")

	rows, err := repo.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, errors.Wrap(err, "filtering students")
	}
	defer func() { _ = rows.Close() }()

	students := []student.Student{}
	for rows.Next() {
		var st student.Student
		if err = rows.StructScan(&st); err != nil {
			return nil, errors.Wrap(err, "scanning student")
		}
		students = append(students, st)
	}
	return students, errors.Wrap(rows.Err(), "filtering students")
}

func (repo studentRepository) getStudent(ctx context.Context, where string, arg interface{}) (student.Student, error) {
	var st student.Student
	err := repo.db.GetContext(ctx, &st,
		`SELECT `+studentCols+` FROM students WHERE `+where, arg,
	)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	return st, errors.Wrap(err, "getting student")
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	return repo.getStudent(ctx, `id = $1`, id)
}

func (repo studentRepository) GetStudentByStudentID(ctx context.Context, studentID string) (student.Student, error) {
	return repo.getStudent(ctx, `student_id = $1`, studentID)
}

func (repo studentRepository) GetStudentByLoginID(ctx context.Context, loginID string) (student.Student, error) {
	return repo.getStudent(ctx, `login_id = $1`, loginID)
}

func (repo studentRepository) GetStudentByParentID(ctx context.Context, parentID string) (student.Student, error) {
	return repo.getStudent(ctx, `parent_id = $1`, parentID)
}

func (repo studentRepository) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE students
		 SET name = :name, class = :class, login_password = :login_password,
		     parent_password = :parent_password, email = :email, updated_at = :updated_at
		 WHERE id = :id`,
		st,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return st, nil
}

func (repo studentRepository) UpsertStudentByStudentID(ctx context.Context, st student.Student) (student.Student, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO students (`+studentCols+`)
		 VALUES (:id, :student_id, :name, :class, :login_id, :login_password,
		         :parent_id, :parent_password, :email, :created_at, :updated_at)
		 ON CONFLICT (student_id) DO UPDATE SET
		     name = EXCLUDED.name,
		     class = EXCLUDED.class,
		     login_id = EXCLUDED.login_id,
		     login_password = EXCLUDED.login_password,
		     parent_id = EXCLUDED.parent_id,
		     parent_password = EXCLUDED.parent_password,
		     email = EXCLUDED.email,
		     updated_at = EXCLUDED.updated_at`,
		st,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "upserting student")
	}
	return repo.GetStudentByStudentID(ctx, st.StudentID)
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrNotFound
	}
	return nil
}
