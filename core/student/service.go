package student

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/hagwon/portal/core"
)

var (
	ErrNotFound        = errors.New("student not found")
	ErrStudentIDExists = errors.New("a student with this student_id already exists")
	ErrLoginIDExists   = errors.New("a student with this login_id already exists")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrBadRole         = errors.New("invalid portal role")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrStudentIDExists or ErrLoginIDExists when
		// another row (excluding excludedIDs) holds the same key.
		CheckUniqueness(ctx context.Context, studentID, loginID string, excludedIDs ...string) error
		CreateStudent(ctx context.Context, st Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByStudentID(ctx context.Context, studentID string) (Student, error)
		GetStudentByLoginID(ctx context.Context, loginID string) (Student, error)
		GetStudentByParentID(ctx context.Context, parentID string) (Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		// UpsertStudentByStudentID inserts or replaces the row keyed by student_id.
		UpsertStudentByStudentID(ctx context.Context, st Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, studentID, loginID string, exclIDs ...string) error {
	if err := svc.repo.CheckUniqueness(ctx, studentID, loginID, exclIDs...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrStudentIDExists:
			field = "student_id"
		case ErrLoginIDExists:
			field = "login_id"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.checkUniqueness(ctx, ns.StudentID, ns.LoginID); err != nil {
		return Student{}, err
	}
	now := time.Now().UTC()
	st := Student{
		ID:             uuid.New().String(),
		StudentID:      core.CleanString(ns.StudentID),
		Name:           core.CleanString(ns.Name),
		Class:          core.CleanString(ns.Class),
		LoginID:        core.CleanString(ns.LoginID),
		LoginPassword:  ns.LoginPassword,
		ParentID:       core.CleanString(ns.ParentID),
		ParentPassword: ns.ParentPassword,
		Email:          core.CleanNullString(ns.Email, true),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Student, error) {
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) GetByStudentID(ctx context.Context, studentID string) (Student, error) {
	return svc.repo.GetStudentByStudentID(ctx, core.CleanString(studentID))
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if us.Name != "" {
		st.Name = core.CleanString(us.Name)
	}
	if us.Class != "" {
		st.Class = core.CleanString(us.Class)
	}
	if us.LoginPassword != "" {
		st.LoginPassword = us.LoginPassword
	}
	if us.ParentPassword != "" {
		st.ParentPassword = us.ParentPassword
	}
	if us.Email != "" {
		st.Email = null.StringFrom(core.CleanString(us.Email, true))
	}
	st.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, st)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

// Authenticate matches a portal login against the credential pair for the
// given role: (login_id, login_password) for students, (parent_id,
// parent_password) for parents.
func (svc *Service) Authenticate(ctx context.Context, role, loginID, password string) (Student, error) {
	loginID = core.CleanString(loginID)

	var st Student
	var stored string
	var err error
	switch role {
	case RoleStudent:
		st, err = svc.repo.GetStudentByLoginID(ctx, loginID)
		stored = st.LoginPassword
	case RoleParent:
		st, err = svc.repo.GetStudentByParentID(ctx, loginID)
		stored = st.ParentPassword
	default:
		return Student{}, errors.Wrapf(ErrBadRole, "%q", role)
	}
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Student{}, ErrBadCredentials
		}
		return Student{}, err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return Student{}, ErrBadCredentials
	}
	return st, nil
}
