package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/hagwon/portal/core"
)

var (
	ErrNotFound       = errors.New("admin not found")
	ErrBadCredentials = errors.New("invalid credentials")
)

type (
	Repository interface {
		GetAdminByUsername(ctx context.Context, username string) (Admin, error)
		QueryAllAdmins(ctx context.Context) ([]Admin, error)
		// UpsertAdmin inserts or replaces the row keyed by username.
		UpsertAdmin(ctx context.Context, adm Admin) (Admin, error)
		SetLastLogin(ctx context.Context, id string, at time.Time) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add creates or replaces an admin account.
func (svc *Service) Add(ctx context.Context, username, name, email, password string, isSuper bool) (Admin, error) {
	now := time.Now().UTC()
	adm := Admin{
		ID:        uuid.New().String(),
		Username:  core.CleanString(username, true),
		Name:      core.CleanString(name),
		Email:     core.CleanString(email, true),
		IsSuper:   isSuper,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := adm.SetPassword(password); err != nil {
		return Admin{}, err
	}
	return svc.repo.UpsertAdmin(ctx, adm)
}

func (svc *Service) GetByUsername(ctx context.Context, username string) (Admin, error) {
	return svc.repo.GetAdminByUsername(ctx, core.CleanString(username, true))
}

func (svc *Service) QueryAll(ctx context.Context) ([]Admin, error) {
	return svc.repo.QueryAllAdmins(ctx)
}

func (svc *Service) Authenticate(ctx context.Context, username, password string) (Admin, error) {
	adm, err := svc.GetByUsername(ctx, username)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Admin{}, ErrBadCredentials
		}
		return Admin{}, err
	}
	if err := adm.CheckPassword(password); err != nil {
		return Admin{}, ErrBadCredentials
	}

	now := time.Now().UTC()
	if err := svc.repo.SetLastLogin(ctx, adm.ID, now); err != nil {
		return Admin{}, errors.Wrap(err, "setting last login")
	}
	adm.LastLogin = null.TimeFrom(now)
	return adm, nil
}
