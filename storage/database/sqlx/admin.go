package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hagwon/portal/core/admin"
)

type adminRepository struct {
	db *sqlx.DB
}

var _ admin.Repository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(db *sqlx.DB) *adminRepository {
	return &adminRepository{db: db}
}

const adminCols = `id, username, name, email, password_hash, is_super, created_at, updated_at, last_login`

func (repo adminRepository) GetAdminByUsername(ctx context.Context, username string) (admin.Admin, error) {
	var adm admin.Admin
	err := repo.db.GetContext(ctx, &adm,
		`SELECT `+adminCols+` FROM admins WHERE username = $1`, username,
	)
	if err == sql.ErrNoRows {
		return admin.Admin{}, admin.ErrNotFound
	}
	return adm, errors.Wrap(err, "getting admin")
}

func (repo adminRepository) QueryAllAdmins(ctx context.Context) ([]admin.Admin, error) {
	admins := []admin.Admin{}
	err := repo.db.SelectContext(ctx, &admins,
		`SELECT `+adminCols+` FROM admins ORDER BY username`,
	)
	return admins, errors.Wrap(err, "querying admins")
}

func (repo adminRepository) UpsertAdmin(ctx context.Context, adm admin.Admin) (admin.Admin, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO admins (`+adminCols+`)
		 VALUES (:id, :username, :name, :email, :password_hash, :is_super, :created_at, :updated_at, :last_login)
		 ON CONFLICT (username) DO UPDATE SET
		     name = EXCLUDED.name,
		     email = EXCLUDED.email,
		     password_hash = EXCLUDED.password_hash,
		     is_super = EXCLUDED.is_super,
		     updated_at = EXCLUDED.updated_at`,
		adm,
	)
	if err != nil {
		return admin.Admin{}, errors.Wrap(err, "upserting admin")
	}
	return repo.GetAdminByUsername(ctx, adm.Username)
}

func (repo adminRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE admins SET last_login = $2 WHERE id = $1`, id, at,
	)
	return errors.Wrap(err, "setting last login")
}
