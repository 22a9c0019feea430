package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/hagwon/portal/core/admin"
)

type adminRepository struct {
	db *adminTable
}

var _ admin.Repository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(db *DB) *adminRepository {
	return &adminRepository{db: db.admin}
}

func (repo *adminRepository) GetAdminByUsername(_ context.Context, username string) (admin.Admin, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, adm := range repo.db.table {
		if adm.Username == username {
			return *adm, nil
		}
	}
	return admin.Admin{}, admin.ErrNotFound
}

func (repo *adminRepository) QueryAllAdmins(_ context.Context) ([]admin.Admin, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	admins := make([]admin.Admin, 0, len(repo.db.table))
	for _, adm := range repo.db.table {
		admins = append(admins, *adm)
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].Username < admins[j].Username })
	return admins, nil
}

func (repo *adminRepository) UpsertAdmin(_ context.Context, adm admin.Admin) (admin.Admin, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Username == adm.Username {
			adm.ID = existing.ID
			adm.CreatedAt = existing.CreatedAt
			break
		}
	}
	repo.db.table[adm.ID] = &adm
	return adm, nil
}

func (repo *adminRepository) SetLastLogin(_ context.Context, id string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	adm, ok := repo.db.table[id]
	if !ok {
		return admin.ErrNotFound
	}
	adm.LastLogin = null.TimeFrom(at)
	return nil
}
