package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/hagwon/portal/core/score"
)

type scoreRepository struct {
	db *scoreTable
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db *DB) *scoreRepository {
	return &scoreRepository{db: db.score}
}

func criteriaKey(testName, criteriaType string) string {
	return testName + "|" + criteriaType
}

func (repo *scoreRepository) QueryScoresByStudent(_ context.Context, studentID string) ([]score.TestScoreRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]score.TestScoreRecord, 0)
	for _, rec := range repo.db.scores {
		if rec.StudentID == studentID {
			recs = append(recs, *rec)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].TestDate.After(recs[j].TestDate) })
	return recs, nil
}

func (repo *scoreRepository) QueryScoresBySitting(_ context.Context, testName string, testDate time.Time) ([]score.TestScoreRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]score.TestScoreRecord, 0)
	for _, rec := range repo.db.scores {
		if rec.TestName == testName && rec.TestDate.Equal(testDate) {
			recs = append(recs, *rec)
		}
	}
	// stable cohort order, as the real table returns insertion order
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].CreatedAt.Before(recs[j].CreatedAt) })
	return recs, nil
}

func (repo *scoreRepository) GetScoreByID(_ context.Context, id string) (score.TestScoreRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.scores[id]; ok {
		return *rec, nil
	}
	return score.TestScoreRecord{}, score.ErrNotFound
}

func (repo *scoreRepository) UpsertScore(_ context.Context, rec score.TestScoreRecord) (score.TestScoreRecord, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.scores {
		if existing.StudentID == rec.StudentID && existing.SameSitting(rec) {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
			break
		}
	}
	repo.db.scores[rec.ID] = &rec
	return rec, nil
}

func (repo *scoreRepository) DeleteScore(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.scores[id]; !ok {
		return score.ErrNotFound
	}
	delete(repo.db.scores, id)
	return nil
}

func (repo *scoreRepository) GetQuestionCount(_ context.Context, testName string) (score.QuestionCount, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if qc, ok := repo.db.counts[testName]; ok {
		return *qc, nil
	}
	return score.QuestionCount{}, score.ErrNotFound
}

func (repo *scoreRepository) QueryQuestionCounts(_ context.Context) ([]score.QuestionCount, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	qcs := make([]score.QuestionCount, 0, len(repo.db.counts))
	for _, qc := range repo.db.counts {
		qcs = append(qcs, *qc)
	}
	sort.Slice(qcs, func(i, j int) bool { return qcs[i].TestName < qcs[j].TestName })
	return qcs, nil
}

func (repo *scoreRepository) UpsertQuestionCount(_ context.Context, qc score.QuestionCount) (score.QuestionCount, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing, ok := repo.db.counts[qc.TestName]; ok {
		qc.ID = existing.ID
		qc.CreatedAt = existing.CreatedAt
	}
	repo.db.counts[qc.TestName] = &qc
	return qc, nil
}

func (repo *scoreRepository) QueryCriteria(_ context.Context, testName string) ([]score.CriteriaRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	crs := make([]score.CriteriaRecord, 0, 2)
	for _, cr := range repo.db.criteria {
		if cr.TestName == testName {
			crs = append(crs, *cr)
		}
	}
	sort.Slice(crs, func(i, j int) bool { return crs[i].CriteriaType < crs[j].CriteriaType })
	return crs, nil
}

func (repo *scoreRepository) UpsertCriteria(_ context.Context, cr score.CriteriaRecord) (score.CriteriaRecord, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := criteriaKey(cr.TestName, cr.CriteriaType)
	if existing, ok := repo.db.criteria[key]; ok {
		cr.ID = existing.ID
		cr.CreatedAt = existing.CreatedAt
	}
	repo.db.criteria[key] = &cr
	return cr, nil
}
