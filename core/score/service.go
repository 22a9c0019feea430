package score

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("record not found")
)

type (
	Repository interface {
		QueryScoresByStudent(ctx context.Context, studentID string) ([]TestScoreRecord, error)
		QueryScoresBySitting(ctx context.Context, testName string, testDate time.Time) ([]TestScoreRecord, error)
		GetScoreByID(ctx context.Context, id string) (TestScoreRecord, error)
		// UpsertScore inserts or replaces the row keyed by (student_id, test_name, test_date).
		UpsertScore(ctx context.Context, rec TestScoreRecord) (TestScoreRecord, error)
		DeleteScore(ctx context.Context, id string) error

		GetQuestionCount(ctx context.Context, testName string) (QuestionCount, error)
		QueryQuestionCounts(ctx context.Context) ([]QuestionCount, error)
		UpsertQuestionCount(ctx context.Context, qc QuestionCount) (QuestionCount, error)

		QueryCriteria(ctx context.Context, testName string) ([]CriteriaRecord, error)
		UpsertCriteria(ctx context.Context, cr CriteriaRecord) (CriteriaRecord, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SaveScore upserts a test-score row. The stored total is always recomputed
// from the subject fields, keeping the total invariant regardless of what
// the caller supplied.
func (svc *Service) SaveScore(ctx context.Context, rec TestScoreRecord) (TestScoreRecord, error) {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.TotalScore.SetValid(TotalScore(rec))
	return svc.repo.UpsertScore(ctx, rec)
}

func (svc *Service) GetScore(ctx context.Context, id string) (TestScoreRecord, error) {
	return svc.repo.GetScoreByID(ctx, id)
}

func (svc *Service) DeleteScore(ctx context.Context, id string) error {
	return svc.repo.DeleteScore(ctx, id)
}

// StudentScores returns all of a student's records, newest sitting first.
func (svc *Service) StudentScores(ctx context.Context, studentID string) ([]TestScoreRecord, error) {
	recs, err := svc.repo.QueryScoresByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].TestDate.After(recs[j].TestDate) })
	return recs, nil
}

// SittingRanking ranks the full cohort of one sitting.
func (svc *Service) SittingRanking(ctx context.Context, testName string, testDate time.Time, policy TiePolicy) ([]RankedRecord, error) {
	recs, err := svc.repo.QueryScoresBySitting(ctx, testName, testDate)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.Wrapf(ErrNoScores, "sitting %s %s", testName, testDate.Format("2006-01-02"))
	}
	return RankScores(recs, policy), nil
}

// OverallRanking aggregates a student's standing across every sitting they
// participated in, recomputing each sitting's full-cohort ranking.
func (svc *Service) OverallRanking(ctx context.Context, studentID string, policy TiePolicy) (OverallRanking, error) {
	sittings, err := svc.studentSittings(ctx, studentID)
	if err != nil {
		return OverallRanking{}, err
	}
	return ComputeOverallRanking(studentID, sittings, policy)
}

// Profile derives badges, experience and level from a student's history and
// their rank in the latest sitting.
func (svc *Service) Profile(ctx context.Context, studentID string, policy TiePolicy) (Profile, error) {
	recs, err := svc.StudentScores(ctx, studentID)
	if err != nil {
		return Profile{}, err
	}
	if len(recs) == 0 {
		return Profile{}, errors.Wrapf(ErrNoScores, "student %s", studentID)
	}

	// recs is sorted newest first; rank the latest sitting's cohort
	var latestRank int
	latest := recs[0]
	cohort, err := svc.repo.QueryScoresBySitting(ctx, latest.TestName, latest.TestDate)
	if err != nil {
		return Profile{}, err
	}
	for _, rr := range RankScores(cohort, policy) {
		if rr.StudentID == studentID {
			latestRank = rr.Rank
			break
		}
	}

	xp := Experience(recs)
	return Profile{
		StudentID:  studentID,
		Badges:     EvaluateBadges(recs, latestRank),
		Experience: xp,
		Level:      Level(xp),
		TotalTests: len(recs),
		LatestRank: latestRank,
	}, nil
}

func (svc *Service) studentSittings(ctx context.Context, studentID string) ([]Sitting, error) {
	recs, err := svc.repo.QueryScoresByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	sittings := make([]Sitting, 0, len(recs))
	for _, rec := range recs {
		cohort, err := svc.repo.QueryScoresBySitting(ctx, rec.TestName, rec.TestDate)
		if err != nil {
			return nil, err
		}
		sittings = append(sittings, Sitting{TestName: rec.TestName, Records: cohort})
	}
	return sittings, nil
}

// Question counts

func (svc *Service) QuestionCounts(ctx context.Context) ([]QuestionCount, error) {
	return svc.repo.QueryQuestionCounts(ctx)
}

func (svc *Service) QuestionCount(ctx context.Context, testName string) (QuestionCount, error) {
	return svc.repo.GetQuestionCount(ctx, testName)
}

func (svc *Service) SaveQuestionCount(ctx context.Context, qc QuestionCount) (QuestionCount, error) {
	now := time.Now().UTC()
	if qc.ID == "" {
		qc.ID = uuid.New().String()
		qc.CreatedAt = now
	}
	qc.UpdatedAt = now
	return svc.repo.UpsertQuestionCount(ctx, qc)
}

// Criteria

func (svc *Service) Criteria(ctx context.Context, testName string) ([]CriteriaRecord, error) {
	return svc.repo.QueryCriteria(ctx, testName)
}

func (svc *Service) SaveCriteria(ctx context.Context, cr CriteriaRecord) (CriteriaRecord, error) {
	if cr.CriteriaType != CriteriaPassing && cr.CriteriaType != CriteriaFailing {
		return CriteriaRecord{}, errors.Errorf("invalid criteria type %q", cr.CriteriaType)
	}
	now := time.Now().UTC()
	if cr.ID == "" {
		cr.ID = uuid.New().String()
		cr.CreatedAt = now
	}
	cr.UpdatedAt = now
	return svc.repo.UpsertCriteria(ctx, cr)
}
