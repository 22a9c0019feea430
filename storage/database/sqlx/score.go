package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hagwon/portal/core/score"
)

type scoreRepository struct {
	db *sqlx.DB
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db *sqlx.DB) *scoreRepository {
	return &scoreRepository{db: db}
}

// Column fragments derived from the fixed subject list, so the wide tables
// stay in lockstep with score.Subjects.
var (
	subjectCols    = strings.Join(score.Subjects, ", ")
	subjectNamed   = ":" + strings.Join(score.Subjects, ", :")
	subjectUpdates = subjectExcluded()

	scoreCols         = "id, student_id, test_name, test_date, " + subjectCols + ", total_score, created_at, updated_at"
	scoreNamed        = ":id, :student_id, :test_name, :test_date, " + subjectNamed + ", :total_score, :created_at, :updated_at"
	questionCountCols = "id, test_name, " + subjectCols + ", created_at, updated_at"
	questionNamed     = ":id, :test_name, " + subjectNamed + ", :created_at, :updated_at"
	criteriaCols      = "id, test_name, criteria_type, " + subjectCols + ", created_at, updated_at"
	criteriaNamed     = ":id, :test_name, :criteria_type, " + subjectNamed + ", :created_at, :updated_at"
)

func subjectExcluded() string {
	parts := make([]string, 0, len(score.Subjects))
	for _, s := range score.Subjects {
		parts = append(parts, s+" = EXCLUDED."+s)
	}
	return strings.Join(parts, ", ")
}

// Test scores

func (repo scoreRepository) QueryScoresByStudent(ctx context.Context, studentID string) ([]score.TestScoreRecord, error) {
	recs := []score.TestScoreRecord{}
	err := repo.db.SelectContext(ctx, &recs,
		`SELECT `+scoreCols+` FROM test_scores WHERE student_id = $1 ORDER BY test_date DESC, created_at DESC`,
		studentID,
	)
	return recs, errors.Wrap(err, "querying scores by student")
}

func (repo scoreRepository) QueryScoresBySitting(ctx context.Context, testName string, testDate time.Time) ([]score.TestScoreRecord, error) {
	recs := []score.TestScoreRecord{}
	err := repo.db.SelectContext(ctx, &recs,
		`SELECT `+scoreCols+` FROM test_scores WHERE test_name = $1 AND test_date = $2 ORDER BY created_at`,
		testName, testDate,
	)
	return recs, errors.Wrap(err, "querying sitting scores")
}

func (repo scoreRepository) GetScoreByID(ctx context.Context, id string) (score.TestScoreRecord, error) {
	var rec score.TestScoreRecord
	err := repo.db.GetContext(ctx, &rec,
		`SELECT `+scoreCols+` FROM test_scores WHERE id = $1`, id,
	)
	if err == sql.ErrNoRows {
		return score.TestScoreRecord{}, score.ErrNotFound
	}
	return rec, errors.Wrap(err, "getting score")
}

func (repo scoreRepository) UpsertScore(ctx context.Context, rec score.TestScoreRecord) (score.TestScoreRecord, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO test_scores (`+scoreCols+`) VALUES (`+scoreNamed+`)
		 ON CONFLICT (student_id, test_name, test_date) DO UPDATE SET
		     `+subjectUpdates+`,
		     total_score = EXCLUDED.total_score,
		     updated_at = EXCLUDED.updated_at`,
		rec,
	)
	if err != nil {
		return score.TestScoreRecord{}, errors.Wrap(err, "upserting score")
	}

	var saved score.TestScoreRecord
	err = repo.db.GetContext(ctx, &saved,
		`SELECT `+scoreCols+` FROM test_scores WHERE student_id = $1 AND test_name = $2 AND test_date = $3`,
		rec.StudentID, rec.TestName, rec.TestDate,
	)
	return saved, errors.Wrap(err, "reloading upserted score")
}

func (repo scoreRepository) DeleteScore(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM test_scores WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting score")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return score.ErrNotFound
	}
	return nil
}

// Question counts

func (repo scoreRepository) GetQuestionCount(ctx context.Context, testName string) (score.QuestionCount, error) {
	var qc score.QuestionCount
	err := repo.db.GetContext(ctx, &qc,
		`SELECT `+questionCountCols+` FROM question_counts WHERE test_name = $1`, testName,
	)
	if err == sql.ErrNoRows {
		return score.QuestionCount{}, score.ErrNotFound
	}
	return qc, errors.Wrap(err, "getting question count")
}

func (repo scoreRepository) QueryQuestionCounts(ctx context.Context) ([]score.QuestionCount, error) {
	qcs := []score.QuestionCount{}
	err := repo.db.SelectContext(ctx, &qcs,
		`SELECT `+questionCountCols+` FROM question_counts ORDER BY test_name`,
	)
	return qcs, errors.Wrap(err, "querying question counts")
}

func (repo scoreRepository) UpsertQuestionCount(ctx context.Context, qc score.QuestionCount) (score.QuestionCount, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO question_counts (`+questionCountCols+`) VALUES (`+questionNamed+`)
		 ON CONFLICT (test_name) DO UPDATE SET
		     `+subjectUpdates+`,
		     updated_at = EXCLUDED.updated_at`,
		qc,
	)
	if err != nil {
		return score.QuestionCount{}, errors.Wrap(err, "upserting question count")
	}
	return repo.GetQuestionCount(ctx, qc.TestName)
}

// Criteria

func (repo scoreRepository) QueryCriteria(ctx context.Context, testName string) ([]score.CriteriaRecord, error) {
	crs := []score.CriteriaRecord{}
	err := repo.db.SelectContext(ctx, &crs,
		`SELECT `+criteriaCols+` FROM subject_criteria WHERE test_name = $1 ORDER BY criteria_type`,
		testName,
	)
	return crs, errors.Wrap(err, "querying criteria")
}

func (repo scoreRepository) UpsertCriteria(ctx context.Context, cr score.CriteriaRecord) (score.CriteriaRecord, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO subject_criteria (`+criteriaCols+`) VALUES (`+criteriaNamed+`)
		 ON CONFLICT (test_name, criteria_type) DO UPDATE SET
		     `+subjectUpdates+`,
		     updated_at = EXCLUDED.updated_at`,
		cr,
	)
	if err != nil {
		return score.CriteriaRecord{}, errors.Wrap(err, "upserting criteria")
	}

	var saved score.CriteriaRecord
	err = repo.db.GetContext(ctx, &saved,
		`SELECT `+criteriaCols+` FROM subject_criteria WHERE test_name = $1 AND criteria_type = $2`,
		cr.TestName, cr.CriteriaType,
	)
	return saved, errors.Wrap(err, "reloading upserted criteria")
}
