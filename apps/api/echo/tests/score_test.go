package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/hagwon/portal/core/score"
	"github.com/hagwon/portal/core/student"
	testutil "github.com/hagwon/portal/tests"
)

var mockExamDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func seedScore(t *testing.T, app *testApp, studentID string, total float64) score.TestScoreRecord {
	t.Helper()
	rec, err := score.NewService(app.scoreRepo).SaveScore(context.Background(), score.TestScoreRecord{
		StudentID: studentID,
		TestName:  "mock exam 1",
		TestDate:  mockExamDate,
		Anatomy:   null.Float64From(total),
	})
	require.NoError(t, err)
	return rec
}

func TestScoreAPI_saveRecomputesTotal(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)

	body := []byte(`{
		"student_id": "A001", "test_name": "mock exam 1", "test_date": "2026-03-02T00:00:00Z",
		"anatomy": 40, "physiology": 35, "adult_nursing": 50,
		"total_score": 9999
	}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/scores", token, body)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var saved score.TestScoreRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	// the caller-supplied total is discarded and recomputed
	assert.Equal(t, 125.0, saved.TotalScore.Float64)

	// resubmitting the same sitting updates the row instead of duplicating it
	req, rec = newAuthRequest(http.MethodPost, "/v1/scores", token, body)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	recs, err := app.scoreRepo.QueryScoresBySitting(context.Background(), "mock exam 1", mockExamDate)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestScoreAPI_saveRequiresKeyFields(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)

	req, rec := newAuthRequest(http.MethodPost, "/v1/scores", token, []byte(`{"anatomy": 40}`))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoreAPI_portalUserPinnedToOwnScores(t *testing.T) {
	app := setup(t)

	st := testutil.CreateStudent(t, app.studentRepo, "A001", "Kim Minji", "A", "")
	seedScore(t, app, "A001", 120)
	seedScore(t, app, "B001", 150) // someone else

	token := app.portalToken(t, st, student.RoleStudent)
	req, rec := newAuthRequest(http.MethodGet, "/v1/scores?student_id=B001", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var recs []score.TestScoreRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "A001", recs[0].StudentID)
}

func TestScoreAPI_destroy(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)
	rec1 := seedScore(t, app, "A001", 120)

	req, rec := newAuthRequest(http.MethodDelete, "/v1/scores/"+rec1.ID, token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/scores/"+rec1.ID, token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScoreAPI_sittingRankings(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)

	seedScore(t, app, "A001", 120)
	seedScore(t, app, "A002", 120)
	seedScore(t, app, "A003", 90)

	get := func(t *testing.T, path string) []score.RankedRecord {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var ranked []score.RankedRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranked))
		return ranked
	}

	t.Run("ordinal ties", func(t *testing.T) {
		ranked := get(t, "/v1/rankings?test_name=mock%20exam%201&test_date=2026-03-02")
		require.Len(t, ranked, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
	})

	t.Run("dense ties", func(t *testing.T) {
		ranked := get(t, "/v1/rankings?test_name=mock%20exam%201&test_date=2026-03-02&tie=dense")
		require.Len(t, ranked, 3)
		assert.Equal(t, []int{1, 1, 2}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
	})

	t.Run("bad tie policy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/rankings?test_name=mock%20exam%201&test_date=2026-03-02&tie=sparse", token)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown sitting", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/rankings?test_name=no%20such%20test&test_date=2026-03-02", token)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing test_date", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/rankings?test_name=mock%20exam%201", token)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestScoreAPI_overallRankingAndProfile(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)

	st := testutil.CreateStudent(t, app.studentRepo, "A001", "Kim Minji", "A", "")
	seedScore(t, app, "A001", 152)
	seedScore(t, app, "A002", 120)

	t.Run("ranking", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+st.ID+"/ranking", token)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var ranking score.OverallRanking
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranking))
		assert.Equal(t, "A001", ranking.StudentID)
		assert.Equal(t, 1, ranking.BestRank)
		assert.Equal(t, 1, ranking.TotalTests)
	})

	t.Run("profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+st.ID+"/profile", token)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var profile score.Profile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		assert.Equal(t, 1, profile.LatestRank)
		assert.Equal(t, 1, profile.Level)
		assert.NotEmpty(t, profile.Badges)
	})

	t.Run("owner can read their own standing", func(t *testing.T) {
		ownToken := app.portalToken(t, st, student.RoleStudent)
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+st.ID+"/ranking", ownToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other portal users cannot", func(t *testing.T) {
		other := testutil.CreateStudent(t, app.studentRepo, "A002", "Lee Junho", "A", "")
		otherToken := app.portalToken(t, other, student.RoleStudent)
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+st.ID+"/ranking", otherToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("no scores is a 404", func(t *testing.T) {
		blank := testutil.CreateStudent(t, app.studentRepo, "C001", "No Scores", "C", "")
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+blank.ID+"/ranking", token)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestScoreAPI_questionCounts(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)

	req, rec := newAuthRequest(http.MethodPut, "/v1/question-counts", token,
		[]byte(`{"test_name": "mock exam 1", "anatomy": 20, "physiology": 15}`))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/question-counts", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var qcs []score.QuestionCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &qcs))
	require.Len(t, qcs, 1)
	assert.Equal(t, 20, qcs[0].Anatomy.Int)

	req, rec = newAuthRequest(http.MethodGet, "/v1/question-counts?test_name=no%20such%20test", token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req, rec = newAuthRequest(http.MethodPut, "/v1/question-counts", token, []byte(`{"anatomy": 20}`))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoreAPI_criteria(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)

	req, rec := newAuthRequest(http.MethodPut, "/v1/criteria", token,
		[]byte(`{"test_name": "mock exam 1", "criteria_type": "passing", "anatomy": 24}`))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPut, "/v1/criteria", token,
		[]byte(`{"test_name": "mock exam 1", "criteria_type": "failing", "anatomy": 12}`))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/criteria?test_name=mock%20exam%201", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var crs []score.CriteriaRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crs))
	assert.Len(t, crs, 2)

	// test_name is mandatory on reads
	req, rec = newAuthRequest(http.MethodGet, "/v1/criteria", token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
