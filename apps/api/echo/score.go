package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hagwon/portal/core"
	"github.com/hagwon/portal/core/score"
)

type scoreApi struct {
	deps *ServerDeps
}

func registerScoreAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := scoreApi{deps: deps}

	sg := g.Group("/scores", jwt)
	sg.GET("", api.query)
	sg.POST("", api.save, adminMiddleware())
	sg.DELETE("/:id", api.destroy, adminMiddleware())

	g.GET("/rankings", api.sittingRanking, jwt)

	qg := g.Group("/question-counts", jwt)
	qg.GET("", api.questionCounts)
	qg.PUT("", api.saveQuestionCount, adminMiddleware())

	cg := g.Group("/criteria", jwt)
	cg.GET("", api.criteria)
	cg.PUT("", api.saveCriteria, adminMiddleware())
}

func rankingError(err error, msg string) error {
	if errors.Cause(err) == score.ErrNoScores {
		return errHttpNotFound
	}
	return errors.Wrap(err, msg)
}

// query returns score records. Admins pick any student via ?student_id= or
// a sitting via ?test_name=&test_date=; portal sessions are pinned to their
// own student number.
func (api *scoreApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	studentID := core.CleanString(ctx.QueryParam("student_id"))
	if !claims.IsAdmin {
		studentID = claims.StudentID
	}

	if studentID == "" {
		testName := core.CleanString(ctx.QueryParam("test_name"))
		if testName == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "student_id or test_name is required"})
		}
		testDate, err := bindTestDate(ctx, true /* required */)
		if err != nil {
			return err
		}
		recs, err := api.deps.ScoreSvc.SittingRanking(ctx.Request().Context(), testName, testDate, score.TiePolicyOrdinal)
		if err != nil {
			return rankingError(err, "querying sitting scores")
		}
		return ctx.JSON(http.StatusOK, recs)
	}

	recs, err := api.deps.ScoreSvc.StudentScores(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying student scores")
	}
	if recs == nil {
		recs = []score.TestScoreRecord{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *scoreApi) save(ctx echo.Context) error {
	var rec score.TestScoreRecord
	if err := ctx.Bind(&rec); err != nil {
		return errors.Wrap(err, "binding to TestScoreRecord")
	}
	if rec.StudentID == "" || rec.TestName == "" || rec.TestDate.IsZero() {
		return core.NewValidationError(nil,
			core.FieldError{Field: "student_id", Error: "student_id, test_name and test_date are required"})
	}

	rec, err := api.deps.ScoreSvc.SaveScore(ctx.Request().Context(), rec)
	if err != nil {
		return errors.Wrap(err, "saving score")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *scoreApi) destroy(ctx echo.Context) error {
	if err := api.deps.ScoreSvc.DeleteScore(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == score.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting score")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scoreApi) sittingRanking(ctx echo.Context) error {
	testName := core.CleanString(ctx.QueryParam("test_name"))
	if testName == "" {
		return core.RequiredFieldError("test_name")
	}
	testDate, err := bindTestDate(ctx, true /* required */)
	if err != nil {
		return err
	}
	policy, err := bindTiePolicy(ctx)
	if err != nil {
		return err
	}

	ranked, err := api.deps.ScoreSvc.SittingRanking(ctx.Request().Context(), testName, testDate, policy)
	if err != nil {
		return rankingError(err, "ranking sitting")
	}
	return ctx.JSON(http.StatusOK, ranked)
}

func (api *scoreApi) questionCounts(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	if testName := core.CleanString(ctx.QueryParam("test_name")); testName != "" {
		qc, err := api.deps.ScoreSvc.QuestionCount(reqCtx, testName)
		if err != nil {
			if errors.Cause(err) == score.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding question count")
		}
		return ctx.JSON(http.StatusOK, qc)
	}

	qcs, err := api.deps.ScoreSvc.QuestionCounts(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying question counts")
	}
	if qcs == nil {
		qcs = []score.QuestionCount{}
	}
	return ctx.JSON(http.StatusOK, qcs)
}

func (api *scoreApi) saveQuestionCount(ctx echo.Context) error {
	var qc score.QuestionCount
	if err := ctx.Bind(&qc); err != nil {
		return errors.Wrap(err, "binding to QuestionCount")
	}
	if qc.TestName == "" {
		return core.RequiredFieldError("test_name")
	}

	qc, err := api.deps.ScoreSvc.SaveQuestionCount(ctx.Request().Context(), qc)
	if err != nil {
		return errors.Wrap(err, "saving question count")
	}
	return ctx.JSON(http.StatusOK, qc)
}

func (api *scoreApi) criteria(ctx echo.Context) error {
	testName := core.CleanString(ctx.QueryParam("test_name"))
	if testName == "" {
		return core.RequiredFieldError("test_name")
	}

	crs, err := api.deps.ScoreSvc.Criteria(ctx.Request().Context(), testName)
	if err != nil {
		return errors.Wrap(err, "querying criteria")
	}
	if crs == nil {
		crs = []score.CriteriaRecord{}
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *scoreApi) saveCriteria(ctx echo.Context) error {
	var cr score.CriteriaRecord
	if err := ctx.Bind(&cr); err != nil {
		return errors.Wrap(err, "binding to CriteriaRecord")
	}
	if cr.TestName == "" {
		return core.RequiredFieldError("test_name")
	}

	cr, err := api.deps.ScoreSvc.SaveCriteria(ctx.Request().Context(), cr)
	if err != nil {
		return errors.Wrap(err, "saving criteria")
	}
	return ctx.JSON(http.StatusOK, cr)
}
