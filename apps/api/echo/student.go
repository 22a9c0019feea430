package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hagwon/portal/core"
	"github.com/hagwon/portal/core/score"
	"github.com/hagwon/portal/core/student"
)

type studentApi struct {
	deps *ServerDeps
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := studentApi{deps: deps}

	sg := g.Group("/students", jwt)

	// roster management, admin only
	sg.GET("", api.query, adminMiddleware())
	sg.POST("", api.create, adminMiddleware())
	sg.GET("/export", api.export, adminMiddleware())
	sg.POST("/import", api.importRoster, adminMiddleware())

	// detail endpoints
	dg := sg.Group("/:id")
	dg.GET("", api.retrieve, adminMiddleware())
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())

	// standing endpoints, reachable by the owning portal session too
	dg.GET("/ranking", api.overallRanking, ownerOrAdminMiddleware())
	dg.GET("/profile", api.profile, ownerOrAdminMiddleware())
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := student.QueryFilter{
		Search: core.CleanString(ctx.QueryParam("search")),
		Class:  core.CleanString(ctx.QueryParam("class")),
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	filter.Ordering = ordering.Orderings

	students, err := api.deps.StudentSvc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	st, err := api.deps.StudentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := api.deps.StudentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	st, err := api.deps.StudentSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.deps.StudentSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) export(ctx echo.Context) error {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="roster.csv"`)
	res.WriteHeader(http.StatusOK)

	if err := api.deps.StudentSvc.WriteRoster(ctx.Request().Context(), res); err != nil {
		return errors.Wrap(err, "writing roster")
	}
	return nil
}

func (api *studentApi) importRoster(ctx echo.Context) error {
	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "a CSV file is required"})
	}
	file, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded roster")
	}
	defer func() { _ = file.Close() }()

	result, err := api.deps.StudentSvc.ImportRoster(ctx.Request().Context(), file)
	if err != nil {
		return errors.Wrap(err, "importing roster")
	}
	return ctx.JSON(http.StatusOK, result)
}

func (api *studentApi) overallRanking(ctx echo.Context) error {
	st, policy, err := api.resolveStanding(ctx)
	if err != nil {
		return err
	}

	ranking, err := api.deps.ScoreSvc.OverallRanking(ctx.Request().Context(), st.StudentID, policy)
	if err != nil {
		return rankingError(err, "computing overall ranking")
	}
	return ctx.JSON(http.StatusOK, ranking)
}

func (api *studentApi) profile(ctx echo.Context) error {
	st, policy, err := api.resolveStanding(ctx)
	if err != nil {
		return err
	}

	profile, err := api.deps.ScoreSvc.Profile(ctx.Request().Context(), st.StudentID, policy)
	if err != nil {
		return rankingError(err, "computing profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *studentApi) resolveStanding(ctx echo.Context) (student.Student, score.TiePolicy, error) {
	policy, err := bindTiePolicy(ctx)
	if err != nil {
		return student.Student{}, 0, err
	}
	st, err := api.deps.StudentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, 0, errHttpNotFound
		}
		return student.Student{}, 0, errors.Wrap(err, "finding student by ID")
	}
	return st, policy, nil
}
