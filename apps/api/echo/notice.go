package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hagwon/portal/core/notice"
)

type noticeApi struct {
	deps *ServerDeps
}

func registerNoticeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := noticeApi{deps: deps}

	ng := g.Group("/notices", jwt)
	ng.GET("", api.query)
	ng.GET("/:id", api.retrieve)

	// admin only
	ng.POST("", api.create, adminMiddleware())
	ng.PUT("/:id", api.update, adminMiddleware())
	ng.DELETE("/:id", api.destroy, adminMiddleware())
	ng.POST("/:id/broadcast", api.broadcast, adminMiddleware())
	ng.GET("/:id/history", api.history, adminMiddleware())
}

func (api *noticeApi) query(ctx echo.Context) error {
	notices, err := api.deps.NoticeSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying notices")
	}
	if notices == nil {
		notices = []notice.Notice{}
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *noticeApi) retrieve(ctx echo.Context) error {
	ntc, err := api.deps.NoticeSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == notice.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding notice by ID")
	}
	return ctx.JSON(http.StatusOK, ntc)
}

func (api *noticeApi) create(ctx echo.Context) error {
	var data notice.NewNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotice")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	ntc, err := api.deps.NoticeSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notice")
	}
	return ctx.JSON(http.StatusCreated, ntc)
}

func (api *noticeApi) update(ctx echo.Context) error {
	var data notice.UpdateNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNotice")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	ntc, err := api.deps.NoticeSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == notice.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating notice")
	}
	return ctx.JSON(http.StatusOK, ntc)
}

func (api *noticeApi) destroy(ctx echo.Context) error {
	if err := api.deps.NoticeSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == notice.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting notice")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *noticeApi) broadcast(ctx echo.Context) error {
	result, err := api.deps.NoticeSvc.Broadcast(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == notice.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "broadcasting notice")
	}
	return ctx.JSON(http.StatusOK, result)
}

func (api *noticeApi) history(ctx echo.Context) error {
	hist, err := api.deps.NoticeSvc.History(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == notice.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying mail history")
	}
	if hist == nil {
		hist = []notice.MailSendHistory{}
	}
	return ctx.JSON(http.StatusOK, hist)
}
