package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studyfocus/focus/core/study"
)

type studyApi struct {
	svc             *study.Service
	validate        *validator.Validate
	defaultPageSize int
}

func registerStudyAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	optionalJWT echo.MiddlewareFunc,
	svc *study.Service,
	validate *validator.Validate,
	defaultPageSize int,
) {
	api := studyApi{
		svc:             svc,
		validate:        validate,
		defaultPageSize: defaultPageSize,
	}

	sg := g.Group("/studies")

	// anonymous or authed: the viewer only affects viewer_has_bookmarked
	sg.GET("", api.search, optionalJWT)
	sg.GET("/:id", api.retrieve)

	// authed endpoints
	sg.POST("", api.create, jwt)
	sg.POST("/:id/members", api.join, jwt)
	sg.PUT("/:id/bookmark", api.bookmark, jwt)
	sg.DELETE("/:id/bookmark", api.unbookmark, jwt)
}

// Handlers

func (api *studyApi) search(ctx echo.Context) error {
	filter, err := bindSearchFilter(ctx, api.defaultPageSize)
	if err != nil {
		return errors.Wrap(err, "binding to SearchFilter")
	}

	res, err := api.svc.Search(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "searching studies")
	}
	return ctx.JSON(http.StatusOK, newStudyPage(res, filter))
}

func (api *studyApi) retrieve(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	st, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding study by ID")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studyApi) create(ctx echo.Context) error {
	var data study.NewStudy
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudy")
	}
	leaderID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	st, err := api.svc.Create(ctx.Request().Context(), data, leaderID)
	if err != nil {
		return errors.Wrap(err, "creating study")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studyApi) join(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	m, err := api.svc.Join(ctx.Request().Context(), id, userID)
	if err != nil {
		return errors.Wrap(err, "joining study")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *studyApi) bookmark(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	b, err := api.svc.Bookmark(ctx.Request().Context(), id, userID)
	if err != nil {
		return errors.Wrap(err, "bookmarking study")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *studyApi) unbookmark(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	userID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}

	if err = api.svc.Unbookmark(ctx.Request().Context(), id, userID); err != nil {
		return errors.Wrap(err, "removing bookmark")
	}
	return ctx.NoContent(http.StatusNoContent)
}
