package echoapi

import (
	"net/http"
	"net/mail"
	"path/filepath"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduNEXT/extemporaneous-grading/core"
	"github.com/eduNEXT/extemporaneous-grading/core/grading"
)

var nowFunc = time.Now // mockable

type gradingApi struct {
	svc        *grading.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerGradingAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *grading.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := gradingApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	bg := g.Group("/blocks", jwt)

	// authoring endpoints
	bg.POST("", api.create, staffMiddleware())
	bg.GET("", api.query, staffMiddleware())

	// detail endpoints
	dg := bg.Group("/:id")
	dg.GET("", api.retrieve, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())
	dg.PUT("/settings", api.updateSettings, staffMiddleware())
	dg.GET("/late-submissions", api.downloadLedger, staffMiddleware())
	dg.POST("/late-submissions/email", api.emailLedger, staffMiddleware())

	// viewer endpoints
	dg.GET("/student-view", api.studentView)
	dg.POST("/accept-late", api.acceptLate)
}

// Handlers

func (api *gradingApi) create(ctx echo.Context) error {
	var data grading.NewBlock
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBlock")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	blk, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating block")
	}
	return ctx.JSON(http.StatusCreated, blk)
}

func (api *gradingApi) query(ctx echo.Context) error {
	blocks, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying blocks")
	}
	if blocks == nil {
		blocks = []grading.Block{}
	}
	return ctx.JSON(http.StatusOK, blocks)
}

func (api *gradingApi) retrieve(ctx echo.Context) error {
	blk, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grading.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding block by ID")
	}
	return ctx.JSON(http.StatusOK, blk)
}

func (api *gradingApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == grading.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding block by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting block")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// updateSettings is the edit path: the submitted values run through the
// field validators before anything is committed; a failure rejects the whole
// edit with a 400 and leaves the stored settings untouched.
func (api *gradingApi) updateSettings(ctx echo.Context) error {
	var data grading.EditBlock
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditBlock")
	}

	blk, err := api.svc.UpdateSettings(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, blk)
}

func (api *gradingApi) studentView(ctx echo.Context) error {
	viewer, err := getContextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	view, err := api.svc.StudentView(ctx.Request().Context(), ctx.Param("id"), viewer, nowFunc().UTC())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *gradingApi) acceptLate(ctx echo.Context) error {
	viewer, err := getContextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	sub, err := api.svc.AcceptLate(ctx.Request().Context(), ctx.Param("id"), viewer, nowFunc().UTC())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *gradingApi) downloadLedger(ctx echo.Context) error {
	path, err := api.svc.ExportLedger(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.Attachment(path, filepath.Base(path))
}

func (api *gradingApi) emailLedger(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.Email == "" {
		return core.NewValidationError(errors.New("no contact address on file"))
	}

	to := mail.Address{Name: claims.Username, Address: claims.Email}
	if err := api.svc.EmailLedger(ctx.Request().Context(), ctx.Param("id"), to); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "The late submissions report will arrive in your inbox shortly.",
	})
}

type SuccessResponse struct {
	Success string `json:"success"`
}
