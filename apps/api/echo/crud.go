package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ujenzi/core/crud"
)

type crudApi struct {
	svc *crud.Service
}

func registerCrudAPI(g *echo.Group, svc *crud.Service) {
	api := crudApi{svc: svc}

	g.GET("/:table", api.list)
	g.POST("/:table", api.create)
	g.GET("/:table/columns/info", api.columns)
	g.GET("/:table/:id", api.retrieve)
	g.PUT("/:table/:id", api.update)
	g.DELETE("/:table/:id", api.destroy)
}

// Handlers

func (api *crudApi) list(ctx echo.Context) error {
	recs, err := api.svc.List(ctx.Request().Context(), contextActor(ctx), ctx.Param("table"))
	if err != nil {
		return errors.Wrap(err, "listing records")
	}
	if recs == nil {
		recs = []crud.Record{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    recs,
		"message": "All records retrieved successfully",
	})
}

func (api *crudApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.Get(ctx.Request().Context(), contextActor(ctx), ctx.Param("table"), id)
	if err != nil {
		return errors.Wrap(err, "getting record")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "data": rec})
}

func (api *crudApi) create(ctx echo.Context) error {
	payload, err := bindRecord(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.Create(ctx.Request().Context(), contextActor(ctx), ctx.Param("table"), payload)
	if err != nil {
		return errors.Wrap(err, "creating record")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Record created successfully",
		"id":      res.ID,
		"data":    res.Data,
	})
}

func (api *crudApi) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	payload, err := bindRecord(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.Update(ctx.Request().Context(), contextActor(ctx), ctx.Param("table"), id, payload)
	if err != nil {
		return errors.Wrap(err, "updating record")
	}
	body := echo.Map{
		"success": true,
		"message": "Record updated successfully",
		"id":      res.ID,
	}
	if res.Data != nil {
		body["data"] = res.Data
	}
	return ctx.JSON(http.StatusOK, body)
}

func (api *crudApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), contextActor(ctx), ctx.Param("table"), id); err != nil {
		return errors.Wrap(err, "deleting record")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Record deleted successfully"})
}

func (api *crudApi) columns(ctx echo.Context) error {
	cols, err := api.svc.Columns(ctx.Request().Context(), contextActor(ctx), ctx.Param("table"))
	if err != nil {
		return errors.Wrap(err, "getting table columns")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "columns": cols})
}
