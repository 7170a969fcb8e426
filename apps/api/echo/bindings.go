package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ujenzi/core/crud"
)

// paramID parses the ":id" path param. Anything but a positive integer cannot match a record.
func paramID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// bindRecord binds the request body only: path params must not leak into the record.
func bindRecord(ctx echo.Context) (crud.Record, error) {
	rec := make(crud.Record)
	if err := new(echo.DefaultBinder).BindBody(ctx, &rec); err != nil {
		return nil, errors.Wrap(err, "binding to crud.Record")
	}
	return rec, nil
}
