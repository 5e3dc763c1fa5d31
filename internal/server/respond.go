package server

import (
	"errors"

	"github.com/kataras/iris/v12"

	"github.com/Captain-Catto/online-store-sub001/internal/service"
)

// fail maps a service error onto an HTTP status and stops the request.
func fail(ctx iris.Context, err error) {
	code := 500
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrVoucherExpired):
		code = 400
	case errors.Is(err, service.ErrUnauthorized):
		code = 401
	case errors.Is(err, service.ErrForbidden):
		code = 403
	case errors.Is(err, service.ErrNotFound):
		code = 404
	}
	ctx.StopWithJSON(code, iris.Map{"code": code, "msg": err.Error()})
}
