package server

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/inftyart/inftyart/internal/usecase"
)

type Meta struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

type Res struct {
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// errorJSON maps usecase errors to HTTP status codes.
func errorJSON(ctx echo.Context, err error) error {
	var (
		notFound     usecase.ErrNotFound
		notForSale   usecase.ErrNotForSale
		alreadyOwner usecase.ErrAlreadyOwner
		invalidShare usecase.ErrInvalidShare
		conflict     usecase.ErrConflict
		chainErr     usecase.ErrChain
	)

	switch {
	case errors.As(err, &notFound):
		return ctx.JSON(404, map[string]string{"error": notFound.Message, "code": notFound.Code})
	case errors.As(err, &notForSale):
		return ctx.JSON(400, map[string]string{"error": err.Error(), "code": "NOT_FOR_SALE"})
	case errors.As(err, &alreadyOwner):
		return ctx.JSON(400, map[string]string{"error": err.Error(), "code": "BUYER_ALREADY_OWNER"})
	case errors.As(err, &invalidShare):
		return ctx.JSON(400, map[string]string{"error": err.Error(), "code": "INVALID_SHARE"})
	case errors.As(err, &conflict):
		return ctx.JSON(409, map[string]string{"error": conflict.Message, "code": conflict.Code})
	case errors.As(err, &chainErr):
		return ctx.JSON(502, map[string]string{"error": err.Error(), "code": "CHAIN_ERROR"})
	default:
		return ctx.JSON(500, map[string]string{"error": err.Error()})
	}
}
