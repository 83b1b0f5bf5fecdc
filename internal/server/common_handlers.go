package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) healthHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.server.Health())
}
