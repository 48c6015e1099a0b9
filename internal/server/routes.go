package server

import (
	"net/http"

	"agritech/internal/handler"

	"github.com/labstack/echo/v4"
)

const APIPrefix = "/agritech/v1"

type RouteRegistrar interface {
	RegisterRoutes(g *echo.Group, guards handler.Guards)
}

// RegisterRoutes mounts every handler under APIPrefix plus the /healthz liveness check.
func RegisterRoutes(e *echo.Echo, guards handler.Guards, registrars ...RouteRegistrar) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group(APIPrefix)
	for _, r := range registrars {
		r.RegisterRoutes(api, guards)
	}
}
