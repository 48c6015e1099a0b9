package handler

import (
	"net/http"
	"strconv"
	"time"

	"agritech/internal/domain/model"
	"agritech/internal/middleware"
	"agritech/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditHandler struct {
	uc *usecase.AuditUsecase
}

func NewAuditHandler(uc *usecase.AuditUsecase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

func (h *AuditHandler) RegisterRoutes(g *echo.Group, guards Guards) {
	g.GET("/audit/getAll", h.list, guards.authed(middleware.RequireRoles(model.RoleAdmin))...)
}

// GET /audit/getAll?action=&resourceType=&resourceId=&actorId=&from=&to=&limit=&offset=
// from/to are RFC3339; actorId=0 selects provider-driven changes.
func (h *AuditHandler) list(c echo.Context) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}
	resourceID, err := queryInt(c, "resourceId", 0)
	if err != nil {
		return err
	}

	in := usecase.ListAuditLogsInput{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resourceType"),
		ResourceID:   int64(resourceID),
		Limit:        limit,
		Offset:       offset,
	}
	if v := c.QueryParam("actorId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			return usecase.NewValidationError("invalid actorId")
		}
		in.ActorUserID = &id
	}
	if in.Since, err = queryTime(c, "from"); err != nil {
		return err
	}
	if in.Until, err = queryTime(c, "to"); err != nil {
		return err
	}

	logs, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	})
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.NewValidationError("invalid " + name)
	}
	return n, nil
}

func queryTime(c echo.Context, name string) (time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, usecase.NewValidationError("invalid " + name + ", expected RFC3339")
	}
	return t, nil
}
