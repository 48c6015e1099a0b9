package middleware

import (
	"agritech/internal/domain/model"
	"agritech/internal/usecase"

	"github.com/labstack/echo/v4"
)

// RequireRoles lets through callers whose role is one of roles. Runs after AuthJWT.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := CurrentActor(c)
			if !ok {
				return usecase.NewUnauthorized("unauthorized")
			}
			if _, ok := allowed[actor.Role]; !ok {
				return usecase.NewForbidden("You do not have permission to perform this action")
			}
			return next(c)
		}
	}
}
