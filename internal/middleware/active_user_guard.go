package middleware

import (
	"errors"

	"agritech/internal/repository"
	"agritech/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ActiveUserGuard rejects tokens of deleted accounts and refreshes the role from storage,
// so a role change takes effect before the token expires.
func ActiveUserGuard(userRepo repository.UserRepository, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := CurrentActor(c)
			if !ok {
				return usecase.NewUnauthorized("unauthorized")
			}

			user, err := userRepo.FindByID(c.Request().Context(), actor.UserID)
			if errors.Is(err, repository.ErrNotFound) {
				return usecase.NewUnauthorized("User no longer exists")
			}
			if err != nil {
				logger.Error("load token user", zap.Int64("user_id", actor.UserID), zap.Error(err))
				return usecase.NewInternal(err)
			}

			c.Set(CtxUserRoleKey, user.Role)
			c.Set(CtxUserEmailKey, user.Email)
			return next(c)
		}
	}
}
