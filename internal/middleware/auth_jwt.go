package middleware

import (
	"errors"
	"strconv"
	"strings"

	"agritech/internal/domain/model"
	"agritech/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey    = "user_id"    // int64
	CtxUserRoleKey  = "user_role"  // model.Role
	CtxUserEmailKey = "user_email" // string
)

// AuthJWT verifies the bearer token and stores the caller in the echo context.
func AuthJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authz := c.Request().Header.Get(echo.HeaderAuthorization)
			if authz == "" {
				return usecase.NewUnauthorized("No token provided")
			}

			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return usecase.NewUnauthorized("Invalid authorization header")
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return usecase.NewUnauthorized("No token provided")
			}

			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil {
				var ve *jwt.ValidationError
				if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
					return usecase.NewUnauthorized("Token expired")
				}
				return usecase.NewUnauthorized("Invalid token")
			}
			if token == nil || !token.Valid {
				return usecase.NewUnauthorized("Invalid token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return usecase.NewUnauthorized("Invalid token")
			}

			userID, err := parseUserID(claims["sub"])
			if err != nil || userID <= 0 {
				return usecase.NewUnauthorized("Invalid token")
			}

			role := model.Role(parseString(claims["role"]))
			if !role.Valid() {
				return usecase.NewUnauthorized("Invalid token")
			}

			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, role)
			c.Set(CtxUserEmailKey, parseString(claims["email"]))

			return next(c)
		}
	}
}

// CurrentActor returns the caller stored by AuthJWT.
func CurrentActor(c echo.Context) (usecase.Actor, bool) {
	userID, ok := c.Get(CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return usecase.Actor{}, false
	}
	role, ok := c.Get(CtxUserRoleKey).(model.Role)
	if !ok {
		return usecase.Actor{}, false
	}
	return usecase.Actor{UserID: userID, Role: role}, true
}

func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}

func parseString(v interface{}) string {
	s, _ := v.(string)
	return s
}
