package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"agritech/internal/middleware"
	"agritech/internal/usecase"
	"agritech/internal/validator"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	ErrorType string `json:"errorType"`
	Status    int    `json:"status"`
	Message   string `json:"message"`
	// development only
	Detail string `json:"detail,omitempty"`
}

// NewHTTPErrorHandler renders every error returned by handlers and middleware.
// Causes are logged; they reach the client only when dev is set.
func NewHTTPErrorHandler(dev bool, logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he := toHTTPError(err)
		if he.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("path", c.Path()),
				zap.Int("status", he.Status),
				zap.String("error_type", he.Type),
				zap.Error(err),
			)
		}

		body := ErrorResponse{
			Success:   false,
			ErrorType: he.Type,
			Status:    he.Status,
			Message:   he.Message,
		}
		if dev {
			body.Detail = he.Detail
			if body.Detail == "" && he.Err != nil {
				body.Detail = he.Err.Error()
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Status)
		} else {
			werr = c.JSON(he.Status, body)
		}
		if werr != nil {
			logger.Error("write error response", zap.Error(werr))
		}
	}
}

func toHTTPError(err error) *usecase.HTTPError {
	if he, ok := usecase.AsHTTPError(err); ok {
		return he
	}

	var verr *validator.Error
	if errors.As(err, &verr) {
		return &usecase.HTTPError{Status: http.StatusBadRequest, Type: usecase.ErrTypeValidation, Message: verr.Error()}
	}

	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return &usecase.HTTPError{Status: http.StatusRequestEntityTooLarge, Type: usecase.ErrTypeValidation, Message: "request body too large"}
	}

	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		out := usecase.NewHTTPError(ee.Code, fmt.Sprint(ee.Message)).(*usecase.HTTPError)
		if ee.Internal != nil {
			out.Err = ee.Internal
		}
		return out
	}

	return usecase.NewInternal(err).(*usecase.HTTPError)
}

// readJSON reads the body once, checks it against schema and decodes it into dst.
func readJSON(c echo.Context, v *validator.Validator, schema validator.Schema, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxJSONBody))
	if err != nil {
		return err
	}
	if err := v.ValidateJSON(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return usecase.NewValidationError("request body must be valid JSON")
	}
	return nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewValidationError("invalid " + name)
	}
	return id, nil
}

func actor(c echo.Context) (usecase.Actor, error) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		return usecase.Actor{}, usecase.NewUnauthorized("unauthorized")
	}
	return a, nil
}
