package handler

import (
	"errors"
	"net/http"

	"agritech/internal/domain/model"
	"agritech/internal/usecase"
	auth "agritech/internal/usecase/auth_usecase"
	"agritech/internal/validator"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase
	loginUC    *auth.LoginUsecase
	validator  *validator.Validator
}

// DI
func NewAuthHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	v *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
		validator:  v,
	}
}

func (h *AuthHandler) RegisterRoutes(g *echo.Group, guards Guards) {
	users := g.Group("/user")
	users.POST("/signup", h.signup, guards.authRate()...)
	users.POST("/signin", h.signin, guards.authRate()...)
}

type signupRequest struct {
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirmPassword"`
	Address         string     `json:"address"`
	PhoneNumber     string     `json:"phoneNumber"`
	Role            model.Role `json:"role"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userSummary struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        model.Role `json:"role"`
	PhoneNumber string     `json:"phoneNumber"`
	Address     string     `json:"address"`
}

// POST /user/signup
func (h *AuthHandler) signup(c echo.Context) error {
	var req signupRequest
	if err := readJSON(c, h.validator, validator.SchemaSignup, &req); err != nil {
		return err
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Address:         req.Address,
		PhoneNumber:     req.PhoneNumber,
		Role:            req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordMismatch):
			return usecase.NewValidationError("Password and Confirm Password do not match.")
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			return usecase.NewValidationError("Email already exists.")
		case errors.Is(err, auth.ErrPasswordTooShort):
			return usecase.NewValidationError("password must be at least 6 characters")
		case errors.Is(err, auth.ErrRoleNotAllowed):
			return usecase.NewValidationError("role must be Buyer or Seller")
		}
		return usecase.NewInternal(err)
	}

	u := out.User
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "User created successfully",
		"user": userSummary{
			ID:          u.ID,
			Username:    u.Username,
			Email:       u.Email,
			Role:        u.Role,
			PhoneNumber: u.PhoneNumber,
			Address:     u.Address,
		},
	})
}

// POST /user/signin
func (h *AuthHandler) signin(c echo.Context) error {
	var req signinRequest
	if err := readJSON(c, h.validator, validator.SchemaSignin, &req); err != nil {
		return err
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return usecase.NewUnauthorized("Invalid email or password")
		}
		return usecase.NewInternal(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "User logged in successfully",
		"token":     out.Token,
		"expiresAt": out.ExpiresAt,
	})
}
