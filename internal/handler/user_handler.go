package handler

import (
	"net/http"

	"agritech/internal/domain/model"
	"agritech/internal/middleware"
	"agritech/internal/usecase"
	"agritech/internal/validator"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	uc        *usecase.UserUsecase
	validator *validator.Validator
}

func NewUserHandler(uc *usecase.UserUsecase, v *validator.Validator) *UserHandler {
	return &UserHandler{uc: uc, validator: v}
}

func (h *UserHandler) RegisterRoutes(g *echo.Group, guards Guards) {
	users := g.Group("/user")
	adminOnly := middleware.RequireRoles(model.RoleAdmin)

	users.GET("/getUserProfile", h.profile, guards.authed()...)
	users.GET("/getAll", h.list, guards.authed(adminOnly)...)
	users.GET("/getById/:id", h.get, guards.authed()...)
	users.PUT("/update/:id", h.update, guards.authed()...)
	users.DELETE("/delete/:id", h.delete, guards.authed(adminOnly)...)
}

type updateUserRequest struct {
	Username    *string     `json:"username"`
	Email       *string     `json:"email"`
	Password    *string     `json:"password"`
	Address     *string     `json:"address"`
	PhoneNumber *string     `json:"phoneNumber"`
	Role        *model.Role `json:"role"`
}

// GET /user/getUserProfile
func (h *UserHandler) profile(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	u, err := h.uc.Profile(c.Request().Context(), a)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "user found successfully",
		"user":    u,
	})
}

// GET /user/getAll
func (h *UserHandler) list(c echo.Context) error {
	users, err := h.uc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "users found successfully",
		"size":    len(users),
		"users":   users,
	})
}

// GET /user/getById/:id
func (h *UserHandler) get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "user found successfully",
		"user":    u,
	})
}

// PUT /user/update/:id
func (h *UserHandler) update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := readJSON(c, h.validator, validator.SchemaUserUpdate, &req); err != nil {
		return err
	}

	u, err := h.uc.Update(c.Request().Context(), a, id, usecase.UpdateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Successfully updated user profile",
		"user":    u,
	})
}

// DELETE /user/delete/:id
func (h *UserHandler) delete(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.Request().Context(), a, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Successfully deleted user",
	})
}
