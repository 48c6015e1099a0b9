package handler

import (
	"net/http"
	"time"

	"agritech/internal/domain/model"
	"agritech/internal/middleware"
	"agritech/internal/usecase"
	"agritech/internal/validator"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc        *usecase.OrderUsecase
	validator *validator.Validator
}

func NewOrderHandler(uc *usecase.OrderUsecase, v *validator.Validator) *OrderHandler {
	return &OrderHandler{uc: uc, validator: v}
}

func (h *OrderHandler) RegisterRoutes(g *echo.Group, guards Guards) {
	orders := g.Group("/order")

	orders.POST("/add/:productId", h.create, guards.authed()...)
	orders.GET("/getAll", h.listAll, guards.authed(middleware.RequireRoles(model.RoleAdmin))...)
	orders.GET("/getByBuyerId", h.listByBuyer, guards.authed()...)
	orders.GET("/getBySellerId", h.listBySeller, guards.authed(middleware.RequireRoles(model.RoleSeller, model.RoleAdmin))...)
	orders.PATCH("/status/:orderId", h.updateStatus, guards.authed(middleware.RequireRoles(model.RoleSeller, model.RoleAdmin))...)
}

type placeOrderRequest struct {
	Quantity        int64                 `json:"quantity"`
	PaymentChannel  model.PaymentChannel  `json:"paymentChannel"`
	Currency        string                `json:"currency"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	DeliveryDate    *time.Time            `json:"deliveryDate"`
}

type orderStatusRequest struct {
	Status       model.OrderStatus `json:"status"`
	DeliveryDate *time.Time        `json:"deliveryDate"`
}

// POST /order/add/:productId
func (h *OrderHandler) create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "productId")
	if err != nil {
		return err
	}

	var req placeOrderRequest
	if err := readJSON(c, h.validator, validator.SchemaOrderCreate, &req); err != nil {
		return err
	}

	o, err := h.uc.Place(c.Request().Context(), a, usecase.PlaceOrderInput{
		ProductID:       productID,
		Quantity:        req.Quantity,
		PaymentChannel:  req.PaymentChannel,
		Currency:        req.Currency,
		ShippingAddress: req.ShippingAddress,
		DeliveryDate:    req.DeliveryDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"order":   o,
	})
}

// GET /order/getAll
func (h *OrderHandler) listAll(c echo.Context) error {
	orders, err := h.uc.ListAll(c.Request().Context())
	return ordersResponse(c, orders, err)
}

// GET /order/getByBuyerId
func (h *OrderHandler) listByBuyer(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	orders, err := h.uc.ListByBuyer(c.Request().Context(), a.UserID)
	return ordersResponse(c, orders, err)
}

// GET /order/getBySellerId
func (h *OrderHandler) listBySeller(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	orders, err := h.uc.ListBySeller(c.Request().Context(), a.UserID)
	return ordersResponse(c, orders, err)
}

// PATCH /order/status/:orderId
func (h *OrderHandler) updateStatus(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var req orderStatusRequest
	if err := readJSON(c, h.validator, validator.SchemaOrderStatus, &req); err != nil {
		return err
	}

	o, err := h.uc.UpdateStatus(c.Request().Context(), a, c.Param("orderId"), usecase.UpdateOrderStatusInput{
		Status:       req.Status,
		DeliveryDate: req.DeliveryDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order status updated successfully",
		"order":   o,
	})
}

func ordersResponse(c echo.Context, orders []model.Order, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}
