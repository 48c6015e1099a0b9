package handler

import (
	"io"
	"net/http"

	"agritech/internal/domain/model"
	"agritech/internal/infra/paypack"
	"agritech/internal/usecase"

	"github.com/labstack/echo/v4"
)

const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
	// expose provider error detail on /health
	dev bool
}

func NewPaymentHandler(uc *usecase.PaymentUsecase, dev bool) *PaymentHandler {
	return &PaymentHandler{uc: uc, dev: dev}
}

func (h *PaymentHandler) RegisterRoutes(g *echo.Group, guards Guards) {
	pp := g.Group("/payment/paypack")

	pp.POST("/initiate/:orderId", h.initiate, guards.authed()...)
	pp.GET("/verify", h.verify, guards.authed()...)
	pp.GET("/health", h.health, guards.authed()...)
	// provider callback, authenticated by signature
	pp.POST("/notify", h.notify, guards.webhookRate()...)
}

// POST /payment/paypack/initiate/:orderId
func (h *PaymentHandler) initiate(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	out, err := h.uc.Initiate(c.Request().Context(), a, c.Param("orderId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       "Payment request sent to user phone",
		"reference":     out.Reference,
		"orderId":       out.OrderID,
		"paymentStatus": out.PaymentStatus,
		"amount":        out.Amount,
	})
}

// GET /payment/paypack/verify?transactionId=
func (h *PaymentHandler) verify(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	out, err := h.uc.Verify(c.Request().Context(), a, c.QueryParam("transactionId"))
	if err != nil {
		return err
	}
	if out.PaymentStatus == string(model.PaymentStatusPaid) {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Payment verified",
			"order":   out.Order,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       false,
		"message":       "Payment not successful yet",
		"status":        out.ProviderStatus,
		"paymentStatus": out.PaymentStatus,
	})
}

// POST /payment/paypack/notify
func (h *PaymentHandler) notify(c echo.Context) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		return err
	}
	if _, err := h.uc.HandleWebhook(c.Request().Context(), body, c.Request().Header.Get(paypack.SignatureHeader)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Notification processed successfully",
	})
}

// GET /payment/paypack/health
func (h *PaymentHandler) health(c echo.Context) error {
	st := h.uc.Health(c.Request().Context())
	if st.Healthy {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"status":  "healthy",
		})
	}
	body := map[string]interface{}{
		"success": false,
		"status":  "unavailable",
	}
	if h.dev {
		body["detail"] = st.Detail
	}
	return c.JSON(http.StatusServiceUnavailable, body)
}
