package handler_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"agritech/internal/domain/model"
	"agritech/internal/infra/paypack"
	"agritech/internal/testutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderPayload() map[string]interface{} {
	return map[string]interface{}{
		"quantity":       2,
		"paymentChannel": "MOMO",
		"shippingAddress": map[string]string{
			"fullName":      "Aline Uwase",
			"phoneNumber":   "0781234567",
			"streetAddress": "KG 11 Ave",
			"city":          "Kigali",
		},
	}
}

// placeOrder returns the new order's public id.
func placeOrder(t *testing.T, app *testApp, buyerTok string, productID int64) string {
	t.Helper()
	rec := app.doJSON(t, http.MethodPost, "/order/add/"+strconv.FormatInt(productID, 10), buyerTok, orderPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeBody(t, rec)["order"].(map[string]interface{})
	return order["orderId"].(string)
}

func (a *testApp) notify(t *testing.T, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, apiBase+"/payment/paypack/notify", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(paypack.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestOrderRoutes(t *testing.T) {
	app := newTestApp(t)
	seller := testutil.SeedUser(t, app.db, "seller@example.com", model.RoleSeller)
	buyer := testutil.SeedUser(t, app.db, "buyer@example.com", model.RoleBuyer)
	admin := testutil.SeedUser(t, app.db, "admin@example.com", model.RoleAdmin)
	p := app.seedProduct(t, seller.ID, 3)
	buyerTok, sellerTok := app.tokenFor(t, buyer), app.tokenFor(t, seller)

	orderID := placeOrder(t, app, buyerTok, p.ID)

	var stock int64
	require.NoError(t, app.db.Model(&model.Product{}).Where("id = ?", p.ID).Pluck("stock", &stock).Error)
	assert.Equal(t, int64(1), stock)

	rec := app.doJSON(t, http.MethodPost, "/order/add/"+strconv.FormatInt(p.ID, 10), buyerTok, orderPayload())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient stock", decodeError(t, rec).Message)

	rec = app.doJSON(t, http.MethodPost, "/order/add/9999", buyerTok, orderPayload())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product with ID 9999 not found", decodeError(t, rec).Message)

	rec = app.doJSON(t, http.MethodPost, "/order/add/"+strconv.FormatInt(p.ID, 10), sellerTok, orderPayload())
	assert.Equal(t, http.StatusBadRequest, rec.Code, "sellers cannot buy their own product")

	bad := orderPayload()
	bad["paymentChannel"] = "BITCOIN"
	rec = app.doJSON(t, http.MethodPost, "/order/add/"+strconv.FormatInt(p.ID, 10), buyerTok, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.doJSON(t, http.MethodGet, "/order/getByBuyerId", buyerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["orders"], 1)

	rec = app.doJSON(t, http.MethodGet, "/order/getBySellerId", sellerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["orders"], 1)

	rec = app.doJSON(t, http.MethodGet, "/order/getAll", buyerTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.doJSON(t, http.MethodGet, "/order/getAll", app.tokenFor(t, admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.doJSON(t, http.MethodPatch, "/order/status/"+orderID, buyerTok, map[string]string{"status": "Shipped"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.doJSON(t, http.MethodPatch, "/order/status/"+orderID, sellerTok, map[string]string{"status": "Shipped"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Shipped", decodeBody(t, rec)["order"].(map[string]interface{})["orderStatus"])

	rec = app.doJSON(t, http.MethodPatch, "/order/status/"+orderID, sellerTok, map[string]string{"status": "Cancelled"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, app.db.Model(&model.Product{}).Where("id = ?", p.ID).Pluck("stock", &stock).Error)
	assert.Equal(t, int64(3), stock, "cancelling restores stock")

	rec = app.doJSON(t, http.MethodPatch, "/order/status/"+orderID, sellerTok, map[string]string{"status": "Pending"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Contains(t, app.publisher.topics, "order-events")
}

func TestPaymentFlow_InitiateAndWebhook(t *testing.T) {
	app := newTestApp(t)
	seller := testutil.SeedUser(t, app.db, "seller@example.com", model.RoleSeller)
	buyer := testutil.SeedUser(t, app.db, "buyer@example.com", model.RoleBuyer)
	stranger := testutil.SeedUser(t, app.db, "stranger@example.com", model.RoleBuyer)
	p := app.seedProduct(t, seller.ID, 5)
	buyerTok := app.tokenFor(t, buyer)
	orderID := placeOrder(t, app, buyerTok, p.ID)

	rec := app.doJSON(t, http.MethodPost, "/payment/paypack/initiate/"+orderID, app.tokenFor(t, stranger), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.doJSON(t, http.MethodPost, "/payment/paypack/initiate/"+orderID, buyerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Payment request sent to user phone", body["message"])
	ref := body["reference"].(string)
	assert.Contains(t, ref, "TX-"+orderID+"-")
	require.Len(t, app.gateway.cashIns, 1)
	assert.Equal(t, "3000", app.gateway.cashIns[0].Amount.String())

	// the first request is still live, its reference must not be replaced
	rec = app.doJSON(t, http.MethodPost, "/payment/paypack/initiate/"+orderID, buyerTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, app.gateway.cashIns, 1)

	payload := []byte(`{"ref":"` + ref + `","status":"successful"}`)

	rec = app.notify(t, payload, paypack.Sign("wrong-secret", payload))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid signature", decodeError(t, rec).Message)

	rec = app.notify(t, payload, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.notify(t, payload, paypack.Sign(testWebhookSecret, payload))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Notification processed successfully", decodeBody(t, rec)["message"])

	var stored model.Order
	require.NoError(t, app.db.Where("order_id = ?", orderID).First(&stored).Error)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.True(t, stored.PaymentVerified)
	assert.NotNil(t, stored.PaymentTimestamp)

	// a late failure report cannot undo a payment
	failed := []byte(`{"ref":"` + ref + `","status":"failed"}`)
	rec = app.notify(t, failed, paypack.Sign(testWebhookSecret, failed))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, app.db.Where("order_id = ?", orderID).First(&stored).Error)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)

	rec = app.doJSON(t, http.MethodPost, "/payment/paypack/initiate/"+orderID, buyerTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "already paid")

	unknown := []byte(`{"ref":"TX-nope","status":"successful"}`)
	rec = app.notify(t, unknown, paypack.Sign(testWebhookSecret, unknown))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Contains(t, app.publisher.topics, "payment-events")
}

func TestPaymentVerify(t *testing.T) {
	app := newTestApp(t)
	seller := testutil.SeedUser(t, app.db, "seller@example.com", model.RoleSeller)
	buyer := testutil.SeedUser(t, app.db, "buyer@example.com", model.RoleBuyer)
	p := app.seedProduct(t, seller.ID, 5)
	buyerTok := app.tokenFor(t, buyer)
	orderID := placeOrder(t, app, buyerTok, p.ID)

	rec := app.doJSON(t, http.MethodPost, "/payment/paypack/initiate/"+orderID, buyerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ref := decodeBody(t, rec)["reference"].(string)

	rec = app.doJSON(t, http.MethodGet, "/payment/paypack/verify", buyerTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.doJSON(t, http.MethodGet, "/payment/paypack/verify?transactionId=TX-unknown", buyerTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// another account cannot read or settle someone else's order
	stranger := testutil.SeedUser(t, app.db, "stranger@example.com", model.RoleBuyer)
	app.gateway.statuses[ref] = "SUCCESSFUL"
	rec = app.doJSON(t, http.MethodGet, "/payment/paypack/verify?transactionId="+ref, app.tokenFor(t, stranger), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "shippingAddress")

	app.gateway.statuses[ref] = "pending"
	rec = app.doJSON(t, http.MethodGet, "/payment/paypack/verify?transactionId="+ref, buyerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Payment not successful yet", body["message"])
	assert.Equal(t, "pending", body["status"])

	app.gateway.statuses[ref] = "SUCCESSFUL"
	rec = app.doJSON(t, http.MethodGet, "/payment/paypack/verify?transactionId="+ref, buyerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Payment verified", body["message"])
	assert.Equal(t, "Paid", body["order"].(map[string]interface{})["paymentStatus"])

	app.gateway.statuses[ref] = ""
	rec = app.doJSON(t, http.MethodGet, "/payment/paypack/verify?transactionId="+ref, buyerTok, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "invalid payment data received", decodeError(t, rec).Message)
}

func TestPaymentHealth(t *testing.T) {
	app := newTestApp(t)
	buyer := testutil.SeedUser(t, app.db, "buyer@example.com", model.RoleBuyer)
	tok := app.tokenFor(t, buyer)

	rec := app.doJSON(t, http.MethodGet, "/payment/paypack/health", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])

	app.gateway.tokenErr = errors.New("paypack auth: 401")
	rec = app.doJSON(t, http.MethodGet, "/payment/paypack/health", tok, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, "paypack auth: 401", body["detail"])

	rec = app.doJSON(t, http.MethodGet, "/payment/paypack/health", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
