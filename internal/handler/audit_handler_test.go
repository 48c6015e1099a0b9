package handler_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"agritech/internal/domain/model"
	gormrepo "agritech/internal/infra/repository"
	"agritech/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditList_Filters(t *testing.T) {
	app := newTestApp(t)
	admin := testutil.SeedUser(t, app.db, "admin@example.com", model.RoleAdmin)
	seller := testutil.SeedUser(t, app.db, "seller@example.com", model.RoleSeller)
	tok := app.tokenFor(t, admin)

	audit := gormrepo.NewAuditLogGormRepository(app.db)
	ctx := context.Background()
	require.NoError(t, audit.Create(ctx, model.AuditLog{
		ActorUserID:  seller.ID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   1,
	}))
	require.NoError(t, audit.Create(ctx, model.AuditLog{
		ActorUserID:  model.SystemActorID,
		Action:       model.AuditActionPaymentStatusChanged,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   1,
	}))

	rec := app.doJSON(t, http.MethodGet, "/audit/getAll?resourceType=order&resourceId=1", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(2), decodeBody(t, rec)["count"])

	rec = app.doJSON(t, http.MethodGet, "/audit/getAll?actorId=0", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, float64(1), body["count"])
	entry := body["logs"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "PAYMENT_STATUS_CHANGED", entry["action"])

	from := url.QueryEscape(time.Now().Add(time.Hour).Format(time.RFC3339))
	rec = app.doJSON(t, http.MethodGet, "/audit/getAll?from="+from, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeBody(t, rec)["count"])

	for _, q := range []string{"from=yesterday", "actorId=-1", "limit=abc", "limit=500"} {
		rec = app.doJSON(t, http.MethodGet, "/audit/getAll?"+q, tok, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}

	rec = app.doJSON(t, http.MethodGet, "/audit/getAll", app.tokenFor(t, seller), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
