package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"agritech/internal/domain/model"
	"agritech/internal/handler"
	"agritech/internal/infra/paypack"
	gormrepo "agritech/internal/infra/repository"
	"agritech/internal/middleware"
	"agritech/internal/testutil"
	"agritech/internal/usecase"
	auth "agritech/internal/usecase/auth_usecase"
	"agritech/internal/validator"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testJWTSecret     = "handler-test-secret"
	testWebhookSecret = "webhook-secret"
	apiBase           = "/agritech/v1"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type uuidGen struct{}

func (uuidGen) NewID() string { return uuid.NewString() }

type fakeGateway struct {
	mu       sync.Mutex
	tokenErr error
	statuses map[string]string
	cashIns  []paypack.CashIn
}

func (g *fakeGateway) Token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.tokenErr != nil {
		return "", g.tokenErr
	}
	return "token", nil
}

func (g *fakeGateway) InitiatePayment(ctx context.Context, in paypack.CashIn) (paypack.Ack, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cashIns = append(g.cashIns, in)
	return paypack.Ack{Reference: in.Reference, Status: "pending", Amount: in.Amount.IntPart()}, nil
}

func (g *fakeGateway) QueryTransaction(ctx context.Context, reference string) (paypack.TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.statuses[reference]
	raw, _ := json.Marshal(map[string]string{"ref": reference, "status": st})
	return paypack.TransactionStatus{Reference: reference, Status: st, Raw: raw}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(ctx context.Context, topic, key string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (u *memoryUploader) Upload(ctx context.Context, img usecase.ImageFile) (usecase.UploadedImage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	id := "agrli-app/" + uuid.NewString()
	u.objects[id] = img.Data
	return usecase.UploadedImage{URL: "https://cdn.example.com/" + id, PublicID: id}, nil
}

func (u *memoryUploader) Delete(ctx context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, publicID)
	return nil
}

type testApp struct {
	e         *echo.Echo
	db        *gorm.DB
	gateway   *fakeGateway
	publisher *recordingPublisher
	uploader  *memoryUploader
	issuer    *auth.JWTIssuer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	logger := zap.NewNop()
	clock := systemClock{}

	users := gormrepo.NewUserGormRepository(db)
	products := gormrepo.NewProductGormRepository(db)
	orders := gormrepo.NewOrderGormRepository(db)
	audit := gormrepo.NewAuditLogGormRepository(db)
	tx := gormrepo.NewTxManagerGorm(db)

	v, err := validator.New()
	require.NoError(t, err)
	issuer, err := auth.NewJWTIssuer(testJWTSecret, time.Hour)
	require.NoError(t, err)

	app := &testApp{
		db:        db,
		gateway:   &fakeGateway{statuses: map[string]string{}},
		publisher: &recordingPublisher{},
		uploader:  &memoryUploader{objects: map[string][]byte{}},
		issuer:    issuer,
	}

	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)
	authH := handler.NewAuthHandler(
		auth.NewRegisterUserUsecase(users, hasher, clock),
		auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), issuer, clock),
		v,
	)
	userH := handler.NewUserHandler(usecase.NewUserUsecase(users, audit, hasher, clock, logger), v)
	productH := handler.NewProductHandler(usecase.NewProductUsecase(products, tx, app.uploader, clock, logger), v)
	orderH := handler.NewOrderHandler(usecase.NewOrderUsecase(orders, tx, app.publisher, clock, uuidGen{}, "order-events", logger), v)
	paymentH := handler.NewPaymentHandler(usecase.NewPaymentUsecase(
		orders, users, tx, app.gateway, app.publisher, clock, uuidGen{},
		usecase.PaymentConfig{CallbackURL: "https://api.example.com/notify", WebhookSecret: testWebhookSecret, EventTopic: "payment-events"},
		logger,
	), true)
	auditH := handler.NewAuditHandler(usecase.NewAuditUsecase(audit))

	e := echo.New()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(true, logger)
	g := e.Group(apiBase)
	guards := handler.Guards{
		Auth: []echo.MiddlewareFunc{middleware.AuthJWT(testJWTSecret), middleware.ActiveUserGuard(users, logger)},
	}
	authH.RegisterRoutes(g, guards)
	userH.RegisterRoutes(g, guards)
	productH.RegisterRoutes(g, guards)
	orderH.RegisterRoutes(g, guards)
	paymentH.RegisterRoutes(g, guards)
	auditH.RegisterRoutes(g, guards)

	app.e = e
	return app
}

func (a *testApp) tokenFor(t *testing.T, u *model.User) string {
	t.Helper()
	tok, _, err := a.issuer.Issue(*u, time.Now())
	require.NoError(t, err)
	return tok
}

func (a *testApp) seedProduct(t *testing.T, sellerID int64, stock int64) *model.Product {
	t.Helper()
	p := &model.Product{
		SellerID:    sellerID,
		Name:        "Yellow Maize",
		Description: "dry yellow maize, 50kg bags",
		Price:       decimal.NewFromInt(1500),
		Category:    "grains",
		Stock:       stock,
		Location:    "Musanze",
	}
	require.NoError(t, a.db.Create(p).Error)
	return p
}

func (a *testApp) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, apiBase+path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) doJSON(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return a.do(t, method, path, token, body, echo.MIMEApplicationJSON)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var out handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
