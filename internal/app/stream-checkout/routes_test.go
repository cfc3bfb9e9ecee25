package streamcheckout

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/stream-checkout/internal/config"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/jwt"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/stream-checkout/internal/metrics"
	"github.com/magabrotheeeer/stream-checkout/internal/models"
	"github.com/magabrotheeeer/stream-checkout/internal/services/checkout"
)

type OrderServiceMock struct {
	mock.Mock
}

func (m *OrderServiceMock) Initiate(ctx context.Context, req models.CheckoutInitiationRequest) (checkout.InitiateResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(checkout.InitiateResult), args.Error(1)
}

func (m *OrderServiceMock) Finalize(ctx context.Context, sessionID string, req models.RecipientUpdateRequest) (string, error) {
	args := m.Called(ctx, sessionID, req)
	return args.String(0), args.Error(1)
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T, orders OrderService, limit config.RateLimit) (http.Handler, *jwt.MakerImpl) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveOrder(checkout.StageInitiate, nil)

	maker := jwt.NewJWTMaker("secret", time.Hour)
	r := chi.NewRouter()
	RegisterRoutes(r, Deps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Orders:   orders,
		Tokens:   maker,
		Queues:   rabbitmq.NoopPublisher{},
		Health:   okPinger{},
		Gatherer: reg,
		Limit:    limit,
	})
	return r, maker
}

const recipientBody = `{"first_name":"Alastair","last_name":"Paragas","phone_number":"3054567710",
	"shipping_address":{"address_line1":"1 Market Street","city":"San Jose","postal_code":"95113","state_or_province":"CA"}}`

func TestRoutes_FinalizeRequiresSessionToken(t *testing.T) {
	orders := new(OrderServiceMock)
	orders.On("Finalize", mock.Anything, "SESSION-1", mock.Anything).Return("PO-99", nil).Once()
	router, maker := newTestRouter(t, orders, config.RateLimit{RPS: 100, Burst: 100})

	other, err := maker.GenerateToken("SESSION-2")
	require.NoError(t, err)
	own, err := maker.GenerateToken("SESSION-1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{name: "no token", wantCode: http.StatusUnauthorized},
		{name: "garbage token", token: "garbage", wantCode: http.StatusUnauthorized},
		{name: "token of another session", token: other, wantCode: http.StatusForbidden},
		{name: "own token", token: own, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/SESSION-1/finalize", strings.NewReader(recipientBody))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	orders.AssertExpectations(t)
}

func TestRoutes_InitiateReturnsSessionAndToken(t *testing.T) {
	orders := new(OrderServiceMock)
	orders.On("Initiate", mock.Anything, mock.Anything).
		Return(checkout.InitiateResult{SessionID: "SESSION-1", FinalizeToken: "tok"}, nil).Once()
	router, _ := newTestRouter(t, orders, config.RateLimit{RPS: 100, Burst: 100})

	body, err := json.Marshal(models.CheckoutInitiationRequest{
		ContactEmail: "alastairparagas@gmail.com",
		PhoneNumber:  "3054567710",
		ItemIDs:      []string{"v1|110384331764|410091898866"},
		CreditCard: models.PaymentInstrument{
			AccountHolderName: "Alastair Paragas",
			FirstName:         "Alastair",
			LastName:          "Paragas",
			Brand:             models.BrandVisa,
			CardNumber:        "4111111111111111",
			CVVNumber:         "012",
			ExpireMonth:       "10",
			ExpireYear:        "2023",
			BillingAddress: models.PostalAddress{
				AddressLine1:    "5510 Imperial Drive",
				City:            "San Jose",
				PostalCode:      "95136",
				StateOrProvince: "CA",
			},
		},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/initiate", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","data":{"checkout_session_id":"SESSION-1","finalize_token":"tok"}}`, rec.Body.String())
	orders.AssertExpectations(t)
}

func TestRoutes_OrderRoutesAreRateLimited(t *testing.T) {
	router, _ := newTestRouter(t, new(OrderServiceMock), config.RateLimit{RPS: 0.001, Burst: 1})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/v1/orders/initiate", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/orders/initiate", strings.NewReader("{")))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// остальные маршруты лимит не трогает
	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestRoutes_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, new(OrderServiceMock), config.RateLimit{RPS: 100, Burst: 100})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders/initiate", nil)
	req.Header.Set("Origin", "https://stream.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	// finalize-токен идёт в заголовке, cookie не нужны
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRoutes_MetricsAndQueue(t *testing.T) {
	router, _ := newTestRouter(t, new(OrderServiceMock), config.RateLimit{RPS: 100, Burst: 100})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `streamcheckout_orders_total{result="ok",stage="initiate"} 1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/EBAY_AUTH_TOKEN", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream/raffle/exists/123", nil))
	assert.JSONEq(t, `{"status":"OK","data":{"exists":true}}`, rec.Body.String())
}
