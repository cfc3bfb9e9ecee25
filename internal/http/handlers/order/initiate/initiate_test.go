package initiate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/stream-checkout/internal/ebay"
	"github.com/magabrotheeeer/stream-checkout/internal/models"
	"github.com/magabrotheeeer/stream-checkout/internal/services/checkout"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Initiate(ctx context.Context, req models.CheckoutInitiationRequest) (checkout.InitiateResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(checkout.InitiateResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func examplePlacement() models.CheckoutInitiationRequest {
	return models.CheckoutInitiationRequest{
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
				AddressLine2:    "Apt 1234",
				City:            "San Jose",
				PostalCode:      "95136",
				StateOrProvince: "CA",
			},
		},
	}
}

func TestInitiateHandler_ServeHTTP(t *testing.T) {
	noEmail := examplePlacement()
	noEmail.ContactEmail = ""
	badBrand := examplePlacement()
	badBrand.CreditCard.Brand = "Mir"

	tests := []struct {
		name           string
		requestBody    any
		mockResult     *checkout.InitiateResult
		mockErr        error
		wantStatusCode int
		wantStatus     string
		wantError      string
		wantData       map[string]any
	}{
		{
			name:           "valid request",
			requestBody:    examplePlacement(),
			mockResult:     &checkout.InitiateResult{SessionID: "SESSION-1", FinalizeToken: "tok"},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
			wantData: map[string]any{
				"checkout_session_id": "SESSION-1",
				"finalize_token":      "tok",
			},
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "missing contact email",
			requestBody:    noEmail,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
			wantError:      "field ContactEmail is a required field",
		},
		{
			name:           "unknown card brand",
			requestBody:    badBrand,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
			wantError:      "field Brand must be one of [Visa MasterCard AmEx Discover]",
		},
		{
			name:           "upstream checkout error",
			requestBody:    examplePlacement(),
			mockResult:     &checkout.InitiateResult{},
			mockErr:        fmt.Errorf("checkout.Initiate: %w", ebay.ErrUpstreamCheckout),
			wantStatusCode: http.StatusBadGateway,
			wantStatus:     "Error",
			wantError:      "checkout provider error",
		},
		{
			name:           "upstream auth error",
			requestBody:    examplePlacement(),
			mockResult:     &checkout.InitiateResult{},
			mockErr:        fmt.Errorf("checkout.Initiate: %w", ebay.ErrUpstreamAuth),
			wantStatusCode: http.StatusBadGateway,
			wantStatus:     "Error",
			wantError:      "checkout provider error",
		},
		{
			name:           "store error",
			requestBody:    examplePlacement(),
			mockResult:     &checkout.InitiateResult{},
			mockErr:        errors.New("session.Save: redis down"),
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
			wantError:      "failed to initiate checkout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.mockResult != nil {
				svc.On("Initiate", mock.Anything, tt.requestBody.(models.CheckoutInitiationRequest)).
					Return(*tt.mockResult, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), svc)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/initiate", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}
			if tt.wantData != nil {
				assert.Equal(t, tt.wantData, got["data"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestInitiateHandler_DecodesSnakeCaseBody(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Initiate", mock.Anything, examplePlacement()).
		Return(checkout.InitiateResult{SessionID: "SESSION-1", FinalizeToken: "tok"}, nil).Once()

	body := `{
		"contact_email": "alastairparagas@gmail.com",
		"phone_number": "3054567710",
		"item_ids": ["v1|110384331764|410091898866"],
		"credit_card": {
			"account_holder_name": "Alastair Paragas",
			"first_name": "Alastair",
			"last_name": "Paragas",
			"brand": "Visa",
			"card_number": "4111111111111111",
			"cvv_number": "012",
			"expire_month": "10",
			"expire_year": "2023",
			"billing_address": {
				"address_line1": "5510 Imperial Drive",
				"address_line2": "Apt 1234",
				"city": "San Jose",
				"postal_code": "95136",
				"state_or_province": "CA"
			}
		}
	}`
	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/initiate", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
