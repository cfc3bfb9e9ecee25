package ebay

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/magabrotheeeer/stream-checkout/internal/config"
	"github.com/magabrotheeeer/stream-checkout/internal/models"
)

// stubUpstream поддельный eBay: пишет порядок вызовов и отдаёт ответы по суффиксу пути.
type stubUpstream struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	calls    []string
	bodies   map[string][]byte
	headers  map[string]http.Header
	handlers map[string]http.HandlerFunc
}

func newStubUpstream(t *testing.T) *stubUpstream {
	s := &stubUpstream{
		t:        t,
		bodies:   map[string][]byte{},
		headers:  map[string]http.Header{},
		handlers: map[string]http.HandlerFunc{},
	}
	s.handle("/identity/v1/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "test-token",
			"token_type":   "Application Access Token",
			"expires_in":   7200,
		})
	})
	s.server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.server.Close)
	return s
}

func (s *stubUpstream) handle(suffix string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[suffix] = h
}

func (s *stubUpstream) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.t.Errorf("failed to read upstream body: %v", err)
	}

	s.mu.Lock()
	var handler http.HandlerFunc
	for suffix, h := range s.handlers {
		if strings.HasSuffix(r.URL.Path, suffix) {
			handler = h
			break
		}
	}
	s.calls = append(s.calls, r.URL.Path)
	s.bodies[r.URL.Path] = body
	s.headers[r.URL.Path] = r.Header.Clone()
	s.mu.Unlock()

	if handler == nil {
		s.t.Errorf("unexpected upstream call %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	handler(w, r)
}

func (s *stubUpstream) callPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubUpstream) body(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[path]
}

func (s *stubUpstream) header(path string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[path]
}

func (s *stubUpstream) count(path string) int {
	n := 0
	for _, c := range s.callPaths() {
		if c == path {
			n++
		}
	}
	return n
}

func (s *stubUpstream) ebayConfig() config.Ebay {
	return config.Ebay{
		ClientID:         "client-id",
		ClientSecret:     "client-secret",
		BaseAPIURL:       s.server.URL,
		Hostname:         "stream.example.com",
		MarketplaceID:    "EBAY_US",
		RequestTimeout:   5 * time.Second,
		TokenDefaultTTL:  time.Hour,
		TokenRefreshSkew: time.Minute,
	}
}

func (s *stubUpstream) client() (*Client, *TokenProvider) {
	cfg := s.ebayConfig()
	tokens := NewTokenProvider(cfg, s.server.Client())
	return NewClient(cfg, tokens, s.server.Client()), tokens
}

// cachedCredential читает кеш провайдера без обращения к eBay.
func cachedCredential(p *TokenProvider) Credential {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, raw []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("failed to decode upstream body %q: %v", raw, err)
	}
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

func exampleRecipient() models.RecipientUpdateRequest {
	return models.RecipientUpdateRequest{
		FirstName:   "Alastair",
		LastName:    "Paragas",
		PhoneNumber: "3054567710",
		ShippingAddress: models.PostalAddress{
			AddressLine1:    "1 Market Street",
			City:            "San Jose",
			PostalCode:      "95113",
			StateOrProvince: "CA",
		},
	}
}
