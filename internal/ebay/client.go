package ebay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/stream-checkout/internal/config"
)

// Операции upstream для метрик и логов.
const (
	OperationToken          = "token"
	OperationInitiate       = "initiate"
	OperationUpdateShipping = "update_shipping_address"
	OperationPlaceOrder     = "place_order"
)

const checkoutSessionPath = "/buy/order/v1/guest_checkout_session"

// Observer получает длительность и статус каждого вызова eBay.
type Observer interface {
	ObserveUpstream(operation, status string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveUpstream(string, string, time.Duration) {}

// Tokens источник bearer-токена для вызовов Buy Order API.
type Tokens interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Client клиент гостевого checkout eBay.
type Client struct {
	baseURL       string
	placeOrderURL string
	marketplaceID string
	tokens        Tokens
	httpClient    *http.Client
	observer      Observer
}

// NewClient создаёт клиент Buy Order API. Один http.Client переиспользуется всеми вызовами.
func NewClient(cfg config.Ebay, tokens Tokens, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	placeOrderURL := cfg.PlaceOrderBaseURL
	if placeOrderURL == "" {
		placeOrderURL = cfg.BaseAPIURL
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseAPIURL, "/"),
		placeOrderURL: strings.TrimRight(placeOrderURL, "/"),
		marketplaceID: cfg.MarketplaceID,
		tokens:        tokens,
		httpClient:    httpClient,
		observer:      nopObserver{},
	}
}

// WithObserver подключает сбор метрик по вызовам checkout.
func (c *Client) WithObserver(o Observer) *Client {
	if o != nil {
		c.observer = o
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, token, url string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.marketplaceID != "" {
		req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplaceID)
	}
	return req, nil
}

// post выполняет один вызов checkout и декодирует ответ в out.
// Любая ошибка транспорта, статус не 2xx или битый JSON возвращаются как ErrUpstreamCheckout.
func (c *Client) post(ctx context.Context, operation, url string, body, out any) error {
	op := "ebay.Client." + operation

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := c.newRequest(ctx, token, url, body)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrUpstreamCheckout, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observer.ObserveUpstream(operation, "error", time.Since(start))
		return fmt.Errorf("%s: %w: %v", op, ErrUpstreamCheckout, err)
	}
	defer resp.Body.Close()
	c.observer.ObserveUpstream(operation, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w: unexpected status %s%s", op, ErrUpstreamCheckout, resp.Status, upstreamMessage(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: decode response: %v", op, ErrUpstreamCheckout, err)
	}
	return nil
}

func upstreamMessage(body io.Reader) string {
	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&er); err != nil || len(er.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf(": %d %s", er.Errors[0].ErrorID, er.Errors[0].Message)
}
