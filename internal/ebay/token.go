// Package ebay реализует клиент eBay Buy Order API для гостевого оформления заказа:
// получение OAuth-токена приложения, открытие checkout-сессии, обновление адреса
// доставки и размещение заказа.
package ebay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/stream-checkout/internal/config"
)

// Scopes права токена на гостевое оформление заказа.
var Scopes = []string{
	"https://api.ebay.com/oauth/api_scope",
	"https://api.ebay.com/oauth/api_scope/buy.guest.order",
}

const tokenPath = "/identity/v1/oauth2/token"

// Credential bearer-токен и момент, после которого он считается просроченным.
type Credential struct {
	Value     string
	ExpiresAt time.Time
}

func (c Credential) usable(now time.Time, skew time.Duration) bool {
	return c.Value != "" && now.Add(skew).Before(c.ExpiresAt)
}

// TokenProvider получает токен по client_credentials и держит текущее значение в кеше.
type TokenProvider struct {
	oauth      clientcredentials.Config
	httpClient *http.Client
	defaultTTL time.Duration
	skew       time.Duration
	observer   Observer
	now        func() time.Time

	mu      sync.RWMutex
	current Credential
	flight  singleflight.Group
}

// NewTokenProvider создаёт провайдер токенов для приложения из cfg.
func NewTokenProvider(cfg config.Ebay, httpClient *http.Client) *TokenProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &TokenProvider{
		oauth: clientcredentials.Config{
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			TokenURL:       cfg.BaseAPIURL + tokenPath,
			Scopes:         Scopes,
			EndpointParams: map[string][]string{"redirect_uri": {cfg.Hostname}},
			AuthStyle:      oauth2.AuthStyleInHeader,
		},
		httpClient: httpClient,
		defaultTTL: cfg.TokenDefaultTTL,
		skew:       cfg.TokenRefreshSkew,
		observer:   nopObserver{},
		now:        time.Now,
	}
}

// WithObserver подключает сбор метрик по запросам токена.
func (p *TokenProvider) WithObserver(o Observer) *TokenProvider {
	if o != nil {
		p.observer = o
	}
	return p
}

// Fetch всегда запрашивает новый токен и перезаписывает кеш.
// При ошибке в кеше остаётся предыдущее значение.
func (p *TokenProvider) Fetch(ctx context.Context) (Credential, error) {
	const op = "ebay.TokenProvider.Fetch"

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	start := time.Now()
	tok, err := p.oauth.Token(ctx)
	if err != nil {
		p.observer.ObserveUpstream(OperationToken, statusOf(err), time.Since(start))
		return Credential{}, fmt.Errorf("%s: %w: %v", op, ErrUpstreamAuth, err)
	}
	p.observer.ObserveUpstream(OperationToken, "200", time.Since(start))

	cred := Credential{Value: tok.AccessToken, ExpiresAt: tok.Expiry}
	if cred.ExpiresAt.IsZero() {
		cred.ExpiresAt = p.now().Add(p.defaultTTL)
	}

	p.mu.Lock()
	p.current = cred
	p.mu.Unlock()
	return cred, nil
}

// Token возвращает закешированный токен, пока он не подошёл к сроку истечения,
// иначе обновляет его. Одновременные вызовы ждут один и тот же запрос к eBay.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if cred, ok := p.cached(); ok {
		return cred.Value, nil
	}

	v, err, _ := p.flight.Do("token", func() (any, error) {
		if cred, ok := p.cached(); ok {
			return cred, nil
		}
		// запрос разделяют несколько вызывающих, отмена одного не должна рвать его для остальных
		return p.Fetch(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(Credential).Value, nil
}

// Invalidate помечает текущий токен просроченным, следующий Token запросит новый.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	p.current.ExpiresAt = time.Time{}
	p.mu.Unlock()
}

func (p *TokenProvider) cached() (Credential, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, p.current.usable(p.now(), p.skew)
}

func statusOf(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return strconv.Itoa(re.Response.StatusCode)
	}
	return "error"
}
