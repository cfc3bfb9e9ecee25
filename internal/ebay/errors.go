package ebay

import "errors"

var (
	// ErrUpstreamAuth токен не получен: эндпоинт недоступен, вернул не 2xx или ответ без access_token.
	ErrUpstreamAuth = errors.New("upstream auth error")
	// ErrUpstreamCheckout вызов initiate/update_shipping_address/place_order не дал ожидаемого идентификатора.
	ErrUpstreamCheckout = errors.New("upstream checkout error")
)
