package ebay

import (
	"context"
	"fmt"
	"net/url"

	"github.com/magabrotheeeer/stream-checkout/internal/models"
)

// RecipientName полное имя получателя в формате "{first} {last}".
func RecipientName(firstName, lastName string) string {
	return firstName + " " + lastName
}

// PlaceholderShipping адрес доставки, который отправляется при initiate, пока получатель неизвестен.
// Берётся адрес плательщика из карты, в получателе держатель карты, телефон контактный.
// UpdateShippingAddress полностью заменяет его адресом получателя.
func PlaceholderShipping(req models.CheckoutInitiationRequest) ShippingAddress {
	billing := req.CreditCard.BillingAddress
	return ShippingAddress{
		AddressLine1:    billing.AddressLine1,
		AddressLine2:    billing.AddressLine2,
		City:            billing.City,
		Country:         billing.CountryOrDefault(),
		PhoneNumber:     req.PhoneNumber,
		PostalCode:      billing.PostalCode,
		Recipient:       RecipientName(req.CreditCard.FirstName, req.CreditCard.LastName),
		StateOrProvince: billing.StateOrProvince,
	}
}

// NewInitiateCheckoutRequest собирает тело initiate. Имя контакта берётся из карты,
// у каждой позиции quantity = 1, пустой список товаров уходит как пустой массив.
func NewInitiateCheckoutRequest(req models.CheckoutInitiationRequest) InitiateCheckoutRequest {
	card := req.CreditCard
	items := make([]LineItemInput, 0, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		items = append(items, LineItemInput{ItemID: id, Quantity: 1})
	}

	return InitiateCheckoutRequest{
		ContactEmail:     req.ContactEmail,
		ContactFirstName: card.FirstName,
		ContactLastName:  card.LastName,
		CreditCard: CreditCard{
			AccountHolderName: card.AccountHolderName,
			BillingAddress: Address{
				AddressLine1:    card.BillingAddress.AddressLine1,
				AddressLine2:    card.BillingAddress.AddressLine2,
				City:            card.BillingAddress.City,
				Country:         card.BillingAddress.CountryOrDefault(),
				FirstName:       card.FirstName,
				LastName:        card.LastName,
				PostalCode:      card.BillingAddress.PostalCode,
				StateOrProvince: card.BillingAddress.StateOrProvince,
			},
			Brand:       card.Brand,
			CardNumber:  card.CardNumber,
			CVVNumber:   card.CVVNumber,
			ExpireMonth: card.ExpireMonth,
			ExpireYear:  card.ExpireYear,
		},
		LineItemInputs:  items,
		ShippingAddress: PlaceholderShipping(req),
	}
}

// NewUpdateShippingAddressRequest собирает тело update_shipping_address из данных получателя.
func NewUpdateShippingAddressRequest(req models.RecipientUpdateRequest) UpdateShippingAddressRequest {
	addr := req.ShippingAddress
	return UpdateShippingAddressRequest{
		ShippingAddress: ShippingAddress{
			AddressLine1:    addr.AddressLine1,
			AddressLine2:    addr.AddressLine2,
			City:            addr.City,
			Country:         addr.CountryOrDefault(),
			PhoneNumber:     req.PhoneNumber,
			PostalCode:      addr.PostalCode,
			Recipient:       RecipientName(req.FirstName, req.LastName),
			StateOrProvince: addr.StateOrProvince,
		},
	}
}

// InitiateCheckout открывает гостевую checkout-сессию и возвращает её идентификатор как есть.
func (c *Client) InitiateCheckout(ctx context.Context, req models.CheckoutInitiationRequest) (string, error) {
	const op = "ebay.Client.InitiateCheckout"

	var resp checkoutSessionResponse
	if err := c.post(ctx, OperationInitiate, c.baseURL+checkoutSessionPath+"/initiate", NewInitiateCheckoutRequest(req), &resp); err != nil {
		return "", err
	}
	id, ok := resp.sessionID()
	if !ok {
		return "", fmt.Errorf("%s: %w: response has no checkoutSessionId", op, ErrUpstreamCheckout)
	}
	return id, nil
}

// UpdateShippingAddress заменяет адрес доставки сессии. Возвращает checkoutSessionId из ответа:
// дальше используется именно он, даже если eBay выдал новый.
func (c *Client) UpdateShippingAddress(ctx context.Context, sessionID string, req models.RecipientUpdateRequest) (string, error) {
	const op = "ebay.Client.UpdateShippingAddress"
	if sessionID == "" {
		return "", fmt.Errorf("%s: %w: empty session id", op, ErrUpstreamCheckout)
	}

	endpoint := c.baseURL + checkoutSessionPath + "/" + url.PathEscape(sessionID) + "/update_shipping_address"
	var resp checkoutSessionResponse
	if err := c.post(ctx, OperationUpdateShipping, endpoint, NewUpdateShippingAddressRequest(req), &resp); err != nil {
		return "", err
	}
	id, ok := resp.sessionID()
	if !ok {
		return "", fmt.Errorf("%s: %w: response has no checkoutSessionId", op, ErrUpstreamCheckout)
	}
	return id, nil
}

// PlaceOrder размещает заказ по сессии и возвращает purchaseOrderId.
func (c *Client) PlaceOrder(ctx context.Context, sessionID string) (string, error) {
	const op = "ebay.Client.PlaceOrder"
	if sessionID == "" {
		return "", fmt.Errorf("%s: %w: empty session id", op, ErrUpstreamCheckout)
	}

	endpoint := c.placeOrderURL + checkoutSessionPath + "/" + url.PathEscape(sessionID) + "/place_order"
	var resp placeOrderResponse
	if err := c.post(ctx, OperationPlaceOrder, endpoint, struct{}{}, &resp); err != nil {
		return "", err
	}
	id, ok := resp.purchaseOrderID()
	if !ok {
		return "", fmt.Errorf("%s: %w: response has no purchaseOrderId", op, ErrUpstreamCheckout)
	}
	return id, nil
}

// Finalize выполняет update_shipping_address и затем place_order. Если первый шаг
// не вернул идентификатор сессии, place_order не вызывается.
func (c *Client) Finalize(ctx context.Context, sessionID string, req models.RecipientUpdateRequest) (string, error) {
	updatedID, err := c.UpdateShippingAddress(ctx, sessionID, req)
	if err != nil {
		return "", err
	}
	return c.PlaceOrder(ctx, updatedID)
}
