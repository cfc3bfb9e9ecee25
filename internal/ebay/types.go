package ebay

// Address адрес в схеме Buy Order API. Для billingAddress заполняются FirstName/LastName,
// для остальных случаев они опускаются.
type Address struct {
	AddressLine1    string `json:"addressLine1"`
	AddressLine2    string `json:"addressLine2,omitempty"`
	City            string `json:"city"`
	Country         string `json:"country"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	PostalCode      string `json:"postalCode"`
	StateOrProvince string `json:"stateOrProvince"`
}

// ShippingAddress адрес доставки с получателем и телефоном.
type ShippingAddress struct {
	AddressLine1    string `json:"addressLine1"`
	AddressLine2    string `json:"addressLine2,omitempty"`
	City            string `json:"city"`
	Country         string `json:"country"`
	PhoneNumber     string `json:"phoneNumber"`
	PostalCode      string `json:"postalCode"`
	Recipient       string `json:"recipient"`
	StateOrProvince string `json:"stateOrProvince"`
}

// CreditCard платёжный блок запроса initiate.
type CreditCard struct {
	AccountHolderName string  `json:"accountHolderName"`
	BillingAddress    Address `json:"billingAddress"`
	Brand             string  `json:"brand"`
	CardNumber        string  `json:"cardNumber"`
	CVVNumber         string  `json:"cvvNumber"`
	ExpireMonth       string  `json:"expireMonth"`
	ExpireYear        string  `json:"expireYear"`
}

// LineItemInput позиция заказа.
type LineItemInput struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// InitiateCheckoutRequest тело POST guest_checkout_session/initiate.
type InitiateCheckoutRequest struct {
	ContactEmail     string          `json:"contactEmail"`
	ContactFirstName string          `json:"contactFirstName"`
	ContactLastName  string          `json:"contactLastName"`
	CreditCard       CreditCard      `json:"creditCard"`
	LineItemInputs   []LineItemInput `json:"lineItemInputs"`
	ShippingAddress  ShippingAddress `json:"shippingAddress"`
}

// UpdateShippingAddressRequest тело POST guest_checkout_session/{id}/update_shipping_address.
type UpdateShippingAddressRequest struct {
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

// checkoutSessionResponse общий ответ initiate и update_shipping_address.
// Указатель отличает отсутствующее поле от пустой строки.
type checkoutSessionResponse struct {
	CheckoutSessionID *string `json:"checkoutSessionId"`
}

func (r checkoutSessionResponse) sessionID() (string, bool) {
	if r.CheckoutSessionID == nil || *r.CheckoutSessionID == "" {
		return "", false
	}
	return *r.CheckoutSessionID, true
}

type placeOrderResponse struct {
	PurchaseOrderID            *string `json:"purchaseOrderId"`
	PurchaseOrderPaymentStatus string  `json:"purchaseOrderPaymentStatus"`
}

func (r placeOrderResponse) purchaseOrderID() (string, bool) {
	if r.PurchaseOrderID == nil || *r.PurchaseOrderID == "" {
		return "", false
	}
	return *r.PurchaseOrderID, true
}

// errorResponse стандартный конверт ошибок eBay API.
type errorResponse struct {
	Errors []struct {
		ErrorID  int    `json:"errorId"`
		Category string `json:"category"`
		Message  string `json:"message"`
	} `json:"errors"`
}
