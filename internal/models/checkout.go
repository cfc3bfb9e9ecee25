// Package models содержит доменные структуры оформления гостевого заказа:
// адреса, данные карты, запросы двух участников (стримера и получателя)
// и запись checkout-сессии, которая живёт между initiate и finalize.
package models

import "time"

// DefaultCountry подставляется, если страна в адресе не указана.
const DefaultCountry = "US"

// PostalAddress почтовый адрес без собственной идентичности.
type PostalAddress struct {
	AddressLine1    string `json:"address_line1" validate:"required"`
	AddressLine2    string `json:"address_line2,omitempty"`
	City            string `json:"city" validate:"required"`
	Country         string `json:"country,omitempty"`
	PostalCode      string `json:"postal_code" validate:"required"`
	StateOrProvince string `json:"state_or_province" validate:"required"`
}

// CountryOrDefault возвращает страну адреса или DefaultCountry.
func (a PostalAddress) CountryOrDefault() string {
	if a.Country == "" {
		return DefaultCountry
	}
	return a.Country
}

// Поддерживаемые бренды карт.
const (
	BrandVisa       = "Visa"
	BrandMasterCard = "MasterCard"
	BrandAmEx       = "AmEx"
	BrandDiscover   = "Discover"
)

// PaymentInstrument данные карты плательщика. Не сохраняются нигде, кроме одного исходящего запроса.
type PaymentInstrument struct {
	AccountHolderName string        `json:"account_holder_name" validate:"required"`
	FirstName         string        `json:"first_name" validate:"required"`
	LastName          string        `json:"last_name" validate:"required"`
	Brand             string        `json:"brand" validate:"required,oneof=Visa MasterCard AmEx Discover"`
	CardNumber        string        `json:"card_number" validate:"required,numeric"`
	CVVNumber         string        `json:"cvv_number" validate:"required,numeric"`
	ExpireMonth       string        `json:"expire_month" validate:"required,numeric"`
	ExpireYear        string        `json:"expire_year" validate:"required,numeric"`
	BillingAddress    PostalAddress `json:"billing_address"`
}

// CheckoutInitiationRequest первая половина заказа: плательщик, карта и товары.
type CheckoutInitiationRequest struct {
	ContactEmail string            `json:"contact_email" validate:"required,email"`
	PhoneNumber  string            `json:"phone_number" validate:"required"`
	ItemIDs      []string          `json:"item_ids"`
	CreditCard   PaymentInstrument `json:"credit_card"`
}

// RecipientUpdateRequest вторая половина заказа: получатель и адрес доставки.
type RecipientUpdateRequest struct {
	FirstName       string        `json:"first_name" validate:"required"`
	LastName        string        `json:"last_name" validate:"required"`
	PhoneNumber     string        `json:"phone_number" validate:"required"`
	ShippingAddress PostalAddress `json:"shipping_address"`
}

// SessionStatus состояние checkout-сессии в нашем хранилище.
type SessionStatus string

const (
	// SessionInitiated сессия открыта, адрес получателя ещё не пришёл.
	SessionInitiated SessionStatus = "initiated"
	// SessionPlacing place_order отправлен, ответ ещё не получен.
	SessionPlacing SessionStatus = "placing"
	// SessionFinalized заказ размещён, повторная финализация запрещена.
	SessionFinalized SessionStatus = "finalized"
)

// CheckoutSession запись о сессии, которую держит оркестратор между двумя запросами.
type CheckoutSession struct {
	SessionID         string        `json:"session_id"`
	Status            SessionStatus `json:"status"`
	ContactEmail      string        `json:"contact_email"`
	ItemIDs           []string      `json:"item_ids"`
	PurchaseOrderID   string        `json:"purchase_order_id,omitempty"`
	UpstreamSessionID string        `json:"upstream_session_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	FinalizedAt       *time.Time    `json:"finalized_at,omitempty"`
}
