package models

// OrderInitiated данные события order.initiated.
type OrderInitiated struct {
	SessionID string   `json:"session_id"`
	ItemIDs   []string `json:"item_ids"`
}

// OrderPlaced данные события order.placed.
type OrderPlaced struct {
	SessionID       string   `json:"session_id"`
	PurchaseOrderID string   `json:"purchase_order_id"`
	ContactEmail    string   `json:"contact_email"`
	ItemIDs         []string `json:"item_ids"`
}
