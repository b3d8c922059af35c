package domain

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderPaid       OrderStatus = "paid"
	OrderProcessing OrderStatus = "processing"
	OrderFulfilled  OrderStatus = "fulfilled"
	OrderFailed     OrderStatus = "failed"
	OrderRefunded   OrderStatus = "refunded"
)

var orderStatusRank = map[OrderStatus]int{
	OrderPending:    0,
	OrderPaid:       1,
	OrderProcessing: 2,
	OrderFulfilled:  3,
}

// Valid reports whether s belongs to the order status vocabulary.
func (s OrderStatus) Valid() bool {
	_, forward := orderStatusRank[s]
	return forward || s.Terminal()
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderFailed || s == OrderRefunded
}

// CanTransition reports whether an order in status s may move to next.
// Forward moves follow pending, paid, processing, fulfilled; failed and
// refunded are reachable from any non-terminal status. Re-applying the
// current status is allowed so partial patches stay idempotent.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next.Terminal() {
		return true
	}
	return orderStatusRank[next] > orderStatusRank[s]
}

// Order is a placed purchase. Items is a snapshot copied at creation time.
type Order struct {
	ID                    string      `json:"id"`
	UserID                string      `json:"userId"`
	OrderNo               *string     `json:"orderNo,omitempty"`
	TransactionID         string      `json:"transactionId"`
	Status                OrderStatus `json:"status"`
	TotalAmount           int64       `json:"totalAmount"`
	StripeSessionID       *string     `json:"stripeSessionId,omitempty"`
	StripePaymentIntentID *string     `json:"stripePaymentIntentId,omitempty"`
	Items                 []OrderItem `json:"items"`
	CustomerEmail         string      `json:"customerEmail"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

type OrderItem struct {
	PackageCode  string `json:"packageCode"`
	PackageName  string `json:"packageName"`
	LocationName string `json:"locationName"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unitPrice"`
	Volume       int64  `json:"volume"`
	Duration     int    `json:"duration"`
}

// OrderStatusPatch overwrites Status and, when non-nil, the optional references.
type OrderStatusPatch struct {
	Status                OrderStatus
	OrderNo               *string
	StripePaymentIntentID *string
}
