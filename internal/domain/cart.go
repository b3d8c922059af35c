package domain

import "time"

// Cart is the per-session shopping cart. Items carry no prices; they are
// joined against the catalog on read.
type Cart struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	UserID    *string    `json:"userId,omitempty"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	PackageCode string `json:"packageCode"`
	Quantity    int    `json:"quantity"`
}
