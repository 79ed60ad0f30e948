package orders

import "time"

type Product struct {
	ID            string
	SKU           string
	Name          string
	Stock         int
	ReservedStock int
	PriceCents    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductVariant carries its own counters; the parent product keeps the
// aggregate. Both move together inside the ledger transaction.
type ProductVariant struct {
	ID            string
	ProductID     string
	Name          string
	Stock         int
	ReservedStock int
}

type Order struct {
	ID        string
	UserID    string
	Status    Status // lihat status.go
	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	VariantID string // empty when the item has no variant
	Qty       int
}
