package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderStatusChanged = "OrderStatusChanged"
	EventStockFinalized     = "StockFinalized"
	EventStockReleased      = "StockReleased"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "store-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type OrderStatusChangedPayload struct {
	OrderID   string `json:"order_id"`
	NewStatus Status `json:"new_status"`
}

type StockAdjustedPayload struct {
	OrderID string `json:"order_id"`
	Applied int    `json:"applied"`
	Skipped int    `json:"skipped"` // rows where the reservation guard failed
}
