package orders

const (
	TopicOrderStatusChanged = "order.status.changed"
	TopicStockFinalized     = "order.stock.finalized"
	TopicStockReleased      = "order.stock.released"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
