package orders

type Status string

const (
	StatusCreated       Status = "CREATED"
	StatusStockReserved Status = "STOCK_RESERVED"
	StatusPaid          Status = "PAID"
	StatusCompleted     Status = "COMPLETED"

	// Cancellation family: payment gateways report loss of an order under
	// several names, all of them mean "give the reservation back".
	StatusCancelled Status = "CANCELLED"
	StatusCanceled  Status = "CANCELED"
	StatusRefused   Status = "REFUSED"
	StatusRefunded  Status = "REFUNDED"
	StatusFailed    Status = "FAILED"
	StatusError     Status = "ERROR"
	StatusDeclined  Status = "DECLINED"
)

var known = map[Status]bool{
	StatusCreated:       true,
	StatusStockReserved: true,
	StatusPaid:          true,
	StatusCompleted:     true,
	StatusCancelled:     true,
	StatusCanceled:      true,
	StatusRefused:       true,
	StatusRefunded:      true,
	StatusFailed:        true,
	StatusError:         true,
	StatusDeclined:      true,
}

var cancellations = map[Status]bool{
	StatusCancelled: true,
	StatusCanceled:  true,
	StatusRefused:   true,
	StatusRefunded:  true,
	StatusFailed:    true,
	StatusError:     true,
	StatusDeclined:  true,
}

func Known(s Status) bool { return known[s] }

// IsCancellation reports whether s returns held inventory to sellable stock.
func IsCancellation(s Status) bool { return cancellations[s] }

// StockEffect is what a status transition means for the stock ledger.
type StockEffect int

const (
	EffectNone StockEffect = iota
	EffectFinalize
	EffectRelease
)

func EffectOf(s Status) StockEffect {
	switch {
	case s == StatusPaid:
		return EffectFinalize
	case IsCancellation(s):
		return EffectRelease
	default:
		return EffectNone
	}
}
