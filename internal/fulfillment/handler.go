package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	kafkax "github.com/ariefcatur/go-store-fulfillment.git/internal/kafka"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/orders"
	"github.com/ariefcatur/go-store-fulfillment.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service wires the tracker to the event stream: consumes status-changed
// events, dedups by event id, publishes the resulting stock event.
type Service struct {
	Tracker           *Tracker
	Redis             *redis.Client
	ProducerFinalized *kafkax.Producer // publish order.stock.finalized
	ProducerReleased  *kafkax.Producer // publish order.stock.released
	ServiceName       string
}

// HandleStatusChanged dipasang sebagai handler consumer.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	} // ignore

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "fulfillment", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	out, err := s.Tracker.ApplyStatusChange(ctx, p.OrderID, p.NewStatus)
	if errors.Is(err, orders.ErrNotFound) {
		// nothing to retry against; commit the offset and move on
		log.Printf("fulfillment: drop event for unknown order %s", p.OrderID)
		return nil
	}
	if err != nil {
		return err
	}

	// cache status baru supaya GET order murah
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	_, _ = s.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, p.NewStatus), redisx.TTLStatusCache).Result()

	switch out.Effect {
	case orders.EffectFinalize:
		s.publishStock(s.ProducerFinalized, orders.EventStockFinalized, p.OrderID, out.Ledger.Applied, out.Ledger.Skipped, env.TraceID)
	case orders.EffectRelease:
		s.publishStock(s.ProducerReleased, orders.EventStockReleased, p.OrderID, out.Ledger.Applied, out.Ledger.Skipped, env.TraceID)
	}
	return nil
}

func (s *Service) publishStock(p *kafkax.Producer, eventType, orderID string, applied, skipped int, trace string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(orders.StockAdjustedPayload{
			OrderID: orderID, Applied: applied, Skipped: skipped,
		}),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
