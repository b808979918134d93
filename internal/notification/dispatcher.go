package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"car-rental/internal/shared/mq"
	"car-rental/internal/shared/util"
)

type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// Dispatcher publishes notification events to the broker. It is strictly
// fire-and-forget: a publish failure is logged and never propagated, so a
// committed state transition is never unwound by a messaging problem.
type Dispatcher struct {
	pub    Publisher
	logger *util.Logger
}

func NewDispatcher(pub Publisher, logger *util.Logger) *Dispatcher {
	return &Dispatcher{pub: pub, logger: logger}
}

func (d *Dispatcher) BookingReceived(ev BookingReceivedEvent) {
	d.publish(mq.QueueBookingReceived, ev)
}

func (d *Dispatcher) BookingConfirmed(ev BookingConfirmedEvent) {
	d.publish(mq.QueueBookingConfirmed, ev)
}

func (d *Dispatcher) BookingRejected(ev BookingRejectedEvent) {
	d.publish(mq.QueueBookingRejected, ev)
}

func (d *Dispatcher) DocumentsRequested(ev DocumentsRequestedEvent) {
	d.publish(mq.QueueDocumentsRequired, ev)
}

func (d *Dispatcher) BellPair(ev BellPairEvent) {
	d.publish(mq.QueueBell, ev)
}

func (d *Dispatcher) publish(routingKey string, payload interface{}) {
	instance := "NotificationDispatcher"

	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error(instance, fmt.Errorf("marshal %s event: %w", routingKey, err))
		return
	}

	// callers do not wait on this, so the deadline is our own
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.pub.Publish(ctx, mq.NotificationExchange, routingKey, body); err != nil {
		d.logger.Error(instance, fmt.Errorf("publish %s event: %w", routingKey, err))
		return
	}
	d.logger.Info(instance, fmt.Sprintf("event published [key=%s]", routingKey))
}
