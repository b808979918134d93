package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

const (
	NotificationExchange   = "notification_topic"
	NotificationDLX        = "notification_dlx"
	NotificationDeadQueue  = "notification.dead"
	QueueBookingReceived   = "notification.booking.received"
	QueueBookingConfirmed  = "notification.booking.confirmed"
	QueueBookingRejected   = "notification.booking.rejected"
	QueueDocumentsRequired = "notification.documents.requested"
	QueueBell              = "notification.bell"
)

// SetupTopology declares the notification exchange, one durable queue per
// event kind, and a dead-letter exchange so failed deliveries are parked
// instead of dropped.
func SetupTopology(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(
		NotificationExchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare %s: %w", NotificationExchange, err)
	}

	if err := ch.ExchangeDeclare(
		NotificationDLX,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare %s: %w", NotificationDLX, err)
	}

	if _, err := ch.QueueDeclare(NotificationDeadQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", NotificationDeadQueue, err)
	}
	if err := ch.QueueBind(NotificationDeadQueue, "", NotificationDLX, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", NotificationDeadQueue, err)
	}

	queues := []string{
		QueueBookingReceived,
		QueueBookingConfirmed,
		QueueBookingRejected,
		QueueDocumentsRequired,
		QueueBell,
	}
	args := amqp091.Table{"x-dead-letter-exchange": NotificationDLX}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		// routing key mirrors the queue name
		if err := ch.QueueBind(q, q, NotificationExchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}

	return nil
}
