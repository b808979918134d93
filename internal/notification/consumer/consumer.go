package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"car-rental/internal/notification"
	"car-rental/internal/shared/mq"
)

// NotificationConsumer drains the notification queues and hands each event
// to the sender. Failed sends are nacked without requeue, which routes the
// message to the dead-letter queue for operator replay.
type NotificationConsumer struct {
	channel *amqp.Channel
	sender  notification.Sender
}

func NewNotificationConsumer(ch *amqp.Channel, sender notification.Sender) *NotificationConsumer {
	return &NotificationConsumer{channel: ch, sender: sender}
}

func (c *NotificationConsumer) Start(ctx context.Context) error {
	queues := map[string]func(context.Context, []byte) error{
		mq.QueueBookingReceived:   c.handleBookingReceived,
		mq.QueueBookingConfirmed:  c.handleBookingConfirmed,
		mq.QueueBookingRejected:   c.handleBookingRejected,
		mq.QueueDocumentsRequired: c.handleDocumentsRequested,
		mq.QueueBell:              c.handleBell,
	}

	for queue, handler := range queues {
		msgs, err := c.channel.Consume(
			queue,
			"",
			false, // manual acknowledgment
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("consume %s: %w", queue, err)
		}

		go func(queue string, handler func(context.Context, []byte) error, msgs <-chan amqp.Delivery) {
			for msg := range msgs {
				hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
				err := handler(hctx, msg.Body)
				cancel()

				if err != nil {
					log.Printf("[%s] delivery failed, dead-lettering: %v", queue, err)
					_ = msg.Nack(false, false)
					continue
				}
				_ = msg.Ack(false)
			}
		}(queue, handler, msgs)
		log.Printf("%s consumer started", queue)
	}

	return nil
}

func (c *NotificationConsumer) handleBookingReceived(ctx context.Context, body []byte) error {
	var ev notification.BookingReceivedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	msg := fmt.Sprintf("Hi %s, we received your booking request %s for %s. We'll text you once it's reviewed.",
		ev.GuestName, ev.BookingCode, ev.CarSummary)
	if ev.LoginURL != "" {
		msg += " Manage it here: " + ev.LoginURL
	}
	return c.sender.SendSMS(ctx, ev.GuestPhone, msg)
}

func (c *NotificationConsumer) handleBookingConfirmed(ctx context.Context, body []byte) error {
	var ev notification.BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	dates := fmt.Sprintf("%s to %s", ev.StartDate.Format("Jan 2"), ev.EndDate.Format("Jan 2"))

	guestMsg := fmt.Sprintf("Your booking %s is confirmed! %s, %s. Your host %s will be in touch.",
		ev.BookingCode, ev.CarSummary, dates, ev.HostName)
	if err := c.sender.SendSMS(ctx, ev.GuestPhone, guestMsg); err != nil {
		return err
	}

	hostMsg := fmt.Sprintf("New confirmed booking %s: %s rented your %s, %s.",
		ev.BookingCode, ev.GuestName, ev.CarSummary, dates)
	return c.sender.SendSMS(ctx, ev.HostPhone, hostMsg)
}

func (c *NotificationConsumer) handleBookingRejected(ctx context.Context, body []byte) error {
	var ev notification.BookingRejectedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	msg := fmt.Sprintf("Unfortunately your booking %s could not be approved. Any payment hold has been released.", ev.BookingCode)
	return c.sender.SendSMS(ctx, ev.GuestPhone, msg)
}

func (c *NotificationConsumer) handleDocumentsRequested(ctx context.Context, body []byte) error {
	var ev notification.DocumentsRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	msg := fmt.Sprintf("Your booking %s needs more documents before it can be approved.", ev.BookingCode)
	if ev.Message != "" {
		msg += " " + ev.Message
	}
	return c.sender.SendSMS(ctx, ev.GuestPhone, msg)
}

func (c *NotificationConsumer) handleBell(ctx context.Context, body []byte) error {
	var ev notification.BellPairEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if ev.GuestID != "" {
		if err := c.sender.PushBell(ctx, ev.GuestID, ev.GuestTitle, ev.GuestMessage, ev.ActionURL, ev.Priority); err != nil {
			return err
		}
	}
	if ev.HostID != "" {
		return c.sender.PushBell(ctx, ev.HostID, ev.HostTitle, ev.HostMessage, ev.ActionURL, ev.Priority)
	}
	return nil
}
