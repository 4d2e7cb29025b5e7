package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jamesdwilson/byteball-merchant/internal/bot"
)

const eventQueueName = "merchant.events"

var validate = validator.New()

// StartEventConsumer connects to RabbitMQ, declares the merchant.events
// queue (durable), and feeds each decoded envelope to the dispatcher.
// The function runs a reconnect loop with exponential backoff and keeps
// running across broker outages; malformed or failing deliveries are
// rejected without requeue so one poison message cannot wedge the bot.
func StartEventConsumer(url string, d *bot.Dispatcher) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("event-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, d); err != nil {
			log.Printf("event-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, d *bot.Dispatcher) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// One unacked delivery at a time preserves per-customer ordering:
	// the broker hands over the next event only after the previous one
	// finished.
	if err := ch.Qos(1, 0, false); err != nil {
		log.Printf("event-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(eventQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(eventQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for delivery := range msgs {
		if err := handleDelivery(d, delivery.Body); err != nil {
			log.Printf("event-consumer: handle delivery failed: %v", err)
			_ = delivery.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = delivery.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleDelivery(d *bot.Dispatcher, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	ev, err := eventFromEnvelope(env)
	if err != nil {
		return err
	}
	return d.Handle(context.Background(), ev)
}

// eventFromEnvelope validates the wire payload and maps it onto the
// core's typed events.
func eventFromEnvelope(env Envelope) (bot.Event, error) {
	if err := validate.Struct(env); err != nil {
		return nil, fmt.Errorf("invalid envelope %q: %w", env.ID, err)
	}
	switch env.Type {
	case TypePaired:
		return bot.Paired{DeviceAddress: env.DeviceAddress}, nil
	case TypeText:
		return bot.Text{DeviceAddress: env.DeviceAddress, Body: env.Text}, nil
	case TypePaymentObserved:
		return bot.PaymentObserved{Units: env.Units}, nil
	case TypePaymentFinalized:
		return bot.PaymentFinalized{Units: env.Units}, nil
	default:
		return nil, fmt.Errorf("unknown envelope type %q", env.Type)
	}
}
