// Package service provides the outbound side of the messaging channel:
// texts the core wants delivered are published to RabbitMQ, where the
// pairing transport picks them up.  Errors are logged and returned so
// callers can treat delivery as fire-and-forget.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jamesdwilson/byteball-merchant/internal/queue"
)

const outboundQueueName = "device.outbound"

// Messenger publishes outbound texts.  The broker connection is dialed
// lazily and re-dialed after failures; losing the broker degrades the
// bot to silence, it never panics.
type Messenger struct {
	url string

	mu sync.Mutex
	ch *amqp.Channel
}

// NewMessenger returns a Messenger for the given broker URL.
func NewMessenger(url string) *Messenger {
	return &Messenger{url: url}
}

// SendText publishes one text for the device.  Messages are persistent
// so a broker restart does not drop queued replies.
func (m *Messenger) SendText(ctx context.Context, deviceAddress, text string) error {
	body, err := json.Marshal(queue.OutboundText{
		ID:            uuid.NewString(),
		DeviceAddress: deviceAddress,
		Text:          text,
	})
	if err != nil {
		return fmt.Errorf("marshal outbound text: %w", err)
	}

	ch, err := m.channel()
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	err = ch.PublishWithContext(ctx,
		"",                // default exchange
		outboundQueueName, // routing key = queue name
		false,             // mandatory
		false,             // immediate
		pub,
	)
	if err != nil {
		log.Printf("messenger: publish failed: %v", err)
		m.reset()
		return err
	}
	return nil
}

// channel returns the cached channel, dialing the broker and declaring
// the durable outbound queue on first use.
func (m *Messenger) channel() (*amqp.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ch != nil {
		return m.ch, nil
	}
	conn, err := amqp.Dial(m.url)
	if err != nil {
		log.Printf("messenger: dial failed: %v", err)
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		log.Printf("messenger: channel open failed: %v", err)
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		outboundQueueName, // name
		true,              // durable
		false,             // autoDelete
		false,             // exclusive
		false,             // noWait
		nil,               // args
	); err != nil {
		log.Printf("messenger: queue declare failed: %v", err)
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	m.ch = ch
	return ch, nil
}

func (m *Messenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ch != nil {
		_ = m.ch.Close()
		m.ch = nil
	}
}
