package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// EnrollmentHandler processes one decoded event. Returning an error rejects
// the message without requeue.
type EnrollmentHandler func(ctx context.Context, ev EnrollmentCommittedEvent) error

// Consumer reads enrollment events from a durable queue.
type Consumer struct {
	conn    *amqp.Connection
	queue   string
	handler EnrollmentHandler
	log     zerolog.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(conn *amqp.Connection, queue string, handler EnrollmentHandler, log zerolog.Logger) *Consumer {
	return &Consumer{
		conn:    conn,
		queue:   queue,
		handler: handler,
		log:     log.With().Str("component", "enrollment_consumer").Logger(),
	}
}

// Run consumes until ctx is cancelled or the connection closes. A closed
// channel on a live connection is reopened after a short pause.
func (c *Consumer) Run(ctx context.Context) {
	c.log.Info().Str("queue", c.queue).Msg("Enrollment consumer started")

	for {
		err := c.consumeLoop(ctx)
		if ctx.Err() != nil {
			c.log.Info().Msg("Enrollment consumer stopped")
			return
		}
		if c.conn.IsClosed() {
			c.log.Error().Err(err).Msg("Broker connection closed, consumer exiting")
			return
		}
		c.log.Warn().Err(err).Msg("Consume loop ended, reopening channel")

		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("Set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handle(ctx, d.Body); err != nil {
			c.log.Error().Err(err).Str("message_id", d.MessageId).Msg("Handle enrollment event failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var ev EnrollmentCommittedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return c.handler(ctx, ev)
}
