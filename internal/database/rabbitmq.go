package database

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/simsmaster/sims-backend/internal/config"
)

// NewAMQPConnection dials the RabbitMQ broker. It returns (nil, nil) when
// AMQP_URL is not configured so callers can run without events.
func NewAMQPConnection(cfg *config.Config, log zerolog.Logger) (*amqp.Connection, error) {
	if cfg.AMQPURL == "" {
		log.Info().Msg("AMQP_URL not set, enrollment events disabled")
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	log.Info().Msg("RabbitMQ connected")
	return conn, nil
}
