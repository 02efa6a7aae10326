package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/mind-engage/lessonrunner/internal/attempt"
	"github.com/mind-engage/lessonrunner/internal/logger"
)

const DefaultExchange = "lesson.events"

// channel is the part of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// EventPublisher sends attempt outcomes to a topic exchange. It implements
// attempt.Notifier.
type EventPublisher struct {
	conn         *amqp091.Connection
	channel      channel
	exchangeName string
	enabled      bool
	log          *logger.Logger
}

// NewEventPublisher dials rabbitURI. An empty URI yields a disabled
// publisher that drops every event.
func NewEventPublisher(rabbitURI, exchangeName string, log *logger.Logger) (*EventPublisher, error) {
	if log == nil {
		log = logger.Nop()
	}
	if rabbitURI == "" {
		log.Warn("AMQP_URL is empty, outcome publishing is disabled")
		return &EventPublisher{enabled: false, log: log}, nil
	}
	if exchangeName == "" {
		exchangeName = DefaultExchange
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &EventPublisher{
		conn:         conn,
		channel:      ch,
		exchangeName: exchangeName,
		enabled:      true,
		log:          log,
	}, nil
}

func (p *EventPublisher) publishEvent(ctx context.Context, routingKey string, event any) error {
	if !p.enabled {
		p.log.Debug("event publishing disabled, skipping", "routing_key", routingKey)
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	p.log.Debug("published event", "routing_key", routingKey)
	return nil
}

// Notify publishes a terminal attempt signal.
func (p *EventPublisher) Notify(ctx context.Context, sig attempt.Signal) error {
	ev := NewAttemptFinishedEvent(sig)
	return p.publishEvent(ctx, string(ev.Type), ev)
}

func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn("closing RabbitMQ channel", "error", err.Error())
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}
