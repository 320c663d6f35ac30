// Package notify publishes entity-change messages to RabbitMQ so
// other daemon instances and external tooling can react to mutations
// (cache invalidation, audit, pending-sync alerting). The publisher
// is optional: a nil *Publisher silently drops every message.
package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/zlog"
)

// ChangeMessage describes one store mutation.
type ChangeMessage struct {
	ChangeID    string    `json:"change_id"`
	Origin      string    `json:"origin"`
	Entity      string    `json:"entity"` // "event" | "guest"
	EntityID    string    `json:"entity_id"`
	Op          string    `json:"op"` // "create" | "update" | "delete" | "team_add" | "team_remove"
	PendingSync bool      `json:"pending_sync"`
	At          time.Time `json:"at"`
}

type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	origin   string
}

func New(url, exchange, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to connect to RabbitMQ")
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		zlog.Logger.Error().Err(err).Msg("failed to open RabbitMQ channel")
		return nil, err
	}

	p := &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		queue:    queue,
		origin:   uuid.NewString(),
	}

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to declare exchange")
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to declare queue")
		return nil, err
	}
	if err := ch.QueueBind(queue, "", exchange, false, nil); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to bind queue")
		return nil, err
	}

	zlog.Logger.Info().Msgf("change feed initialized (exchange=%s, queue=%s)", exchange, queue)
	return p, nil
}

// Origin identifies this process in published messages, so a consumer
// colocated with the publisher can skip its own changes.
func (p *Publisher) Origin() string {
	if p == nil {
		return ""
	}
	return p.origin
}

// Publish emits one change message. Disabled (nil) publishers and
// publish failures are non-fatal: the change feed is advisory.
func (p *Publisher) Publish(entity, entityID, op string, pendingSync bool) {
	if p == nil {
		return
	}
	msg := ChangeMessage{
		ChangeID:    uuid.NewString(),
		Origin:      p.origin,
		Entity:      entity,
		EntityID:    entityID,
		Op:          op,
		PendingSync: pendingSync,
		At:          time.Now().UTC(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to marshal change message")
		return
	}

	err = p.channel.Publish(
		p.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to publish change message")
		return
	}
	zlog.Logger.Debug().
		Str("entity", entity).
		Str("entity_id", entityID).
		Str("op", op).
		Msg("change message published")
}

// Consume delivers queued change messages to handler.
func (p *Publisher) Consume(handler func([]byte) error) error {
	msgs, err := p.channel.Consume(p.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}()
	return nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	zlog.Logger.Info().Msg("change feed connection closed")
}
