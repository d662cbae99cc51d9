package event

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends lifecycle events to a topic exchange. The event type is
// the routing key, so consumers can bind attempt.* or a single transition.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *Publisher) Emit(ctx context.Context, typ, key string, payload interface{}) {
	body, err := json.Marshal(map[string]interface{}{
		"type":    typ,
		"key":     key,
		"payload": payload,
	})
	if err != nil {
		log.Printf("publish %s %s: marshal: %v", typ, key, err)
		return
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, typ, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		log.Printf("publish %s %s: %v", typ, key, err)
	}
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
