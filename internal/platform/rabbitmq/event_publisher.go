package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"cadgen/internal/model"
)

type EventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewEventPublisher(conn *amqp.Connection, queueName string) *EventPublisher {
	return &EventPublisher{conn: conn, queueName: queueName}
}

func (p *EventPublisher) Publish(ctx context.Context, event model.GenerationEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := declareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}); err != nil {
		return fmt.Errorf("publish event failed: %w", err)
	}
	return nil
}

func EncodeEvent(event model.GenerationEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload failed: %w", err)
	}
	return payload, nil
}

func DecodeEvent(body []byte) (model.GenerationEvent, error) {
	var event model.GenerationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.GenerationEvent{}, fmt.Errorf("unmarshal event payload failed: %w", err)
	}
	return event, nil
}
