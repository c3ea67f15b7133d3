package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Valora/internal/domain"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// publish отправляет persistent JSON сообщение.
func (p *Publisher) publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, messageID string, body []byte) error {
	return p.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    messageID,
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", messageID,
		)

		return nil
	})
}

// PublishTask публикует задание на обработку записи оценки.
// Потребитель: processor.
func (p *Publisher) PublishTask(ctx context.Context, msg *domain.TaskMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal task message: %w", err)
	}

	messageID := msg.MessageID
	if messageID == "" {
		messageID = uuid.New().String()
	}

	return p.publish(ctx, ExchangeAppraisals, RoutingKeyTask, messageID, body)
}

// PublishDeadLetter публикует запись о необработанном сообщении.
// DLQ разбирается вручную, автоматической переобработки нет.
func (p *Publisher) PublishDeadLetter(ctx context.Context, entry *domain.DeadLetterEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal dead letter entry: %w", err)
	}

	return p.publish(ctx, ExchangeDLQ, RoutingKeyDeadLetter, uuid.New().String(), body)
}
