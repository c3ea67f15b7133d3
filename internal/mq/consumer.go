package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Default configuration values.
const defaultHealthInterval = 15 * time.Second

// Handler — функция обработки сообщения.
//
// Обработчик сам подтверждает сообщение (Ack/Requeue/Reject) —
// политика подтверждения принадлежит диспетчеру, не транспорту.
type Handler func(ctx context.Context, d *Delivery)

// Delivery — доставленное сообщение с методами подтверждения.
type Delivery struct {
	// Body — сырое тело сообщения.
	Body []byte

	// MessageID — идентификатор сообщения из свойств AMQP.
	MessageID string

	// DeliveryAttempt — номер доставки (1 для первой).
	DeliveryAttempt int

	raw amqp.Delivery
}

// NewDelivery оборачивает сырое AMQP сообщение.
func NewDelivery(raw amqp.Delivery) *Delivery {
	attempt := 1
	// Quorum-очередь считает доставки в x-delivery-count (0 для первой).
	if v, ok := raw.Headers["x-delivery-count"]; ok {
		if n, ok := v.(int64); ok {
			attempt = int(n) + 1
		}
	} else if raw.Redelivered {
		attempt = 2
	}

	return &Delivery{
		Body:            raw.Body,
		MessageID:       raw.MessageId,
		DeliveryAttempt: attempt,
		raw:             raw,
	}
}

// Ack подтверждает успешную обработку сообщения.
func (d *Delivery) Ack() error {
	return d.raw.Ack(false)
}

// Requeue возвращает сообщение в очередь для повторной доставки.
// Брокер считает доставки; после x-delivery-limit сообщение уйдёт в DLX.
func (d *Delivery) Requeue() error {
	return d.raw.Nack(false, true)
}

// Reject отклоняет сообщение без повторной доставки (уходит в DLX).
func (d *Delivery) Reject() error {
	return d.raw.Nack(false, false)
}

// Consumer потребляет сообщения из очереди RabbitMQ.
//
// Flow control: prefetch ограничивает число одновременно
// неподтверждённых сообщений; каждое принятое сообщение
// обрабатывается в отдельной горутине, поэтому prefetch и есть
// верхняя граница параллелизма.
//
// Health check: периодический таймер проверяет доступность очереди
// и наличие обработчика; неудачная проверка запускает тот же
// алгоритм переподключения, что и разрыв соединения.
type Consumer struct {
	conn           *Connection
	logger         *slog.Logger
	queue          string
	prefetch       int
	healthInterval time.Duration

	mu      sync.RWMutex
	handler Handler

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue string

	// Prefetch — лимит неподтверждённых сообщений (default: 100).
	Prefetch int

	// HealthInterval — период health check (default: 15s).
	HealthInterval time.Duration
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = DefaultPrefetch
	}

	healthInterval := cfg.HealthInterval
	if healthInterval <= 0 {
		healthInterval = defaultHealthInterval
	}

	return &Consumer{
		conn:           conn,
		logger:         logger,
		queue:          cfg.Queue,
		prefetch:       prefetch,
		healthInterval: healthInterval,
	}
}

// OnMessage регистрирует единственный активный обработчик.
// Повторный вызов заменяет предыдущий.
func (c *Consumer) OnMessage(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *Consumer) currentHandler() Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler
}

// Start запускает потребление сообщений и health check.
// Блокируется до отмены контекста.
func (c *Consumer) Start(ctx context.Context) error {
	if c.currentHandler() == nil {
		return ErrHandlerMissing
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.healthLoop(ctx)
	}()

	return c.consume(ctx)
}

// Stop останавливает потребление и дожидается горутин обработки.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

// consume — основной цикл потребления.
func (c *Consumer) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		deliveries, err := c.setupConsume()
		if err != nil {
			c.logger.Error("failed to setup consume", "queue", c.queue, "error", err)
			// Ждём переподключения
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				c.logger.Info("reconnected, restarting consumer", "queue", c.queue)
				continue
			}
		}

		c.logger.Info("consumer started", "queue", c.queue, "prefetch", c.prefetch)

		if err := c.processDeliveries(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, reconnecting", "queue", c.queue)
			// Канал закрыт, ждём переподключения
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				continue
			}
		}
	}
}

// setupConsume настраивает канал и начинает потребление.
func (c *Consumer) setupConsume() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	// Flow control: не принимать больше prefetch неподтверждённых.
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queue, // queue
		"",      // consumer tag (auto-generated)
		false,   // auto-ack (подтверждаем вручную)
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return deliveries, nil
}

// processDeliveries обрабатывает сообщения из канала.
// Каждое сообщение — отдельная горутина, ограниченная prefetch'ем.
func (c *Consumer) processDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}

			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				c.dispatch(ctx, raw)
			}()
		}
	}
}

// dispatch передаёт одно сообщение обработчику.
func (c *Consumer) dispatch(ctx context.Context, raw amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic",
				"queue", c.queue,
				"message_id", raw.MessageId,
				"panic", r,
			)
			if err := raw.Nack(false, false); err != nil {
				c.logger.Error("failed to nack after panic", "error", err)
			}
		}
	}()

	handler := c.currentHandler()
	if handler == nil {
		// Не должно случаться: Start требует обработчик. Возвращаем в очередь.
		c.logger.Error("no handler attached, requeueing", "queue", c.queue)
		if err := raw.Nack(false, true); err != nil {
			c.logger.Error("failed to requeue", "error", err)
		}
		return
	}

	handler(ctx, NewDelivery(raw))
}

// healthLoop — периодическая проверка подписки.
func (c *Consumer) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(c.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkHealth()
		}
	}
}

// checkHealth проверяет, что очередь достижима и обработчик на месте.
// Неудачная проверка передаётся алгоритму переподключения.
func (c *Consumer) checkHealth() {
	if c.currentHandler() == nil {
		c.logger.Error("health check: no handler attached", "queue", c.queue)
	}

	if !c.conn.IsConnected() {
		c.conn.TriggerReconnect()
		return
	}

	ch, err := c.conn.NewChannel()
	if err != nil {
		c.logger.Warn("health check: cannot open channel", "queue", c.queue, "error", err)
		c.conn.TriggerReconnect()
		return
	}
	defer ch.Close()

	if _, err := ch.QueueDeclarePassive(c.queue, true, false, false, false, nil); err != nil {
		c.logger.Warn("health check: queue unreachable", "queue", c.queue, "error", err)
		c.conn.TriggerReconnect()
		return
	}
}
