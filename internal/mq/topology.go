package mq

import (
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeAppraisals Exchange = "valora.appraisals"
	ExchangeDLQ        Exchange = "valora.dlq"
)

// Queues — имена очередей.
const (
	QueueTasks       Queue = "appraisals.tasks"
	QueueDeadLetters Queue = "dlq.appraisals"
)

// Routing keys.
const (
	RoutingKeyTask       RoutingKey = "task"
	RoutingKeyDeadLetter RoutingKey = "appraisals"
)

// Параметры очереди заданий.
const (
	// MessageRetention — срок хранения недоставленных сообщений.
	MessageRetention = 7 * 24 * time.Hour

	// MaxDeliveryAttempts — лимит доставок до брокерного dead-letter'а.
	MaxDeliveryAttempts = 5

	// ConsumerTimeout — сколько брокер ждёт ack от потребителя.
	// Рендеринг документа медленный, поэтому лимит большой.
	ConsumerTimeout = 600 * time.Second

	// DefaultPrefetch — лимит одновременно неподтверждённых сообщений.
	DefaultPrefetch = 100
)

// TaskQueueArgs возвращает аргументы очереди appraisals.tasks.
//
// Очередь quorum: x-delivery-limit ограничивает число доставок,
// после чего сообщение уходит в DLX. x-message-ttl задаёт срок
// хранения, x-consumer-timeout — дедлайн подтверждения.
func TaskQueueArgs() amqp.Table {
	return amqp.Table{
		"x-queue-type":              "quorum",
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDeadLetter),
		"x-delivery-limit":          int32(MaxDeliveryAttempts),
		"x-message-ttl":             int32(MessageRetention / time.Millisecond),
		"x-consumer-timeout":        int32(ConsumerTimeout / time.Millisecond),
	}
}

// VerifyExchanges проверяет, что обменники существуют.
//
// Отсутствие обменника — предусловие деплоя, а не повод для retry:
// вызывающий обязан завершить процесс.
func VerifyExchanges(conn *Connection) error {
	ch, err := conn.NewChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	for _, ex := range []Exchange{ExchangeAppraisals, ExchangeDLQ} {
		// Passive declare: ошибка (и закрытый канал), если exchange не существует.
		if err := ch.ExchangeDeclarePassive(string(ex), "direct", true, false, false, false, nil); err != nil {
			return fmt.Errorf("%w: %s", ErrExchangeMissing, ex)
		}
	}

	return nil
}

// DeclareExchanges создаёт обменники. Используется при развёртывании
// (valora-cli topology init), процессор их только проверяет.
func DeclareExchanges(conn *Connection) error {
	return conn.WithChannel(func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeAppraisals, ExchangeDLQ} {
			err := ch.ExchangeDeclare(
				string(ex), // name
				"direct",   // type
				true,       // durable
				false,      // auto-deleted
				false,      // internal
				false,      // no-wait
				nil,        // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}
		return nil
	})
}

// SetupTopology проверяет обменники и создаёт очереди с привязками.
//
// Очереди объявляются idempotent'но (get-or-create). Отсутствующий
// exchange — фатальная ошибка, см. VerifyExchanges.
func SetupTopology(conn *Connection) error {
	if err := VerifyExchanges(conn); err != nil {
		return err
	}

	return conn.WithChannel(func(ch *amqp.Channel) error {
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// appraisals.tasks — основная очередь заданий с DLX-политикой.
		{QueueTasks, TaskQueueArgs()},

		// dlq.appraisals — сама DLQ очередь, без дополнительных политик.
		{QueueDeadLetters, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueTasks, RoutingKeyTask, ExchangeAppraisals},
		{QueueDeadLetters, RoutingKeyDeadLetter, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// IsPreconditionError возвращает true для ошибок, требующих
// завершения процесса вместо retry.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrExchangeMissing)
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Valora RabbitMQ Topology:

    valora.appraisals (direct)
    └── appraisals.tasks [routing: task]
            Consumer: processor (dispatcher → engine)
            DLQ: dlq.appraisals (delivery limit ` + fmt.Sprint(MaxDeliveryAttempts) + `)

    valora.dlq (direct)
    └── dlq.appraisals [routing: appraisals]
            Manual processing
  `
}
