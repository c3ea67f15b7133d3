package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Valora/internal/domain"
	"github.com/shaiso/Valora/internal/lifecycle"
	"github.com/shaiso/Valora/internal/mq"
	"github.com/shaiso/Valora/internal/telemetry"
)

// TaskRunner — контракт workflow-движка для диспетчера.
type TaskRunner interface {
	Run(ctx context.Context, recordID string, step domain.StepName, msg *domain.TaskMessage) error
}

// DeadLetterSink — приёмник записей о необработанных сообщениях.
type DeadLetterSink interface {
	PublishDeadLetter(ctx context.Context, entry *domain.DeadLetterEntry) error
}

// Dispatcher превращает сырые сообщения брокера в вызовы движка.
//
// Политика подтверждения:
//   - невалидное сообщение: ack + DLQ (исправить его retry не может)
//   - дубликат message id: ack без побочных эффектов
//   - ошибка движка: ack + DLQ — сообщение никогда не остаётся
//     на бесконечную передоставку брокером; DLQ — единственный
//     журнал неудач для операционного разбора
//   - успех: ack + message id в кольцо дедупликации
type Dispatcher struct {
	runner      TaskRunner
	deadLetters DeadLetterSink
	coordinator *lifecycle.Coordinator
	dedup       *dedup
	logger      *slog.Logger
}

// Config — конфигурация Dispatcher.
type Config struct {
	Runner      TaskRunner
	DeadLetters DeadLetterSink
	Coordinator *lifecycle.Coordinator

	// Logger
	Logger *slog.Logger
}

// NewDispatcher создаёт новый Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		runner:      cfg.Runner,
		deadLetters: cfg.DeadLetters,
		coordinator: cfg.Coordinator,
		dedup:       newDedup(),
		logger:      logger,
	}
}

// Handle обрабатывает одно доставленное сообщение.
func (d *Dispatcher) Handle(ctx context.Context, delivery *mq.Delivery) {
	if !d.coordinator.Begin() {
		// Процесс завершается: возвращаем сообщение брокеру.
		if err := delivery.Requeue(); err != nil {
			d.logger.Error("failed to requeue during shutdown", "error", err)
		}
		return
	}
	defer d.coordinator.Done()

	logger := telemetry.WithMessageID(d.logger, delivery.MessageID)

	msg, err := parseMessage(delivery.Body)
	if err != nil {
		logger.Warn("invalid task message", "error", err)
		telemetry.MessagesProcessed.WithLabelValues("invalid").Inc()
		d.ack(logger, delivery)
		d.deadLetter(ctx, logger, "", delivery.Body, err)
		return
	}

	msg.MessageID = delivery.MessageID
	msg.DeliveryAttempt = delivery.DeliveryAttempt
	logger = telemetry.WithRecordID(logger, msg.RecordID)

	// Дедупликация: повторная доставка уже обработанного сообщения
	// подтверждается без побочных эффектов.
	if msg.MessageID != "" && d.dedup.Seen(msg.MessageID) {
		logger.Info("duplicate delivery, skipping", "attempt", msg.DeliveryAttempt)
		telemetry.MessagesProcessed.WithLabelValues("duplicate").Inc()
		telemetry.DedupHits.Inc()
		d.ack(logger, delivery)
		return
	}

	step := msg.Step
	if step == "" {
		step = domain.StepBuildReport
	}

	logger.Info("task received",
		"step", step,
		"attempt", msg.DeliveryAttempt,
	)

	if err := d.runner.Run(ctx, msg.RecordID, step, msg); err != nil {
		logger.Warn("task failed", "step", step, "error", err)
		telemetry.MessagesProcessed.WithLabelValues("failed").Inc()
		d.ack(logger, delivery)
		d.deadLetter(ctx, logger, msg.RecordID, delivery.Body, err)
		return
	}

	telemetry.MessagesProcessed.WithLabelValues("ok").Inc()
	d.ack(logger, delivery)
	if msg.MessageID != "" {
		d.dedup.Remember(msg.MessageID)
	}

	logger.Info("task processed", "step", step)
}

// ack подтверждает сообщение; ошибка подтверждения только логируется —
// повторная доставка отсечётся дедупликацией.
func (d *Dispatcher) ack(logger *slog.Logger, delivery *mq.Delivery) {
	if err := delivery.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}

// deadLetter публикует терминальную запись о неудаче.
// Ошибка публикации не пробрасывается: сообщение уже подтверждено,
// остаётся только залогировать.
func (d *Dispatcher) deadLetter(ctx context.Context, logger *slog.Logger, recordID string, body []byte, cause error) {
	entry := &domain.DeadLetterEntry{
		RecordID:        recordID,
		OriginalMessage: string(body),
		Error:           cause.Error(),
		Timestamp:       time.Now().UTC(),
	}

	if err := d.deadLetters.PublishDeadLetter(ctx, entry); err != nil {
		logger.Error("failed to publish dead letter", "error", err)
		return
	}

	telemetry.DeadLetters.Inc()
}

// DedupSize возвращает размер кольца дедупликации.
func (d *Dispatcher) DedupSize() int {
	return d.dedup.Len()
}
