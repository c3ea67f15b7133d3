// Valora Processor — потребитель очереди заданий оценки.
//
// Processor:
//   - Получает задания из RabbitMQ (appraisals.tasks)
//   - Валидирует и дедуплицирует сообщения
//   - Прогоняет запись через цепочку шагов (движок workflow)
//   - Необработанные сообщения отправляет в DLQ
//
// Единственный экземпляр на очередь; при падении сообщения
// переживают рестарт благодаря persistent delivery и quorum queue.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Valora/internal/api"
	"github.com/shaiso/Valora/internal/collab"
	"github.com/shaiso/Valora/internal/dispatch"
	"github.com/shaiso/Valora/internal/engine"
	"github.com/shaiso/Valora/internal/lifecycle"
	"github.com/shaiso/Valora/internal/locator"
	"github.com/shaiso/Valora/internal/mq"
	"github.com/shaiso/Valora/internal/repo"
	"github.com/shaiso/Valora/internal/telemetry"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting valora-processor")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	readiness := api.NewReadiness("database", "broker", "consumer")

	// HTTP сервер поднимается до остальных подсистем: health-проба
	// должна отвечать уже во время инициализации.
	mqURL := env("RABBITMQ_URL", mq.DefaultURL())

	conn, err := mq.NewConnection(mqURL, mq.DefaultReconnectPolicy(), logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	mux := http.NewServeMux()
	handler := api.NewHandler(api.Config{
		Readiness: readiness,
		Conn:      conn,
		Logger:    logger,
	})
	api.RegisterRoutes(mux, handler, logger)

	port := ":" + env("PROCESSOR_PORT", "8080")
	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	readiness.SetReady("broker")
	logger.Info("RabbitMQ connected")

	// Топология: отсутствие обменников — ошибка деплоя, не retry.
	if err := mq.SetupTopology(conn); err != nil {
		if mq.IsPreconditionError(err) {
			logger.Error("broker topology precondition failed", "error", err)
			os.Exit(1)
		}
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	readiness.SetReady("database")
	logger.Info("database connected")

	loc := locator.New(repo.NewRecordStore(pool), logger)

	// Внешние сервисы
	collaborators := engine.Collaborators{
		Vision:    collab.NewVision(env("VISION_URL", "http://localhost:9001")),
		Merger:    collab.NewMerger(env("MERGER_URL", "http://localhost:9002")),
		Content:   collab.NewContent(env("CONTENT_URL", "http://localhost:9003")),
		Documents: collab.NewDocuments(env("DOCUMENTS_URL", "http://localhost:9004")),
		Notifier:  collab.NewNotifier(env("NOTIFIER_URL", "http://localhost:9005")),
	}

	eng := engine.New(engine.Config{
		Locator:       loc,
		Collaborators: collaborators,
		Logger:        logger,
	})

	coordinator := lifecycle.NewCoordinator()
	publisher := mq.NewPublisher(conn, logger)

	dispatcher := dispatch.NewDispatcher(dispatch.Config{
		Runner:      eng,
		DeadLetters: publisher,
		Coordinator: coordinator,
		Logger:      logger,
	})

	consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
		Queue: string(mq.QueueTasks),
	})
	consumer.OnMessage(dispatcher.Handle)

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Start(ctx)
	}()
	readiness.SetReady("consumer")
	readiness.MarkStarted()
	logger.Info("valora-processor started", "queue", mq.QueueTasks)

	// Ожидаем сигнал, фатальный сбой соединения или ошибку consumer
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-conn.Fatal():
		// Переподключение исчерпано: выходим, рестарт — задача супервизора
		logger.Error("broker connection lost permanently", "error", err)
		os.Exit(1)
	case err := <-consumerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer stopped", "error", err)
			os.Exit(1)
		}
	}

	// Порядок остановки: перестать принимать → дождаться in-flight →
	// закрыть соединение.
	consumer.Stop()

	if err := coordinator.Drain(lifecycle.DefaultDrainTimeout); err != nil {
		logger.Warn("drain timed out, in-flight messages will be redelivered",
			"in_flight", coordinator.InFlight(),
		)
	}

	logger.Info("valora-processor stopped")
}
