package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Valora/internal/domain"
	"github.com/shaiso/Valora/internal/locator"
	"github.com/shaiso/Valora/internal/telemetry"
)

// Default configuration values.
const defaultRenderTimeout = 10 * time.Minute

// buildReportChain — последовательность композитного шага build_report.
// Цепочка обрывается на первом упавшем шаге: его FAILED остаётся,
// последующие шаги не выполняются.
var buildReportChain = []domain.StepName{
	domain.StepSetValue,
	domain.StepMergeDescriptions,
	domain.StepUpdateExternalContent,
	domain.StepGenerateVisualization,
	domain.StepGenerateDocument,
	domain.StepComplete,
}

// stepFunc — операция одного шага над разрешённой записью.
type stepFunc func(ctx context.Context, h *domain.RecordHandle, msg *domain.TaskMessage) error

// Engine — машина состояний по шагам обработки записи оценки.
//
// Каждый шаг независимо возобновляем: вызывающий может войти в
// пайплайн с любого шага. Для каждого шага движок:
//  1. Разрешает RecordHandle через Locator (если не передан)
//  2. Читает только нужные шагу поля
//  3. Пишет in-progress статус до внешней работы
//  4. Выполняет операцию шага
//  5. Сохраняет результат в тот же раздел, из которого разрешён handle
//  6. Пишет финальный статус (FAILED с деталью при ошибке) и
//     пробрасывает ошибку — внутренних retry у движка нет
type Engine struct {
	locator       *locator.Locator
	collab        Collaborators
	steps         map[domain.StepName]stepFunc
	locks         *recordLocks
	renderTimeout time.Duration
	logger        *slog.Logger
}

// Config — конфигурация Engine.
type Config struct {
	Locator       *locator.Locator
	Collaborators Collaborators

	// RenderTimeout — таймаут рендеринга документа (default: 10m).
	RenderTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Engine.
func New(cfg Config) *Engine {
	renderTimeout := cfg.RenderTimeout
	if renderTimeout <= 0 {
		renderTimeout = defaultRenderTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		locator:       cfg.Locator,
		collab:        cfg.Collaborators,
		locks:         newRecordLocks(),
		renderTimeout: renderTimeout,
		logger:        logger,
	}

	e.steps = map[domain.StepName]stepFunc{
		domain.StepSetValue:              e.stepSetValue,
		domain.StepMergeDescriptions:     e.stepMergeDescriptions,
		domain.StepUpdateExternalContent: e.stepUpdateExternalContent,
		domain.StepGenerateVisualization: e.stepGenerateVisualization,
		domain.StepGenerateDocument:      e.stepGenerateDocument,
		domain.StepComplete:              e.stepComplete,
	}

	return e
}

// Run выполняет шаг step для записи recordID.
//
// Лок по record_id держится на всё время выполнения: два сообщения
// про одну запись сериализуются внутри процесса.
func (e *Engine) Run(ctx context.Context, recordID string, step domain.StepName, msg *domain.TaskMessage) error {
	if step != domain.StepBuildReport {
		if _, ok := e.steps[step]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStep, step)
		}
	}

	unlock := e.locks.Acquire(recordID)
	defer unlock()

	h, err := e.locator.Locate(ctx, recordID)
	if err != nil {
		return err
	}

	logger := telemetry.WithRecordID(e.logger, recordID)

	if step == domain.StepBuildReport {
		for _, s := range buildReportChain {
			if err := e.runStep(ctx, logger, &h, s, msg); err != nil {
				return err
			}
		}
		return nil
	}

	return e.runStep(ctx, logger, &h, step, msg)
}

// runStep выполняет один шаг и ведёт статусный след.
func (e *Engine) runStep(ctx context.Context, logger *slog.Logger, h *domain.RecordHandle, step domain.StepName, msg *domain.TaskMessage) error {
	logger = telemetry.WithStep(logger, string(step))
	logger.Info("step started", "partition", h.Partition)

	start := time.Now()
	err := e.steps[step](ctx, h, msg)
	telemetry.StepDuration.WithLabelValues(string(step)).Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.StepFailures.WithLabelValues(string(step)).Inc()

		// Уведомление — особый случай: документ готов, статус WARNING
		// уже записан шагом, FAILED его не перетирает.
		if !errors.Is(err, ErrNotificationFailed) {
			e.setStatus(ctx, h, domain.StatusFailed, err.Error())
		}

		logger.Warn("step failed", "error", err, "duration", time.Since(start))
		return fmt.Errorf("step %s: %w", step, err)
	}

	logger.Info("step finished", "duration", time.Since(start))
	return nil
}

// setStatus записывает статусный след: статус, деталь, время.
// Ошибка записи статуса не скрывает ошибку шага — только логируется.
func (e *Engine) setStatus(ctx context.Context, h *domain.RecordHandle, status domain.RecordStatus, detail string) {
	err := e.locator.WriteFields(ctx, h, map[domain.Field]string{
		domain.FieldStatus:          string(status),
		domain.FieldStatusDetail:    detail,
		domain.FieldStatusUpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		e.logger.Error("failed to write record status",
			"record_id", h.RecordID,
			"status", status,
			"error", err,
		)
	}
}

// setStatusStrict — как setStatus, но ошибка записи пробрасывается.
// Используется для in-progress статусов: если статус не записывается,
// хранилище нездорово и начинать внешнюю работу бессмысленно.
func (e *Engine) setStatusStrict(ctx context.Context, h *domain.RecordHandle, status domain.RecordStatus, detail string) error {
	err := e.locator.WriteFields(ctx, h, map[domain.Field]string{
		domain.FieldStatus:          string(status),
		domain.FieldStatusDetail:    detail,
		domain.FieldStatusUpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("write status %s: %w", status, err)
	}
	return nil
}
