package domain

// RecordStatus — статус обработки записи оценки.
//
// Статус ведётся исключительно для наблюдения: внешний просмотрщик
// видит прогресс без чтения логов и DLQ. Движок пишет статус на каждом
// переходе шага, но никогда не читает его обратно как управляющий вход.
//
// Жизненный цикл:
//
//	PROCESSING → ANALYZING → UPDATING → GENERATING → FINALIZING → COMPLETED
//	(каждый шаг) ↘ FAILED
//	FINALIZING   ↘ WARNING (документ готов, уведомление не доставлено)
type RecordStatus string

const (
	// StatusProcessing — записывается оценочная стоимость и описание.
	StatusProcessing RecordStatus = "PROCESSING"

	// StatusAnalyzing — выполняется AI-анализ и слияние описаний.
	StatusAnalyzing RecordStatus = "ANALYZING"

	// StatusUpdating — обновляется внешний контент (CMS).
	StatusUpdating RecordStatus = "UPDATING"

	// StatusGenerating — собирается визуализация отчёта.
	StatusGenerating RecordStatus = "GENERATING"

	// StatusFinalizing — рендерится итоговый документ.
	StatusFinalizing RecordStatus = "FINALIZING"

	// StatusReady — шаг завершён, запись ожидает следующего шага.
	StatusReady RecordStatus = "READY"

	// StatusWarning — пайплайн прошёл, но с оговоркой (см. detail).
	StatusWarning RecordStatus = "WARNING"

	// StatusCompleted — пайплайн завершён, запись архивирована.
	StatusCompleted RecordStatus = "COMPLETED"

	// StatusFailed — шаг завершился ошибкой (см. detail).
	StatusFailed RecordStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RecordStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// ConnectionStatus — статус соединения с брокером.
//
// Владелец — mq.Connection; health endpoint читает его
// для отчёта о готовности процесса.
type ConnectionStatus string

const (
	// ConnInitializing — соединение ещё не устанавливалось.
	ConnInitializing ConnectionStatus = "initializing"

	// ConnConnected — соединение активно.
	ConnConnected ConnectionStatus = "connected"

	// ConnReconnecting — соединение потеряно, идёт переподключение.
	ConnReconnecting ConnectionStatus = "reconnecting"

	// ConnShuttingDown — процесс завершается, новые сообщения не принимаются.
	ConnShuttingDown ConnectionStatus = "shutting_down"
)
