package domain

import "time"

// StepName — имя шага workflow-движка.
//
// Каждый шаг независимо возобновляем: сообщение может указать любой
// шаг как точку входа, а не только проигрывать пайплайн с начала.
type StepName string

const (
	// StepSetValue — запись оценочной стоимости и исходного описания.
	StepSetValue StepName = "set_value"

	// StepMergeDescriptions — AI-описание + слияние с пользовательским.
	StepMergeDescriptions StepName = "merge_descriptions"

	// StepUpdateExternalContent — публикация полей в CMS.
	StepUpdateExternalContent StepName = "update_external_content"

	// StepGenerateVisualization — сборка визуального контента отчёта.
	StepGenerateVisualization StepName = "generate_visualization"

	// StepGenerateDocument — рендеринг документа и уведомление клиента.
	StepGenerateDocument StepName = "generate_document"

	// StepComplete — финализация: статус COMPLETED + архивация.
	StepComplete StepName = "complete"

	// StepBuildReport — композитный шаг: весь пайплайн последовательно.
	StepBuildReport StepName = "build_report"
)

// IsValid возвращает true, если имя шага известно движку.
func (s StepName) IsValid() bool {
	switch s {
	case StepSetValue, StepMergeDescriptions, StepUpdateExternalContent,
		StepGenerateVisualization, StepGenerateDocument, StepComplete, StepBuildReport:
		return true
	default:
		return false
	}
}

// TaskMessage — входящее задание на обработку записи оценки.
//
// Публикуется внешним продюсером в очередь appraisals.tasks.
// MessageID и DeliveryAttempt заполняются из метаданных брокера,
// остальные поля — из JSON-payload.
type TaskMessage struct {
	// RecordID — идентификатор записи оценки.
	RecordID string `json:"recordId"`

	// Value — оценочная стоимость.
	Value float64 `json:"value"`

	// Description — пользовательское описание предмета.
	Description string `json:"description"`

	// RecordType — категория предмета (опционально).
	RecordType RecordType `json:"recordType,omitempty"`

	// Step — точка входа в пайплайн (опционально, default: build_report).
	Step StepName `json:"step,omitempty"`

	// MessageID — уникальный идентификатор сообщения от брокера.
	// Ключ локальной дедупликации.
	MessageID string `json:"-"`

	// DeliveryAttempt — номер доставки (1 для первой).
	DeliveryAttempt int `json:"-"`
}

// DeadLetterEntry — терминальная запись о сообщении, которое не удалось
// обработать. Публикуется в DLQ для ручного разбора, автоматически
// не переобрабатывается.
type DeadLetterEntry struct {
	// RecordID — идентификатор записи ("" если payload нечитаем).
	RecordID string `json:"recordId"`

	// OriginalMessage — исходное тело сообщения как есть.
	OriginalMessage string `json:"originalMessage"`

	// Error — причина отказа.
	Error string `json:"error"`

	// Timestamp — момент отказа.
	Timestamp time.Time `json:"timestamp"`
}
