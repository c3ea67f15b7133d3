package engine

import (
	"context"
	"time"
)

// Интерфейсы внешних сервисов, которые движок вызывает по шагам.
// Реализации — тонкие адаптеры (internal/collab); движок знает
// только контракты.

// VisionAnalyzer генерирует текстовое описание по изображению.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, imageURL, prompt string) (string, error)
}

// MergedDescription — результат слияния описаний.
type MergedDescription struct {
	Text       string
	ShortTitle string
	LongTitle  string
}

// TextMerger сливает пользовательское и сгенерированное описания.
// При конфликте приоритет у пользовательского текста.
type TextMerger interface {
	Merge(ctx context.Context, userText, aiText string) (MergedDescription, error)
}

// ContentManager управляет внешним контентом (CMS).
type ContentManager interface {
	GetItem(ctx context.Context, itemID string) (map[string]any, error)
	UpdateItem(ctx context.Context, itemID string, fields map[string]any) error
	BuildReport(ctx context.Context, itemID string) error
}

// DocumentLinks — ссылки на отрендеренный документ.
type DocumentLinks struct {
	DocumentLink string
	SourceLink   string
}

// DocumentGenerator рендерит итоговый документ.
// Вызов долгий (порядка минут) и синхронный для вызывающего.
type DocumentGenerator interface {
	Render(ctx context.Context, itemID string) (DocumentLinks, error)
}

// CompletionLinks — ссылки для письма клиенту.
type CompletionLinks struct {
	DocumentLink string
	PublicURL    string
}

// DeliveryReceipt — подтверждение отправки уведомления.
type DeliveryReceipt struct {
	DeliveryID string
	Timestamp  time.Time
}

// Notifier отправляет клиенту уведомление о готовом отчёте.
type Notifier interface {
	SendCompletion(ctx context.Context, email, name string, links CompletionLinks) (DeliveryReceipt, error)
}

// Collaborators — все внешние сервисы движка одной структурой.
//
// Собирается composition root'ом и передаётся в конструктор движка:
// никакого глобального реестра сервисов.
type Collaborators struct {
	Vision    VisionAnalyzer
	Merger    TextMerger
	Content   ContentManager
	Documents DocumentGenerator
	Notifier  Notifier
}
