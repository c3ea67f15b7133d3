package engine

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/Valora/internal/domain"
)

// visionPrompt — запрос к vision-сервису для описания предмета.
const visionPrompt = "Describe the appraised item in the photo: object, materials, period, condition."

// placeholderMarker — маркер ссылки-заглушки в ответе рендерера.
const placeholderMarker = "placeholder"

// stepSetValue записывает оценочную стоимость и описание.
//
// Значения берутся из сообщения; при их отсутствии — уже сохранённые
// (возобновление шага). Если ни один источник не даёт значение и
// описание — бизнес-ошибка.
func (e *Engine) stepSetValue(ctx context.Context, h *domain.RecordHandle, msg *domain.TaskMessage) error {
	stored, err := e.locator.FetchFields(ctx, h, []domain.Field{
		domain.FieldValue,
		domain.FieldDescription,
	})
	if err != nil {
		return err
	}

	if err := e.setStatusStrict(ctx, h, domain.StatusProcessing, "recording appraised value"); err != nil {
		return err
	}

	value := stored[domain.FieldValue]
	if msg != nil && msg.Value > 0 {
		value = strconv.FormatFloat(msg.Value, 'f', -1, 64)
	}

	description := stored[domain.FieldDescription]
	if msg != nil && msg.Description != "" {
		description = msg.Description
	}

	if value == "" || description == "" {
		return ErrMissingInput
	}

	writes := map[domain.Field]string{
		domain.FieldValue:       value,
		domain.FieldDescription: description,
	}

	if msg != nil && msg.RecordType != "" {
		if !msg.RecordType.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidRecordType, msg.RecordType)
		}
		writes[domain.FieldRecordType] = string(msg.RecordType)
	}

	if err := e.locator.WriteFields(ctx, h, writes); err != nil {
		return err
	}

	return e.setStatusStrict(ctx, h, domain.StatusReady, "appraised value recorded")
}

// stepMergeDescriptions получает AI-описание и сливает его с
// пользовательским.
//
// Уже сохранённое AI-описание переиспользуется: повторный вызов
// vision-сервиса дорог и медленен. При конфликте текстов приоритет
// у пользовательского описания (контракт TextMerger).
func (e *Engine) stepMergeDescriptions(ctx context.Context, h *domain.RecordHandle, _ *domain.TaskMessage) error {
	fields, err := e.locator.FetchFields(ctx, h, []domain.Field{
		domain.FieldAIDescription,
		domain.FieldDescription,
		domain.FieldImageURL,
	})
	if err != nil {
		return err
	}

	if err := e.setStatusStrict(ctx, h, domain.StatusAnalyzing, "analyzing item description"); err != nil {
		return err
	}

	aiDescription := fields[domain.FieldAIDescription]
	if aiDescription == "" {
		imageURL := fields[domain.FieldImageURL]
		if imageURL == "" {
			return ErrNoPrimaryImage
		}

		aiDescription, err = e.collab.Vision.Analyze(ctx, imageURL, visionPrompt)
		if err != nil {
			return fmt.Errorf("analyze primary image: %w", err)
		}

		if err := e.locator.WriteFields(ctx, h, map[domain.Field]string{
			domain.FieldAIDescription: aiDescription,
		}); err != nil {
			return err
		}
	}

	merged, err := e.collab.Merger.Merge(ctx, fields[domain.FieldDescription], aiDescription)
	if err != nil {
		return fmt.Errorf("merge descriptions: %w", err)
	}

	if err := e.locator.WriteFields(ctx, h, map[domain.Field]string{
		domain.FieldMergedDescription: merged.Text,
		domain.FieldShortTitle:        merged.ShortTitle,
		domain.FieldLongTitle:         merged.LongTitle,
	}); err != nil {
		return err
	}

	return e.setStatusStrict(ctx, h, domain.StatusReady, "descriptions merged")
}

// stepUpdateExternalContent публикует заголовки, описание, стоимость
// и категорию в связанный элемент CMS.
func (e *Engine) stepUpdateExternalContent(ctx context.Context, h *domain.RecordHandle, _ *domain.TaskMessage) error {
	fields, err := e.locator.FetchFields(ctx, h, []domain.Field{
		domain.FieldContentURL,
		domain.FieldShortTitle,
		domain.FieldLongTitle,
		domain.FieldMergedDescription,
		domain.FieldValue,
		domain.FieldRecordType,
	})
	if err != nil {
		return err
	}

	if err := e.setStatusStrict(ctx, h, domain.StatusUpdating, "updating content item"); err != nil {
		return err
	}

	itemID, err := contentItemID(fields[domain.FieldContentURL])
	if err != nil {
		return err
	}

	err = e.collab.Content.UpdateItem(ctx, itemID, map[string]any{
		"title":       fields[domain.FieldShortTitle],
		"long_title":  fields[domain.FieldLongTitle],
		"description": fields[domain.FieldMergedDescription],
		"value":       fields[domain.FieldValue],
		"type":        fields[domain.FieldRecordType],
	})
	if err != nil {
		return fmt.Errorf("update content item %s: %w", itemID, err)
	}

	return e.setStatusStrict(ctx, h, domain.StatusReady, "content item updated")
}

// stepGenerateVisualization запускает сборку визуального контента
// отчёта. Чистый side effect: ничего не читается обратно в запись.
func (e *Engine) stepGenerateVisualization(ctx context.Context, h *domain.RecordHandle, _ *domain.TaskMessage) error {
	fields, err := e.locator.FetchFields(ctx, h, []domain.Field{domain.FieldContentURL})
	if err != nil {
		return err
	}

	if err := e.setStatusStrict(ctx, h, domain.StatusGenerating, "building report visualization"); err != nil {
		return err
	}

	itemID, err := contentItemID(fields[domain.FieldContentURL])
	if err != nil {
		return err
	}

	if err := e.collab.Content.BuildReport(ctx, itemID); err != nil {
		return fmt.Errorf("build report for item %s: %w", itemID, err)
	}

	return e.setStatusStrict(ctx, h, domain.StatusReady, "report visualization triggered")
}

// stepGenerateDocument рендерит итоговый документ и уведомляет клиента.
//
// Рендеринг медленный, поэтому отдельный длинный таймаут. Ссылка с
// маркером-заглушкой — жёсткая ошибка: не сохраняется и не
// отправляется клиенту. Ошибка уведомления не роняет шаг в FAILED:
// документ готов, запись получает WARNING.
func (e *Engine) stepGenerateDocument(ctx context.Context, h *domain.RecordHandle, _ *domain.TaskMessage) error {
	fields, err := e.locator.FetchFields(ctx, h, []domain.Field{
		domain.FieldContentURL,
		domain.FieldCustomerEmail,
		domain.FieldCustomerName,
	})
	if err != nil {
		return err
	}

	if err := e.setStatusStrict(ctx, h, domain.StatusFinalizing, "rendering appraisal document"); err != nil {
		return err
	}

	itemID, err := contentItemID(fields[domain.FieldContentURL])
	if err != nil {
		return err
	}

	renderCtx, cancel := context.WithTimeout(ctx, e.renderTimeout)
	defer cancel()

	links, err := e.collab.Documents.Render(renderCtx, itemID)
	if err != nil {
		return fmt.Errorf("render document for item %s: %w", itemID, err)
	}

	if isPlaceholder(links.DocumentLink) || isPlaceholder(links.SourceLink) {
		return fmt.Errorf("%w: %s", ErrPlaceholderDocument, links.DocumentLink)
	}

	if err := e.locator.WriteFields(ctx, h, map[domain.Field]string{
		domain.FieldDocumentLink: links.DocumentLink,
		domain.FieldSourceLink:   links.SourceLink,
	}); err != nil {
		return err
	}

	email := fields[domain.FieldCustomerEmail]
	if email == "" {
		return ErrNoCustomerContact
	}

	receipt, err := e.collab.Notifier.SendCompletion(ctx, email, fields[domain.FieldCustomerName], CompletionLinks{
		DocumentLink: links.DocumentLink,
		PublicURL:    fields[domain.FieldContentURL],
	})
	if err != nil {
		e.setStatus(ctx, h, domain.StatusWarning, "document ready, notification failed: "+err.Error())
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	if err := e.locator.WriteFields(ctx, h, map[domain.Field]string{
		domain.FieldDeliveryReceipt: fmt.Sprintf("%s %s", receipt.DeliveryID, receipt.Timestamp.UTC().Format(time.RFC3339)),
	}); err != nil {
		return err
	}

	return e.setStatusStrict(ctx, h, domain.StatusReady, "document delivered")
}

// stepComplete — терминальный шаг: статус COMPLETED и архивация.
// Достижим только из active раздела: Archive вернёт
// ErrInvalidTransition для уже архивированной записи.
func (e *Engine) stepComplete(ctx context.Context, h *domain.RecordHandle, _ *domain.TaskMessage) error {
	if err := e.setStatusStrict(ctx, h, domain.StatusCompleted, "appraisal pipeline completed"); err != nil {
		return err
	}

	return e.locator.Archive(ctx, h)
}

// contentItemID извлекает идентификатор элемента CMS из сохранённой
// ссылки (последний сегмент пути).
func contentItemID(contentURL string) (string, error) {
	if contentURL == "" {
		return "", ErrNoContentReference
	}

	u, err := url.Parse(contentURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoContentReference, contentURL)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	itemID := segments[len(segments)-1]
	if itemID == "" {
		return "", fmt.Errorf("%w: %s", ErrNoContentReference, contentURL)
	}

	return itemID, nil
}

// isPlaceholder проверяет ссылку на маркер-заглушку.
func isPlaceholder(link string) bool {
	return strings.Contains(strings.ToLower(link), placeholderMarker)
}
