package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Valora/internal/engine"
)

const defaultTimeout = 30 * time.Second

// client — общая часть HTTP-адаптеров.
type client struct {
	base string
	http *http.Client
}

func newClient(baseURL string, timeout time.Duration) client {
	return client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// doJSON выполняет запрос с JSON телом и разбирает JSON ответ.
func (c *client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Vision — адаптер vision/analysis сервиса.
type Vision struct{ client }

// NewVision создаёт адаптер vision-сервиса.
func NewVision(baseURL string) *Vision {
	return &Vision{newClient(baseURL, defaultTimeout)}
}

// Analyze запрашивает описание изображения.
func (v *Vision) Analyze(ctx context.Context, imageURL, prompt string) (string, error) {
	var out struct {
		Description string `json:"description"`
	}
	err := v.doJSON(ctx, http.MethodPost, "/v1/analyze", map[string]string{
		"image_url": imageURL,
		"prompt":    prompt,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Description, nil
}

// Merger — адаптер сервиса слияния текстов.
type Merger struct{ client }

// NewMerger создаёт адаптер сервиса слияния.
func NewMerger(baseURL string) *Merger {
	return &Merger{newClient(baseURL, defaultTimeout)}
}

// Merge сливает пользовательское и AI-описания.
func (m *Merger) Merge(ctx context.Context, userText, aiText string) (engine.MergedDescription, error) {
	var out struct {
		MergedText string `json:"merged_text"`
		ShortTitle string `json:"short_title"`
		LongTitle  string `json:"long_title"`
	}
	err := m.doJSON(ctx, http.MethodPost, "/v1/merge", map[string]string{
		"user_text": userText,
		"ai_text":   aiText,
	}, &out)
	if err != nil {
		return engine.MergedDescription{}, err
	}
	return engine.MergedDescription{
		Text:       out.MergedText,
		ShortTitle: out.ShortTitle,
		LongTitle:  out.LongTitle,
	}, nil
}

// Content — адаптер CMS.
type Content struct{ client }

// NewContent создаёт адаптер CMS.
func NewContent(baseURL string) *Content {
	return &Content{newClient(baseURL, defaultTimeout)}
}

// GetItem читает элемент контента.
func (c *Content) GetItem(ctx context.Context, itemID string) (map[string]any, error) {
	var out map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/v1/items/"+itemID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateItem обновляет поля элемента контента.
func (c *Content) UpdateItem(ctx context.Context, itemID string, fields map[string]any) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/items/"+itemID, fields, nil)
}

// BuildReport запускает сборку визуального отчёта для элемента.
func (c *Content) BuildReport(ctx context.Context, itemID string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/items/"+itemID+"/report", nil, nil)
}

// Documents — адаптер рендерера документов.
//
// Таймаут HTTP-клиента не задаётся: рендеринг долгий, дедлайн
// контролирует движок через context.
type Documents struct{ client }

// NewDocuments создаёт адаптер рендерера.
func NewDocuments(baseURL string) *Documents {
	return &Documents{newClient(baseURL, 0)}
}

// Render рендерит документ и возвращает ссылки.
func (d *Documents) Render(ctx context.Context, itemID string) (engine.DocumentLinks, error) {
	var out struct {
		DocumentLink string `json:"document_link"`
		SourceLink   string `json:"source_link"`
	}
	err := d.doJSON(ctx, http.MethodPost, "/v1/documents/"+itemID, nil, &out)
	if err != nil {
		return engine.DocumentLinks{}, err
	}
	return engine.DocumentLinks{
		DocumentLink: out.DocumentLink,
		SourceLink:   out.SourceLink,
	}, nil
}

// Notifier — адаптер сервиса уведомлений.
type Notifier struct{ client }

// NewNotifier создаёт адаптер уведомлений.
func NewNotifier(baseURL string) *Notifier {
	return &Notifier{newClient(baseURL, defaultTimeout)}
}

// SendCompletion отправляет клиенту письмо о готовом отчёте.
func (n *Notifier) SendCompletion(ctx context.Context, email, name string, links engine.CompletionLinks) (engine.DeliveryReceipt, error) {
	var out struct {
		DeliveryID string    `json:"delivery_id"`
		Timestamp  time.Time `json:"timestamp"`
	}
	err := n.doJSON(ctx, http.MethodPost, "/v1/notifications", map[string]string{
		"email":         email,
		"name":          name,
		"document_link": links.DocumentLink,
		"public_url":    links.PublicURL,
	}, &out)
	if err != nil {
		return engine.DeliveryReceipt{}, err
	}
	return engine.DeliveryReceipt{
		DeliveryID: out.DeliveryID,
		Timestamp:  out.Timestamp,
	}, nil
}
