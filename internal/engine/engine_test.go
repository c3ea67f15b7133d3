package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Valora/internal/domain"
	"github.com/shaiso/Valora/internal/locator"
	"github.com/shaiso/Valora/internal/repo"
)

// --- Fakes ---

// memStore — in-memory реализация locator.DataStore с двумя разделами.
type memStore struct {
	mu   sync.Mutex
	data map[domain.Partition]map[string]map[domain.Field]string
}

func newMemStore() *memStore {
	return &memStore{
		data: map[domain.Partition]map[string]map[domain.Field]string{
			domain.PartitionActive:   {},
			domain.PartitionArchived: {},
		},
	}
}

func (s *memStore) put(p domain.Partition, recordID string, fields map[domain.Field]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := make(map[domain.Field]string, len(fields))
	for k, v := range fields {
		record[k] = v
	}
	s.data[p][recordID] = record
}

func (s *memStore) get(p domain.Partition, recordID string, field domain.Field) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[p][recordID][field]
}

func (s *memStore) has(p domain.Partition, recordID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[p][recordID]
	return ok
}

func (s *memStore) Exists(_ context.Context, p domain.Partition, recordID string) (bool, error) {
	return s.has(p, recordID), nil
}

func (s *memStore) FetchFields(_ context.Context, p domain.Partition, recordID string, fields []domain.Field) (map[domain.Field]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.data[p][recordID]
	if !ok {
		return nil, repo.ErrNotFound
	}

	values := make(map[domain.Field]string, len(fields))
	for _, f := range fields {
		values[f] = record[f]
	}
	return values, nil
}

func (s *memStore) WriteFields(_ context.Context, p domain.Partition, recordID string, values map[domain.Field]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.data[p][recordID]
	if !ok {
		return repo.ErrNotFound
	}
	for k, v := range values {
		record[k] = v
	}
	return nil
}

func (s *memStore) Move(_ context.Context, recordID string, from, to domain.Partition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.data[from][recordID]
	if !ok {
		return repo.ErrNotFound
	}
	if _, exists := s.data[to][recordID]; exists {
		return repo.ErrAlreadyExists
	}
	s.data[to][recordID] = record
	delete(s.data[from], recordID)
	return nil
}

type fakeVision struct {
	calls int
	err   error
}

func (v *fakeVision) Analyze(_ context.Context, _, _ string) (string, error) {
	v.calls++
	if v.err != nil {
		return "", v.err
	}
	return "ai description", nil
}

type fakeMerger struct {
	calls int
	err   error
}

func (m *fakeMerger) Merge(_ context.Context, userText, aiText string) (MergedDescription, error) {
	m.calls++
	if m.err != nil {
		return MergedDescription{}, m.err
	}
	return MergedDescription{
		Text:       userText + " + " + aiText,
		ShortTitle: "Short",
		LongTitle:  "Long Title",
	}, nil
}

type fakeContent struct {
	updateCalls int
	reportCalls int
	updated     map[string]any
	updateErr   error
	reportErr   error
}

func (c *fakeContent) GetItem(_ context.Context, _ string) (map[string]any, error) {
	return map[string]any{}, nil
}

func (c *fakeContent) UpdateItem(_ context.Context, _ string, fields map[string]any) error {
	c.updateCalls++
	if c.updateErr != nil {
		return c.updateErr
	}
	c.updated = fields
	return nil
}

func (c *fakeContent) BuildReport(_ context.Context, _ string) error {
	c.reportCalls++
	return c.reportErr
}

type fakeDocuments struct {
	calls int
	links DocumentLinks
	err   error
}

func (d *fakeDocuments) Render(_ context.Context, _ string) (DocumentLinks, error) {
	d.calls++
	if d.err != nil {
		return DocumentLinks{}, d.err
	}
	return d.links, nil
}

type fakeNotifier struct {
	calls int
	email string
	err   error
}

func (n *fakeNotifier) SendCompletion(_ context.Context, email, _ string, _ CompletionLinks) (DeliveryReceipt, error) {
	n.calls++
	n.email = email
	if n.err != nil {
		return DeliveryReceipt{}, n.err
	}
	return DeliveryReceipt{DeliveryID: "delivery-1", Timestamp: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}, nil
}

// --- Harness ---

type harness struct {
	store     *memStore
	vision    *fakeVision
	merger    *fakeMerger
	content   *fakeContent
	documents *fakeDocuments
	notifier  *fakeNotifier
	engine    *Engine
}

func newHarness() *harness {
	h := &harness{
		store:   newMemStore(),
		vision:  &fakeVision{},
		merger:  &fakeMerger{},
		content: &fakeContent{},
		documents: &fakeDocuments{
			links: DocumentLinks{
				DocumentLink: "https://docs.example.com/final/42.pdf",
				SourceLink:   "https://docs.example.com/source/42",
			},
		},
		notifier: &fakeNotifier{},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loc := locator.New(h.store, logger)

	h.engine = New(Config{
		Locator: loc,
		Collaborators: Collaborators{
			Vision:    h.vision,
			Merger:    h.merger,
			Content:   h.content,
			Documents: h.documents,
			Notifier:  h.notifier,
		},
		Logger: logger,
	})

	return h
}

// seedRecord создаёт типичную запись в active разделе.
func (h *harness) seedRecord(recordID string) {
	h.store.put(domain.PartitionActive, recordID, map[domain.Field]string{
		domain.FieldImageURL:      "https://img.example.com/items/42.jpg",
		domain.FieldContentURL:    "https://cms.example.com/items/item-42",
		domain.FieldCustomerEmail: "customer@example.com",
		domain.FieldCustomerName:  "Jane Customer",
	})
}

// --- Tests ---

func TestRun_BuildReport_FullChain(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")

	msg := &domain.TaskMessage{
		RecordID:    "42",
		Value:       1000,
		Description: "A vintage lamp",
		RecordType:  domain.RecordTypeAntique,
	}

	err := h.engine.Run(context.Background(), "42", domain.StepBuildReport, msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Запись переехала в archived
	if h.store.has(domain.PartitionActive, "42") {
		t.Error("record should be removed from active partition")
	}
	if !h.store.has(domain.PartitionArchived, "42") {
		t.Fatal("record should be in archived partition")
	}

	if got := h.store.get(domain.PartitionArchived, "42", domain.FieldStatus); got != string(domain.StatusCompleted) {
		t.Errorf("status = %q, want %q", got, domain.StatusCompleted)
	}
	if got := h.store.get(domain.PartitionArchived, "42", domain.FieldValue); got != "1000" {
		t.Errorf("value = %q, want %q", got, "1000")
	}
	if got := h.store.get(domain.PartitionArchived, "42", domain.FieldRecordType); got != "antique" {
		t.Errorf("record type = %q, want %q", got, "antique")
	}
	if got := h.store.get(domain.PartitionArchived, "42", domain.FieldMergedDescription); got == "" {
		t.Error("merged description should be persisted")
	}
	if got := h.store.get(domain.PartitionArchived, "42", domain.FieldDocumentLink); got != h.documents.links.DocumentLink {
		t.Errorf("document link = %q, want %q", got, h.documents.links.DocumentLink)
	}
	if got := h.store.get(domain.PartitionArchived, "42", domain.FieldDeliveryReceipt); !strings.Contains(got, "delivery-1") {
		t.Errorf("delivery receipt = %q, want to contain delivery id", got)
	}

	if h.notifier.calls != 1 {
		t.Errorf("notifier calls = %d, want 1", h.notifier.calls)
	}
	if h.notifier.email != "customer@example.com" {
		t.Errorf("notifier email = %q", h.notifier.email)
	}
	if h.content.updateCalls != 1 || h.content.reportCalls != 1 {
		t.Errorf("content calls = update %d / report %d, want 1/1", h.content.updateCalls, h.content.reportCalls)
	}
	if h.content.updated["title"] != "Short" {
		t.Errorf("content title = %v, want Short", h.content.updated["title"])
	}
}

func TestRun_UnknownStep(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")

	err := h.engine.Run(context.Background(), "42", "reticulate_splines", nil)
	if !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("error = %v, want ErrUnknownStep", err)
	}
}

func TestRun_RecordNotFound(t *testing.T) {
	h := newHarness()

	err := h.engine.Run(context.Background(), "missing", domain.StepSetValue, nil)
	if !errors.Is(err, locator.ErrRecordNotFound) {
		t.Fatalf("error = %v, want ErrRecordNotFound", err)
	}
}

func TestRun_SetValue_FallbackToStored(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")
	h.store.put(domain.PartitionActive, "42", map[domain.Field]string{
		domain.FieldValue:       "750",
		domain.FieldDescription: "Stored description",
	})

	// Сообщение без значения и описания: шаг возобновляется из
	// сохранённых полей.
	err := h.engine.Run(context.Background(), "42", domain.StepSetValue, &domain.TaskMessage{RecordID: "42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := h.store.get(domain.PartitionActive, "42", domain.FieldValue); got != "750" {
		t.Errorf("value = %q, want stored 750", got)
	}
	if got := h.store.get(domain.PartitionActive, "42", domain.FieldStatus); got != string(domain.StatusReady) {
		t.Errorf("status = %q, want READY", got)
	}
}

func TestRun_SetValue_MissingInput(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")

	err := h.engine.Run(context.Background(), "42", domain.StepSetValue, &domain.TaskMessage{RecordID: "42"})
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("error = %v, want ErrMissingInput", err)
	}

	if got := h.store.get(domain.PartitionActive, "42", domain.FieldStatus); got != string(domain.StatusFailed) {
		t.Errorf("status = %q, want FAILED", got)
	}
}

func TestRun_MergeDescriptions_ReusesAIDescription(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")
	h.store.put(domain.PartitionActive, "42", map[domain.Field]string{
		domain.FieldDescription:   "User text",
		domain.FieldAIDescription: "Cached AI text",
	})

	err := h.engine.Run(context.Background(), "42", domain.StepMergeDescriptions, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.vision.calls != 0 {
		t.Errorf("vision calls = %d, want 0 (cached description reused)", h.vision.calls)
	}
	if h.merger.calls != 1 {
		t.Errorf("merger calls = %d, want 1", h.merger.calls)
	}
	if got := h.store.get(domain.PartitionActive, "42", domain.FieldMergedDescription); got != "User text + Cached AI text" {
		t.Errorf("merged description = %q", got)
	}
}

func TestRun_MergeDescriptions_NoImage(t *testing.T) {
	h := newHarness()
	h.store.put(domain.PartitionActive, "42", map[domain.Field]string{
		domain.FieldDescription: "User text",
	})

	err := h.engine.Run(context.Background(), "42", domain.StepMergeDescriptions, nil)
	if !errors.Is(err, ErrNoPrimaryImage) {
		t.Fatalf("error = %v, want ErrNoPrimaryImage", err)
	}
}

func TestRun_ChainAbortsOnFailure(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")
	h.content.updateErr = errors.New("cms is down")

	msg := &domain.TaskMessage{RecordID: "42", Value: 500, Description: "Broken run"}

	err := h.engine.Run(context.Background(), "42", domain.StepBuildReport, msg)
	if err == nil {
		t.Fatal("expected error from update_external_content")
	}

	// Последующие шаги цепочки не выполняются
	if h.content.reportCalls != 0 {
		t.Errorf("report calls = %d, want 0 after chain abort", h.content.reportCalls)
	}
	if h.documents.calls != 0 {
		t.Errorf("render calls = %d, want 0 after chain abort", h.documents.calls)
	}
	if h.notifier.calls != 0 {
		t.Errorf("notifier calls = %d, want 0 after chain abort", h.notifier.calls)
	}

	// Запись осталась в active со статусом FAILED
	if !h.store.has(domain.PartitionActive, "42") {
		t.Error("record should stay in active partition")
	}
	if got := h.store.get(domain.PartitionActive, "42", domain.FieldStatus); got != string(domain.StatusFailed) {
		t.Errorf("status = %q, want FAILED", got)
	}
}

func TestRun_GenerateDocument_PlaceholderRejected(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")
	h.documents.links = DocumentLinks{
		DocumentLink: "https://docs.example.com/PLACEHOLDER.pdf",
		SourceLink:   "https://docs.example.com/source/42",
	}

	err := h.engine.Run(context.Background(), "42", domain.StepGenerateDocument, nil)
	if !errors.Is(err, ErrPlaceholderDocument) {
		t.Fatalf("error = %v, want ErrPlaceholderDocument", err)
	}

	// Заглушка не сохраняется и не отправляется клиенту
	if got := h.store.get(domain.PartitionActive, "42", domain.FieldDocumentLink); got != "" {
		t.Errorf("document link = %q, placeholder must not be persisted", got)
	}
	if h.notifier.calls != 0 {
		t.Errorf("notifier calls = %d, want 0", h.notifier.calls)
	}
}

func TestRun_GenerateDocument_NoCustomerContact(t *testing.T) {
	h := newHarness()
	h.store.put(domain.PartitionActive, "42", map[domain.Field]string{
		domain.FieldContentURL: "https://cms.example.com/items/item-42",
	})

	err := h.engine.Run(context.Background(), "42", domain.StepGenerateDocument, nil)
	if !errors.Is(err, ErrNoCustomerContact) {
		t.Fatalf("error = %v, want ErrNoCustomerContact", err)
	}

	// Документ отрендерен и сохранён до проверки контакта
	if got := h.store.get(domain.PartitionActive, "42", domain.FieldDocumentLink); got == "" {
		t.Error("document link should be persisted before contact check")
	}
}

func TestRun_GenerateDocument_NotificationFailureIsWarning(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")
	h.notifier.err = errors.New("smtp refused")

	err := h.engine.Run(context.Background(), "42", domain.StepGenerateDocument, nil)
	if !errors.Is(err, ErrNotificationFailed) {
		t.Fatalf("error = %v, want ErrNotificationFailed", err)
	}

	// Документ готов: WARNING, не FAILED
	if got := h.store.get(domain.PartitionActive, "42", domain.FieldStatus); got != string(domain.StatusWarning) {
		t.Errorf("status = %q, want WARNING", got)
	}
	if got := h.store.get(domain.PartitionActive, "42", domain.FieldDocumentLink); got == "" {
		t.Error("document link should be persisted despite notification failure")
	}
}

func TestRun_ResumeAtSingleStep(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")
	h.store.put(domain.PartitionActive, "42", map[domain.Field]string{
		domain.FieldContentURL: "https://cms.example.com/items/item-42",
	})

	// Вход в пайплайн с произвольного шага, без сообщения
	err := h.engine.Run(context.Background(), "42", domain.StepGenerateVisualization, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.content.reportCalls != 1 {
		t.Errorf("report calls = %d, want 1", h.content.reportCalls)
	}
	if h.content.updateCalls != 0 {
		t.Errorf("update calls = %d, earlier steps must not run", h.content.updateCalls)
	}
}

func TestRun_Complete_ArchivesRecord(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")

	err := h.engine.Run(context.Background(), "42", domain.StepComplete, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !h.store.has(domain.PartitionArchived, "42") {
		t.Fatal("record should be archived")
	}
	if got := h.store.get(domain.PartitionArchived, "42", domain.FieldStatus); got != string(domain.StatusCompleted) {
		t.Errorf("status = %q, want COMPLETED", got)
	}
}

func TestRun_Complete_AlreadyArchived(t *testing.T) {
	h := newHarness()
	h.store.put(domain.PartitionArchived, "42", map[domain.Field]string{
		domain.FieldStatus: string(domain.StatusCompleted),
	})

	err := h.engine.Run(context.Background(), "42", domain.StepComplete, nil)
	if !errors.Is(err, locator.ErrInvalidTransition) {
		t.Fatalf("error = %v, want ErrInvalidTransition", err)
	}
}

func TestRun_InvalidRecordType(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")

	msg := &domain.TaskMessage{
		RecordID:    "42",
		Value:       100,
		Description: "Something",
		RecordType:  "spaceship",
	}

	err := h.engine.Run(context.Background(), "42", domain.StepSetValue, msg)
	if !errors.Is(err, ErrInvalidRecordType) {
		t.Fatalf("error = %v, want ErrInvalidRecordType", err)
	}
}

// --- contentItemID ---

func TestContentItemID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://cms.example.com/items/item-42", "item-42", false},
		{"https://cms.example.com/items/item-42/", "item-42", false},
		{"", "", true},
		{"https://cms.example.com/", "", true},
	}

	for _, tt := range tests {
		got, err := contentItemID(tt.url)
		if tt.wantErr {
			if !errors.Is(err, ErrNoContentReference) {
				t.Errorf("contentItemID(%q) error = %v, want ErrNoContentReference", tt.url, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("contentItemID(%q) unexpected error: %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("contentItemID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestIsPlaceholder(t *testing.T) {
	if !isPlaceholder("https://docs.example.com/Placeholder.pdf") {
		t.Error("mixed-case placeholder should be detected")
	}
	if isPlaceholder("https://docs.example.com/final/42.pdf") {
		t.Error("real link should not be flagged")
	}
}

// Статусный след полного прогона: запись проходит промежуточные
// статусы, терминальный — COMPLETED.
func TestRun_BuildReport_StatusTrail(t *testing.T) {
	h := newHarness()
	h.seedRecord("42")

	msg := &domain.TaskMessage{RecordID: "42", Value: 1, Description: fmt.Sprintf("run at %d", time.Now().Unix())}

	if err := h.engine.Run(context.Background(), "42", domain.StepBuildReport, msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := h.store.get(domain.PartitionArchived, "42", domain.FieldStatusUpdatedAt); got == "" {
		t.Error("status_updated_at should be written")
	}
	if got := h.store.get(domain.PartitionArchived, "42", domain.FieldStatusDetail); got == "" {
		t.Error("status_detail should be written")
	}
}
