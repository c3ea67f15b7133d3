// Package locator разрешает местоположение записи оценки.
//
// Запись живёт ровно в одном из двух разделов: active или archived.
// Locator находит раздел (active проверяется первым), кэширует
// результат и выполняет чтение/запись полей в правильном разделе.
//
// Кэш — оптимизация, не источник истины: если чтение по кэшированному
// разделу возвращает пустоту (запись перенесли вручную), кэш
// вытесняется и выполняется полное повторное разрешение.
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shaiso/Valora/internal/domain"
	"github.com/shaiso/Valora/internal/repo"
)

// cacheSize — ёмкость кэша record_id → partition.
const cacheSize = 4096

// Ошибки Locator'а.
var (
	// ErrRecordNotFound — запись отсутствует в обоих разделах.
	ErrRecordNotFound = errors.New("record not found in any partition")

	// ErrInvalidTransition — архивировать можно только из active.
	// Перехода archived → active не существует.
	ErrInvalidTransition = errors.New("invalid partition transition")
)

// DataStore — контракт хранилища записей.
// Реализация — repo.RecordStore; отсутствие записи в разделе
// сигнализируется repo.ErrNotFound.
type DataStore interface {
	Exists(ctx context.Context, partition domain.Partition, recordID string) (bool, error)
	FetchFields(ctx context.Context, partition domain.Partition, recordID string, fields []domain.Field) (map[domain.Field]string, error)
	WriteFields(ctx context.Context, partition domain.Partition, recordID string, values map[domain.Field]string) error
	Move(ctx context.Context, recordID string, from, to domain.Partition) error
}

// Locator находит записи по разделам и кэширует результат.
type Locator struct {
	store  DataStore
	cache  *lru.Cache[string, domain.Partition]
	logger *slog.Logger
}

// New создаёт новый Locator.
func New(store DataStore, logger *slog.Logger) *Locator {
	// Ошибка возможна только при неположительной ёмкости.
	cache, _ := lru.New[string, domain.Partition](cacheSize)

	return &Locator{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Locate возвращает handle записи: id + раздел.
// Результат кэшируется; устаревший кэш обнаруживается и чинится
// при первом чтении/записи (см. FetchFields).
func (l *Locator) Locate(ctx context.Context, recordID string) (domain.RecordHandle, error) {
	if partition, ok := l.cache.Get(recordID); ok {
		return domain.RecordHandle{RecordID: recordID, Partition: partition}, nil
	}
	return l.resolve(ctx, recordID)
}

// resolve выполняет полное разрешение по обоим разделам.
func (l *Locator) resolve(ctx context.Context, recordID string) (domain.RecordHandle, error) {
	for _, partition := range []domain.Partition{domain.PartitionActive, domain.PartitionArchived} {
		exists, err := l.store.Exists(ctx, partition, recordID)
		if err != nil {
			return domain.RecordHandle{}, fmt.Errorf("check %s partition: %w", partition, err)
		}
		if exists {
			l.cache.Add(recordID, partition)
			return domain.RecordHandle{RecordID: recordID, Partition: partition}, nil
		}
	}

	return domain.RecordHandle{}, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
}

// FetchFields читает набор полей из раздела handle одним запросом.
//
// Если раздел из кэша устарел (запись перенесли вручную), handle
// переразрешается и обновляется на месте, чтение повторяется один раз.
func (l *Locator) FetchFields(ctx context.Context, h *domain.RecordHandle, fields []domain.Field) (map[domain.Field]string, error) {
	values, err := l.store.FetchFields(ctx, h.Partition, h.RecordID, fields)
	if errors.Is(err, repo.ErrNotFound) {
		if err := l.relocate(ctx, h); err != nil {
			return nil, err
		}
		return l.store.FetchFields(ctx, h.Partition, h.RecordID, fields)
	}
	return values, err
}

// WriteFields записывает набор полей в раздел handle одним запросом.
// Устаревший раздел чинится так же, как в FetchFields.
func (l *Locator) WriteFields(ctx context.Context, h *domain.RecordHandle, values map[domain.Field]string) error {
	err := l.store.WriteFields(ctx, h.Partition, h.RecordID, values)
	if errors.Is(err, repo.ErrNotFound) {
		if err := l.relocate(ctx, h); err != nil {
			return err
		}
		return l.store.WriteFields(ctx, h.Partition, h.RecordID, values)
	}
	return err
}

// relocate вытесняет кэш и переразрешает handle на месте.
func (l *Locator) relocate(ctx context.Context, h *domain.RecordHandle) error {
	l.logger.Warn("stale partition cache, re-resolving",
		"record_id", h.RecordID,
		"cached_partition", h.Partition,
	)
	l.cache.Remove(h.RecordID)

	fresh, err := l.resolve(ctx, h.RecordID)
	if err != nil {
		return err
	}
	*h = fresh
	return nil
}

// Archive переносит запись из active в archived.
//
// Единственный допустимый переход; вызывается ровно один раз,
// при успешном завершении всего пайплайна.
func (l *Locator) Archive(ctx context.Context, h *domain.RecordHandle) error {
	if h.Partition != domain.PartitionActive {
		return fmt.Errorf("%w: archive from %s", ErrInvalidTransition, h.Partition)
	}

	if err := l.store.Move(ctx, h.RecordID, domain.PartitionActive, domain.PartitionArchived); err != nil {
		return fmt.Errorf("archive record %s: %w", h.RecordID, err)
	}

	h.Partition = domain.PartitionArchived
	l.cache.Add(h.RecordID, domain.PartitionArchived)

	l.logger.Info("record archived", "record_id", h.RecordID)
	return nil
}
