package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Valora/internal/domain"
)

// RecordStore — хранилище записей оценки поверх Postgres.
//
// Записи живут в двух таблицах-разделах: appraisals (active) и
// appraisals_archive (archived), с одинаковой схемой. Значения полей
// хранятся текстом — наследие табличного происхождения данных.
type RecordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore создаёт новый RecordStore.
func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

// Exists проверяет наличие записи в разделе.
func (r *RecordStore) Exists(ctx context.Context, partition domain.Partition, recordID string) (bool, error) {
	table, err := tableFor(partition)
	if err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE record_id = $1)`, table)
	if err := r.pool.QueryRow(ctx, query, recordID).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s: %w", table, err)
	}
	return exists, nil
}

// FetchFields читает набор полей одним запросом.
// Возвращает ErrNotFound, если записи нет в разделе.
func (r *RecordStore) FetchFields(ctx context.Context, partition domain.Partition, recordID string, fields []domain.Field) (map[domain.Field]string, error) {
	table, err := tableFor(partition)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return map[domain.Field]string{}, nil
	}

	cols := make([]string, len(fields))
	for i, f := range fields {
		col, err := columnFor(f)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE record_id = $1`,
		strings.Join(cols, ", "), table)

	dest := make([]any, len(fields))
	raw := make([]*string, len(fields))
	for i := range raw {
		dest[i] = &raw[i]
	}

	if err := r.pool.QueryRow(ctx, query, recordID).Scan(dest...); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch fields from %s: %w", table, err)
	}

	values := make(map[domain.Field]string, len(fields))
	for i, f := range fields {
		if raw[i] != nil {
			values[f] = *raw[i]
		} else {
			values[f] = ""
		}
	}
	return values, nil
}

// WriteFields записывает набор полей одним запросом.
// Возвращает ErrNotFound, если записи нет в разделе.
func (r *RecordStore) WriteFields(ctx context.Context, partition domain.Partition, recordID string, values map[domain.Field]string) error {
	table, err := tableFor(partition)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	sets := make([]string, 0, len(values))
	args := make([]any, 0, len(values)+1)
	args = append(args, recordID)
	for f, v := range values {
		col, err := columnFor(f)
		if err != nil {
			return err
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE record_id = $1`,
		table, strings.Join(sets, ", "))

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("write fields to %s: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Move переносит запись между разделами в одной транзакции.
// Возвращает ErrNotFound, если записи нет в исходном разделе,
// ErrAlreadyExists — если она уже есть в целевом.
func (r *RecordStore) Move(ctx context.Context, recordID string, from, to domain.Partition) error {
	fromTable, err := tableFor(from)
	if err != nil {
		return err
	}
	toTable, err := tableFor(to)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin move: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE record_id = $1)`, toTable)
	if err := tx.QueryRow(ctx, query, recordID).Scan(&exists); err != nil {
		return fmt.Errorf("check target %s: %w", toTable, err)
	}
	if exists {
		return ErrAlreadyExists
	}

	// Схемы разделов идентичны, копируем строку целиком.
	insert := fmt.Sprintf(`INSERT INTO %s SELECT * FROM %s WHERE record_id = $1`, toTable, fromTable)
	result, err := tx.Exec(ctx, insert, recordID)
	if err != nil {
		return fmt.Errorf("copy record to %s: %w", toTable, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	del := fmt.Sprintf(`DELETE FROM %s WHERE record_id = $1`, fromTable)
	if _, err := tx.Exec(ctx, del, recordID); err != nil {
		return fmt.Errorf("delete record from %s: %w", fromTable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit move: %w", err)
	}
	return nil
}
