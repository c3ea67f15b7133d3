package engine

import "sync"

// recordLocks — мьютексы по record_id.
//
// Два сообщения про одну запись, обрабатываемые параллельно, гонялись
// бы на read-modify-write статуса и полей. Лок держится на время шага.
// Гарантия действует в пределах одного процесса; межэкземплярная
// блокировка сознательно не реализуется.
type recordLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newRecordLocks() *recordLocks {
	return &recordLocks{entries: make(map[string]*lockEntry)}
}

// Acquire блокирует запись и возвращает функцию освобождения.
func (l *recordLocks) Acquire(recordID string) func() {
	l.mu.Lock()
	entry, ok := l.entries[recordID]
	if !ok {
		entry = &lockEntry{}
		l.entries[recordID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, recordID)
		}
		l.mu.Unlock()
	}
}
