package dispatch

import lru "github.com/hashicorp/golang-lru/v2"

// dedupCapacity — сколько последних message id помнит диспетчер.
const dedupCapacity = 1000

// dedup — ограниченное кольцо последних обработанных message id.
//
// Защищает от повторной доставки уже обработанного сообщения
// (at-least-once у брокера). Локальная оптимизация одного процесса,
// не распределённая гарантия: экземпляры кэш не разделяют.
type dedup struct {
	cache *lru.Cache[string, struct{}]
}

func newDedup() *dedup {
	// Ошибка возможна только при неположительной ёмкости.
	cache, _ := lru.New[string, struct{}](dedupCapacity)
	return &dedup{cache: cache}
}

// Seen возвращает true, если message id уже обработан.
func (d *dedup) Seen(messageID string) bool {
	return d.cache.Contains(messageID)
}

// Remember запоминает message id, вытесняя самый старый за ёмкостью.
func (d *dedup) Remember(messageID string) {
	d.cache.Add(messageID, struct{}{})
}

// Len возвращает текущий размер кольца.
func (d *dedup) Len() int {
	return d.cache.Len()
}
