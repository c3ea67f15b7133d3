package domain

// Partition — раздел хранилища, в котором находится запись оценки.
//
// Запись всегда находится ровно в одном разделе. Переход
// Active → Archived происходит один раз, при успешном завершении
// всего пайплайна. Обратного перехода не существует.
type Partition string

const (
	// PartitionActive — записи в работе.
	PartitionActive Partition = "active"

	// PartitionArchived — завершённые записи.
	PartitionArchived Partition = "archived"
)

// RecordHandle — разрешённое местоположение записи: id + раздел.
//
// Создаётся Locator'ом один раз и передаётся по значению через всю
// цепочку вызовов, чтобы не переопределять раздел на каждой операции.
type RecordHandle struct {
	RecordID  string
	Partition Partition
}

// RecordType — категория оцениваемого предмета.
type RecordType string

const (
	RecordTypeArt         RecordType = "art"
	RecordTypeAntique     RecordType = "antique"
	RecordTypeJewelry     RecordType = "jewelry"
	RecordTypeCollectible RecordType = "collectible"
	RecordTypeOther       RecordType = "other"
)

// IsValid возвращает true, если тип записи известен системе.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypeArt, RecordTypeAntique, RecordTypeJewelry, RecordTypeCollectible, RecordTypeOther:
		return true
	default:
		return false
	}
}
