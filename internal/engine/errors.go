package engine

import "errors"

// Ошибки движка. Все они — бизнес-ошибки: шаг помечается FAILED,
// сообщение подтверждается и уходит в DLQ, автоматического retry нет.
var (
	// ErrUnknownStep — имя шага не известно движку.
	ErrUnknownStep = errors.New("unknown step")

	// ErrMissingInput — нет ни входных, ни сохранённых значения/описания.
	ErrMissingInput = errors.New("no value or description available")

	// ErrInvalidRecordType — категория предмета не известна системе.
	ErrInvalidRecordType = errors.New("invalid record type")

	// ErrNoPrimaryImage — нет изображения для генерации AI-описания.
	ErrNoPrimaryImage = errors.New("record has no primary image")

	// ErrNoContentReference — ссылка на элемент CMS отсутствует или пуста.
	ErrNoContentReference = errors.New("record has no content item reference")

	// ErrPlaceholderDocument — рендерер вернул ссылку-заглушку.
	// Такой результат не сохраняется и не отправляется клиенту.
	ErrPlaceholderDocument = errors.New("document generator returned placeholder link")

	// ErrNoCustomerContact — нет email клиента для уведомления.
	ErrNoCustomerContact = errors.New("record has no customer email")

	// ErrNotificationFailed — документ готов, но уведомление не ушло.
	// Запись получает статус WARNING, не FAILED.
	ErrNotificationFailed = errors.New("completion notification failed")
)
