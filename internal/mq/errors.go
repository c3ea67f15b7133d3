package mq

import "errors"

// Ошибки брокерного слоя.
var (
	// ErrNoChannel — канал недоступен (соединение потеряно).
	ErrNoChannel = errors.New("no channel available")

	// ErrExchangeMissing — целевой exchange не существует.
	// Это предусловие деплоя: exchange создаётся при развёртывании
	// (valora-cli topology init), процессор его не пересоздаёт.
	ErrExchangeMissing = errors.New("exchange does not exist")

	// ErrReconnectExhausted — превышен лимит попыток переподключения.
	// Процесс должен завершиться ненулевым кодом; перезапуск —
	// забота внешнего супервизора.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

	// ErrHandlerMissing — у consumer'а не зарегистрирован обработчик.
	ErrHandlerMissing = errors.New("no message handler registered")

	// ErrClosed — соединение закрыто.
	ErrClosed = errors.New("connection closed")
)
