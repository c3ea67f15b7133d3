// Package dispatch превращает сообщения брокера в вызовы движка.
//
// Путь сообщения:
//  1. Валидация payload по JSON Schema
//  2. Дедупликация по message id (кольцо последних 1000)
//  3. Вызов движка с запрошенным шагом (default: build_report)
//  4. Ack + DLQ-эскалация по исходу
//
// Диспетчер всегда подтверждает сообщение после обработки — брокерная
// передоставка не используется как механизм retry бизнес-ошибок.
package dispatch
