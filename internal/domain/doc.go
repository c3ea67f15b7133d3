// Package domain содержит основные типы системы Valora.
//
// Здесь определены:
//   - message.go — входящее задание (TaskMessage) и запись DLQ (DeadLetterEntry)
//   - record.go  — запись оценки, её раздел хранения и RecordHandle
//   - status.go  — статусы записи и статус соединения с брокером
//   - fields.go  — семантические имена полей записи
//
// Типы domain не зависят от инфраструктуры (БД, брокер, HTTP) —
// они передаются между всеми слоями системы.
package domain
