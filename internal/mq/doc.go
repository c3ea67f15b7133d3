// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с явной машиной состояний и
//     ограниченным exponential backoff при переподключении
//   - topology.go   — проверка exchanges, объявление queues и bindings
//   - publisher.go  — публикация заданий и DLQ-записей
//   - consumer.go   — потребление с flow control и health check
//
// Exchanges:
//   - valora.appraisals — задания на обработку записей оценки
//   - valora.dlq        — dead letter queue
//
// Семантика доставки — at-least-once: брокер может доставить сообщение
// повторно, дедупликация — забота диспетчера.
package mq
