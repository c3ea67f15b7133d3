// Package lifecycle управляет graceful shutdown процессора.
//
// Coordinator считает сообщения в обработке. При завершении процесс
// перестаёт принимать новые сообщения и ждёт опустошения in-flight
// множества в пределах таймаута; шаги в работе не отменяются.
// Не успевшие завершиться шаги могут оставить частичное состояние —
// принятая плата за at-least-once.
package lifecycle

import (
	"errors"
	"sync"
	"time"

	"github.com/shaiso/Valora/internal/telemetry"
)

// DefaultDrainTimeout — сколько ждать завершения in-flight работы.
const DefaultDrainTimeout = 30 * time.Second

// ErrDrainTimeout — in-flight работа не завершилась за отведённое время.
var ErrDrainTimeout = errors.New("drain timeout: operations still in flight")

// Coordinator отслеживает операции в обработке.
type Coordinator struct {
	mu       sync.Mutex
	inFlight int
	draining bool
	idleCh   chan struct{}
}

// NewCoordinator создаёт новый Coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		idleCh: make(chan struct{}),
	}
}

// Begin регистрирует начало обработки.
// Возвращает false, если процесс уже завершается — новая работа
// не принимается, сообщение должно вернуться в очередь.
func (c *Coordinator) Begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draining {
		return false
	}

	c.inFlight++
	telemetry.InFlight.Inc()
	return true
}

// Done регистрирует завершение обработки.
func (c *Coordinator) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight--
	telemetry.InFlight.Dec()

	if c.draining && c.inFlight == 0 {
		close(c.idleCh)
	}
}

// InFlight возвращает число операций в обработке.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Drain блокирует приём новой работы и ждёт завершения текущей.
// По истечении timeout возвращает ErrDrainTimeout: вызывающий
// закрывает подписку принудительно и логирует предупреждение.
func (c *Coordinator) Drain(timeout time.Duration) error {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return nil
	}
	c.draining = true
	if c.inFlight == 0 {
		close(c.idleCh)
	}
	c.mu.Unlock()

	select {
	case <-c.idleCh:
		return nil
	case <-time.After(timeout):
		return ErrDrainTimeout
	}
}
