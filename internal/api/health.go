package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/shaiso/Valora/internal/domain"
)

// Readiness — реестр готовности подсистем процессора.
//
// Пока инициализация не завершена (MarkStarted), health endpoint
// отвечает успехом — иначе супервизор перезапускал бы процесс
// посреди старта.
type Readiness struct {
	mu       sync.RWMutex
	services map[string]bool
	started  bool
}

// NewReadiness создаёт реестр с перечисленными подсистемами.
func NewReadiness(names ...string) *Readiness {
	services := make(map[string]bool, len(names))
	for _, name := range names {
		services[name] = false
	}
	return &Readiness{services: services}
}

// SetReady помечает подсистему инициализированной.
func (r *Readiness) SetReady(name string) {
	r.mu.Lock()
	r.services[name] = true
	r.mu.Unlock()
}

// MarkStarted фиксирует завершение инициализации процесса.
func (r *Readiness) MarkStarted() {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
}

// snapshot возвращает текущее состояние реестра.
func (r *Readiness) snapshot() (started, allReady bool, services map[string]string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allReady = true
	services = make(map[string]string, len(r.services))
	for name, ready := range r.services {
		if ready {
			services[name] = "initialized"
		} else {
			services[name] = "not_initialized"
			allReady = false
		}
	}
	return r.started, allReady, services
}

// ConnectionInfo — статус соединения с брокером для health endpoint.
type ConnectionInfo interface {
	Status() domain.ConnectionStatus
}

// healthResponse — тело ответа /healthz.
type healthResponse struct {
	Status     string            `json:"status"`
	Connection string            `json:"connection"`
	Services   map[string]string `json:"perServiceStatus"`
}

// Handler — HTTP-обработчики процессора.
type Handler struct {
	readiness *Readiness
	conn      ConnectionInfo
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Readiness *Readiness
	Conn      ConnectionInfo
	Logger    *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		readiness: cfg.Readiness,
		conn:      cfg.Conn,
		logger:    cfg.Logger,
	}
}

// Health отдаёт агрегированную готовность процесса.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	started, allReady, services := h.readiness.snapshot()

	connStatus := domain.ConnInitializing
	if h.conn != nil {
		connStatus = h.conn.Status()
	}

	resp := healthResponse{
		Connection: string(connStatus),
		Services:   services,
	}

	if !started {
		resp.Status = "initializing"
		JSON(w, http.StatusOK, resp)
		return
	}

	if allReady && connStatus == domain.ConnConnected {
		resp.Status = "healthy"
		JSON(w, http.StatusOK, resp)
		return
	}

	resp.Status = "unhealthy"
	JSON(w, http.StatusServiceUnavailable, resp)
}
