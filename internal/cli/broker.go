package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/shaiso/Valora/internal/mq"
)

// dialBroker устанавливает одноразовое соединение с брокером для
// CLI-команды. Переподключение не нужно: команда либо отработала,
// либо вернула ошибку.
func dialBroker() (*mq.Connection, error) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = mq.DefaultURL()
	}

	policy := mq.ReconnectPolicy{
		InitialDelay: time.Second,
		MaxDelay:     time.Second,
		Multiplier:   1.0,
		MaxAttempts:  1,
	}
	return mq.NewConnection(url, policy, slog.New(slog.DiscardHandler))
}
