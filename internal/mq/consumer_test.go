package mq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestNewDelivery_AttemptFromHeader(t *testing.T) {
	d := NewDelivery(amqp.Delivery{
		MessageId: "msg-1",
		Headers:   amqp.Table{"x-delivery-count": int64(3)},
	})

	// x-delivery-count считает с нуля, attempt — с единицы
	if d.DeliveryAttempt != 4 {
		t.Errorf("attempt = %d, want 4", d.DeliveryAttempt)
	}
	if d.MessageID != "msg-1" {
		t.Errorf("message id = %q", d.MessageID)
	}
}

func TestNewDelivery_FirstDelivery(t *testing.T) {
	d := NewDelivery(amqp.Delivery{})

	if d.DeliveryAttempt != 1 {
		t.Errorf("attempt = %d, want 1", d.DeliveryAttempt)
	}
}

func TestNewDelivery_RedeliveredWithoutHeader(t *testing.T) {
	d := NewDelivery(amqp.Delivery{Redelivered: true})

	if d.DeliveryAttempt != 2 {
		t.Errorf("attempt = %d, want 2", d.DeliveryAttempt)
	}
}
