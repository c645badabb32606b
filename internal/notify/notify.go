// Package notify delivers formatted text notifications ("item added to
// cart", "new order placed") to a Kafka topic. Delivery is best-effort: a
// missing broker configuration turns the notifier into a silent no-op, and a
// failed publish is logged, never surfaced to the triggering operation.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/huynhtran/minimart/internal/models"
)

const publishTimeout = 5 * time.Second

type Notifier struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// New returns a no-op notifier when address is empty.
func New(address, topic string, log *slog.Logger) *Notifier {
	n := &Notifier{log: log}
	if address == "" {
		return n
	}
	n.writer = &kafka.Writer{
		Addr:         kafka.TCP(address),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return n
}

func (n *Notifier) Close() error {
	if n.writer == nil {
		return nil
	}
	return n.writer.Close()
}

// Send publishes one text message. Callers are expected to invoke it on a
// detached goroutine after their transaction has committed.
func (n *Notifier) Send(ctx context.Context, key, text string) {
	if n.writer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: []byte(text),
	})
	if err != nil {
		n.log.Error("notification publish failed", "key", key, "error", err)
	}
}

func (n *Notifier) CartAddition(ctx context.Context, user string, product *models.Product, quantity uint) {
	if n.writer == nil {
		return
	}
	text := fmt.Sprintf(
		"ADDED TO CART\nUser: %s\nProduct: %s\nQuantity: %d\nTime: %s",
		user, product.Name, quantity, time.Now().Format("02/01/2006 15:04:05"),
	)
	n.Send(ctx, "cart", text)
}

func (n *Notifier) NewOrder(ctx context.Context, order *models.Order) {
	if n.writer == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "NEW ORDER\nNumber: %s\nCustomer: %s\nPhone: %s\nAddress: %s, %s, %s\n\nItems:\n",
		order.OrderNumber, order.FullName, order.Phone, order.Address, order.City, order.Country)
	for _, it := range order.Items {
		fmt.Fprintf(&b, "- %d x %s: %s\n", it.Quantity, it.Product.Name, it.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s", order.OrderTotal.StringFixed(2))
	n.Send(ctx, order.OrderNumber, b.String())
}
