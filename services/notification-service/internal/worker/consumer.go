package worker

import (
	"context"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/you/library-lending/pkg/mq"
	"github.com/you/library-lending/services/notification-service/internal/events"
	"github.com/you/library-lending/services/notification-service/internal/notifier"
)

type Config struct {
	RabbitURL string
	Exchange  string
	Queue     string
	Bindings  []string
}

type Consumer struct {
	cfg      Config
	notifier notifier.Notifier
	mq       *mq.Consumer
}

func NewConsumer(cfg Config, n notifier.Notifier) *Consumer {
	return &Consumer{cfg: cfg, notifier: n}
}

func (c *Consumer) Connect() error {
	mc, err := mq.NewConsumer(c.cfg.RabbitURL, c.cfg.Exchange, c.cfg.Queue, c.cfg.Bindings)
	if err != nil {
		return err
	}
	c.mq = mc
	return nil
}

func (c *Consumer) Close() {
	if c.mq != nil {
		_ = c.mq.Close()
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.mq.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := c.handleDelivery(d); err != nil {
				log.Printf("[notify] handle error key=%s err=%v -> Nack&requeue", d.RoutingKey, err)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleDelivery(d amqp.Delivery) error {
	switch d.RoutingKey {
	case events.RKLendingIssued:
		ev, err := events.MustUnmarshal[events.LendingIssued](d.Body)
		if err != nil {
			return err
		}
		return c.notifier.Notify("Book Issued",
			fmt.Sprintf("Loan %s: book %s issued to user %s (%d copies left)",
				ev.TransactionID, ev.BookID, ev.UserID, ev.AvailableCopies))

	case events.RKLendingReturned:
		ev, err := events.MustUnmarshal[events.LendingReturned](d.Body)
		if err != nil {
			return err
		}
		return c.notifier.Notify("Book Returned",
			fmt.Sprintf("Loan %s: book %s returned (%d copies available)",
				ev.TransactionID, ev.BookID, ev.AvailableCopies))

	case events.RKReconciliation:
		ev, err := events.MustUnmarshal[events.ReconciliationRequired](d.Body)
		if err != nil {
			return err
		}
		return c.notifier.Notify("RECONCILIATION REQUIRED",
			fmt.Sprintf("saga=%s kind=%s tx=%s book=%s: %s (debit=%q void=%q credit=%q)",
				ev.SagaID, ev.Kind, ev.TransactionID, ev.BookID, ev.Reason,
				ev.DebitError, ev.VoidError, ev.CreditError))

	default:
		log.Printf("[notify] skip unknown key=%s", d.RoutingKey)
	}
	return nil
}
