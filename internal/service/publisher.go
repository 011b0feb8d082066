package service

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/cinemaops/internal/queue"
)

// EventPublisher is what the payment flow needs from the broker.
type EventPublisher interface {
    PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// BookingPublisher publishes booking events to RabbitMQ.  It dials per
// publish: confirmations arrive at webhook rate, not request rate.
type BookingPublisher struct {
    URL    string
    Logger *log.Logger
}

func NewBookingPublisher(url string, logger *log.Logger) *BookingPublisher {
    return &BookingPublisher{URL: url, Logger: logger}
}

// PublishBookingConfirmed sends ev to the durable booking.confirmed queue as
// a persistent message.  Errors are logged and returned; callers treat them
// as non-fatal since the order is already committed.
func (p *BookingPublisher) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Logger.Warnf("rabbitmq: dial failed: %v", err)
        return fmt.Errorf("dial broker: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Logger.Warnf("rabbitmq: channel open failed: %v", err)
        return fmt.Errorf("open channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := queue.DeclareBookingQueue(ch); err != nil {
        p.Logger.Warnf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    if err := ch.PublishWithContext(ctx,
        "",                      // default exchange
        queue.BookingConfirmed, // routing key = queue name
        false,                   // mandatory
        false,                   // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        },
    ); err != nil {
        p.Logger.Warnf("rabbitmq: publish failed: %v", err)
        return fmt.Errorf("publish: %w", err)
    }
    p.Logger.Debugf("rabbitmq: published booking.confirmed order_id=%d", ev.OrderID)
    return nil
}
