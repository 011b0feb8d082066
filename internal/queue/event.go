// Package queue defines the booking event exchanged over RabbitMQ and the
// consumer that records confirmed bookings.
package queue

import amqp "github.com/rabbitmq/amqp091-go"

// BookingConfirmed is the durable queue (and routing key) for confirmed
// orders.
const BookingConfirmed = "booking.confirmed"

// BookingConfirmedEvent is published when the payment webhook confirms an
// order.  It carries enough for downstream consumers to log or notify
// without querying the primary database.
type BookingConfirmedEvent struct {
    OrderID       uint64   `json:"order_id"`
    UserID        uint64   `json:"user_id"`
    ShowtimeID    uint64   `json:"showtime_id"`
    CinemaID      uint64   `json:"cinema_id"`
    CinemaName    string   `json:"cinema_name"`
    MovieTitle    string   `json:"movie_title"`
    StartsAt      string   `json:"starts_at"`
    Seats         []string `json:"seats"`
    TotalAmount   float64  `json:"total_amount"`
    PaymentMethod string   `json:"payment_method"`
    TransactionID string   `json:"transaction_id"`
    ConfirmedAt   string   `json:"confirmed_at"`
}

// DeclareBookingQueue declares the booking queue (idempotent).  Publisher
// and consumer must agree on these arguments.
func DeclareBookingQueue(ch *amqp.Channel) error {
    _, err := ch.QueueDeclare(
        BookingConfirmed, // name
        true,             // durable
        false,            // autoDelete
        false,            // exclusive
        false,            // noWait
        nil,              // args
    )
    return err
}
