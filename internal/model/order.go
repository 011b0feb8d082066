package model

import "time"

const (
    OrderPending   = "pending"
    OrderConfirmed = "confirmed"
    OrderCancelled = "cancelled"
)

// Order mirrors the `orders` table.  Tickets are filled on detail reads.
type Order struct {
    ID            uint64        `json:"order_id"`
    UserID        *uint64       `json:"user_id"`
    EmployeeID    *uint64       `json:"employee_id"`
    ShowtimeID    uint64        `json:"showtime_id"`
    PromotionID   *uint64       `json:"promotion_id"`
    Status        string        `json:"status"`
    PaymentMethod string        `json:"payment_method"`
    Subtotal      float64       `json:"subtotal"`
    Discount      float64       `json:"discount"`
    TotalAmount   float64       `json:"total_amount"`
    OrderDate     time.Time     `json:"order_date"`
    Tickets       []OrderTicket `json:"tickets,omitempty"`
}

// OrderTicket mirrors `orderticket`: one seat in an order at its price.
type OrderTicket struct {
    SeatID      uint64  `json:"seat_id"`
    SeatNumber  string  `json:"seat_number"`
    SeatType    string  `json:"seat_type"`
    TicketPrice float64 `json:"ticket_price"`
}
