package model

// Promotion statuses.  Status is derived from the date window unless an
// admin sets it explicitly (inactive is only ever set by hand).
const (
    PromotionActive   = "active"
    PromotionUpcoming = "upcoming"
    PromotionExpired  = "expired"
    PromotionInactive = "inactive"
)

// Discount types.
const (
    DiscountPercent = "percent"
    DiscountFixed   = "fixed"
)

// Promotion mirrors the `promotions` table.  Dates are YYYY-MM-DD.
type Promotion struct {
    ID            uint64   `json:"id"`
    Code          string   `json:"code"`
    Name          string   `json:"name"`
    Description   string   `json:"description"`
    DiscountType  string   `json:"discount_type"`
    DiscountValue float64  `json:"discount_value"`
    MinOrder      float64  `json:"min_order"`
    MaxDiscount   *float64 `json:"max_discount"`
    StartDate     string   `json:"start_date"`
    EndDate       string   `json:"end_date"`
    Quantity      int      `json:"quantity"`
    UsedCount     int      `json:"used_count"`
    Status        string   `json:"status"`
}

// SoldOut reports whether every code has been redeemed.  Quantity 0 means
// unlimited.
func (p Promotion) SoldOut() bool {
    return p.Quantity > 0 && p.UsedCount >= p.Quantity
}

// PromotionStats is the dashboard summary broadcast with every change.
type PromotionStats struct {
    Total      int `json:"total"`
    Active     int `json:"active"`
    Upcoming   int `json:"upcoming"`
    Expired    int `json:"expired"`
    Inactive   int `json:"inactive"`
    OutOfStock int `json:"out_of_stock"`
}
