package service

import (
    "errors"
    "math"
    "time"

    "github.com/iliyamo/cinemaops/internal/model"
)

var (
    ErrBelowMinOrder     = errors.New("order total below promotion minimum")
    ErrPromotionInactive = errors.New("promotion is not active")
    ErrPromotionUsedUp   = errors.New("promotion quantity exhausted")
    ErrBadDiscountType   = errors.New("unknown discount type")
)

// PromotionStatus derives a status from the validity window: expired once
// the end date has passed, upcoming before the start date, active otherwise.
// Dates are whole days, so a promotion ending today is still active.
func PromotionStatus(start, end string, now time.Time) (string, error) {
    s, err := ParseDate(start)
    if err != nil {
        return "", err
    }
    e, err := ParseDate(end)
    if err != nil {
        return "", err
    }
    today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
    switch {
    case e.Before(today):
        return model.PromotionExpired, nil
    case s.After(today):
        return model.PromotionUpcoming, nil
    default:
        return model.PromotionActive, nil
    }
}

// Discount computes what p takes off subtotal.  Percent discounts are capped
// by MaxDiscount when set; no discount exceeds the subtotal.
func Discount(p model.Promotion, subtotal float64) (float64, error) {
    if p.MinOrder > 0 && subtotal < p.MinOrder {
        return 0, ErrBelowMinOrder
    }
    var d float64
    switch p.DiscountType {
    case model.DiscountPercent:
        d = subtotal * p.DiscountValue / 100
        if p.MaxDiscount != nil && *p.MaxDiscount > 0 && d > *p.MaxDiscount {
            d = *p.MaxDiscount
        }
    case model.DiscountFixed:
        d = p.DiscountValue
    default:
        return 0, ErrBadDiscountType
    }
    if d < 0 {
        d = 0
    }
    if d > subtotal {
        d = subtotal
    }
    return math.Round(d), nil
}

// Redeemable checks that p can be applied to a new order right now.
func Redeemable(p model.Promotion, now time.Time) error {
    status := p.Status
    if status != model.PromotionInactive {
        s, err := PromotionStatus(p.StartDate, p.EndDate, now)
        if err != nil {
            return err
        }
        status = s
    }
    if status != model.PromotionActive {
        return ErrPromotionInactive
    }
    if p.SoldOut() {
        return ErrPromotionUsedUp
    }
    return nil
}

// PromotionSummary counts promotions per status.  Unlimited promotions
// never count as out of stock.
func PromotionSummary(list []model.Promotion) model.PromotionStats {
    st := model.PromotionStats{Total: len(list)}
    for _, p := range list {
        switch p.Status {
        case model.PromotionActive:
            st.Active++
        case model.PromotionUpcoming:
            st.Upcoming++
        case model.PromotionExpired:
            st.Expired++
        case model.PromotionInactive:
            st.Inactive++
        }
        if p.SoldOut() {
            st.OutOfStock++
        }
    }
    return st
}
