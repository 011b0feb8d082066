package service

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cinemaops/internal/model"
)

func TestPromotionStatus(t *testing.T) {
    now := time.Date(2024, 12, 10, 15, 0, 0, 0, time.UTC)
    tests := []struct {
        start, end, want string
    }{
        {"2024-12-01", "2024-12-09", model.PromotionExpired},
        {"2024-12-11", "2024-12-20", model.PromotionUpcoming},
        {"2024-12-01", "2024-12-20", model.PromotionActive},
        {"2024-12-10", "2024-12-10", model.PromotionActive},
    }
    for _, tt := range tests {
        got, err := PromotionStatus(tt.start, tt.end, now)
        require.NoError(t, err)
        assert.Equal(t, tt.want, got, "%s..%s", tt.start, tt.end)
    }
    _, err := PromotionStatus("bad", "2024-12-20", now)
    assert.ErrorIs(t, err, ErrBadDate)
}

func TestDiscount(t *testing.T) {
    cap50k := 50000.0
    tests := []struct {
        name     string
        promo    model.Promotion
        subtotal float64
        want     float64
        err      error
    }{
        {"percent", model.Promotion{DiscountType: "percent", DiscountValue: 10}, 200000, 20000, nil},
        {"percent capped", model.Promotion{DiscountType: "percent", DiscountValue: 50, MaxDiscount: &cap50k}, 200000, 50000, nil},
        {"fixed", model.Promotion{DiscountType: "fixed", DiscountValue: 30000}, 200000, 30000, nil},
        {"fixed above subtotal", model.Promotion{DiscountType: "fixed", DiscountValue: 300000}, 200000, 200000, nil},
        {"below min order", model.Promotion{DiscountType: "fixed", DiscountValue: 1, MinOrder: 100000}, 99999, 0, ErrBelowMinOrder},
        {"unknown type", model.Promotion{DiscountType: "bogo"}, 1000, 0, ErrBadDiscountType},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            got, err := Discount(tt.promo, tt.subtotal)
            if tt.err != nil {
                assert.ErrorIs(t, err, tt.err)
                return
            }
            require.NoError(t, err)
            assert.Equal(t, tt.want, got)
        })
    }
}

func TestRedeemable(t *testing.T) {
    now := time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC)
    p := model.Promotion{StartDate: "2024-12-01", EndDate: "2024-12-31", Quantity: 5, UsedCount: 4, Status: model.PromotionActive}
    assert.NoError(t, Redeemable(p, now))

    p.UsedCount = 5
    assert.ErrorIs(t, Redeemable(p, now), ErrPromotionUsedUp)

    p.UsedCount = 0
    p.Status = model.PromotionInactive
    assert.ErrorIs(t, Redeemable(p, now), ErrPromotionInactive)

    p.Status = model.PromotionActive
    p.EndDate = "2024-12-09"
    assert.ErrorIs(t, Redeemable(p, now), ErrPromotionInactive)
}

func TestPromotionSummary(t *testing.T) {
    st := PromotionSummary([]model.Promotion{
        {Status: "active", Quantity: 10, UsedCount: 10},
        {Status: "active", Quantity: 10, UsedCount: 1},
        {Status: "upcoming", Quantity: 10},
        {Status: "expired", Quantity: 10},
        {Status: "inactive", Quantity: 10},
        {Status: "active", Quantity: 0, UsedCount: 0},
        {Status: "active", Quantity: 0, UsedCount: 250},
    })
    assert.Equal(t, model.PromotionStats{Total: 7, Active: 4, Upcoming: 1, Expired: 1, Inactive: 1, OutOfStock: 1}, st)
}

func TestUnlimitedPromotionAgreesEverywhere(t *testing.T) {
    now := time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC)
    p := model.Promotion{StartDate: "2024-12-01", EndDate: "2024-12-31", Quantity: 0, UsedCount: 40, Status: model.PromotionActive}
    assert.False(t, p.SoldOut())
    assert.NoError(t, Redeemable(p, now))
    assert.Zero(t, PromotionSummary([]model.Promotion{p}).OutOfStock)
}
