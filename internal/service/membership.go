package service

import "github.com/iliyamo/cinemaops/internal/model"

// PointValue is the order amount (VND) that earns one membership point.
const PointValue = 10000

// CurrentTier returns the tier with the highest MinPoints not above points,
// or nil when the member has not reached any tier.
func CurrentTier(tiers []model.MembershipTier, points int) *model.MembershipTier {
    var best *model.MembershipTier
    for i := range tiers {
        t := tiers[i]
        if t.MinPoints > points {
            continue
        }
        if best == nil || t.MinPoints > best.MinPoints {
            best = &t
        }
    }
    return best
}

// PointsFor returns the points earned by a confirmed order of total.
func PointsFor(total float64) int {
    if total <= 0 {
        return 0
    }
    return int(total) / PointValue
}
