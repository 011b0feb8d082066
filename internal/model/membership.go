package model

// MembershipTier mirrors `membership_tiers`.  A member belongs to the tier
// with the highest MinPoints not above their points.
type MembershipTier struct {
    ID        uint64 `json:"id"`
    Name      string `json:"name"`
    MinPoints int    `json:"min_points"`
    Benefits  string `json:"benefits"`
}

// Membership mirrors `membership_cards`.
type Membership struct {
    ID        uint64          `json:"id"`
    UserID    uint64          `json:"user_id"`
    Points    int             `json:"points"`
    CreatedAt string          `json:"created_at"`
    Tier      *MembershipTier `json:"tier"`
}
