package service

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cinemaops/internal/model"
)

func TestCurrentTier(t *testing.T) {
    tiers := []model.MembershipTier{
        {ID: 3, Name: "Gold", MinPoints: 500},
        {ID: 1, Name: "Member", MinPoints: 0},
        {ID: 2, Name: "Silver", MinPoints: 100},
    }
    require.NotNil(t, CurrentTier(tiers, 0))
    assert.Equal(t, "Member", CurrentTier(tiers, 99).Name)
    assert.Equal(t, "Silver", CurrentTier(tiers, 100).Name)
    assert.Equal(t, "Gold", CurrentTier(tiers, 10000).Name)
    assert.Nil(t, CurrentTier(tiers[:1], 10))
    assert.Nil(t, CurrentTier(nil, 10))
}

func TestPointsFor(t *testing.T) {
    assert.Equal(t, 18, PointsFor(180000))
    assert.Equal(t, 0, PointsFor(9999))
    assert.Equal(t, 0, PointsFor(-1))
}
