package auction

import (
	"testing"
	"time"

	"conos/internal/apperrors"
	"conos/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func summary(id int64, cost int64, minute int, preferred bool) BidSummary {
	bid := models.Bid{
		ID:        id,
		BaseCost:  decimal.NewFromInt(cost),
		Status:    models.BidStatusActive,
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
	return Summarize(bid, preferred)
}

func TestSelectTieBreak(t *testing.T) {
	b1 := summary(1, 100, 0, false)
	b2 := summary(2, 100, 5, false)

	got, err := Select([]BidSummary{b2, b1})
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Bid.ID)
}

func TestSelectHighestCost(t *testing.T) {
	got, err := Select([]BidSummary{
		summary(1, 90, 0, false),
		summary(2, 120, 9, false),
		summary(3, 110, 1, false),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Bid.ID)
}

func TestSelectSameTimestampFallsBackToID(t *testing.T) {
	got, err := Select([]BidSummary{summary(7, 50, 0, false), summary(3, 50, 0, false)})
	require.NoError(t, err)
	require.Equal(t, int64(3), got.Bid.ID)
}

func TestSelectEmpty(t *testing.T) {
	_, err := Select(nil)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
}

func TestSelectPremiumCountsTowardTotal(t *testing.T) {
	plain := summary(1, 100, 0, false)
	withPremium := Summarize(models.Bid{
		ID:                2,
		BaseCost:          decimal.NewFromInt(90),
		PremiumAdjustment: decimal.NewFromInt(15),
		CreatedAt:         base.Add(time.Hour),
	}, false)

	got, err := Select([]BidSummary{plain, withPremium})
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Bid.ID)
	require.True(t, got.TotalCost.Equal(decimal.NewFromInt(105)))
}

func TestRunPreferredPrecedence(t *testing.T) {
	nonPreferred := summary(1, 150, 0, false)
	preferred := summary(2, 100, 1, true)

	res, err := Run([]BidSummary{nonPreferred, preferred})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Winner.Bid.ID)
	require.NotNil(t, res.RunnerUp)
	require.Equal(t, int64(1), res.RunnerUp.Bid.ID)
	require.Empty(t, res.Losers)
}

func TestRunPreferredThenTiedNonPreferred(t *testing.T) {
	p1 := summary(1, 80, 1, true)
	n1 := summary(2, 120, 2, false)
	n2 := summary(3, 120, 1, false)

	res, err := Run([]BidSummary{p1, n1, n2})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Winner.Bid.ID)
	require.Equal(t, int64(3), res.RunnerUp.Bid.ID)
	require.Len(t, res.Losers, 1)
	require.Equal(t, int64(2), res.Losers[0].Bid.ID)
}

func TestRunRunnerUpPrefersRemainingPreferred(t *testing.T) {
	res, err := Run([]BidSummary{
		summary(1, 500, 0, false),
		summary(2, 80, 1, true),
		summary(3, 60, 2, true),
		summary(4, 40, 3, false),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Winner.Bid.ID)
	require.Equal(t, int64(3), res.RunnerUp.Bid.ID)
	require.Len(t, res.Losers, 2)
	require.Equal(t, int64(1), res.Losers[0].Bid.ID)
	require.Equal(t, int64(4), res.Losers[1].Bid.ID)
}

func TestRunSingleBid(t *testing.T) {
	res, err := Run([]BidSummary{summary(1, 10, 0, false)})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Winner.Bid.ID)
	require.Nil(t, res.RunnerUp)
	require.Empty(t, res.Losers)
}

func TestRunNoBids(t *testing.T) {
	_, err := Run(nil)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))
}
