package auction

import (
	"time"

	"conos/internal/apperrors"
	"conos/models"

	"github.com/shopspring/decimal"
)

// BidSummary - ставка, подготовленная к аукциону.
type BidSummary struct {
	Bid       models.Bid      `json:"bid"`
	TotalCost decimal.Decimal `json:"totalCost"`
	CreatedAt time.Time       `json:"createdAt"`
	Preferred bool            `json:"preferred"`
}

// Summarize строит сводку из ставки и признака предпочтения.
func Summarize(bid models.Bid, preferred bool) BidSummary {
	return BidSummary{
		Bid:       bid,
		TotalCost: bid.TotalCost(),
		CreatedAt: bid.CreatedAt,
		Preferred: preferred,
	}
}

type Result struct {
	Winner   BidSummary   `json:"winner"`
	RunnerUp *BidSummary  `json:"runnerUp,omitempty"`
	Losers   []BidSummary `json:"losers"`
}

// beats: большая стоимость, при равенстве - более ранняя ставка, затем меньший ID.
func beats(a, b BidSummary) bool {
	if c := a.TotalCost.Cmp(b.TotalCost); c != 0 {
		return c > 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Bid.ID < b.Bid.ID
}

// Select выбирает лучшую ставку группы.
func Select(group []BidSummary) (BidSummary, error) {
	if len(group) == 0 {
		return BidSummary{}, apperrors.InvalidArgument("cannot select from an empty group")
	}
	best := group[0]
	for _, s := range group[1:] {
		if beats(s, best) {
			best = s
		}
	}
	return best, nil
}

// Run проводит аукцион: сначала среди предпочтительных, затем среди остальных.
// Второе место выбирается тем же правилом из оставшихся ставок.
func Run(summaries []BidSummary) (*Result, error) {
	if len(summaries) == 0 {
		return nil, apperrors.InvalidArgument("auction requires at least one bid")
	}

	winner, err := pick(summaries)
	if err != nil {
		return nil, err
	}
	rest := without(summaries, winner.Bid.ID)
	result := &Result{Winner: winner, Losers: []BidSummary{}}
	if len(rest) == 0 {
		return result, nil
	}

	runnerUp, err := pick(rest)
	if err != nil {
		return nil, err
	}
	result.RunnerUp = &runnerUp
	result.Losers = without(rest, runnerUp.Bid.ID)
	return result, nil
}

func pick(pool []BidSummary) (BidSummary, error) {
	preferred := make([]BidSummary, 0, len(pool))
	for _, s := range pool {
		if s.Preferred {
			preferred = append(preferred, s)
		}
	}
	if len(preferred) > 0 {
		return Select(preferred)
	}
	return Select(pool)
}

func without(pool []BidSummary, bidID int64) []BidSummary {
	out := make([]BidSummary, 0, len(pool))
	for _, s := range pool {
		if s.Bid.ID != bidID {
			out = append(out, s)
		}
	}
	return out
}
