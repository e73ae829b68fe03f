package bidding

import (
	"context"

	"conos/internal/apperrors"
	"conos/internal/auction"
	"conos/models"

	"github.com/jmoiron/sqlx"
)

// ClosedBid - ставка и ее списание после закрытия.
type ClosedBid struct {
	Bid         *models.Bid         `json:"bid"`
	Transaction *models.Transaction `json:"transaction"`
}

type Settlement struct {
	Result *auction.Result `json:"result"`
	Closed []ClosedBid     `json:"closed"`
}

// RunAuction выбирает победителя и второе место, ничего не меняя.
func (s *Service) RunAuction(ctx context.Context, bookingID int64) (*auction.Result, error) {
	unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *auction.Result
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		result, err = s.runAuctionTx(ctx, tx, bookingID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AuctionRun("run")
	return result, nil
}

// SettleAuction проводит аукцион среди активных ставок и закрывает их:
// победитель - accepted, остальные - expired. Уже закрытые ставки не трогаются.
// Все изменения идут одной транзакцией.
func (s *Service) SettleAuction(ctx context.Context, bookingID int64) (*Settlement, error) {
	unlock, err := s.lockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var settlement *Settlement
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := s.runAuctionTx(ctx, tx, bookingID, true)
		if err != nil {
			return err
		}
		settlement = &Settlement{Result: result}

		closeAs := func(summary auction.BidSummary, status models.BidStatus) error {
			bid, entry, err := s.closeBidTx(ctx, tx, summary.Bid.ID, status)
			if err != nil {
				return err
			}
			settlement.Closed = append(settlement.Closed, ClosedBid{Bid: bid, Transaction: entry})
			return nil
		}

		if err := closeAs(result.Winner, models.BidStatusAccepted); err != nil {
			return err
		}
		if result.RunnerUp != nil {
			if err := closeAs(*result.RunnerUp, models.BidStatusExpired); err != nil {
				return err
			}
		}
		for _, loser := range result.Losers {
			if err := closeAs(loser, models.BidStatusExpired); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AuctionRun("settled")
	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"booking_id": bookingID,
		"winner_bid": settlement.Result.Winner.Bid.ID,
		"closed":     len(settlement.Closed),
	}), "auction settled")
	return settlement, nil
}

// runAuctionTx ранжирует ставки заявки. При activeOnly закрытые ставки в аукционе не участвуют.
func (s *Service) runAuctionTx(ctx context.Context, tx *sqlx.Tx, bookingID int64, activeOnly bool) (*auction.Result, error) {
	repo := s.repo.WithTx(tx)
	booking, err := repo.GetBookingForUpdate(ctx, bookingID)
	if err != nil {
		return nil, entityErr(err, "booking", bookingID)
	}
	bids, err := repo.ListBidsByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		bids = activeBids(bids)
		if len(bids) == 0 {
			return nil, apperrors.InvalidArgument("booking %d has no active bids", bookingID)
		}
	}
	if len(bids) == 0 {
		return nil, apperrors.InvalidArgument("booking %d has no bids", bookingID)
	}

	preferred := make(map[int64]bool, len(bids))
	summaries := make([]auction.BidSummary, 0, len(bids))
	for _, bid := range bids {
		ok, seen := preferred[bid.ContractorID]
		if !seen {
			ok, err = s.prefs.IsPreferredTx(ctx, tx, bid.ContractorID, booking)
			if err != nil {
				return nil, err
			}
			preferred[bid.ContractorID] = ok
		}
		summaries = append(summaries, auction.Summarize(bid, ok))
	}

	result, err := auction.Run(summaries)
	if err != nil {
		return nil, err
	}
	s.log.Debug(s.log.WithFields(ctx, map[string]any{
		"booking_id": bookingID,
		"bids":       len(bids),
		"winner_bid": result.Winner.Bid.ID,
	}), "auction evaluated")
	return result, nil
}

func activeBids(bids []models.Bid) []models.Bid {
	active := make([]models.Bid, 0, len(bids))
	for _, bid := range bids {
		if bid.Status == models.BidStatusActive {
			active = append(active, bid)
		}
	}
	return active
}
