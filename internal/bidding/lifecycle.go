package bidding

import (
	"context"
	"errors"

	"conos/internal/apperrors"
	"conos/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PlaceBidInput struct {
	ContractorID      int64           `json:"contractorId" validate:"required,gt=0"`
	BookingID         int64           `json:"bookingId" validate:"required,gt=0"`
	BaseCost          decimal.Decimal `json:"baseCost"`
	PremiumAdjustment decimal.Decimal `json:"premiumAdjustment"`
}

func (in PlaceBidInput) validate() error {
	if in.ContractorID <= 0 {
		return apperrors.InvalidArgument("contractor id is required")
	}
	if in.BookingID <= 0 {
		return apperrors.InvalidArgument("booking id is required")
	}
	if in.BaseCost.IsNegative() {
		return apperrors.InvalidArgument("base cost must not be negative")
	}
	if in.PremiumAdjustment.IsNegative() {
		return apperrors.InvalidArgument("premium adjustment must not be negative")
	}
	if err := models.CheckMoney(in.BaseCost); err != nil {
		return apperrors.InvalidArgument("base cost: %v", err)
	}
	if err := models.CheckMoney(in.PremiumAdjustment); err != nil {
		return apperrors.InvalidArgument("premium adjustment: %v", err)
	}
	return nil
}

// PlaceBid создает ставку и списание за нее одной транзакцией.
// Если подрядчик не допущен, не создается ничего.
func (s *Service) PlaceBid(ctx context.Context, in PlaceBidInput) (*models.Bid, *models.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	ctx = s.log.WithFields(ctx, map[string]any{
		"contractor_id": in.ContractorID,
		"booking_id":    in.BookingID,
	})

	unlock, err := s.lockBooking(ctx, in.BookingID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	var (
		bid   *models.Bid
		entry *models.Transaction
	)
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		contractor, err := repo.GetContractorForUpdate(ctx, in.ContractorID)
		if err != nil {
			return entityErr(err, "contractor", in.ContractorID)
		}
		booking, err := repo.GetBookingForUpdate(ctx, in.BookingID)
		if err != nil {
			return entityErr(err, "booking", in.BookingID)
		}
		balance, err := s.ledger.BalanceTx(ctx, tx, contractor.ID)
		if err != nil {
			return err
		}
		if err := CheckEligibility(contractor, booking, balance); err != nil {
			return err
		}
		if err := CheckBidCost(in.BaseCost.Add(in.PremiumAdjustment), balance); err != nil {
			return err
		}

		bid = &models.Bid{
			BookingID:         booking.ID,
			ContractorID:      contractor.ID,
			BaseCost:          in.BaseCost,
			PremiumAdjustment: in.PremiumAdjustment,
			Status:            models.BidStatusActive,
		}
		if err := repo.CreateBid(ctx, bid); err != nil {
			return err
		}
		entry, err = s.ledger.Redeem(ctx, tx, bid, booking.TotalCost())
		return err
	})
	if err != nil {
		var notEligible *apperrors.ContractorNotEligible
		if errors.As(err, &notEligible) {
			s.metrics.BidRejected(notEligible.Reason)
			s.log.Info(s.log.WithField(ctx, "reason", notEligible.Reason), "bid rejected")
		}
		return nil, nil, err
	}

	s.metrics.BidPlaced()
	s.log.Info(s.log.WithField(ctx, "bid_id", bid.ID), "bid placed")
	return bid, entry, nil
}

// CloseBid переводит ставку в итоговый статус вместе с ее списанием.
func (s *Service) CloseBid(ctx context.Context, bidID int64, status models.BidStatus) (*models.Bid, *models.Transaction, error) {
	if !status.IsClosing() {
		return nil, nil, apperrors.InvalidArgument("invalid bid status %q", status)
	}

	var (
		bid   *models.Bid
		entry *models.Transaction
	)
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		bid, entry, err = s.closeBidTx(ctx, tx, bidID, status)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return bid, entry, nil
}

func (s *Service) closeBidTx(ctx context.Context, tx *sqlx.Tx, bidID int64, status models.BidStatus) (*models.Bid, *models.Transaction, error) {
	repo := s.repo.WithTx(tx)
	bid, err := repo.GetBidForUpdate(ctx, bidID)
	if err != nil {
		return nil, nil, entityErr(err, "bid", bidID)
	}

	ctx = s.log.WithFields(ctx, map[string]any{
		"bid_id":     bid.ID,
		"booking_id": bid.BookingID,
		"from":       string(bid.Status),
		"to":         string(status),
	})
	if bid.Status != models.BidStatusActive {
		// Повторное закрытие разрешено и перезаписывает статус.
		s.log.Warn(ctx, "closing an already closed bid")
	}

	if err := repo.UpdateBidStatus(ctx, bid.ID, status); err != nil {
		return nil, nil, err
	}
	bid.Status = status
	entry, err := s.ledger.SettleForBid(ctx, tx, bid.ID, status)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.BidClosed(string(status))
	s.log.Debug(ctx, "bid closed")
	return bid, entry, nil
}
