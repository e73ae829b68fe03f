package bidding

import (
	"context"
	"errors"
	"fmt"

	"conos/db"
	"conos/internal/apperrors"
	"conos/internal/locker"
	"conos/internal/logger"
	"conos/internal/metrics"
	"conos/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Ledger - операции журнала кредитов, которые выполняются в транзакции ставки.
type Ledger interface {
	BalanceTx(ctx context.Context, tx *sqlx.Tx, contractorID int64) (decimal.Decimal, error)
	Redeem(ctx context.Context, tx *sqlx.Tx, bid *models.Bid, amount decimal.Decimal) (*models.Transaction, error)
	SettleForBid(ctx context.Context, tx *sqlx.Tx, bidID int64, status models.BidStatus) (*models.Transaction, error)
}

type PreferenceResolver interface {
	IsPreferredTx(ctx context.Context, tx *sqlx.Tx, contractorID int64, booking *models.Booking) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type Deps struct {
	Repo        Repository
	Ledger      Ledger
	Preferences PreferenceResolver
	Tx          txRunner
	Locker      locker.Locker
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
}

type Service struct {
	repo    Repository
	ledger  Ledger
	prefs   PreferenceResolver
	tx      txRunner
	locker  locker.Locker
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("bidding repository required")
	case deps.Ledger == nil:
		return nil, fmt.Errorf("ledger required")
	case deps.Preferences == nil:
		return nil, fmt.Errorf("preference resolver required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	lk := deps.Locker
	if lk == nil {
		lk = locker.NewKeyedMutex()
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    deps.Repo,
		ledger:  deps.Ledger,
		prefs:   deps.Preferences,
		tx:      deps.Tx,
		locker:  lk,
		log:     log,
		metrics: deps.Metrics,
	}, nil
}

// CanBid возвращает nil, если подрядчик может сделать ставку на заявку.
func (s *Service) CanBid(ctx context.Context, contractorID, bookingID int64) error {
	contractor, err := s.repo.GetContractor(ctx, contractorID)
	if err != nil {
		return entityErr(err, "contractor", contractorID)
	}
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return entityErr(err, "booking", bookingID)
	}
	balance, err := s.ledger.BalanceTx(ctx, nil, contractorID)
	if err != nil {
		return err
	}
	return CheckEligibility(contractor, booking, balance)
}

// Bids возвращает ставки подрядчика, новые первыми.
func (s *Service) Bids(ctx context.Context, contractorID int64) ([]models.Bid, error) {
	return s.repo.ListBidsByContractor(ctx, contractorID)
}

func (s *Service) Bid(ctx context.Context, bidID int64) (*models.Bid, error) {
	bid, err := s.repo.GetBid(ctx, bidID)
	if err != nil {
		return nil, entityErr(err, "bid", bidID)
	}
	return bid, nil
}

func (s *Service) lockBooking(ctx context.Context, bookingID int64) (func(), error) {
	unlock, err := s.locker.Lock(ctx, locker.BookingKey(bookingID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConflict, err, fmt.Sprintf("booking %d is busy", bookingID))
	}
	return unlock, nil
}

func entityErr(err error, entity string, id int64) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperrors.NotFound("%s %d not found", entity, id)
	}
	return err
}
