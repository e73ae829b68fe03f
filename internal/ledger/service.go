package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conos/db"
	"conos/internal/apperrors"
	"conos/internal/logger"
	"conos/internal/metrics"
	"conos/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// LostBidComment ставится на списание, когда ставка проиграла или отозвана.
const LostBidComment = "Bid closed/expired and lost."

type Service struct {
	repo    Repository
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewService(repo Repository, log *logger.Logger, m *metrics.Metrics) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, log: log, metrics: m}, nil
}

// Balance возвращает текущий баланс подрядчика.
func (s *Service) Balance(ctx context.Context, contractorID int64) (decimal.Decimal, error) {
	if _, err := s.repo.GetContractor(ctx, contractorID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return decimal.Zero, apperrors.NotFound("contractor %d not found", contractorID)
		}
		return decimal.Zero, err
	}
	return s.BalanceTx(ctx, nil, contractorID)
}

// BalanceTx считает баланс внутри транзакции вызывающего.
func (s *Service) BalanceTx(ctx context.Context, tx *sqlx.Tx, contractorID int64) (decimal.Decimal, error) {
	entries, err := s.repo.WithTx(tx).ListByContractor(ctx, contractorID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := Balance(entries)
	if balance.IsNegative() {
		ctx = s.log.WithFields(ctx, map[string]any{
			"contractor_id": contractorID,
			"balance":       balance.String(),
		})
		s.log.Warn(ctx, "negative contractor balance")
	}
	return balance, nil
}

// History - все записи журнала подрядчика в порядке создания.
func (s *Service) History(ctx context.Context, contractorID int64) ([]models.Transaction, error) {
	return s.repo.ListByContractor(ctx, contractorID)
}

// BuyCredits пополняет счет подрядчика от имени агента.
func (s *Service) BuyCredits(ctx context.Context, agentID, contractorID int64, amount decimal.Decimal, comment string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.InvalidArgument("amount must be positive, got %s", amount.String())
	}
	if err := models.CheckMoney(amount); err != nil {
		return nil, apperrors.InvalidArgument("amount: %v", err)
	}
	agent, err := s.repo.GetAgent(ctx, agentID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperrors.NotFound("agent %d not found", agentID)
		}
		return nil, err
	}
	if !agent.HasPerms(models.PermActionCreate, models.PermLocationTopups) {
		return nil, apperrors.NewAgentNotAuthorized(models.PermActionCreate.Label(), models.PermLocationTopups.Label())
	}
	if _, err := s.repo.GetContractor(ctx, contractorID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperrors.NotFound("contractor %d not found", contractorID)
		}
		return nil, err
	}

	entry := &models.Transaction{
		Type:          models.TransactionTypeBuy,
		Amount:        amount,
		ContractorID:  contractorID,
		SourceType:    models.TransactionSourceAgent,
		SourceAgentID: &agent.ID,
		Status:        models.TransactionStatusCommitted,
	}
	if c := strings.TrimSpace(comment); c != "" {
		entry.Comment = &c
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	ctx = s.log.WithFields(ctx, map[string]any{
		"agent_id":      agentID,
		"contractor_id": contractorID,
		"amount":        amount.String(),
	})
	s.log.Info(ctx, "credits purchased")
	s.metrics.CreditsSold()
	return entry, nil
}

// Redeem записывает списание за ставку со статусом pending.
func (s *Service) Redeem(ctx context.Context, tx *sqlx.Tx, bid *models.Bid, amount decimal.Decimal) (*models.Transaction, error) {
	if amount.IsNegative() {
		return nil, apperrors.InvalidArgument("redeem amount must not be negative")
	}
	bidID := bid.ID
	entry := &models.Transaction{
		Type:         models.TransactionTypeRedeem,
		Amount:       amount,
		ContractorID: bid.ContractorID,
		SourceType:   models.TransactionSourceContractor,
		TargetBidID:  &bidID,
		Status:       models.TransactionStatusPending,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// SettleForBid переводит единственное списание ставки в итоговый статус:
// accepted - committed, expired и revoked - cancelled.
func (s *Service) SettleForBid(ctx context.Context, tx *sqlx.Tx, bidID int64, status models.BidStatus) (*models.Transaction, error) {
	var (
		target  models.TransactionStatus
		comment *string
	)
	switch status {
	case models.BidStatusAccepted:
		target = models.TransactionStatusCommitted
	case models.BidStatusExpired, models.BidStatusRevoked:
		target = models.TransactionStatusCancelled
		c := LostBidComment
		comment = &c
	default:
		return nil, apperrors.InvalidArgument("invalid bid status %q", status)
	}

	repo := s.repo.WithTx(tx)
	entries, err := repo.ListByTargetBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	switch len(entries) {
	case 1:
	case 0:
		return nil, apperrors.NotFound("no transaction for bid %d", bidID)
	default:
		return nil, apperrors.New(apperrors.CodeConflict,
			fmt.Sprintf("bid %d has %d transactions", bidID, len(entries)))
	}

	entry := entries[0]
	if err := repo.UpdateStatus(ctx, entry.ID, target, comment); err != nil {
		return nil, err
	}
	entry.Status = target
	if comment != nil {
		entry.Comment = comment
	}
	return &entry, nil
}
