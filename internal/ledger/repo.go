package ledger

import (
	"context"
	"fmt"

	"conos/db"
	"conos/models"

	"github.com/jmoiron/sqlx"
)

// Repository - доступ к журналу кредитов (таблица credit_transaction).
type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	GetContractor(ctx context.Context, id int64) (*models.Contractor, error)
	GetAgent(ctx context.Context, id int64) (*models.Agent, error)
	ListByContractor(ctx context.Context, contractorID int64) ([]models.Transaction, error)
	ListByTargetBid(ctx context.Context, bidID int64) ([]models.Transaction, error)
	Create(ctx context.Context, entry *models.Transaction) error
	UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, comment *string) error
}

type repository struct {
	q sqlx.ExtContext
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{q: conn}
}

func (r *repository) WithTx(tx *sqlx.Tx) Repository {
	if tx == nil {
		return r
	}
	return &repository{q: tx}
}

const transactionColumns = `id, transaction_type, amount, contractor_id, source_type,
        source_agent_id, target_bid_id, status, comment, created_at`

func (r *repository) GetContractor(ctx context.Context, id int64) (*models.Contractor, error) {
	return db.GetContractor(ctx, r.q, id)
}

func (r *repository) GetAgent(ctx context.Context, id int64) (*models.Agent, error) {
	return db.GetAgent(ctx, r.q, id)
}

func (r *repository) ListByContractor(ctx context.Context, contractorID int64) ([]models.Transaction, error) {
	entries := []models.Transaction{}
	err := sqlx.SelectContext(ctx, r.q, &entries,
		`SELECT `+transactionColumns+` FROM credit_transaction WHERE contractor_id=$1 ORDER BY created_at, id`,
		contractorID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return entries, nil
}

func (r *repository) ListByTargetBid(ctx context.Context, bidID int64) ([]models.Transaction, error) {
	entries := []models.Transaction{}
	err := sqlx.SelectContext(ctx, r.q, &entries,
		`SELECT `+transactionColumns+` FROM credit_transaction WHERE target_bid_id=$1 ORDER BY id`,
		bidID)
	if err != nil {
		return nil, fmt.Errorf("list bid transactions: %w", err)
	}
	return entries, nil
}

func (r *repository) Create(ctx context.Context, entry *models.Transaction) error {
	query := `
        INSERT INTO credit_transaction
            (transaction_type, amount, contractor_id, source_type, source_agent_id, target_bid_id, status, comment)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at`
	err := r.q.QueryRowxContext(ctx, query,
		entry.Type, entry.Amount, entry.ContractorID, entry.SourceType,
		entry.SourceAgentID, entry.TargetBidID, entry.Status, entry.Comment,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// UpdateStatus меняет статус записи; comment == nil оставляет комментарий прежним.
func (r *repository) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, comment *string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE credit_transaction SET status=$1, comment=COALESCE($2, comment) WHERE id=$3`,
		status, comment, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}
	return nil
}
