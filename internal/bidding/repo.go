package bidding

import (
	"context"
	"fmt"

	"conos/db"
	"conos/models"

	"github.com/jmoiron/sqlx"
)

// Repository - ставки и сущности, которые читает жизненный цикл ставки.
// Методы *ForUpdate блокируют строку только внутри транзакции.
type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	GetContractor(ctx context.Context, id int64) (*models.Contractor, error)
	GetContractorForUpdate(ctx context.Context, id int64) (*models.Contractor, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingForUpdate(ctx context.Context, id int64) (*models.Booking, error)
	GetBid(ctx context.Context, id int64) (*models.Bid, error)
	GetBidForUpdate(ctx context.Context, id int64) (*models.Bid, error)
	ListBidsByBooking(ctx context.Context, bookingID int64) ([]models.Bid, error)
	ListBidsByContractor(ctx context.Context, contractorID int64) ([]models.Bid, error)
	CreateBid(ctx context.Context, bid *models.Bid) error
	UpdateBidStatus(ctx context.Context, id int64, status models.BidStatus) error
}

type repository struct {
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{q: conn}
}

func (r *repository) WithTx(tx *sqlx.Tx) Repository {
	if tx == nil {
		return r
	}
	return &repository{q: tx, tx: tx}
}

const bidColumns = `id, booking_id, contractor_id, base_cost, premium_adjustment, status, created_at`

func (r *repository) GetContractor(ctx context.Context, id int64) (*models.Contractor, error) {
	return db.GetContractor(ctx, r.q, id)
}

func (r *repository) GetContractorForUpdate(ctx context.Context, id int64) (*models.Contractor, error) {
	if r.tx == nil {
		return db.GetContractor(ctx, r.q, id)
	}
	return db.GetContractorForUpdate(ctx, r.tx, id)
}

func (r *repository) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return db.GetBooking(ctx, r.q, id)
}

func (r *repository) GetBookingForUpdate(ctx context.Context, id int64) (*models.Booking, error) {
	if r.tx == nil {
		return db.GetBooking(ctx, r.q, id)
	}
	return db.GetBookingForUpdate(ctx, r.tx, id)
}

func (r *repository) GetBid(ctx context.Context, id int64) (*models.Bid, error) {
	return r.getBid(ctx, id, false)
}

func (r *repository) GetBidForUpdate(ctx context.Context, id int64) (*models.Bid, error) {
	return r.getBid(ctx, id, r.tx != nil)
}

func (r *repository) getBid(ctx context.Context, id int64, forUpdate bool) (*models.Bid, error) {
	bid := &models.Bid{}
	query := `SELECT ` + bidColumns + ` FROM bid WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	if err := sqlx.GetContext(ctx, r.q, bid, query, id); err != nil {
		return nil, db.NotFound(err)
	}
	return bid, nil
}

func (r *repository) ListBidsByBooking(ctx context.Context, bookingID int64) ([]models.Bid, error) {
	bids := []models.Bid{}
	err := sqlx.SelectContext(ctx, r.q, &bids,
		`SELECT `+bidColumns+` FROM bid WHERE booking_id=$1 ORDER BY created_at, id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list booking bids: %w", err)
	}
	return bids, nil
}

func (r *repository) ListBidsByContractor(ctx context.Context, contractorID int64) ([]models.Bid, error) {
	bids := []models.Bid{}
	err := sqlx.SelectContext(ctx, r.q, &bids,
		`SELECT `+bidColumns+` FROM bid WHERE contractor_id=$1 ORDER BY created_at DESC, id DESC`, contractorID)
	if err != nil {
		return nil, fmt.Errorf("list contractor bids: %w", err)
	}
	return bids, nil
}

func (r *repository) CreateBid(ctx context.Context, bid *models.Bid) error {
	query := `
        INSERT INTO bid (booking_id, contractor_id, base_cost, premium_adjustment, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	err := r.q.QueryRowxContext(ctx, query,
		bid.BookingID, bid.ContractorID, bid.BaseCost, bid.PremiumAdjustment, bid.Status,
	).Scan(&bid.ID, &bid.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

func (r *repository) UpdateBidStatus(ctx context.Context, id int64, status models.BidStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE bid SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return fmt.Errorf("update bid status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}
	return nil
}
