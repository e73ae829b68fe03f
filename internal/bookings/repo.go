package bookings

import (
	"context"
	"fmt"

	"conos/db"
	"conos/models"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	WithTx(tx *sqlx.Tx) Repository
	GetAgent(ctx context.Context, id int64) (*models.Agent, error)
	Get(ctx context.Context, id int64) (*models.Booking, error)
	List(ctx context.Context, categoryID int64, limit, offset int) ([]models.Booking, error)
	Create(ctx context.Context, b *models.Booking) error
	Update(ctx context.Context, b *models.Booking) error
	ReplaceSubtypes(ctx context.Context, bookingID int64, subtypes []int64) error
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

func (r *repository) GetAgent(ctx context.Context, id int64) (*models.Agent, error) {
	return db.GetAgent(ctx, r.q, id)
}

func (r *repository) Get(ctx context.Context, id int64) (*models.Booking, error) {
	return db.GetBooking(ctx, r.q, id)
}

// List возвращает заявки, новые первыми; categoryID == 0 - без фильтра.
func (r *repository) List(ctx context.Context, categoryID int64, limit, offset int) ([]models.Booking, error) {
	list := []models.Booking{}
	query := `SELECT ` + db.BookingColumns + ` FROM booking
        WHERE ($1::bigint = 0 OR category_id = $1)
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3`
	if err := sqlx.SelectContext(ctx, r.q, &list, query, categoryID, limit, offset); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}

func (r *repository) Create(ctx context.Context, b *models.Booking) error {
	query := `
        INSERT INTO booking (agent_id, consumer_id, address_1, address_2, post_code, category_id,
            preferred_schedule, quoted_price, base_cost, cost_adjustment, priority_level, completed,
            status, comment_private, comment_public)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id, created_at`
	err := r.q.QueryRowxContext(ctx, query,
		b.AgentID, b.ConsumerID, b.Address1, b.Address2, b.PostCode, b.CategoryID,
		b.PreferredSchedule, b.QuotedPrice, b.BaseCost, b.CostAdjustment, b.PriorityLevel, b.Completed,
		b.Status, b.CommentPrivate, b.CommentPublic,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, b *models.Booking) error {
	query := `
        UPDATE booking SET consumer_id=$1, address_1=$2, address_2=$3, post_code=$4, category_id=$5,
            preferred_schedule=$6, quoted_price=$7, base_cost=$8, cost_adjustment=$9, priority_level=$10,
            completed=$11, status=$12, comment_private=$13, comment_public=$14
        WHERE id=$15`
	res, err := r.q.ExecContext(ctx, query,
		b.ConsumerID, b.Address1, b.Address2, b.PostCode, b.CategoryID,
		b.PreferredSchedule, b.QuotedPrice, b.BaseCost, b.CostAdjustment, b.PriorityLevel,
		b.Completed, b.Status, b.CommentPrivate, b.CommentPublic, b.ID)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}
	return nil
}

// ReplaceSubtypes заменяет набор подтипов заявки целиком.
func (r *repository) ReplaceSubtypes(ctx context.Context, bookingID int64, subtypes []int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM booking_subtype WHERE booking_id=$1`, bookingID); err != nil {
		return fmt.Errorf("clear booking subtypes: %w", err)
	}
	for _, id := range subtypes {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO booking_subtype (booking_id, subtype_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			bookingID, id)
		if err != nil {
			return fmt.Errorf("insert booking subtype: %w", err)
		}
	}
	return nil
}
