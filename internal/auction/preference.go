package auction

import (
	"context"
	"fmt"

	"conos/db"
	"conos/internal/logger"
	"conos/models"

	"github.com/jmoiron/sqlx"
)

// PreferenceRepository читает строки Preferred для пары (подрядчик, категория).
type PreferenceRepository interface {
	WithTx(tx *sqlx.Tx) PreferenceRepository
	ListPreferred(ctx context.Context, contractorID, categoryID int64) ([]models.Preferred, error)
}

type preferenceRepository struct {
	q sqlx.QueryerContext
}

func NewPreferenceRepository(conn *sqlx.DB) PreferenceRepository {
	return &preferenceRepository{q: conn}
}

func (r *preferenceRepository) WithTx(tx *sqlx.Tx) PreferenceRepository {
	if tx == nil {
		return r
	}
	return &preferenceRepository{q: tx}
}

func (r *preferenceRepository) ListPreferred(ctx context.Context, contractorID, categoryID int64) ([]models.Preferred, error) {
	return db.ListPreferred(ctx, r.q, contractorID, categoryID)
}

// IsPreferred требует ровно одну строку; ноль или несколько строк - не предпочтителен.
func IsPreferred(rows []models.Preferred, postCode int) bool {
	if len(rows) != 1 {
		return false
	}
	return rows[0].InPostRange(postCode)
}

type Resolver struct {
	repo PreferenceRepository
	log  *logger.Logger
}

func NewResolver(repo PreferenceRepository, log *logger.Logger) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("preference repository required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{repo: repo, log: log}, nil
}

func (r *Resolver) IsPreferred(ctx context.Context, contractorID int64, booking *models.Booking) (bool, error) {
	return r.IsPreferredTx(ctx, nil, contractorID, booking)
}

// IsPreferredTx читает строки внутри транзакции вызывающего.
func (r *Resolver) IsPreferredTx(ctx context.Context, tx *sqlx.Tx, contractorID int64, booking *models.Booking) (bool, error) {
	rows, err := r.repo.WithTx(tx).ListPreferred(ctx, contractorID, booking.CategoryID)
	if err != nil {
		return false, err
	}
	if len(rows) > 1 {
		ctx = r.log.WithFields(ctx, map[string]any{
			"contractor_id": contractorID,
			"category_id":   booking.CategoryID,
			"rows":          len(rows),
		})
		r.log.Warn(ctx, "multiple preferred rows for contractor and category")
	}
	return IsPreferred(rows, booking.PostCode), nil
}
