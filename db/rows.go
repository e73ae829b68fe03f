package db

import (
	"context"
	"fmt"

	"conos/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Загрузчики строк принимают *sqlx.DB или *sqlx.Tx, чтобы репозитории
// могли читать сущности внутри своей транзакции.

func GetContractor(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Contractor, error) {
	return getContractor(ctx, q, id, false)
}

// GetContractorForUpdate блокирует строку подрядчика до конца транзакции,
// чтобы чтение баланса и запись в журнал шли последовательно.
func GetContractorForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Contractor, error) {
	return getContractor(ctx, tx, id, true)
}

func getContractor(ctx context.Context, q sqlx.QueryerContext, id int64, forUpdate bool) (*models.Contractor, error) {
	c := &models.Contractor{}
	query := `SELECT id, name, phone_number, active, created_at FROM contractor WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	if err := sqlx.GetContext(ctx, q, c, query, id); err != nil {
		return nil, NotFound(err)
	}
	categories := []int64{}
	err := sqlx.SelectContext(ctx, q, &categories,
		`SELECT category_id FROM contractor_category WHERE contractor_id=$1 ORDER BY category_id`, id)
	if err != nil {
		return nil, fmt.Errorf("load contractor categories: %w", err)
	}
	c.Categories = categories
	return c, nil
}

// BookingColumns - колонки booking в порядке полей models.Booking.
const BookingColumns = `id, agent_id, consumer_id, address_1, address_2, post_code, category_id,
        preferred_schedule, quoted_price, base_cost, cost_adjustment, priority_level, completed,
        status, comment_private, comment_public, created_at`

func GetBooking(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Booking, error) {
	return getBooking(ctx, q, id, false)
}

// GetBookingForUpdate блокирует заявку на время аукциона.
func GetBookingForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Booking, error) {
	return getBooking(ctx, tx, id, true)
}

func getBooking(ctx context.Context, q sqlx.QueryerContext, id int64, forUpdate bool) (*models.Booking, error) {
	b := &models.Booking{}
	query := `SELECT ` + BookingColumns + ` FROM booking WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	if err := sqlx.GetContext(ctx, q, b, query, id); err != nil {
		return nil, NotFound(err)
	}
	subtypes := []int64{}
	err := sqlx.SelectContext(ctx, q, &subtypes,
		`SELECT subtype_id FROM booking_subtype WHERE booking_id=$1 ORDER BY subtype_id`, id)
	if err != nil {
		return nil, fmt.Errorf("load booking subtypes: %w", err)
	}
	b.SubTypes = subtypes
	return b, nil
}

// GetAgent загружает агента вместе с его правами и правами уровня доступа.
func GetAgent(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Agent, error) {
	a := &models.Agent{}
	err := sqlx.GetContext(ctx, q, a,
		`SELECT id, username, access_level_id, created_at FROM agent WHERE id=$1`, id)
	if err != nil {
		return nil, NotFound(err)
	}

	perms := []models.Permission{}
	err = sqlx.SelectContext(ctx, q, &perms, `
        SELECT p.action, p.location
        FROM agent_permission ap
        JOIN permission p ON p.id = ap.permission_id
        WHERE ap.agent_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("load agent permissions: %w", err)
	}
	a.Permissions = perms

	levelPerms := []models.Permission{}
	if a.AccessLevelID != nil {
		err = sqlx.SelectContext(ctx, q, &levelPerms, `
            SELECT p.action, p.location
            FROM access_level_permission lp
            JOIN permission p ON p.id = lp.permission_id
            WHERE lp.access_level_id = $1`, *a.AccessLevelID)
		if err != nil {
			return nil, fmt.Errorf("load access level permissions: %w", err)
		}
	}
	a.LevelPermissions = levelPerms
	return a, nil
}

type postRangeRow struct {
	PreferredID int64 `db:"preferred_id"`
	Lower       int   `db:"lower_bound"`
	Upper       int   `db:"upper_bound"`
}

// ListPreferred возвращает все строки Preferred для пары (подрядчик, категория)
// с диапазонами индексов. Несколько строк - допустимое состояние данных.
func ListPreferred(ctx context.Context, q sqlx.QueryerContext, contractorID, categoryID int64) ([]models.Preferred, error) {
	rows := []models.Preferred{}
	err := sqlx.SelectContext(ctx, q, &rows, `
        SELECT id, contractor_id, category_id
        FROM preferred
        WHERE contractor_id = $1 AND category_id = $2
        ORDER BY id`, contractorID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list preferred: %w", err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]int64, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	ranges := []postRangeRow{}
	err = sqlx.SelectContext(ctx, q, &ranges, `
        SELECT preferred_id, lower_bound, upper_bound
        FROM preferred_post_range
        WHERE preferred_id = ANY($1)
        ORDER BY preferred_id, lower_bound`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list preferred post ranges: %w", err)
	}

	byID := make(map[int64]*models.Preferred, len(rows))
	for i := range rows {
		rows[i].PostRanges = models.PostRanges{}
		byID[rows[i].ID] = &rows[i]
	}
	for _, r := range ranges {
		p, ok := byID[r.PreferredID]
		if !ok {
			continue
		}
		p.PostRanges = append(p.PostRanges, models.PostRange{Lower: r.Lower, Upper: r.Upper})
	}
	return rows, nil
}
