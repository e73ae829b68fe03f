package db

import (
	"context"
	"fmt"

	"conos/models"

	"github.com/jmoiron/sqlx"
)

// Category (Категория)

func (s *Storage) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `INSERT INTO category (name) VALUES ($1) RETURNING id`
	return s.db.QueryRowxContext(ctx, query, c.Name).Scan(&c.ID)
}

func (s *Storage) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories, `SELECT id, name FROM category ORDER BY name ASC`)
	return categories, err
}

// Consumer (Клиент)

func (s *Storage) CreateConsumer(ctx context.Context, c *models.Consumer) error {
	query := `
        INSERT INTO consumer (name, phone_number, email_address)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return s.db.QueryRowxContext(ctx, query, c.Name, c.PhoneNumber, c.EmailAddress).
		Scan(&c.ID, &c.CreatedAt)
}

func (s *Storage) GetConsumer(ctx context.Context, id int64) (*models.Consumer, error) {
	c := &models.Consumer{}
	err := s.db.GetContext(ctx, c,
		`SELECT id, name, phone_number, email_address, created_at FROM consumer WHERE id=$1`, id)
	if err != nil {
		return nil, NotFound(err)
	}
	return c, nil
}

// Contractor (Подрядчик)

func (s *Storage) CreateContractor(ctx context.Context, c *models.Contractor) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO contractor (name, phone_number, active)
            VALUES ($1, $2, $3)
            RETURNING id, created_at`
		if err := tx.QueryRowxContext(ctx, query, c.Name, c.PhoneNumber, c.Active).
			Scan(&c.ID, &c.CreatedAt); err != nil {
			return fmt.Errorf("insert contractor: %w", err)
		}
		for _, categoryID := range c.Categories {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO contractor_category (contractor_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				c.ID, categoryID)
			if err != nil {
				return fmt.Errorf("insert contractor category: %w", err)
			}
		}
		return nil
	})
}

func (s *Storage) GetContractor(ctx context.Context, id int64) (*models.Contractor, error) {
	return GetContractor(ctx, s.db, id)
}

// SetContractorActive включает или отключает аккаунт подрядчика.
func (s *Storage) SetContractorActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE contractor SET active=$1 WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Storage) ListContractors(ctx context.Context, limit, offset int) ([]models.Contractor, error) {
	contractors := []models.Contractor{}
	query := `
        SELECT id, name, phone_number, active, created_at
        FROM contractor
        ORDER BY name ASC
        LIMIT $1 OFFSET $2`
	if err := s.db.SelectContext(ctx, &contractors, query, limit, offset); err != nil {
		return nil, err
	}
	return contractors, nil
}

// Agent (Агент)

func (s *Storage) GetAgent(ctx context.Context, id int64) (*models.Agent, error) {
	return GetAgent(ctx, s.db, id)
}

// Preferred (Предпочтительный подрядчик)

func (s *Storage) CreatePreferred(ctx context.Context, p *models.Preferred) error {
	if err := p.PostRanges.Validate(); err != nil {
		return err
	}
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `INSERT INTO preferred (contractor_id, category_id) VALUES ($1, $2) RETURNING id`
		if err := tx.QueryRowxContext(ctx, query, p.ContractorID, p.CategoryID).Scan(&p.ID); err != nil {
			return fmt.Errorf("insert preferred: %w", err)
		}
		for _, r := range p.PostRanges {
			_, err := tx.ExecContext(ctx, `
                INSERT INTO preferred_post_range (preferred_id, lower_bound, upper_bound)
                VALUES ($1, $2, $3)`, p.ID, r.Lower, r.Upper)
			if err != nil {
				return fmt.Errorf("insert preferred post range: %w", err)
			}
		}
		return nil
	})
}

func (s *Storage) ListPreferred(ctx context.Context, contractorID, categoryID int64) ([]models.Preferred, error) {
	return ListPreferred(ctx, s.db, contractorID, categoryID)
}
