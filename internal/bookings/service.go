package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conos/db"
	"conos/internal/apperrors"
	"conos/internal/logger"
	"conos/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type CreateBookingInput struct {
	ConsumerID        int64           `json:"consumerId" validate:"required,gt=0"`
	Address1          string          `json:"address1" validate:"required,max=256"`
	Address2          string          `json:"address2" validate:"max=256"`
	PostCode          int             `json:"postCode" validate:"gte=0"`
	CategoryID        int64           `json:"categoryId" validate:"required,gt=0"`
	PreferredSchedule time.Time       `json:"preferredSchedule" validate:"required"`
	QuotedPrice       decimal.Decimal `json:"quotedPrice"`
	BaseCost          decimal.Decimal `json:"baseCost"`
	CostAdjustment    decimal.Decimal `json:"costAdjustment"`
	PriorityLevel     int             `json:"priorityLevel" validate:"gte=0"`
	CommentPrivate    string          `json:"commentPrivate"`
	CommentPublic     string          `json:"commentPublic"`
	SubTypes          []int64         `json:"subtypes"`
}

// UpdateBookingInput - частичное обновление: nil-поля не меняются.
// SubTypes == nil оставляет подтипы, иначе набор заменяется целиком.
type UpdateBookingInput struct {
	ConsumerID        *int64                `json:"consumerId" validate:"omitempty,gt=0"`
	Address1          *string               `json:"address1" validate:"omitempty,min=1,max=256"`
	Address2          *string               `json:"address2" validate:"omitempty,max=256"`
	PostCode          *int                  `json:"postCode" validate:"omitempty,gte=0"`
	CategoryID        *int64                `json:"categoryId" validate:"omitempty,gt=0"`
	PreferredSchedule *time.Time            `json:"preferredSchedule"`
	QuotedPrice       *decimal.Decimal      `json:"quotedPrice"`
	BaseCost          *decimal.Decimal      `json:"baseCost"`
	CostAdjustment    *decimal.Decimal      `json:"costAdjustment"`
	PriorityLevel     *int                  `json:"priorityLevel" validate:"omitempty,gte=0"`
	Completed         *bool                 `json:"completed"`
	Status            *models.BookingStatus `json:"status"`
	CommentPrivate    *string               `json:"commentPrivate"`
	CommentPublic     *string               `json:"commentPublic"`
	SubTypes          []int64               `json:"subtypes"`
}

type Service struct {
	repo Repository
	tx   txRunner
	log  *logger.Logger
}

func NewService(repo Repository, tx txRunner, log *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, tx: tx, log: log}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, categoryID int64, limit, offset int) ([]models.Booking, error) {
	return s.repo.List(ctx, categoryID, limit, offset)
}

// Create создает заявку от имени агента с правом (create, bookings).
func (s *Service) Create(ctx context.Context, agentID int64, in CreateBookingInput) (*models.Booking, error) {
	agent, err := s.authorize(ctx, agentID, models.PermActionCreate)
	if err != nil {
		return nil, err
	}
	if err := validateMoney(in.QuotedPrice, in.BaseCost, in.CostAdjustment); err != nil {
		return nil, err
	}
	if in.PostCode < 0 {
		return nil, apperrors.InvalidArgument("post code must not be negative")
	}

	booking := &models.Booking{
		AgentID:           agent.ID,
		ConsumerID:        in.ConsumerID,
		Address1:          in.Address1,
		Address2:          in.Address2,
		PostCode:          in.PostCode,
		CategoryID:        in.CategoryID,
		PreferredSchedule: in.PreferredSchedule,
		QuotedPrice:       in.QuotedPrice,
		BaseCost:          in.BaseCost,
		CostAdjustment:    in.CostAdjustment,
		PriorityLevel:     in.PriorityLevel,
		Status:            models.BookingStatusActive,
		CommentPrivate:    in.CommentPrivate,
		CommentPublic:     in.CommentPublic,
		SubTypes:          uniqueIDs(in.SubTypes),
	}
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, booking); err != nil {
			return err
		}
		return repo.ReplaceSubtypes(ctx, booking.ID, booking.SubTypes)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"agent_id":   agent.ID,
		"booking_id": booking.ID,
	}), "booking created")
	return booking, nil
}

// Update меняет заявку от имени агента с правом (update, bookings).
func (s *Service) Update(ctx context.Context, agentID, bookingID int64, in UpdateBookingInput) (*models.Booking, error) {
	if _, err := s.authorize(ctx, agentID, models.PermActionUpdate); err != nil {
		return nil, err
	}

	var booking *models.Booking
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.Get(ctx, bookingID)
		if err != nil {
			return notFound(err, "booking", bookingID)
		}
		if err := apply(current, in); err != nil {
			return err
		}
		if err := repo.Update(ctx, current); err != nil {
			return notFound(err, "booking", bookingID)
		}
		if in.SubTypes != nil {
			current.SubTypes = uniqueIDs(in.SubTypes)
			if err := repo.ReplaceSubtypes(ctx, current.ID, current.SubTypes); err != nil {
				return err
			}
		}
		booking = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"agent_id":   agentID,
		"booking_id": bookingID,
	}), "booking updated")
	return booking, nil
}

func (s *Service) authorize(ctx context.Context, agentID int64, action models.PermAction) (*models.Agent, error) {
	if agentID <= 0 {
		return nil, apperrors.InvalidArgument("agent id is required")
	}
	agent, err := s.repo.GetAgent(ctx, agentID)
	if err != nil {
		return nil, notFound(err, "agent", agentID)
	}
	if !agent.HasPerms(action, models.PermLocationBookings) {
		return nil, apperrors.NewAgentNotAuthorized(action.Label(), models.PermLocationBookings.Label())
	}
	return agent, nil
}

func apply(b *models.Booking, in UpdateBookingInput) error {
	if in.ConsumerID != nil {
		b.ConsumerID = *in.ConsumerID
	}
	if in.Address1 != nil {
		b.Address1 = *in.Address1
	}
	if in.Address2 != nil {
		b.Address2 = *in.Address2
	}
	if in.PostCode != nil {
		if *in.PostCode < 0 {
			return apperrors.InvalidArgument("post code must not be negative")
		}
		b.PostCode = *in.PostCode
	}
	if in.CategoryID != nil {
		b.CategoryID = *in.CategoryID
	}
	if in.PreferredSchedule != nil {
		b.PreferredSchedule = *in.PreferredSchedule
	}
	if in.QuotedPrice != nil {
		b.QuotedPrice = *in.QuotedPrice
	}
	if in.BaseCost != nil {
		b.BaseCost = *in.BaseCost
	}
	if in.CostAdjustment != nil {
		b.CostAdjustment = *in.CostAdjustment
	}
	if in.PriorityLevel != nil {
		b.PriorityLevel = *in.PriorityLevel
	}
	if in.Completed != nil {
		b.Completed = *in.Completed
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return apperrors.InvalidArgument("invalid booking status %q", *in.Status)
		}
		b.Status = *in.Status
	}
	if in.CommentPrivate != nil {
		b.CommentPrivate = *in.CommentPrivate
	}
	if in.CommentPublic != nil {
		b.CommentPublic = *in.CommentPublic
	}
	return validateMoney(b.QuotedPrice, b.BaseCost, b.CostAdjustment)
}

func validateMoney(quoted, base, adjustment decimal.Decimal) error {
	if quoted.IsNegative() || base.IsNegative() {
		return apperrors.InvalidArgument("prices must not be negative")
	}
	if base.Add(adjustment).IsNegative() {
		return apperrors.InvalidArgument("total cost must not be negative")
	}
	if err := models.CheckMoney(quoted); err != nil {
		return apperrors.InvalidArgument("quoted price: %v", err)
	}
	if err := models.CheckMoney(base); err != nil {
		return apperrors.InvalidArgument("base cost: %v", err)
	}
	if err := models.CheckMoney(adjustment); err != nil {
		return apperrors.InvalidArgument("cost adjustment: %v", err)
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperrors.NotFound("%s %d not found", entity, id)
	}
	return err
}
