package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Категория услуг (сантехника, электрика и т.д.)
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name" validate:"required,max=64"`
}

// Подтип заявки
type SubType struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name" validate:"required,max=64"`
}

// Сущность Клиента
type Consumer struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name" validate:"required,max=64"`
	PhoneNumber  string    `db:"phone_number" json:"phoneNumber" validate:"required,max=32"`
	EmailAddress string    `db:"email_address" json:"emailAddress" validate:"required,email"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Сущность Подрядчика. Баланс не хранится, он всегда выводится из журнала транзакций.
type Contractor struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name" validate:"required,max=128"`
	PhoneNumber string    `db:"phone_number" json:"phoneNumber" validate:"max=32"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	Categories  []int64   `db:"-" json:"categories"`
}

// HasCategory проверяет, обслуживает ли подрядчик категорию.
func (c *Contractor) HasCategory(categoryID int64) bool {
	for _, id := range c.Categories {
		if id == categoryID {
			return true
		}
	}
	return false
}

// Сущность Заявки
type Booking struct {
	ID                int64           `db:"id" json:"id"`
	AgentID           int64           `db:"agent_id" json:"agentId"`
	ConsumerID        int64           `db:"consumer_id" json:"consumerId" validate:"required"`
	Address1          string          `db:"address_1" json:"address1" validate:"required,max=256"`
	Address2          string          `db:"address_2" json:"address2" validate:"max=256"`
	PostCode          int             `db:"post_code" json:"postCode" validate:"gte=0"`
	CategoryID        int64           `db:"category_id" json:"categoryId" validate:"required"`
	PreferredSchedule time.Time       `db:"preferred_schedule" json:"preferredSchedule"`
	QuotedPrice       decimal.Decimal `db:"quoted_price" json:"quotedPrice"`
	BaseCost          decimal.Decimal `db:"base_cost" json:"baseCost"`
	CostAdjustment    decimal.Decimal `db:"cost_adjustment" json:"costAdjustment"`
	PriorityLevel     int             `db:"priority_level" json:"priorityLevel"`
	Completed         bool            `db:"completed" json:"completed"`
	Status            BookingStatus   `db:"status" json:"status"`
	CommentPrivate    string          `db:"comment_private" json:"commentPrivate,omitempty"`
	CommentPublic     string          `db:"comment_public" json:"commentPublic,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	SubTypes          []int64         `db:"-" json:"subtypes"`
}

// TotalCost - базовая стоимость плюс корректировка.
func (b *Booking) TotalCost() decimal.Decimal {
	return b.BaseCost.Add(b.CostAdjustment)
}

// Сущность Ставки
type Bid struct {
	ID                int64           `db:"id" json:"id"`
	BookingID         int64           `db:"booking_id" json:"bookingId"`
	ContractorID      int64           `db:"contractor_id" json:"contractorId"`
	BaseCost          decimal.Decimal `db:"base_cost" json:"baseCost"`
	PremiumAdjustment decimal.Decimal `db:"premium_adjustment" json:"premiumAdjustment"`
	Status            BidStatus       `db:"status" json:"status"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// TotalCost - базовая стоимость ставки плюс надбавка.
func (b *Bid) TotalCost() decimal.Decimal {
	return b.BaseCost.Add(b.PremiumAdjustment)
}

// Запись журнала кредитов подрядчика
type Transaction struct {
	ID            int64             `db:"id" json:"id"`
	Type          TransactionType   `db:"transaction_type" json:"type"`
	Amount        decimal.Decimal   `db:"amount" json:"amount"`
	ContractorID  int64             `db:"contractor_id" json:"contractorId"`
	SourceType    TransactionSource `db:"source_type" json:"sourceType"`
	SourceAgentID *int64            `db:"source_agent_id" json:"sourceAgentId,omitempty"`
	TargetBidID   *int64            `db:"target_bid_id" json:"targetBidId,omitempty"`
	Status        TransactionStatus `db:"status" json:"status"`
	Comment       *string           `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
}

// Предпочтительный подрядчик для категории в диапазонах индексов
type Preferred struct {
	ID           int64      `db:"id" json:"id"`
	ContractorID int64      `db:"contractor_id" json:"contractorId"`
	CategoryID   int64      `db:"category_id" json:"categoryId"`
	PostRanges   PostRanges `db:"-" json:"postRanges"`
}

// InPostRange проверяет, попадает ли индекс в один из диапазонов.
func (p *Preferred) InPostRange(postCode int) bool {
	return p.PostRanges.Contains(postCode)
}

// Право агента: действие над разделом
type Permission struct {
	Action   PermAction   `db:"action" json:"action"`
	Location PermLocation `db:"location" json:"location"`
}

// Сущность Агента (сотрудник, который ведет заявки)
type Agent struct {
	ID               int64        `db:"id" json:"id"`
	Username         string       `db:"username" json:"username"`
	AccessLevelID    *int64       `db:"access_level_id" json:"accessLevelId,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"createdAt"`
	Permissions      []Permission `db:"-" json:"permissions"`
	LevelPermissions []Permission `db:"-" json:"levelPermissions"`
}

// HasPerms проверяет собственные права агента, затем права уровня доступа.
func (a *Agent) HasPerms(action PermAction, location PermLocation) bool {
	for _, p := range a.Permissions {
		if p.Action == action && p.Location == location {
			return true
		}
	}
	for _, p := range a.LevelPermissions {
		if p.Action == action && p.Location == location {
			return true
		}
	}
	return false
}
