package handlers

import (
	"context"

	"conos/internal/auction"
	"conos/internal/bidding"
	"conos/internal/bookings"
	"conos/models"

	"github.com/shopspring/decimal"
)

// StorageInterface - справочные данные, которые API отдает напрямую из db.Storage.
type StorageInterface interface {
	Ping(ctx context.Context) error

	CreateCategory(ctx context.Context, c *models.Category) error
	ListCategories(ctx context.Context) ([]models.Category, error)

	CreateConsumer(ctx context.Context, c *models.Consumer) error
	GetConsumer(ctx context.Context, id int64) (*models.Consumer, error)

	CreateContractor(ctx context.Context, c *models.Contractor) error
	GetContractor(ctx context.Context, id int64) (*models.Contractor, error)
	SetContractorActive(ctx context.Context, id int64, active bool) error
	ListContractors(ctx context.Context, limit, offset int) ([]models.Contractor, error)

	CreatePreferred(ctx context.Context, p *models.Preferred) error
}

type BookingService interface {
	Get(ctx context.Context, id int64) (*models.Booking, error)
	List(ctx context.Context, categoryID int64, limit, offset int) ([]models.Booking, error)
	Create(ctx context.Context, agentID int64, in bookings.CreateBookingInput) (*models.Booking, error)
	Update(ctx context.Context, agentID, bookingID int64, in bookings.UpdateBookingInput) (*models.Booking, error)
}

type LedgerService interface {
	Balance(ctx context.Context, contractorID int64) (decimal.Decimal, error)
	History(ctx context.Context, contractorID int64) ([]models.Transaction, error)
	BuyCredits(ctx context.Context, agentID, contractorID int64, amount decimal.Decimal, comment string) (*models.Transaction, error)
}

type BiddingService interface {
	CanBid(ctx context.Context, contractorID, bookingID int64) error
	PlaceBid(ctx context.Context, in bidding.PlaceBidInput) (*models.Bid, *models.Transaction, error)
	CloseBid(ctx context.Context, bidID int64, status models.BidStatus) (*models.Bid, *models.Transaction, error)
	Bid(ctx context.Context, bidID int64) (*models.Bid, error)
	Bids(ctx context.Context, contractorID int64) ([]models.Bid, error)
	RunAuction(ctx context.Context, bookingID int64) (*auction.Result, error)
	SettleAuction(ctx context.Context, bookingID int64) (*bidding.Settlement, error)
}

type PreferenceService interface {
	IsPreferred(ctx context.Context, contractorID int64, booking *models.Booking) (bool, error)
}
