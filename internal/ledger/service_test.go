package ledger

import (
	"context"
	"errors"
	"testing"

	"conos/db"
	"conos/internal/apperrors"
	"conos/internal/logger"
	"conos/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	contractors map[int64]*models.Contractor
	agents      map[int64]*models.Agent
	entries     []models.Transaction
	nextID      int64
	createErr   error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		contractors: map[int64]*models.Contractor{},
		agents:      map[int64]*models.Agent{},
	}
}

func (f *fakeRepository) WithTx(tx *sqlx.Tx) Repository {
	return f
}

func (f *fakeRepository) GetContractor(ctx context.Context, id int64) (*models.Contractor, error) {
	c, ok := f.contractors[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepository) GetAgent(ctx context.Context, id int64) (*models.Agent, error) {
	a, ok := f.agents[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return a, nil
}

func (f *fakeRepository) ListByContractor(ctx context.Context, contractorID int64) ([]models.Transaction, error) {
	out := []models.Transaction{}
	for _, e := range f.entries {
		if e.ContractorID == contractorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListByTargetBid(ctx context.Context, bidID int64) ([]models.Transaction, error) {
	out := []models.Transaction{}
	for _, e := range f.entries {
		if e.TargetBidID != nil && *e.TargetBidID == bidID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.Transaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	entry.ID = f.nextID
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeRepository) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, comment *string) error {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].Status = status
			if comment != nil {
				f.entries[i].Comment = comment
			}
			return nil
		}
	}
	return db.ErrNotFound
}

func entry(t models.TransactionType, amount string, status models.TransactionStatus) models.Transaction {
	return models.Transaction{
		Type:         t,
		Amount:       decimal.RequireFromString(amount),
		ContractorID: 1,
		Status:       status,
	}
}

func TestBalanceFold(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.Transaction
		want    string
	}{
		{name: "empty journal", entries: nil, want: "0"},
		{
			name: "committed buy and pending redeem",
			entries: []models.Transaction{
				entry(models.TransactionTypeBuy, "500", models.TransactionStatusCommitted),
				entry(models.TransactionTypeRedeem, "200", models.TransactionStatusPending),
			},
			want: "300",
		},
		{
			name: "cancelled redeem ignored",
			entries: []models.Transaction{
				entry(models.TransactionTypeBuy, "500", models.TransactionStatusCommitted),
				entry(models.TransactionTypeRedeem, "200", models.TransactionStatusCancelled),
			},
			want: "500",
		},
		{
			name: "negative balance is not clamped",
			entries: []models.Transaction{
				entry(models.TransactionTypeBuy, "100", models.TransactionStatusCommitted),
				entry(models.TransactionTypeRedeem, "150.50", models.TransactionStatusCommitted),
			},
			want: "-50.5",
		},
		{
			name: "pending buy counts",
			entries: []models.Transaction{
				entry(models.TransactionTypeBuy, "10.25", models.TransactionStatusPending),
			},
			want: "10.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Balance(tt.entries)
			require.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestServiceBalance(t *testing.T) {
	repo := newFakeRepository()
	repo.contractors[1] = &models.Contractor{ID: 1, Active: true}
	repo.entries = []models.Transaction{
		entry(models.TransactionTypeBuy, "500", models.TransactionStatusCommitted),
		entry(models.TransactionTypeRedeem, "200", models.TransactionStatusPending),
	}
	svc, err := NewService(repo, logger.Nop(), nil)
	require.NoError(t, err)

	balance, err := svc.Balance(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(300)))

	_, err = svc.Balance(context.Background(), 42)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestServiceBuyCredits(t *testing.T) {
	repo := newFakeRepository()
	repo.contractors[1] = &models.Contractor{ID: 1, Active: true}
	repo.agents[7] = &models.Agent{
		ID:          7,
		Permissions: []models.Permission{{Action: models.PermActionCreate, Location: models.PermLocationTopups}},
	}
	repo.agents[8] = &models.Agent{ID: 8}
	svc, err := NewService(repo, logger.Nop(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := svc.BuyCredits(ctx, 7, 1, decimal.NewFromInt(500), " first top-up ")
	require.NoError(t, err)
	require.Equal(t, models.TransactionTypeBuy, got.Type)
	require.Equal(t, models.TransactionSourceAgent, got.SourceType)
	require.Equal(t, models.TransactionStatusCommitted, got.Status)
	require.NotNil(t, got.SourceAgentID)
	require.Equal(t, int64(7), *got.SourceAgentID)
	require.Equal(t, "first top-up", *got.Comment)

	_, err = svc.BuyCredits(ctx, 8, 1, decimal.NewFromInt(500), "")
	var notAuthorized *apperrors.AgentNotAuthorized
	require.True(t, errors.As(err, &notAuthorized))
	require.Equal(t, "CREATE", notAuthorized.Action)
	require.Equal(t, "TOPUPS", notAuthorized.Location)

	_, err = svc.BuyCredits(ctx, 7, 1, decimal.Zero, "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))

	_, err = svc.BuyCredits(ctx, 7, 99, decimal.NewFromInt(1), "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	// сумма должна помещаться в NUMERIC(8,2)
	for _, amount := range []string{"0.001", "10.005", "1000000"} {
		_, err = svc.BuyCredits(ctx, 7, 1, decimal.RequireFromString(amount), "")
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument), amount)
	}

	require.Len(t, repo.entries, 1)
}

func TestServiceSettleForBid(t *testing.T) {
	repo := newFakeRepository()
	svc, err := NewService(repo, logger.Nop(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	bid := &models.Bid{ID: 11, ContractorID: 1}
	redeem, err := svc.Redeem(ctx, nil, bid, decimal.NewFromInt(200))
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusPending, redeem.Status)
	require.Equal(t, models.TransactionSourceContractor, redeem.SourceType)

	lost, err := svc.SettleForBid(ctx, nil, 11, models.BidStatusExpired)
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusCancelled, lost.Status)
	require.Equal(t, LostBidComment, *lost.Comment)
	require.Equal(t, models.TransactionStatusCancelled, repo.entries[0].Status)

	won, err := svc.SettleForBid(ctx, nil, 11, models.BidStatusAccepted)
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusCommitted, won.Status)

	_, err = svc.SettleForBid(ctx, nil, 11, models.BidStatusActive)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))

	_, err = svc.SettleForBid(ctx, nil, 12, models.BidStatusRevoked)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = svc.Redeem(ctx, nil, bid, decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = svc.SettleForBid(ctx, nil, 11, models.BidStatusRevoked)
	require.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}
