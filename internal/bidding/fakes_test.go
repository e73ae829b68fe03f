package bidding

import (
	"context"
	"sync"
	"testing"
	"time"

	"conos/db"
	"conos/internal/auction"
	"conos/internal/ledger"
	"conos/internal/logger"
	"conos/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memStore - общее состояние фейковых репозиториев.
type memStore struct {
	contractors map[int64]*models.Contractor
	bookings    map[int64]*models.Booking
	agents      map[int64]*models.Agent
	bids        []models.Bid
	entries     []models.Transaction
	preferred   []models.Preferred
	nextBid     int64
	nextEntry   int64
	clock       time.Time
	createErr   error
}

func newMemStore() *memStore {
	return &memStore{
		contractors: map[int64]*models.Contractor{},
		bookings:    map[int64]*models.Booking{},
		agents:      map[int64]*models.Agent{},
		clock:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

type snapshot struct {
	bids      []models.Bid
	entries   []models.Transaction
	nextBid   int64
	nextEntry int64
}

func (m *memStore) snapshot() snapshot {
	return snapshot{
		bids:      append([]models.Bid(nil), m.bids...),
		entries:   append([]models.Transaction(nil), m.entries...),
		nextBid:   m.nextBid,
		nextEntry: m.nextEntry,
	}
}

func (m *memStore) restore(s snapshot) {
	m.bids = s.bids
	m.entries = s.entries
	m.nextBid = s.nextBid
	m.nextEntry = s.nextEntry
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memStore) addContractor(id int64, active bool, categories ...int64) {
	m.contractors[id] = &models.Contractor{ID: id, Name: "c", Active: active, Categories: categories}
}

func (m *memStore) addBooking(id, categoryID int64, postCode int, base, adjustment string) {
	m.bookings[id] = &models.Booking{
		ID:             id,
		CategoryID:     categoryID,
		PostCode:       postCode,
		BaseCost:       decimal.RequireFromString(base),
		CostAdjustment: decimal.RequireFromString(adjustment),
		Status:         models.BookingStatusActive,
	}
}

func (m *memStore) fund(contractorID int64, amount string) {
	m.nextEntry++
	m.entries = append(m.entries, models.Transaction{
		ID:           m.nextEntry,
		Type:         models.TransactionTypeBuy,
		Amount:       decimal.RequireFromString(amount),
		ContractorID: contractorID,
		SourceType:   models.TransactionSourceAgent,
		Status:       models.TransactionStatusCommitted,
	})
}

// addBid кладет ставку со своим временем создания и списанием, минуя проверки.
func (m *memStore) addBid(contractorID, bookingID int64, cost string, at time.Time) models.Bid {
	m.nextBid++
	bid := models.Bid{
		ID:           m.nextBid,
		BookingID:    bookingID,
		ContractorID: contractorID,
		BaseCost:     decimal.RequireFromString(cost),
		Status:       models.BidStatusActive,
		CreatedAt:    at,
	}
	m.bids = append(m.bids, bid)
	m.nextEntry++
	bidID := bid.ID
	m.entries = append(m.entries, models.Transaction{
		ID:           m.nextEntry,
		Type:         models.TransactionTypeRedeem,
		Amount:       bid.TotalCost(),
		ContractorID: contractorID,
		SourceType:   models.TransactionSourceContractor,
		TargetBidID:  &bidID,
		Status:       models.TransactionStatusPending,
	})
	return bid
}

func (m *memStore) bidByID(id int64) *models.Bid {
	for i := range m.bids {
		if m.bids[i].ID == id {
			return &m.bids[i]
		}
	}
	return nil
}

func (m *memStore) entryForBid(bidID int64) *models.Transaction {
	for i := range m.entries {
		if m.entries[i].TargetBidID != nil && *m.entries[i].TargetBidID == bidID {
			return &m.entries[i]
		}
	}
	return nil
}

// fakeTx выполняет fn целиком под мьютексом и откатывает состояние при ошибке.
type fakeTx struct {
	mu    sync.Mutex
	store *memStore
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := f.store.snapshot()
	if err := fn(nil); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

type fakeBidRepo struct {
	store *memStore
}

func (f *fakeBidRepo) WithTx(tx *sqlx.Tx) Repository { return f }

func (f *fakeBidRepo) GetContractor(ctx context.Context, id int64) (*models.Contractor, error) {
	c, ok := f.store.contractors[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeBidRepo) GetContractorForUpdate(ctx context.Context, id int64) (*models.Contractor, error) {
	return f.GetContractor(ctx, id)
}

func (f *fakeBidRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	b, ok := f.store.bookings[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBidRepo) GetBookingForUpdate(ctx context.Context, id int64) (*models.Booking, error) {
	return f.GetBooking(ctx, id)
}

func (f *fakeBidRepo) GetBid(ctx context.Context, id int64) (*models.Bid, error) {
	bid := f.store.bidByID(id)
	if bid == nil {
		return nil, db.ErrNotFound
	}
	copied := *bid
	return &copied, nil
}

func (f *fakeBidRepo) GetBidForUpdate(ctx context.Context, id int64) (*models.Bid, error) {
	return f.GetBid(ctx, id)
}

func (f *fakeBidRepo) ListBidsByBooking(ctx context.Context, bookingID int64) ([]models.Bid, error) {
	out := []models.Bid{}
	for _, b := range f.store.bids {
		if b.BookingID == bookingID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBidRepo) ListBidsByContractor(ctx context.Context, contractorID int64) ([]models.Bid, error) {
	out := []models.Bid{}
	for i := len(f.store.bids) - 1; i >= 0; i-- {
		if f.store.bids[i].ContractorID == contractorID {
			out = append(out, f.store.bids[i])
		}
	}
	return out, nil
}

func (f *fakeBidRepo) CreateBid(ctx context.Context, bid *models.Bid) error {
	f.store.nextBid++
	bid.ID = f.store.nextBid
	bid.CreatedAt = f.store.tick()
	f.store.bids = append(f.store.bids, *bid)
	return nil
}

func (f *fakeBidRepo) UpdateBidStatus(ctx context.Context, id int64, status models.BidStatus) error {
	bid := f.store.bidByID(id)
	if bid == nil {
		return db.ErrNotFound
	}
	bid.Status = status
	return nil
}

type fakeLedgerRepo struct {
	store *memStore
}

func (f *fakeLedgerRepo) WithTx(tx *sqlx.Tx) ledger.Repository { return f }

func (f *fakeLedgerRepo) GetContractor(ctx context.Context, id int64) (*models.Contractor, error) {
	c, ok := f.store.contractors[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return c, nil
}

func (f *fakeLedgerRepo) GetAgent(ctx context.Context, id int64) (*models.Agent, error) {
	a, ok := f.store.agents[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return a, nil
}

func (f *fakeLedgerRepo) ListByContractor(ctx context.Context, contractorID int64) ([]models.Transaction, error) {
	out := []models.Transaction{}
	for _, e := range f.store.entries {
		if e.ContractorID == contractorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListByTargetBid(ctx context.Context, bidID int64) ([]models.Transaction, error) {
	out := []models.Transaction{}
	for _, e := range f.store.entries {
		if e.TargetBidID != nil && *e.TargetBidID == bidID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) Create(ctx context.Context, entry *models.Transaction) error {
	if f.store.createErr != nil {
		return f.store.createErr
	}
	f.store.nextEntry++
	entry.ID = f.store.nextEntry
	entry.CreatedAt = f.store.clock
	f.store.entries = append(f.store.entries, *entry)
	return nil
}

func (f *fakeLedgerRepo) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, comment *string) error {
	for i := range f.store.entries {
		if f.store.entries[i].ID == id {
			f.store.entries[i].Status = status
			if comment != nil {
				f.store.entries[i].Comment = comment
			}
			return nil
		}
	}
	return db.ErrNotFound
}

type fakePrefRepo struct {
	store *memStore
}

func (f *fakePrefRepo) WithTx(tx *sqlx.Tx) auction.PreferenceRepository { return f }

func (f *fakePrefRepo) ListPreferred(ctx context.Context, contractorID, categoryID int64) ([]models.Preferred, error) {
	out := []models.Preferred{}
	for _, p := range f.store.preferred {
		if p.ContractorID == contractorID && p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

type harness struct {
	store  *memStore
	ledger *ledger.Service
	svc    *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemStore()
	log := logger.Nop()

	ledgerSvc, err := ledger.NewService(&fakeLedgerRepo{store: store}, log, nil)
	require.NoError(t, err)
	resolver, err := auction.NewResolver(&fakePrefRepo{store: store}, log)
	require.NoError(t, err)

	svc, err := NewService(Deps{
		Repo:        &fakeBidRepo{store: store},
		Ledger:      ledgerSvc,
		Preferences: resolver,
		Tx:          &fakeTx{store: store},
		Logger:      log,
	})
	require.NoError(t, err)
	return &harness{store: store, ledger: ledgerSvc, svc: svc}
}
