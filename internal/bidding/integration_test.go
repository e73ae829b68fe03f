package bidding

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"conos/db"
	"conos/db/migrations"
	"conos/internal/apperrors"
	"conos/internal/auction"
	"conos/internal/config"
	"conos/internal/ledger"
	"conos/internal/logger"
	"conos/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Тест гоняет полный цикл на настоящем Postgres; без CONOS_TEST_DB_DSN пропускается.
func TestPostgresBiddingFlow(t *testing.T) {
	dsn := os.Getenv("CONOS_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("CONOS_TEST_DB_DSN not set")
	}
	ctx := context.Background()

	conn, err := db.Connect(ctx, config.DBConfig{DSN: dsn, MaxOpenConns: 5})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, migrations.Run(ctx, conn.DB))

	store := db.NewStorage(conn)
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	category := &models.Category{Name: "plumbing-" + suffix}
	require.NoError(t, store.CreateCategory(ctx, category))
	consumer := &models.Consumer{Name: "Jane", PhoneNumber: "555", EmailAddress: "jane@example.com"}
	require.NoError(t, store.CreateConsumer(ctx, consumer))

	var agentID int64
	require.NoError(t, conn.QueryRowxContext(ctx,
		`INSERT INTO agent (username) VALUES ($1) RETURNING id`, "agent-"+suffix).Scan(&agentID))

	newContractor := func(name string) *models.Contractor {
		c := &models.Contractor{Name: name + "-" + suffix, Active: true, Categories: []int64{category.ID}}
		require.NoError(t, store.CreateContractor(ctx, c))
		return c
	}
	x := newContractor("x")
	y := newContractor("y")

	var bookingID int64
	require.NoError(t, conn.QueryRowxContext(ctx, `
        INSERT INTO booking (agent_id, consumer_id, address_1, post_code, category_id, preferred_schedule, base_cost, cost_adjustment)
        VALUES ($1, $2, '1 Main St', 2050, $3, NOW(), 180, 20) RETURNING id`,
		agentID, consumer.ID, category.ID).Scan(&bookingID))

	fund := func(contractorID int64, amount int64) {
		_, err := conn.ExecContext(ctx, `
            INSERT INTO credit_transaction (transaction_type, amount, contractor_id, source_type, source_agent_id, status)
            VALUES ('buy', $1, $2, 'agent', $3, 'committed')`, amount, contractorID, agentID)
		require.NoError(t, err)
	}
	fund(x.ID, 500)
	fund(y.ID, 50)

	log := logger.Nop()
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), log, nil)
	require.NoError(t, err)
	resolver, err := auction.NewResolver(auction.NewPreferenceRepository(conn), log)
	require.NoError(t, err)
	svc, err := NewService(Deps{
		Repo:        NewRepository(conn),
		Ledger:      ledgerSvc,
		Preferences: resolver,
		Tx:          store,
		Logger:      log,
	})
	require.NoError(t, err)

	bid, entry, err := svc.PlaceBid(ctx, PlaceBidInput{ContractorID: x.ID, BookingID: bookingID, BaseCost: decimal.NewFromInt(150)})
	require.NoError(t, err)
	require.Equal(t, models.BidStatusActive, bid.Status)
	require.True(t, entry.Amount.Equal(decimal.NewFromInt(200)))

	balance, err := ledgerSvc.Balance(ctx, x.ID)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(300)), "balance %s", balance)

	_, _, err = svc.PlaceBid(ctx, PlaceBidInput{ContractorID: y.ID, BookingID: bookingID})
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotEligible))
	var count int
	require.NoError(t, sqlx.GetContext(ctx, conn, &count, `SELECT COUNT(*) FROM bid WHERE contractor_id=$1`, y.ID))
	require.Zero(t, count)

	fund(y.ID, 500)
	other, _, err := svc.PlaceBid(ctx, PlaceBidInput{ContractorID: y.ID, BookingID: bookingID, BaseCost: decimal.NewFromInt(120)})
	require.NoError(t, err)

	ranges, err := models.NewPostRanges([2]int{2000, 2100})
	require.NoError(t, err)
	require.NoError(t, store.CreatePreferred(ctx, &models.Preferred{ContractorID: y.ID, CategoryID: category.ID, PostRanges: ranges}))

	settlement, err := svc.SettleAuction(ctx, bookingID)
	require.NoError(t, err)
	require.Equal(t, other.ID, settlement.Result.Winner.Bid.ID)
	require.Equal(t, bid.ID, settlement.Result.RunnerUp.Bid.ID)

	closed, err := svc.Bid(ctx, bid.ID)
	require.NoError(t, err)
	require.Equal(t, models.BidStatusExpired, closed.Status)

	balance, err = ledgerSvc.Balance(ctx, x.ID)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(500)))
	balance, err = ledgerSvc.Balance(ctx, y.ID)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(350)))
}
