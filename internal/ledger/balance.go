package ledger

import (
	"conos/models"

	"github.com/shopspring/decimal"
)

// Balance сворачивает журнал: покупка прибавляет, списание вычитает,
// отмененные записи не учитываются. Результат не ограничивается нулем.
func Balance(entries []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if !e.Status.CountsTowardBalance() {
			continue
		}
		switch e.Type {
		case models.TransactionTypeBuy:
			total = total.Add(e.Amount)
		case models.TransactionTypeRedeem:
			total = total.Sub(e.Amount)
		}
	}
	return total
}
