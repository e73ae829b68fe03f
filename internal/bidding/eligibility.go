package bidding

import (
	"conos/internal/apperrors"
	"conos/models"

	"github.com/shopspring/decimal"
)

// CheckEligibility проверяет допуск подрядчика к ставке по порядку:
// аккаунт активен, кредитов хватает, категория совпадает.
// Возвращается причина первой неудачной проверки.
func CheckEligibility(contractor *models.Contractor, booking *models.Booking, balance decimal.Decimal) error {
	if !contractor.Active {
		return apperrors.NewContractorNotEligible(apperrors.ReasonAccountDisabled)
	}
	if booking.TotalCost().GreaterThan(balance) {
		return apperrors.NewContractorNotEligible(apperrors.ReasonInsufficientCredits)
	}
	if !contractor.HasCategory(booking.CategoryID) {
		return apperrors.NewContractorNotEligible(apperrors.ReasonCategoryMismatched)
	}
	return nil
}

// CheckBidCost проверяет, что сумма ставки не больше баланса на момент подачи.
func CheckBidCost(bidTotal, balance decimal.Decimal) error {
	if bidTotal.GreaterThan(balance) {
		return apperrors.NewContractorNotEligible(apperrors.ReasonInsufficientCredits)
	}
	return nil
}
