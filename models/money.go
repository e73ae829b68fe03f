package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Денежные колонки хранятся как NUMERIC(8,2).
const MoneyScale = 2

var MaxMoney = decimal.RequireFromString("999999.99")

// CheckMoney проверяет, что сумма помещается в NUMERIC(8,2) без округления.
func CheckMoney(v decimal.Decimal) error {
	if !v.Equal(v.Round(MoneyScale)) {
		return fmt.Errorf("at most %d decimal places allowed, got %s", MoneyScale, v.String())
	}
	if v.Abs().GreaterThan(MaxMoney) {
		return fmt.Errorf("must not exceed %s, got %s", MaxMoney.String(), v.String())
	}
	return nil
}
