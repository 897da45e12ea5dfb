package storage

import (
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// DemoDataset builds the deterministic six-month demo company: a US entity
// billing in USD and an EU entity billing in EUR, revenue growing month
// over month, budget set slightly below actuals, and a steadily burning
// consolidated cash position. Same output on every call.
func DemoDataset() core.Dataset {
	var ds core.Dataset

	months := []core.Month{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06"}

	usRevenue := decimal.NewFromInt(1_000_000)
	euRevenue := decimal.NewFromInt(300_000)
	growth := decimal.NewFromFloat(1.05)
	cogsShare := decimal.NewFromFloat(0.4)
	budgetShare := decimal.NewFromFloat(0.95)

	opex := []struct {
		account string
		amount  decimal.Decimal
	}{
		{"Opex:R&D", decimal.NewFromInt(180_000)},
		{"Opex:Sales & Marketing", decimal.NewFromInt(150_000)},
		{"Opex:General & Admin", decimal.NewFromInt(90_000)},
		{"Opex:Facilities", decimal.NewFromInt(40_000)},
	}

	eurRate := decimal.NewFromFloat(1.08)
	rateStep := decimal.NewFromFloat(0.005)

	cash := decimal.NewFromInt(5_000_000)
	burn := decimal.NewFromInt(220_000)

	for i, m := range months {
		ds.Actuals = append(ds.Actuals,
			core.LedgerRow{Month: m, Entity: "US", Account: "Revenue", Amount: usRevenue, Currency: "USD"},
			core.LedgerRow{Month: m, Entity: "EU", Account: "Revenue", Amount: euRevenue, Currency: "EUR"},
			core.LedgerRow{Month: m, Entity: "US", Account: "COGS", Amount: usRevenue.Mul(cogsShare), Currency: "USD"},
			core.LedgerRow{Month: m, Entity: "EU", Account: "COGS", Amount: euRevenue.Mul(cogsShare), Currency: "EUR"},
		)
		for _, o := range opex {
			ds.Actuals = append(ds.Actuals, core.LedgerRow{
				Month: m, Entity: "US", Account: o.account, Amount: o.amount, Currency: "USD",
			})
		}

		ds.Budget = append(ds.Budget,
			core.LedgerRow{Month: m, Entity: "US", Account: "Revenue", Amount: usRevenue.Mul(budgetShare), Currency: "USD"},
			core.LedgerRow{Month: m, Entity: "EU", Account: "Revenue", Amount: euRevenue.Mul(budgetShare), Currency: "EUR"},
		)

		ds.Rates = append(ds.Rates, core.FxRate{
			Month:     m,
			Currency:  "EUR",
			RateToUSD: eurRate.Add(rateStep.Mul(decimal.NewFromInt(int64(i)))),
		})

		ds.Cash = append(ds.Cash, core.CashRow{
			Month:   m,
			Entity:  "Consolidated",
			CashUSD: cash.Sub(burn.Mul(decimal.NewFromInt(int64(i)))),
		})

		usRevenue = usRevenue.Mul(growth)
		euRevenue = euRevenue.Mul(growth)
	}

	return ds
}
