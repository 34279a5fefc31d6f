/*
Package payroll provides the deterministic wage/tax arithmetic for daily
construction workers.

PURPOSE:
  The insurance engine treats tax and premium math as a pure-function
  collaborator: given a daily wage, compute withheld income tax, local
  income tax, and the worker's employment-insurance premium. No I/O, no
  state; every function is idempotent.

THE ARITHMETIC (daily-worker withholding):
  Income tax:   (dailyWage - 150,000) x 6% x 45%, truncated to 10-unit
                precision. The 150,000 deduction is the statutory daily
                allowance; 45% is the assessed fraction after the standard
                credit. Amounts under the 1,000 small-collection threshold
                are not collected.
  Local tax:    10% of the collected income tax, truncated to 10s.
  Employment:   0.9% of the daily wage, truncated to 10s (worker share of
                the unemployment-benefit portion).

PRECISION:
  decimal.Decimal throughout. Truncation (round toward zero at the 10s
  digit) matches how withholding tables are published; never bankers'
  rounding.
*/
package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// STATUTORY RATES
// =============================================================================

var (
	// DailyDeduction is the per-day allowance exempt from income tax.
	DailyDeduction = decimal.NewFromInt(150_000)

	// IncomeTaxRate is the nominal rate applied above the deduction.
	IncomeTaxRate = decimal.NewFromFloat(0.06)

	// AssessmentRate is the assessed fraction after the standard credit.
	AssessmentRate = decimal.NewFromFloat(0.45)

	// SmallCollectionThreshold: income tax below this is not collected.
	SmallCollectionThreshold = decimal.NewFromInt(1_000)

	// LocalTaxRate is the local income tax as a fraction of income tax.
	LocalTaxRate = decimal.NewFromFloat(0.10)

	// EmploymentPremiumRate is the worker share of employment insurance.
	EmploymentPremiumRate = decimal.NewFromFloat(0.009)
)

// truncateTens rounds toward zero at the 10-unit digit.
func truncateTens(d decimal.Decimal) decimal.Decimal {
	ten := decimal.NewFromInt(10)
	return d.Div(ten).Floor().Mul(ten)
}

// =============================================================================
// PURE CALCULATIONS
// =============================================================================

// IncomeTax returns the daily withheld income tax for the wage.
func IncomeTax(dailyWage decimal.Decimal) decimal.Decimal {
	base := dailyWage.Sub(DailyDeduction)
	if !base.IsPositive() {
		return decimal.Zero
	}
	tax := truncateTens(base.Mul(IncomeTaxRate).Mul(AssessmentRate))
	if tax.LessThan(SmallCollectionThreshold) {
		return decimal.Zero
	}
	return tax
}

// LocalTax returns the local income tax for a given income tax amount.
func LocalTax(incomeTax decimal.Decimal) decimal.Decimal {
	return truncateTens(incomeTax.Mul(LocalTaxRate))
}

// EmploymentPremium returns the worker's employment-insurance premium.
func EmploymentPremium(dailyWage decimal.Decimal) decimal.Decimal {
	if !dailyWage.IsPositive() {
		return decimal.Zero
	}
	return truncateTens(dailyWage.Mul(EmploymentPremiumRate))
}

// =============================================================================
// STATEMENTS
// =============================================================================

// Statement is the per-day (or per-month, when summed) deduction breakdown.
type Statement struct {
	GrossWage         decimal.Decimal
	IncomeTax         decimal.Decimal
	LocalTax          decimal.Decimal
	EmploymentPremium decimal.Decimal
	NetPay            decimal.Decimal
}

// Daily computes the full breakdown for one day's wage.
func Daily(dailyWage decimal.Decimal) Statement {
	income := IncomeTax(dailyWage)
	local := LocalTax(income)
	premium := EmploymentPremium(dailyWage)
	return Statement{
		GrossWage:         dailyWage,
		IncomeTax:         income,
		LocalTax:          local,
		EmploymentPremium: premium,
		NetPay:            dailyWage.Sub(income).Sub(local).Sub(premium),
	}
}

// Monthly sums the per-day breakdowns for a month of wages. Deductions are
// computed per day, then summed; summing first and deducting once would
// overstate the allowance only once instead of per day worked.
func Monthly(dailyWages []decimal.Decimal) Statement {
	total := Statement{
		GrossWage:         decimal.Zero,
		IncomeTax:         decimal.Zero,
		LocalTax:          decimal.Zero,
		EmploymentPremium: decimal.Zero,
		NetPay:            decimal.Zero,
	}
	for _, wage := range dailyWages {
		day := Daily(wage)
		total.GrossWage = total.GrossWage.Add(day.GrossWage)
		total.IncomeTax = total.IncomeTax.Add(day.IncomeTax)
		total.LocalTax = total.LocalTax.Add(day.LocalTax)
		total.EmploymentPremium = total.EmploymentPremium.Add(day.EmploymentPremium)
		total.NetPay = total.NetPay.Add(day.NetPay)
	}
	return total
}
