// Package vat implements the VAT arithmetic used across invoicing and
// ledger sync. All monetary results are rounded half-up to two decimal
// places, and inclusive breakdowns keep subtotal + vat == total exact.
package vat

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Breakdown is the result of splitting an amount into its net, VAT and
// gross components.
type Breakdown struct {
	Subtotal decimal.Decimal
	VAT      decimal.Decimal
	Total    decimal.Decimal
}

// Compute splits amount according to rate (a percentage, e.g. 21 for
// 21%). When inclusive is true, amount is treated as the gross total
// and the net is derived; otherwise amount is the net and VAT is added
// on top. The identity Subtotal + VAT == Total holds in both modes
// because one component is always derived by subtraction.
func Compute(amount, rate decimal.Decimal, inclusive bool) Breakdown {
	if inclusive {
		total := amount.Round(2)
		divisor := decimal.NewFromInt(1).Add(rate.Div(hundred))
		subtotal := amount.Div(divisor).Round(2)
		return Breakdown{
			Subtotal: subtotal,
			VAT:      total.Sub(subtotal),
			Total:    total,
		}
	}

	subtotal := amount.Round(2)
	vatAmount := amount.Mul(rate).Div(hundred).Round(2)
	return Breakdown{
		Subtotal: subtotal,
		VAT:      vatAmount,
		Total:    subtotal.Add(vatAmount),
	}
}

// Sum adds breakdowns component-wise. Rounding is preserved per part,
// so merging never re-derives VAT from the combined total.
func Sum(parts ...Breakdown) Breakdown {
	var out Breakdown
	for _, p := range parts {
		out.Subtotal = out.Subtotal.Add(p.Subtotal)
		out.VAT = out.VAT.Add(p.VAT)
		out.Total = out.Total.Add(p.Total)
	}
	return out
}

// PaymentTermDays converts an invoice date / due date pair into the
// whole number of days the ledger expects as a payment term. The
// difference is rounded to the nearest day and never negative.
func PaymentTermDays(invoiceDate, dueDate time.Time) int {
	delta := dueDate.Sub(invoiceDate)
	days := int((delta + 12*time.Hour) / (24 * time.Hour))
	if delta < 0 {
		days = 0
	}
	if days < 0 {
		days = 0
	}
	return days
}
