package businessflow

import (
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/shopspring/decimal"
)

// Money amounts are stored with two decimal places
const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// PriceLine is the pricing input of one line item
type PriceLine struct {
	Quantity           int
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
}

// QuoteTotals is the full pricing output of a quote
type QuoteTotals struct {
	LineTotals []decimal.Decimal
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	Total      decimal.Decimal
}

// roundMoney rounds half away from zero, which is half-up for the non-negative amounts priced here
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// ValidateLine checks the pricing inputs of a line item
func ValidateLine(quantity int, unitPrice, discountPercentage decimal.Decimal) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return ErrNegativeUnitPrice
	}
	if discountPercentage.IsNegative() || discountPercentage.GreaterThan(hundred) {
		return ErrDiscountOutOfRange
	}
	return nil
}

// ValidateTaxRate checks a quote tax rate expressed in percent
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return ErrTaxRateOutOfRange
	}
	return nil
}

// LineTotal returns quantity × unit price × (1 − discount/100), rounded to cents.
// A 100% discount yields zero.
func LineTotal(quantity int, unitPrice, discountPercentage decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateLine(quantity, unitPrice, discountPercentage); err != nil {
		return decimal.Zero, err
	}
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return roundMoney(gross.Mul(hundred.Sub(discountPercentage)).Div(hundred)), nil
}

// QuoteSubtotal sums already rounded line totals
func QuoteSubtotal(lineTotals []decimal.Decimal) decimal.Decimal {
	subtotal := decimal.Zero
	for _, t := range lineTotals {
		subtotal = subtotal.Add(t)
	}
	return roundMoney(subtotal)
}

// QuoteTax returns subtotal × rate / 100, rounded to cents
func QuoteTax(subtotal, taxRate decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateTaxRate(taxRate); err != nil {
		return decimal.Zero, err
	}
	return roundMoney(subtotal.Mul(taxRate).Div(hundred)), nil
}

// QuoteTotal returns subtotal + tax
func QuoteTotal(subtotal, taxAmount decimal.Decimal) decimal.Decimal {
	return roundMoney(subtotal.Add(taxAmount))
}

// CalculateQuote prices every line and aggregates from scratch; it never patches earlier totals
func CalculateQuote(lines []PriceLine, taxRate decimal.Decimal) (*QuoteTotals, error) {
	totals := &QuoteTotals{LineTotals: make([]decimal.Decimal, 0, len(lines))}
	for _, l := range lines {
		lt, err := LineTotal(l.Quantity, l.UnitPrice, l.DiscountPercentage)
		if err != nil {
			return nil, err
		}
		totals.LineTotals = append(totals.LineTotals, lt)
	}

	totals.Subtotal = QuoteSubtotal(totals.LineTotals)
	tax, err := QuoteTax(totals.Subtotal, taxRate)
	if err != nil {
		return nil, err
	}
	totals.TaxAmount = tax
	totals.Total = QuoteTotal(totals.Subtotal, totals.TaxAmount)
	return totals, nil
}

// ApplyTotals recomputes every line item's total_price and the quote's aggregate fields in place
func ApplyTotals(quote *models.Quote, items []*models.QuoteService) error {
	lines := make([]PriceLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, PriceLine{
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			DiscountPercentage: it.DiscountPercentage,
		})
	}

	totals, err := CalculateQuote(lines, quote.TaxRate)
	if err != nil {
		return err
	}
	for i, it := range items {
		it.TotalPrice = totals.LineTotals[i]
	}
	quote.Subtotal = totals.Subtotal
	quote.TaxAmount = totals.TaxAmount
	quote.TotalAmount = totals.Total
	return nil
}
