package money

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// Calculator computes the discount and payout splits for a sale. All values
// are fixed-point with two fractional digits; the platform percentage comes
// from configuration.
type Calculator struct {
	platformPercent decimal.Decimal
}

func NewCalculator(platformPercent int) Calculator {
	return Calculator{platformPercent: decimal.NewFromInt(int64(platformPercent))}
}

// DiscountAmount is the vendor-granted discount: price * pct/100.
func DiscountAmount(price decimal.Decimal, discountPercent int) decimal.Decimal {
	pct := decimal.NewFromInt(int64(discountPercent))
	return price.Mul(pct).Div(oneHundred).Round(2)
}

// CustomerPayout is what the customer actually pays for one unit.
func CustomerPayout(price decimal.Decimal, discountPercent int) decimal.Decimal {
	return price.Sub(DiscountAmount(price, discountPercent)).Round(2)
}

// PlatformCut is the platform's share of a sale at the original price.
func (c Calculator) PlatformCut(price decimal.Decimal) decimal.Decimal {
	return price.Mul(c.platformPercent).Div(oneHundred).Round(2)
}

// VendorPayout is what the vendor receives after discount and platform cut.
// The no-discount case subtracts the cut from the raw price directly; both
// branches agree at pct=0 but the explicit branch avoids a rounding shift
// from subtracting a zero discount.
func (c Calculator) VendorPayout(price decimal.Decimal, discountPercent int) decimal.Decimal {
	if discountPercent > 0 {
		return CustomerPayout(price, discountPercent).Sub(c.PlatformCut(price)).Round(2)
	}
	return price.Sub(c.PlatformCut(price)).Round(2)
}
