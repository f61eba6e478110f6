package money

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSplitScenario(t *testing.T) {
	// price=50000, discount=5%, platform=10%
	calc := NewCalculator(10)
	price := dec("50000")

	assert.True(t, DiscountAmount(price, 5).Equal(dec("2500")))
	assert.True(t, CustomerPayout(price, 5).Equal(dec("47500")))
	assert.True(t, calc.PlatformCut(price).Equal(dec("5000")))
	assert.True(t, calc.VendorPayout(price, 5).Equal(dec("42500")))
}

func TestVendorPayoutBranchesAgreeAtZeroDiscount(t *testing.T) {
	calc := NewCalculator(10)
	for _, raw := range []string{"0.01", "9.99", "100", "333.33", "50000", "99999.99"} {
		price := dec(raw)
		viaDiscount := CustomerPayout(price, 0).Sub(calc.PlatformCut(price))
		direct := calc.VendorPayout(price, 0)
		assert.True(t, direct.Equal(viaDiscount), "price %s: %s != %s", raw, direct, viaDiscount)
	}
}

func TestSplitRoundTripNoLeakage(t *testing.T) {
	// vendor_payout(price, 0) + platform_cut(price) == price
	calc := NewCalculator(10)
	for _, raw := range []string{"0.01", "1", "19.99", "47500", "50000", "123456.78"} {
		price := dec(raw)
		sum := calc.VendorPayout(price, 0).Add(calc.PlatformCut(price))
		require.True(t, sum.Equal(price), "price %s leaked to %s", raw, sum)
	}
}

func TestDiscountAmountRoundsToTwoPlaces(t *testing.T) {
	got := DiscountAmount(dec("99.99"), 7)
	assert.Equal(t, int32(-2), got.Exponent())
	assert.Equal(t, "7.00", got.StringFixed(2))
}

func TestFixedPointNoFloatDrift(t *testing.T) {
	// 0.1-style prices must not drift the way binary floats do.
	calc := NewCalculator(10)
	price := dec("0.30")
	assert.Equal(t, "0.03", calc.PlatformCut(price).StringFixed(2))
	assert.Equal(t, "0.27", calc.VendorPayout(price, 0).StringFixed(2))
}

func ExampleCalculator_VendorPayout() {
	calc := NewCalculator(10)
	fmt.Println(calc.VendorPayout(decimal.NewFromInt(50000), 5))
	// Output: 42500
}
