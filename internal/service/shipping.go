package service

import "strings"

// ShippingFee is the breakdown returned by the calculator. Amounts in VND.
type ShippingFee struct {
	BaseFee  int64 `json:"baseFee"`
	Discount int64 `json:"discount"`
	FinalFee int64 `json:"finalFee"`
}

const (
	freeShipThreshold   = 1_000_000
	maxShippingDiscount = 100_000
	defaultShippingFee  = 80_000
)

type shippingTier struct {
	keywords []string
	fee      int64
}

// Tier order matters: the HCMC check precedes the Hanoi check, and the first
// matching tier wins. Keywords cover accented and unaccented spellings.
var shippingTiers = []shippingTier{
	{
		keywords: []string{"hồ chí minh", "ho chi minh", "hcm", "sài gòn", "sai gon"},
		fee:      50_000,
	},
	{
		keywords: []string{"hà nội", "ha noi", "hanoi"},
		fee:      60_000,
	},
	{
		keywords: []string{"đà nẵng", "da nang", "danang"},
		fee:      60_000,
	},
}

// CalculateShippingFee maps (subtotal, free-text address) to a fee breakdown.
// Pure function, used both for the cart preview endpoint and inside the
// checkout transaction.
func CalculateShippingFee(subtotal int64, address string) ShippingFee {
	var base int64 = defaultShippingFee
	needle := strings.ToLower(address)

match:
	for _, tier := range shippingTiers {
		for _, kw := range tier.keywords {
			if strings.Contains(needle, kw) {
				base = tier.fee
				break match
			}
		}
	}

	var discount int64
	if subtotal >= freeShipThreshold {
		discount = maxShippingDiscount
		if discount > base {
			discount = base
		}
	}

	return ShippingFee{
		BaseFee:  base,
		Discount: discount,
		FinalFee: base - discount,
	}
}
