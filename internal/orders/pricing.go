package orders

import (
	"github.com/geocoder89/shopsphere/internal/domain/order"
	"github.com/shopspring/decimal"
)

var (
	taxRate           = decimal.RequireFromString("0.05")
	freeShippingAbove = decimal.NewFromInt(1000)
	flatShipping      = decimal.NewFromInt(50)
)

// Quote holds the derived prices of a cart.
type Quote struct {
	ItemsPrice    decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Price computes a cart's totals. Tax is rounded to cents before it is added,
// then the total is rounded again, so totals match the storefront exactly.
// Shipping is free only when the subtotal is strictly above the threshold.
func Price(items []order.Item) Quote {
	itemsPrice := decimal.Zero
	for _, it := range items {
		itemsPrice = itemsPrice.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Qty))))
	}

	tax := round2(itemsPrice.Mul(taxRate))

	shipping := flatShipping
	if itemsPrice.GreaterThan(freeShippingAbove) {
		shipping = decimal.Zero
	}

	total := round2(itemsPrice.Add(tax).Add(shipping))

	return Quote{
		ItemsPrice:    itemsPrice,
		TaxPrice:      tax,
		ShippingPrice: shipping,
		TotalPrice:    total,
	}
}

// round2 rounds half away from zero; prices are never negative so this is half-up.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func (q Quote) applyTo(o *order.Order) {
	o.ItemsPrice = q.ItemsPrice.InexactFloat64()
	o.TaxPrice = q.TaxPrice.InexactFloat64()
	o.ShippingPrice = q.ShippingPrice.InexactFloat64()
	o.TotalPrice = q.TotalPrice.InexactFloat64()
}
