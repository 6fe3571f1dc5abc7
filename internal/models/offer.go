package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Offer is a time-bounded discount on one product
type Offer struct {
	ID                 int64               `db:"id" json:"offerId"`
	ProductID          int64               `db:"product_id" json:"productId"`
	DiscountPercentage decimal.NullDecimal `db:"discount_percentage" json:"discountPercentage"`
	DiscountAmount     decimal.NullDecimal `db:"discount_amount" json:"discountAmount"`
	StartDate          time.Time           `db:"start_date" json:"startDate"`
	EndDate            time.Time           `db:"end_date" json:"endDate"`
	Description        string              `db:"description" json:"description"`
	IsActive           bool                `db:"is_active" json:"isActive"`
	CreatedAt          time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updatedAt"`
}

// IsValid reports whether the offer is active and now falls inside [StartDate, EndDate]
func (o *Offer) IsValid(now time.Time) bool {
	return o.IsActive && !now.Before(o.StartDate) && !now.After(o.EndDate)
}

// PriceQuote is the result of applying an offer to a price
type PriceQuote struct {
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	DiscountApplied decimal.Decimal `json:"discountApplied"`
	OfferID         *int64          `json:"offerId,omitempty"`
}

// CalculateDiscountedPrice applies the fixed amount when set, the percentage otherwise.
// The discount never exceeds the original price.
func (o *Offer) CalculateDiscountedPrice(original decimal.Decimal) PriceQuote {
	discount := decimal.Zero
	switch {
	case o.DiscountAmount.Valid && !o.DiscountAmount.Decimal.IsZero():
		discount = o.DiscountAmount.Decimal
	case o.DiscountPercentage.Valid:
		discount = original.Mul(o.DiscountPercentage.Decimal).Div(hundred)
	}

	if discount.GreaterThan(original) {
		discount = original
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	id := o.ID
	return PriceQuote{
		OriginalPrice:   original,
		DiscountedPrice: original.Sub(discount),
		DiscountApplied: discount,
		OfferID:         &id,
	}
}

// BestOffer picks the offer with the largest absolute discount on price.
// Ties go to the lowest offer id. Returns nil when offers is empty.
func BestOffer(offers []Offer, price decimal.Decimal) *Offer {
	var best *Offer
	var bestDiscount decimal.Decimal
	for i := range offers {
		d := offers[i].CalculateDiscountedPrice(price).DiscountApplied
		if best == nil || d.GreaterThan(bestDiscount) ||
			(d.Equal(bestDiscount) && offers[i].ID < best.ID) {
			best = &offers[i]
			bestDiscount = d
		}
	}
	return best
}

// Quote prices a product with its best offer, or at list price when there is none
func Quote(price decimal.Decimal, offers []Offer) PriceQuote {
	best := BestOffer(offers, price)
	if best == nil {
		return PriceQuote{
			OriginalPrice:   price,
			DiscountedPrice: price,
			DiscountApplied: decimal.Zero,
		}
	}
	return best.CalculateDiscountedPrice(price)
}
