package memory

import (
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// Seed loads a small demo catalog
func Seed(s *Store) {
	s.AddUser(models.User{Name: "Demo Customer", Email: "demo@storefront.local"})

	headphones := s.AddProduct(models.Product{
		Name:        "Wireless Headphones",
		Description: "Over-ear noise cancelling headphones",
		ImageURL:    "https://images.storefront.local/headphones.png",
		SKU:         "AUD-0001",
		Price:       decimal.NewFromInt(250000),
		Stock:       25,
		Category:    "audio",
	})
	s.AddProduct(models.Product{
		Name:        "Mechanical Keyboard",
		Description: "Tenkeyless keyboard with brown switches",
		ImageURL:    "https://images.storefront.local/keyboard.png",
		SKU:         "KEY-0001",
		Price:       decimal.NewFromInt(180000),
		Stock:       10,
		Category:    "peripherals",
	})
	s.AddProduct(models.Product{
		Name:        "USB-C Cable",
		Description: "1m braided cable",
		ImageURL:    "https://images.storefront.local/cable.png",
		SKU:         "CAB-0001",
		Price:       decimal.NewFromInt(15000),
		Stock:       100,
		Category:    "accessories",
	})

	now := time.Now()
	s.AddOffer(models.Offer{
		ProductID:          headphones.ID,
		DiscountPercentage: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		StartDate:          now.Add(-24 * time.Hour),
		EndDate:            now.Add(30 * 24 * time.Hour),
		Description:        "Launch week discount",
		IsActive:           true,
	})
}
