package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// ProductService serves the catalog and its offers
type ProductService struct {
	products ProductRepository
	offers   OfferRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewProductService creates a new product service
func NewProductService(products ProductRepository, offers OfferRepository) *ProductService {
	return &ProductService{
		products: products,
		offers:   offers,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// FindAll returns every product ordered by id
func (ps *ProductService) FindAll(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.FindAll")
	defer span.End()

	return ps.products.GetProducts(ctx)
}

// FindOne returns a product with its active offers, nil when it does not exist
func (ps *ProductService) FindOne(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.FindOne")
	defer span.End()

	product, err := ps.products.GetProductByID(ctx, id)
	if err != nil || product == nil {
		return product, err
	}

	offers, err := ps.offers.GetActiveOffersByProduct(ctx, id, ps.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	product.Offers = offers
	return product, nil
}

// FindByName returns products with exactly this name
func (ps *ProductService) FindByName(ctx context.Context, name string) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.FindByName")
	defer span.End()

	return ps.products.GetProductsByName(ctx, name)
}

// FindByIDs returns the existing products among ids
func (ps *ProductService) FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.FindByIDs")
	defer span.End()

	return ps.products.GetProductsByIDs(ctx, ids)
}

// UpdateProduct overwrites the given fields. It does not record a ledger entry;
// stock movements go through InventoryService.
func (ps *ProductService) UpdateProduct(ctx context.Context, id int64, update models.ProductUpdate) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.UpdateProduct")
	defer span.End()

	if update.Stock != nil && *update.Stock < 0 {
		return nil, models.ValidationError("Stock must not be negative")
	}
	if update.Price != nil && update.Price.IsNegative() {
		return nil, models.ValidationError("Price must not be negative")
	}

	product, err := ps.products.UpdateProduct(ctx, id, update)
	if err != nil {
		return nil, err
	}

	ps.logger.Info("Product updated", zap.Int64("product_id", id))
	return product, nil
}

// ActiveOffers returns the offers of a product valid right now
func (ps *ProductService) ActiveOffers(ctx context.Context, productID int64) ([]models.Offer, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.ActiveOffers")
	defer span.End()

	product, err := ps.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, models.NotFoundError(fmt.Sprintf("Product %d not found", productID))
	}

	return ps.offers.GetActiveOffersByProduct(ctx, productID, ps.now())
}

// QuotePrice prices a product with its best active offer
func (ps *ProductService) QuotePrice(ctx context.Context, productID int64) (*models.PriceQuote, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.QuotePrice")
	defer span.End()

	product, err := ps.FindOne(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, models.NotFoundError(fmt.Sprintf("Product %d not found", productID))
	}

	quote := models.Quote(product.Price, product.Offers)
	return &quote, nil
}
