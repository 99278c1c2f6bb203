package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"property-bidding/internal/auth"
	"property-bidding/internal/biddingerrors"
	model "property-bidding/internal/models"
	"property-bidding/internal/money"
	"property-bidding/internal/repository"
	"property-bidding/utils"

	"github.com/shopspring/decimal"
)

// ProductStore is the subset of storage the catalog needs
type ProductStore interface {
	repository.AccountStore
	repository.ProductStore
}

// NewProduct carries the admin-supplied fields of a listing
type NewProduct struct {
	Name        string
	Description string
	BasePrice   decimal.Decimal
	Image       string
}

// CatalogService lists properties for sale and creates new listings
type CatalogService struct {
	store ProductStore
	now   func() time.Time
	pick  func(n int) int
}

func NewCatalogService(store ProductStore) *CatalogService {
	return &CatalogService{
		store: store,
		now:   time.Now,
		pick:  rand.Intn,
	}
}

// CreateProduct lists a new property on behalf of an admin. The current
// highest bid starts at the base price with no bids recorded.
func (s *CatalogService) CreateProduct(ctx context.Context, caller auth.Identity, input NewProduct) (model.Product, error) {
	if !caller.IsAdmin() {
		return model.Product{}, fmt.Errorf("service: %w - only admins may list products", biddingerrors.ErrForbidden)
	}

	if _, err := s.store.GetAccountByID(ctx, caller.AccountID); err != nil {
		if errors.Is(err, biddingerrors.ErrAccountNotFound) {
			return model.Product{}, fmt.Errorf("service: %w - caller no longer exists", biddingerrors.ErrUnauthorized)
		}
		return model.Product{}, fmt.Errorf("service: failed to load caller %s: %w", caller.AccountID, err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.Product{}, fmt.Errorf("service: %w - name is required", biddingerrors.ErrInvalidInput)
	}
	if err := money.Validate(input.BasePrice); err != nil {
		return model.Product{}, fmt.Errorf("service: %w - base price: %v", biddingerrors.ErrInvalidInput, err)
	}

	product := model.Product{
		ProductID:         utils.GenerateID(),
		Name:              name,
		Description:       strings.TrimSpace(input.Description),
		BasePrice:         input.BasePrice,
		Image:             strings.TrimSpace(input.Image),
		CreatedBy:         caller.AccountID,
		CreatedAt:         s.now().UTC(),
		CurrentHighestBid: input.BasePrice,
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return model.Product{}, fmt.Errorf("service: failed to create product: %w", err)
	}

	utils.Info("product listed", map[string]any{
		"product_id": product.ProductID,
		"created_by": product.CreatedBy,
		"base_price": product.BasePrice.String(),
	})
	return product, nil
}

// ListProducts returns every product snapshot in creation order
func (s *CatalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

// GetProduct returns the current snapshot of a product
func (s *CatalogService) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	if productID == "" {
		return model.Product{}, fmt.Errorf("service: %w - empty product ID", biddingerrors.ErrProductNotFound)
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return model.Product{}, fmt.Errorf("service: failed to get product %s: %w", productID, err)
	}
	return product, nil
}

// FeaturedProduct picks one product at random for the landing banner
func (s *CatalogService) FeaturedProduct(ctx context.Context) (model.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return model.Product{}, err
	}
	if len(products) == 0 {
		return model.Product{}, fmt.Errorf("service: %w - catalog is empty", biddingerrors.ErrProductNotFound)
	}
	return products[s.pick(len(products))], nil
}
