package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"property-bidding/internal/biddingerrors"
	model "property-bidding/internal/models"
)

//go:generate mockgen -destination=mock_repository.go -package=repository property-bidding/internal/repository AuctionDB

// AccountStore persists marketplace accounts
type AccountStore interface {
	CreateAccount(ctx context.Context, account model.Account) error
	GetAccountByID(ctx context.Context, accountID string) (model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (model.Account, error)
}

// ProductStore persists product listings together with their current bid pointer
type ProductStore interface {
	CreateProduct(ctx context.Context, product model.Product) error
	GetProduct(ctx context.Context, productID string) (model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
}

// BidStore persists the append-only bid history.
//
// AppendBid is a compare-and-swap on the product's bid pointer: it fails with
// ErrStaleBidState unless bid.SequenceNumber is exactly one past the stored
// count and bid.Amount is above the stored highest amount.
type BidStore interface {
	AppendBid(ctx context.Context, bid model.Bid) error
	GetBidsByProduct(ctx context.Context, productID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, productID string) (model.Bid, error)
	GetProductsByBidder(ctx context.Context, bidderID string) ([]model.Product, error)
}

// AuctionDB defines the storage interface for the bidding marketplace
type AuctionDB interface {
	AccountStore
	ProductStore
	BidStore
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu             sync.RWMutex
	accounts       map[string]model.Account // key: accountID -> value: account
	emails         map[string]string        // key: normalized email -> value: accountID
	products       map[string]model.Product // key: productID -> value: product
	productOrder   []string                 // productIDs in creation order
	bids           map[string][]model.Bid   // key: productID -> value: bids ordered by sequence
	bidderProducts map[string][]string      // key: bidderID -> value: productIDs bid on
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		accounts:       make(map[string]model.Account),
		emails:         make(map[string]string),
		products:       make(map[string]model.Product),
		bids:           make(map[string][]model.Bid),
		bidderProducts: make(map[string][]string),
	}
}

// NormalizeEmail is the canonical form used for email uniqueness
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount stores a new account, rejecting duplicate emails
func (r *MemoryRepo) CreateAccount(_ context.Context, account model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(account.Email)
	if _, exists := r.emails[email]; exists {
		return fmt.Errorf("create account %s: %w", email, biddingerrors.ErrEmailExists)
	}

	account.Email = email
	r.accounts[account.AccountID] = account
	r.emails[email] = account.AccountID
	return nil
}

// GetAccountByID returns the account with the given ID
func (r *MemoryRepo) GetAccountByID(_ context.Context, accountID string) (model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[accountID]
	if !ok {
		return model.Account{}, fmt.Errorf("get account %s: %w", accountID, biddingerrors.ErrAccountNotFound)
	}
	return account, nil
}

// GetAccountByEmail returns the account registered under email
func (r *MemoryRepo) GetAccountByEmail(_ context.Context, email string) (model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[NormalizeEmail(email)]
	if !ok {
		return model.Account{}, fmt.Errorf("get account by email: %w", biddingerrors.ErrAccountNotFound)
	}
	return r.accounts[id], nil
}

// CreateProduct stores a new product listing
func (r *MemoryRepo) CreateProduct(_ context.Context, product model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[product.CreatedBy]; !ok {
		return fmt.Errorf("create product %s: creator %s: %w", product.ProductID, product.CreatedBy, biddingerrors.ErrAccountNotFound)
	}

	r.products[product.ProductID] = product
	r.productOrder = append(r.productOrder, product.ProductID)
	return nil
}

// GetProduct returns the product with its current bid pointer
func (r *MemoryRepo) GetProduct(_ context.Context, productID string) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, biddingerrors.ErrProductNotFound)
	}
	return product, nil
}

// ListProducts returns all products in creation order
func (r *MemoryRepo) ListProducts(_ context.Context) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]model.Product, 0, len(r.productOrder))
	for _, id := range r.productOrder {
		products = append(products, r.products[id])
	}
	return products, nil
}

// AppendBid records a bid and advances the product's bid pointer
func (r *MemoryRepo) AppendBid(_ context.Context, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[bid.ProductID]
	if !ok {
		return fmt.Errorf("append bid for product %s: %w", bid.ProductID, biddingerrors.ErrProductNotFound)
	}
	if bid.SequenceNumber != product.BidCount+1 || !bid.Amount.GreaterThan(product.CurrentHighestBid) {
		return fmt.Errorf("append bid %d for product %s: %w", bid.SequenceNumber, bid.ProductID, biddingerrors.ErrStaleBidState)
	}

	r.bids[bid.ProductID] = append(r.bids[bid.ProductID], bid)
	product.CurrentHighestBid = bid.Amount
	product.BidCount = bid.SequenceNumber
	r.products[bid.ProductID] = product

	for _, id := range r.bidderProducts[bid.BidderID] {
		if id == bid.ProductID {
			return nil
		}
	}
	r.bidderProducts[bid.BidderID] = append(r.bidderProducts[bid.BidderID], bid.ProductID)

	return nil
}

// GetBidsByProduct returns the bid history for a product ordered by sequence number
func (r *MemoryRepo) GetBidsByProduct(_ context.Context, productID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.products[productID]; !ok {
		return nil, fmt.Errorf("get bids for product %s: %w", productID, biddingerrors.ErrProductNotFound)
	}
	return append([]model.Bid{}, r.bids[productID]...), nil
}

// GetWinningBid returns the highest bid for a product, which is always the latest one
func (r *MemoryRepo) GetWinningBid(_ context.Context, productID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.products[productID]; !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for product %s: %w", productID, biddingerrors.ErrProductNotFound)
	}

	bids := r.bids[productID]
	if len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for product %s: %w", productID, biddingerrors.ErrNoBids)
	}
	return bids[len(bids)-1], nil
}

// GetProductsByBidder returns all products a bidder has bid on
func (r *MemoryRepo) GetProductsByBidder(_ context.Context, bidderID string) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productIDs := r.bidderProducts[bidderID]
	products := make([]model.Product, 0, len(productIDs))
	for _, id := range productIDs {
		if product, exists := r.products[id]; exists {
			products = append(products, product)
		}
	}
	return products, nil
}
