package bidding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"property-bidding/internal/biddingerrors"
	"property-bidding/internal/models"
	"property-bidding/internal/money"
	"property-bidding/internal/repository"
	"property-bidding/utils"

	"github.com/shopspring/decimal"
)

// EventPublisher receives one BidAccepted per committed bid
type EventPublisher interface {
	Publish(event models.BidAccepted)
}

// BiddingService is the bid ledger: the only writer of a product's bid state
type BiddingService struct {
	repo      repository.AuctionDB
	publisher EventPublisher
	locks     productLocks
	now       func() time.Time
}

// NewBiddingService creates a new BiddingService instance. publisher may be nil.
func NewBiddingService(repo repository.AuctionDB, publisher EventPublisher) *BiddingService {
	return &BiddingService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// PlaceBid validates and commits a bid.
//
// Checks run in order: the product exists, the bidder may bid on it, the
// amount is well formed and strictly above the current highest. The current
// highest is read, compared and replaced while holding the product's lock, so
// two bids can never both win against the same snapshot.
func (s *BiddingService) PlaceBid(ctx context.Context, productID, bidderID string, amount decimal.Decimal) (models.Bid, error) {
	// existence first so unknown IDs never allocate a lock
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return models.Bid{}, fmt.Errorf("service: %w", err)
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: %w", err)
	}

	if err := s.checkBidder(ctx, product, bidderID); err != nil {
		return models.Bid{}, err
	}

	if err := money.Validate(amount); err != nil {
		return models.Bid{}, fmt.Errorf("service: %w - %v", biddingerrors.ErrInvalidBid, err)
	}
	if !amount.GreaterThan(product.CurrentHighestBid) {
		return models.Bid{}, fmt.Errorf("service: %w - next valid bid is %s", biddingerrors.ErrBidTooLow, money.NextValidBid(product.CurrentHighestBid).StringFixed(money.Precision))
	}

	bid := models.Bid{
		BidID:          utils.GenerateID(),
		ProductID:      productID,
		BidderID:       bidderID,
		Amount:         amount,
		PlacedAt:       s.now().UTC(),
		SequenceNumber: product.BidCount + 1,
	}

	// once validated the bid resolves to accept or reject; a caller deadline
	// must not abort the store write halfway
	if err := s.repo.AppendBid(context.WithoutCancel(ctx), bid); err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid for product %s by bidder %s: %w", productID, bidderID, err)
	}

	// still under the product lock: events for a product leave in sequence order
	if s.publisher != nil {
		s.publisher.Publish(models.NewBidAccepted(bid))
	}

	return bid, nil
}

// checkBidder enforces that the bidder exists, is not an admin and did not list the product
func (s *BiddingService) checkBidder(ctx context.Context, product models.Product, bidderID string) error {
	bidder, err := s.repo.GetAccountByID(ctx, bidderID)
	if err != nil {
		if errors.Is(err, biddingerrors.ErrAccountNotFound) {
			return fmt.Errorf("service: %w - unknown bidder: %w", biddingerrors.ErrForbidden, err)
		}
		return fmt.Errorf("service: failed to load bidder %s: %w", bidderID, err)
	}

	if bidder.Role == models.RoleAdmin {
		return fmt.Errorf("service: %w - admins may not bid", biddingerrors.ErrForbidden)
	}
	if bidder.AccountID == product.CreatedBy {
		return fmt.Errorf("service: %w - creator may not bid on own product", biddingerrors.ErrForbidden)
	}
	return nil
}

// GetBidsForProduct returns the bid history of a product in sequence order
func (s *BiddingService) GetBidsForProduct(ctx context.Context, productID string) ([]models.Bid, error) {
	if productID == "" {
		return nil, fmt.Errorf("service: %w - empty product ID", biddingerrors.ErrProductNotFound)
	}

	bids, err := s.repo.GetBidsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for product %s: %w", productID, err)
	}

	return bids, nil
}

// GetWinningBid returns the highest bid for a specific product
func (s *BiddingService) GetWinningBid(ctx context.Context, productID string) (models.Bid, error) {
	if productID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty product ID", biddingerrors.ErrProductNotFound)
	}

	winningBid, err := s.repo.GetWinningBid(ctx, productID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for product %s: %w", productID, err)
	}

	return winningBid, nil
}

// GetProductsByBidder returns all products a bidder has placed bids on
func (s *BiddingService) GetProductsByBidder(ctx context.Context, bidderID string) ([]models.Product, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("service: %w - empty bidder ID", biddingerrors.ErrInvalidInput)
	}

	products, err := s.repo.GetProductsByBidder(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get products for bidder %s: %w", bidderID, err)
	}

	return products, nil
}
