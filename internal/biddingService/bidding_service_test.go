package bidding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"property-bidding/internal/biddingerrors"
	model "property-bidding/internal/models"
	"property-bidding/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.BidAccepted
}

func (p *recordingPublisher) Publish(event model.BidAccepted) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []model.BidAccepted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.BidAccepted(nil), p.events...)
}

var (
	adminAccount  = model.Account{AccountID: "admin1", Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	bidderAccount = model.Account{AccountID: "user1", Name: "User", Email: "user@example.com", Role: model.RoleUser}
	listedProduct = model.Product{
		ProductID:         "product1",
		Name:              "Luxury Apartment",
		BasePrice:         dec("250000"),
		CreatedBy:         "admin1",
		CurrentHighestBid: dec("250000"),
	}
)

// Tests PlaceBid validation order and storage interaction
func TestBiddingService_PlaceBid(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	userListed := listedProduct
	userListed.CreatedBy = "user1"

	withBids := listedProduct
	withBids.CurrentHighestBid = dec("260000")
	withBids.BidCount = 2

	tests := []struct {
		name          string
		productID     string
		bidderID      string
		amount        decimal.Decimal
		mockSetup     func(repo *repository.MockAuctionDB)
		expectedError error
		expectedSeq   int64
	}{
		{
			name:      "valid_first_bid",
			productID: "product1",
			bidderID:  "user1",
			amount:    dec("250001"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(listedProduct, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
				repo.EXPECT().AppendBid(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, bid model.Bid) error {
					require.Equal(t, int64(1), bid.SequenceNumber)
					return nil
				})
			},
			expectedSeq: 1,
		},
		{
			name:      "valid_bid_after_existing_bids",
			productID: "product1",
			bidderID:  "user1",
			amount:    dec("260000.01"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(withBids, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
				repo.EXPECT().AppendBid(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedSeq: 3,
		},
		{
			name:      "product_not_found_checked_first",
			productID: "missing",
			bidderID:  "ghost",
			amount:    dec("0"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "missing").Return(model.Product{}, biddingerrors.ErrProductNotFound)
			},
			expectedError: biddingerrors.ErrProductNotFound,
		},
		{
			name:      "unknown_bidder_forbidden",
			productID: "product1",
			bidderID:  "ghost",
			amount:    dec("0"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(listedProduct, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "ghost").Return(model.Account{}, biddingerrors.ErrAccountNotFound)
			},
			expectedError: biddingerrors.ErrForbidden,
		},
		{
			name:      "admin_forbidden",
			productID: "product1",
			bidderID:  "admin1",
			amount:    dec("300000"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(listedProduct, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "admin1").Return(adminAccount, nil)
			},
			expectedError: biddingerrors.ErrForbidden,
		},
		{
			name:      "creator_forbidden",
			productID: "product1",
			bidderID:  "user1",
			amount:    dec("300000"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(userListed, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
			},
			expectedError: biddingerrors.ErrForbidden,
		},
		{
			name:      "zero_amount",
			productID: "product1",
			bidderID:  "user1",
			amount:    dec("0"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(listedProduct, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
			},
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:      "negative_amount",
			productID: "product1",
			bidderID:  "user1",
			amount:    dec("-50"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(listedProduct, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
			},
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:      "too_many_decimals",
			productID: "product1",
			bidderID:  "user1",
			amount:    dec("250000.001"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(listedProduct, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
			},
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:      "amount_above_storable_range",
			productID: "product1",
			bidderID:  "user1",
			amount:    dec("1e30000000"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(listedProduct, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
			},
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:      "equal_to_base_price",
			productID: "product1",
			bidderID:  "user1",
			amount:    dec("250000"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(listedProduct, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
			},
			expectedError: biddingerrors.ErrBidTooLow,
		},
		{
			name:      "below_current_highest",
			productID: "product1",
			bidderID:  "user1",
			amount:    dec("255000"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(withBids, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
			},
			expectedError: biddingerrors.ErrBidTooLow,
		},
		{
			name:      "repo_fails",
			productID: "product1",
			bidderID:  "user1",
			amount:    dec("270000"),
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetProduct(gomock.Any(), "product1").Return(listedProduct, nil).Times(2)
				repo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
				repo.EXPECT().AppendBid(gomock.Any(), gomock.Any()).Return(errors.New("repo write failed"))
			},
			expectedError: nil, // Service wraps repo error, we don’t match specific error here
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := repository.NewMockAuctionDB(ctrl)
			publisher := &recordingPublisher{}
			service := NewBiddingService(mockRepo, publisher)
			tc.mockSetup(mockRepo)

			bid, err := service.PlaceBid(context.Background(), tc.productID, tc.bidderID, tc.amount)

			if tc.expectedSeq == 0 {
				require.Error(t, err)
				if tc.expectedError != nil {
					require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				}
				require.Empty(t, publisher.Events(), "rejected bids must not publish")
				return
			}

			require.NoError(t, err)

			_, parseErr := uuid.Parse(bid.BidID)
			require.NoError(t, parseErr, "BidID should be a valid UUID")
			require.Equal(t, tc.productID, bid.ProductID)
			require.Equal(t, tc.bidderID, bid.BidderID)
			require.True(t, tc.amount.Equal(bid.Amount))
			require.Equal(t, tc.expectedSeq, bid.SequenceNumber)
			require.WithinDuration(t, now, bid.PlacedAt, 2*time.Second)

			events := publisher.Events()
			require.Len(t, events, 1)
			require.Equal(t, bid.SequenceNumber, events[0].SequenceNumber)
			require.Equal(t, bid.BidID, events[0].BidID)
		})
	}
}

// seedLedger builds a ledger over a memory repo holding one admin, two bidders and one product
func seedLedger(t testing.TB, basePrice string) (*BiddingService, *repository.MemoryRepo, *recordingPublisher) {
	t.Helper()

	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	require.NoError(t, repo.CreateAccount(ctx, adminAccount))
	require.NoError(t, repo.CreateAccount(ctx, bidderAccount))
	require.NoError(t, repo.CreateAccount(ctx, model.Account{AccountID: "user2", Email: "user2@example.com", Role: model.RoleUser}))

	product := listedProduct
	product.BasePrice = dec(basePrice)
	product.CurrentHighestBid = dec(basePrice)
	require.NoError(t, repo.CreateProduct(ctx, product))

	publisher := &recordingPublisher{}
	return NewBiddingService(repo, publisher), repo, publisher
}

// A bid that passed validation is written even if the caller's context is
// already done; the outcome must never be left ambiguous.
func TestBiddingService_PlaceBidIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repository.NewMockAuctionDB(ctrl)
	mockRepo.EXPECT().GetProduct(gomock.Any(), "product1").Return(listedProduct, nil).Times(2)
	mockRepo.EXPECT().GetAccountByID(gomock.Any(), "user1").Return(bidderAccount, nil)
	mockRepo.EXPECT().AppendBid(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ model.Bid) error {
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bid, err := NewBiddingService(mockRepo, nil).PlaceBid(ctx, "product1", "user1", dec("250001"))
	require.NoError(t, err)
	require.Equal(t, int64(1), bid.SequenceNumber)
}

func TestBiddingService_BidTooLowNamesNextValidBid(t *testing.T) {
	t.Parallel()

	service, _, _ := seedLedger(t, "250000")

	_, err := service.PlaceBid(context.Background(), "product1", "user1", dec("250000"))
	require.True(t, errors.Is(err, biddingerrors.ErrBidTooLow))
	require.ErrorContains(t, err, "next valid bid is 250000.01")
}

func TestBiddingService_Scenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, repo, publisher := seedLedger(t, "250000")

	var wg sync.WaitGroup
	var bidA model.Bid
	var errA, errB error
	wg.Add(2)
	go func() {
		defer wg.Done()
		bidA, errA = service.PlaceBid(ctx, "product1", "user1", dec("250001"))
	}()
	go func() {
		defer wg.Done()
		_, errB = service.PlaceBid(ctx, "product1", "user2", dec("250000"))
	}()
	wg.Wait()

	require.NoError(t, errA)
	require.Equal(t, int64(1), bidA.SequenceNumber)
	require.True(t, errors.Is(errB, biddingerrors.ErrBidTooLow))

	retry, err := service.PlaceBid(ctx, "product1", "user2", dec("260000"))
	require.NoError(t, err)
	require.Equal(t, int64(2), retry.SequenceNumber)

	product, err := repo.GetProduct(ctx, "product1")
	require.NoError(t, err)
	require.True(t, dec("260000").Equal(product.CurrentHighestBid))

	winning, err := service.GetWinningBid(ctx, "product1")
	require.NoError(t, err)
	require.Equal(t, "user2", winning.BidderID)

	require.Len(t, publisher.Events(), 2)
}

func TestBiddingService_Boundary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, repo, _ := seedLedger(t, "1000")

	_, err := service.PlaceBid(ctx, "product1", "user1", dec("1500"))
	require.NoError(t, err)

	_, err = service.PlaceBid(ctx, "product1", "user2", dec("1500"))
	require.True(t, errors.Is(err, biddingerrors.ErrBidTooLow), "tie must be rejected")

	product, err := repo.GetProduct(ctx, "product1")
	require.NoError(t, err)
	require.True(t, dec("1500").Equal(product.CurrentHighestBid), "rejected bid must not change state")
	require.Equal(t, int64(1), product.BidCount)

	bid, err := service.PlaceBid(ctx, "product1", "user2", dec("1500.01"))
	require.NoError(t, err)
	require.Equal(t, int64(2), bid.SequenceNumber)
}

func TestBiddingService_AdminCannotBidOnOwnProduct(t *testing.T) {
	t.Parallel()

	service, _, publisher := seedLedger(t, "1000")

	_, err := service.PlaceBid(context.Background(), "product1", "admin1", dec("2000"))
	require.True(t, errors.Is(err, biddingerrors.ErrForbidden))
	require.Empty(t, publisher.Events())
}

// Concurrent bids on one product must serialize: committed amounts and
// sequence numbers strictly increase and no amount tier wins twice.
func TestBiddingService_ConcurrentBidsSerialize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, repo, publisher := seedLedger(t, "1000")

	const tiers = 20
	const biddersPerTier = 8

	type outcome struct {
		amount decimal.Decimal
		err    error
	}
	results := make(chan outcome, tiers*biddersPerTier)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for tier := 1; tier <= tiers; tier++ {
		for i := 0; i < biddersPerTier; i++ {
			wg.Add(1)
			bidder := "user1"
			if i%2 == 1 {
				bidder = "user2"
			}
			amount := decimal.NewFromInt(int64(1000 + tier*10))
			go func() {
				defer wg.Done()
				<-start
				_, err := service.PlaceBid(ctx, "product1", bidder, amount)
				results <- outcome{amount: amount, err: err}
			}()
		}
	}
	close(start)
	wg.Wait()
	close(results)

	wins := make(map[string]int)
	for r := range results {
		if r.err == nil {
			wins[r.amount.String()]++
			continue
		}
		require.True(t, errors.Is(r.err, biddingerrors.ErrBidTooLow), "unexpected rejection: %v", r.err)
	}

	for amount, count := range wins {
		require.Equal(t, 1, count, "amount tier %s accepted more than once", amount)
	}
	require.Equal(t, 1, wins[decimal.NewFromInt(1000+tiers*10).String()], "top tier must win exactly once")

	bids, err := repo.GetBidsByProduct(ctx, "product1")
	require.NoError(t, err)
	require.Len(t, bids, len(wins))
	for i, bid := range bids {
		require.Equal(t, int64(i+1), bid.SequenceNumber, "sequence numbers must be gapless")
		if i > 0 {
			require.True(t, bid.Amount.GreaterThan(bids[i-1].Amount), "amounts must strictly increase")
		}
	}

	events := publisher.Events()
	require.Len(t, events, len(bids))
	for i, evt := range events {
		require.Equal(t, int64(i+1), evt.SequenceNumber, "events must be published in sequence order")
	}
}

func TestBiddingService_IndependentProducts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, repo, _ := seedLedger(t, "1000")
	second := listedProduct
	second.ProductID = "product2"
	second.CurrentHighestBid = dec("500")
	require.NoError(t, repo.CreateProduct(ctx, second))

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(2)
		amount := decimal.NewFromInt(int64(2000 + i))
		go func() {
			defer wg.Done()
			_, _ = service.PlaceBid(ctx, "product1", "user1", amount)
		}()
		go func() {
			defer wg.Done()
			_, _ = service.PlaceBid(ctx, "product2", "user2", amount)
		}()
	}
	wg.Wait()

	for _, id := range []string{"product1", "product2"} {
		winning, err := service.GetWinningBid(ctx, id)
		require.NoError(t, err)
		require.True(t, dec("2050").Equal(winning.Amount))
	}
}

func TestBiddingService_Reads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty_ids", func(t *testing.T) {
		service := NewBiddingService(repository.NewMemoryRepo(), nil)

		_, err := service.GetBidsForProduct(ctx, "")
		require.True(t, errors.Is(err, biddingerrors.ErrProductNotFound))

		_, err = service.GetWinningBid(ctx, "")
		require.True(t, errors.Is(err, biddingerrors.ErrProductNotFound))

		_, err = service.GetProductsByBidder(ctx, "")
		require.True(t, errors.Is(err, biddingerrors.ErrInvalidInput))
	})

	t.Run("no_bids_yet", func(t *testing.T) {
		service, _, _ := seedLedger(t, "1000")

		bids, err := service.GetBidsForProduct(ctx, "product1")
		require.NoError(t, err)
		require.Empty(t, bids)

		_, err = service.GetWinningBid(ctx, "product1")
		require.True(t, errors.Is(err, biddingerrors.ErrNoBids))
	})

	t.Run("products_by_bidder", func(t *testing.T) {
		service, _, _ := seedLedger(t, "1000")
		_, err := service.PlaceBid(ctx, "product1", "user1", dec("1001"))
		require.NoError(t, err)
		_, err = service.PlaceBid(ctx, "product1", "user1", dec("1002"))
		require.NoError(t, err)

		products, err := service.GetProductsByBidder(ctx, "user1")
		require.NoError(t, err)
		require.Len(t, products, 1)
		require.Equal(t, "product1", products[0].ProductID)
		require.Equal(t, int64(2), products[0].BidCount)
	})
}
