package helpers

import (
	"time"

	model "property-bidding/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs

// PlaceBidRequest carries the bid amount; the product comes from the path and
// the bidder from the token. Amount checks belong to the ledger.
type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     string `json:"role" binding:"required,oneof=admin user"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"basePrice" binding:"required,gt=0"`
	Image       string          `json:"image"`
}

type RegisterResponse struct {
	ID string `json:"id"`
}

type LoginResponse struct {
	Token     string     `json:"token"`
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	ExpiresAt string     `json:"expiresAt"`
}

type CreateProductResponse struct {
	ProductID string `json:"productId"`
}

// BidReceipt is returned for an accepted bid
type BidReceipt struct {
	BidID          string          `json:"bidId"`
	SequenceNumber int64           `json:"sequenceNumber"`
	AcceptedAmount decimal.Decimal `json:"acceptedAmount"`
	PlacedAt       string          `json:"placedAt"`
}

type BidResponse struct {
	BidID          string          `json:"bidId"`
	ProductID      string          `json:"productId"`
	BidderID       string          `json:"bidderId"`
	Amount         decimal.Decimal `json:"amount"`
	SequenceNumber int64           `json:"sequenceNumber"`
	PlacedAt       string          `json:"placedAt"`
}

func NewBidReceipt(bid model.Bid) BidReceipt {
	return BidReceipt{
		BidID:          bid.BidID,
		SequenceNumber: bid.SequenceNumber,
		AcceptedAmount: bid.Amount,
		PlacedAt:       bid.PlacedAt.UTC().Format(time.RFC3339Nano),
	}
}

func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:          bid.BidID,
		ProductID:      bid.ProductID,
		BidderID:       bid.BidderID,
		Amount:         bid.Amount,
		SequenceNumber: bid.SequenceNumber,
		PlacedAt:       bid.PlacedAt.UTC().Format(time.RFC3339Nano),
	}
}
