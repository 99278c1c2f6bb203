package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the authorization role carried by an account
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account represents a registered marketplace participant
type Account struct {
	AccountID    string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Product represents a property listed for bidding.
// CurrentHighestBid equals BasePrice until the first bid is committed;
// BidCount is the sequence number of the last committed bid.
type Product struct {
	ProductID         string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	BasePrice         decimal.Decimal `json:"basePrice"`
	Image             string          `json:"image"`
	CreatedBy         string          `json:"createdBy"`
	CreatedAt         time.Time       `json:"createdAt"`
	CurrentHighestBid decimal.Decimal `json:"currentHighestBid"`
	BidCount          int64           `json:"bidCount"`
}

// Bid represents a committed bid on a product
type Bid struct {
	BidID          string          `json:"bidId"`
	ProductID      string          `json:"productId"`
	BidderID       string          `json:"bidderId"`
	Amount         decimal.Decimal `json:"amount"`
	PlacedAt       time.Time       `json:"placedAt"`
	SequenceNumber int64           `json:"sequenceNumber"`
}

// BidAccepted is published once for every committed bid
type BidAccepted struct {
	ProductID      string          `json:"productId"`
	BidID          string          `json:"bidId"`
	BidderID       string          `json:"bidderId"`
	Amount         decimal.Decimal `json:"amount"`
	SequenceNumber int64           `json:"sequenceNumber"`
	PlacedAt       time.Time       `json:"placedAt"`
}

// NewBidAccepted builds the event for a committed bid
func NewBidAccepted(bid Bid) BidAccepted {
	return BidAccepted{
		ProductID:      bid.ProductID,
		BidID:          bid.BidID,
		BidderID:       bid.BidderID,
		Amount:         bid.Amount,
		SequenceNumber: bid.SequenceNumber,
		PlacedAt:       bid.PlacedAt,
	}
}
