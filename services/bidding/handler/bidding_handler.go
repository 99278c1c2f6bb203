package handler

import (
	"context"
	"errors"
	"net/http"

	"property-bidding/internal/biddingerrors"
	"property-bidding/internal/money"
	model "property-bidding/internal/models"
	"property-bidding/services/bidding/helpers"
	"property-bidding/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mock_services.go -package=handler property-bidding/services/bidding/handler BiddingServiceInterface,AccountServiceInterface,CatalogServiceInterface,SessionRevoker

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, productID, bidderID string, amount decimal.Decimal) (model.Bid, error)
	GetBidsForProduct(ctx context.Context, productID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, productID string) (model.Bid, error)
	GetProductsByBidder(ctx context.Context, bidderID string) ([]model.Product, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// PlaceBidHandler handles POST /products/:id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	identity, ok := helpers.IdentityFromContext(c)
	if !ok {
		helpers.RespondError(c, "PlaceBidHandler", biddingerrors.ErrUnauthorized, nil)
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	productID := c.Param("id")
	bid, err := h.service.PlaceBid(c.Request.Context(), productID, identity.AccountID, req.Amount)
	if err != nil {
		fields := map[string]any{
			"product_id": productID,
			"bidder_id":  identity.AccountID,
		}
		if !money.OutOfRange(req.Amount) {
			fields["amount"] = req.Amount.String()
		}
		helpers.RespondError(c, "PlaceBidHandler", err, fields)
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidReceipt(bid), "bid accepted")
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", map[string]any{
		"bid_id":          bid.BidID,
		"product_id":      bid.ProductID,
		"bidder_id":       bid.BidderID,
		"amount":          bid.Amount.String(),
		"sequence_number": bid.SequenceNumber,
	})
}

// GetBidsByProductHandler handles GET /products/:id/bids
func (h *BiddingHandler) GetBidsByProductHandler(c *gin.Context) {
	productID := c.Param("id")
	bids, err := h.service.GetBidsForProduct(c.Request.Context(), productID)
	if err != nil {
		helpers.RespondError(c, "GetBidsByProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, bid := range bids {
		resp = append(resp, helpers.NewBidResponse(bid))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByProductHandler", "bids retrieved successfully", map[string]any{
		"product_id": productID,
		"count":      len(resp),
	})
}

// GetWinningBidHandler handles GET /products/:id/winning
func (h *BiddingHandler) GetWinningBidHandler(c *gin.Context) {
	productID := c.Param("id")
	bid, err := h.service.GetWinningBid(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, biddingerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"product_id": productID})
			return
		}
		helpers.RespondError(c, "GetWinningBidHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"product_id": bid.ProductID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
	})
}

// GetProductsByBidderHandler handles GET /users/:id/products. Callers may
// only see their own bidding activity unless they are admins.
func (h *BiddingHandler) GetProductsByBidderHandler(c *gin.Context) {
	identity, ok := helpers.IdentityFromContext(c)
	if !ok {
		helpers.RespondError(c, "GetProductsByBidderHandler", biddingerrors.ErrUnauthorized, nil)
		return
	}

	bidderID := c.Param("id")
	if bidderID != identity.AccountID && !identity.IsAdmin() {
		helpers.RespondError(c, "GetProductsByBidderHandler", biddingerrors.ErrForbidden, map[string]any{
			"bidder_id": bidderID,
			"caller_id": identity.AccountID,
		})
		return
	}

	products, err := h.service.GetProductsByBidder(c.Request.Context(), bidderID)
	if err != nil {
		helpers.RespondError(c, "GetProductsByBidderHandler", err, map[string]any{"bidder_id": bidderID})
		return
	}

	if products == nil {
		products = []model.Product{}
	}

	utils.JSONResponse(c, http.StatusOK, products, "products retrieved successfully")
	helpers.LogSuccess("GetProductsByBidderHandler", "products retrieved successfully", map[string]any{
		"bidder_id":      bidderID,
		"products_count": len(products),
	})
}
