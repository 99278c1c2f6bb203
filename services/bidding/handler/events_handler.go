package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	model "property-bidding/internal/models"
	"property-bidding/internal/notify"
	"property-bidding/services/bidding/helpers"
	"property-bidding/utils"

	"github.com/gin-gonic/gin"
)

const (
	snapshotEvent    = "snapshot"
	bidAcceptedEvent = "BidAccepted"
)

// EventSubscriber hands out per-product event subscriptions
type EventSubscriber interface {
	Subscribe(productID string) *notify.Subscription
}

// ProductReader looks up a product snapshot
type ProductReader interface {
	GetProduct(ctx context.Context, productID string) (model.Product, error)
}

type EventsHandler struct {
	products  ProductReader
	hub       EventSubscriber
	heartbeat time.Duration
}

// NewEventsHandler creates the SSE handler. A zero heartbeat disables keepalive comments.
func NewEventsHandler(products ProductReader, hub EventSubscriber, heartbeat time.Duration) *EventsHandler {
	return &EventsHandler{products: products, hub: hub, heartbeat: heartbeat}
}

// StreamBidsHandler handles GET /products/:id/events. It sends the current
// snapshot first, then one BidAccepted event per committed bid until the
// client goes away.
func (h *EventsHandler) StreamBidsHandler(c *gin.Context) {
	productID := c.Param("id")
	product, err := h.products.GetProduct(c.Request.Context(), productID)
	if err != nil {
		helpers.RespondError(c, "StreamBidsHandler", err, map[string]any{"product_id": productID})
		return
	}

	sub := h.hub.Subscribe(productID)
	defer sub.Close()

	var tick <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	utils.Info("StreamBidsHandler: subscriber connected", map[string]any{"product_id": sub.ProductID()})

	c.SSEvent(snapshotEvent, product)
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(bidAcceptedEvent, event)
			return true
		case <-tick:
			_, err := io.WriteString(w, ": keepalive\n\n")
			return err == nil
		case <-ctx.Done():
			return false
		}
	})

	utils.Info("StreamBidsHandler: subscriber disconnected", map[string]any{
		"product_id": sub.ProductID(),
		"dropped":    sub.Dropped(),
	})
}
