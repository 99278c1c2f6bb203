package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"property-bidding/internal/biddingerrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToHTTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"forbidden", biddingerrors.ErrForbidden, http.StatusForbidden},
		{"unknown_bidder_is_forbidden", fmt.Errorf("%w - unknown bidder: %w", biddingerrors.ErrForbidden, biddingerrors.ErrAccountNotFound), http.StatusForbidden},
		{"unauthorized", biddingerrors.ErrUnauthorized, http.StatusUnauthorized},
		{"product_not_found", fmt.Errorf("service: %w", biddingerrors.ErrProductNotFound), http.StatusNotFound},
		{"account_not_found", biddingerrors.ErrAccountNotFound, http.StatusNotFound},
		{"no_bids", biddingerrors.ErrNoBids, http.StatusNotFound},
		{"email_exists", biddingerrors.ErrEmailExists, http.StatusConflict},
		{"bid_too_low", biddingerrors.ErrBidTooLow, http.StatusConflict},
		{"stale_state", biddingerrors.ErrStaleBidState, http.StatusConflict},
		{"invalid_bid", biddingerrors.ErrInvalidBid, http.StatusBadRequest},
		{"invalid_input", biddingerrors.ErrInvalidInput, http.StatusBadRequest},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			status, message := MapErrorToHTTP(tc.err)
			require.Equal(t, tc.expectedStatus, status)
			require.NotEmpty(t, message)
		})
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, "TestHandler", errors.New("pq: password authentication failed for user admin"), nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "pq:")
	require.Contains(t, w.Body.String(), "internal server error")
}

func TestCreateProductRequest_DecimalValidation(t *testing.T) {
	RegisterValidators()
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"number_price", `{"name":"Cabin","basePrice":175000}`, false},
		{"string_price", `{"name":"Cabin","basePrice":"175000.50"}`, false},
		{"zero_price", `{"name":"Cabin","basePrice":0}`, true},
		{"negative_price", `{"name":"Cabin","basePrice":"-1"}`, true},
		{"missing_name", `{"basePrice":10}`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(tc.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req CreateProductRequest
			err := c.ShouldBindJSON(&req)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
