package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	account "property-bidding/internal/accountService"
	"property-bidding/internal/auth"
	bidding "property-bidding/internal/biddingService"
	catalog "property-bidding/internal/catalogService"
	"property-bidding/internal/notify"
	"property-bidding/internal/repository"
	"property-bidding/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// revocationSet is an in-process RevocationStore so logout is enforced in tests
type revocationSet struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (s *revocationSet) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = true
	return nil
}

func (s *revocationSet) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[tokenID], nil
}

// SetupTestRouter wires the full HTTP surface over an in-memory repository.
func SetupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	hub := notify.NewHub(16)
	gate := auth.NewGate(auth.NewTokenManager("integration-secret"), &revocationSet{revoked: map[string]bool{}})

	return server.SetupRouter(server.Dependencies{
		Bidding:        bidding.NewBiddingService(repo, hub),
		Accounts:       account.NewAccountService(repo, gate),
		Catalog:        catalog.NewCatalogService(repo),
		Events:         hub,
		Auth:           gate,
		Sessions:       gate,
		RequestTimeout: 5 * time.Second,
	})
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
// An empty token sends no Authorization header.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request and returns the "data" member
// of the response envelope alongside the recorder.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url, token string, body any) (any, *httptest.ResponseRecorder) {
	t.Helper()

	w := ExecuteRequest(t, router, method, url, token, body)

	var resp map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp["data"], w
}

// RegisterAndLogin creates an account and returns its ID and a bearer token.
func RegisterAndLogin(t *testing.T, router *gin.Engine, name, email, role string) (string, string) {
	t.Helper()

	const password = "secret123"

	data, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password, "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := data.(map[string]any)["id"].(string)

	data, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := data.(map[string]any)["token"].(string)
	require.NotEmpty(t, token)

	return id, token
}

// CreateProduct lists a product as the admin behind token and returns its ID.
func CreateProduct(t *testing.T, router *gin.Engine, token, name, basePrice string) string {
	t.Helper()

	data, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/products", token, map[string]any{
		"name":        name,
		"description": name + " description",
		"basePrice":   json.Number(basePrice),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data.(map[string]any)["productId"].(string)
}

// PlaceBid submits amount (a JSON number literal) on productID.
func PlaceBid(t *testing.T, router *gin.Engine, token, productID, amount string) (any, *httptest.ResponseRecorder) {
	t.Helper()
	return ExecuteRequestAndParse(t, router, http.MethodPost, "/products/"+productID+"/bids", token,
		map[string]any{"amount": json.Number(amount)})
}
