package handler

import (
	"context"
	"net/http"
	"time"

	"property-bidding/internal/auth"
	"property-bidding/internal/biddingerrors"
	model "property-bidding/internal/models"
	"property-bidding/services/bidding/helpers"
	"property-bidding/utils"

	"github.com/gin-gonic/gin"
)

type AccountServiceInterface interface {
	Register(ctx context.Context, name, email, password string, role model.Role) (model.Account, error)
	Authenticate(ctx context.Context, email, password string) (auth.Session, error)
	GetAccount(ctx context.Context, accountID string) (model.Account, error)
}

// SessionRevoker ends a session before its natural expiry
type SessionRevoker interface {
	Revoke(ctx context.Context, identity auth.Identity) error
}

type AccountHandler struct {
	service  AccountServiceInterface
	sessions SessionRevoker
}

func NewAccountHandler(service AccountServiceInterface, sessions SessionRevoker) *AccountHandler {
	return &AccountHandler{service: service, sessions: sessions}
}

// RegisterHandler handles POST /auth/register
func (h *AccountHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	account, err := h.service.Register(c.Request.Context(), req.Name, req.Email, req.Password, model.Role(req.Role))
	if err != nil {
		helpers.RespondError(c, "RegisterHandler", err, map[string]any{"role": req.Role})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.RegisterResponse{ID: account.AccountID}, "account registered successfully")
	helpers.LogSuccess("RegisterHandler", "account registered successfully", map[string]any{
		"account_id": account.AccountID,
		"role":       account.Role,
	})
}

// LoginHandler handles POST /auth/login
func (h *AccountHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	session, err := h.service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.RespondError(c, "LoginHandler", err, nil)
		return
	}

	resp := helpers.LoginResponse{
		Token:     session.Token,
		ID:        session.Account.AccountID,
		Name:      session.Account.Name,
		Role:      session.Account.Role,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusOK, resp, "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"account_id": session.Account.AccountID})
}

// LogoutHandler handles POST /auth/logout
func (h *AccountHandler) LogoutHandler(c *gin.Context) {
	identity, ok := helpers.IdentityFromContext(c)
	if !ok {
		helpers.RespondError(c, "LogoutHandler", biddingerrors.ErrUnauthorized, nil)
		return
	}

	if h.sessions != nil {
		if err := h.sessions.Revoke(c.Request.Context(), identity); err != nil {
			helpers.RespondError(c, "LogoutHandler", err, map[string]any{"account_id": identity.AccountID})
			return
		}
	}

	utils.JSONResponse(c, http.StatusOK, nil, "logged out")
	helpers.LogSuccess("LogoutHandler", "logged out", map[string]any{"account_id": identity.AccountID})
}

// MeHandler handles GET /auth/me
func (h *AccountHandler) MeHandler(c *gin.Context) {
	identity, ok := helpers.IdentityFromContext(c)
	if !ok {
		helpers.RespondError(c, "MeHandler", biddingerrors.ErrUnauthorized, nil)
		return
	}

	account, err := h.service.GetAccount(c.Request.Context(), identity.AccountID)
	if err != nil {
		helpers.RespondError(c, "MeHandler", err, map[string]any{"account_id": identity.AccountID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, account, "account retrieved successfully")
}
