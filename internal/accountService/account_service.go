package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"property-bidding/internal/auth"
	"property-bidding/internal/biddingerrors"
	model "property-bidding/internal/models"
	"property-bidding/internal/repository"
	"property-bidding/utils"
)

// MinPasswordLength is the shortest password Register accepts
const MinPasswordLength = 6

// MaxPasswordLength is the bcrypt input limit in bytes
const MaxPasswordLength = 72

// SessionIssuer mints a session for an authenticated account
type SessionIssuer interface {
	Issue(account model.Account) (auth.Session, error)
}

// AccountService registers accounts and exchanges credentials for sessions
type AccountService struct {
	store  repository.AccountStore
	issuer SessionIssuer
	now    func() time.Time
}

func NewAccountService(store repository.AccountStore, issuer SessionIssuer) *AccountService {
	return &AccountService{
		store:  store,
		issuer: issuer,
		now:    time.Now,
	}
}

// Register creates a new account. The email is stored normalized.
func (s *AccountService) Register(ctx context.Context, name, email, password string, role model.Role) (model.Account, error) {
	name = strings.TrimSpace(name)
	email = repository.NormalizeEmail(email)

	if name == "" {
		return model.Account{}, fmt.Errorf("service: %w - name is required", biddingerrors.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.Account{}, fmt.Errorf("service: %w - malformed email", biddingerrors.ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return model.Account{}, fmt.Errorf("service: %w - password must be at least %d characters", biddingerrors.ErrInvalidInput, MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return model.Account{}, fmt.Errorf("service: %w - password must be at most %d bytes", biddingerrors.ErrInvalidInput, MaxPasswordLength)
	}
	if !role.Valid() {
		return model.Account{}, fmt.Errorf("service: %w - unknown role %q", biddingerrors.ErrInvalidInput, role)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.Account{}, fmt.Errorf("service: failed to hash password: %w", err)
	}

	account := model.Account{
		AccountID:    utils.GenerateID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return model.Account{}, fmt.Errorf("service: failed to create account: %w", err)
	}

	utils.Info("account registered", map[string]any{
		"account_id": account.AccountID,
		"role":       account.Role,
	})
	return account, nil
}

// Authenticate checks the credentials and issues a session. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (auth.Session, error) {
	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, biddingerrors.ErrAccountNotFound) {
			return auth.Session{}, fmt.Errorf("service: %w - invalid credentials", biddingerrors.ErrUnauthorized)
		}
		return auth.Session{}, fmt.Errorf("service: failed to load account: %w", err)
	}

	if !auth.CheckPassword(account.PasswordHash, password) {
		utils.Warn("login rejected", map[string]any{"account_id": account.AccountID})
		return auth.Session{}, fmt.Errorf("service: %w - invalid credentials", biddingerrors.ErrUnauthorized)
	}

	session, err := s.issuer.Issue(account)
	if err != nil {
		return auth.Session{}, fmt.Errorf("service: failed to issue session: %w", err)
	}
	return session, nil
}

// GetAccount returns the account with the given ID
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	if accountID == "" {
		return model.Account{}, fmt.Errorf("service: %w - empty account ID", biddingerrors.ErrAccountNotFound)
	}

	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return model.Account{}, fmt.Errorf("service: failed to get account %s: %w", accountID, err)
	}
	return account, nil
}
