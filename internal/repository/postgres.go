package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"property-bidding/internal/biddingerrors"
	model "property-bidding/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

// PostgresRepo is an AuctionDB backed by PostgreSQL through database/sql.
// It works with both the lib/pq ("postgres") and pgx ("pgx") drivers.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo creates a repository over an open connection pool
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// EnsureSchema creates the accounts, products and bids tables if missing
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// CreateAccount stores a new account, rejecting duplicate emails
func (r *PostgresRepo) CreateAccount(ctx context.Context, account model.Account) error {
	email := NormalizeEmail(account.Email)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.AccountID, account.Name, email, account.PasswordHash, string(account.Role), account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create account %s: %w", email, biddingerrors.ErrEmailExists)
		}
		return fmt.Errorf("create account %s: %w", email, err)
	}
	return nil
}

const accountColumns = `id, name, email, password_hash, role, created_at`

func scanAccount(row *sql.Row) (model.Account, error) {
	var account model.Account
	var role string
	err := row.Scan(&account.AccountID, &account.Name, &account.Email, &account.PasswordHash, &role, &account.CreatedAt)
	account.Role = model.Role(role)
	return account, err
}

// GetAccountByID returns the account with the given ID
func (r *PostgresRepo) GetAccountByID(ctx context.Context, accountID string) (model.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("get account %s: %w", accountID, biddingerrors.ErrAccountNotFound)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("get account %s: %w", accountID, err)
	}
	return account, nil
}

// GetAccountByEmail returns the account registered under email
func (r *PostgresRepo) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("get account by email: %w", biddingerrors.ErrAccountNotFound)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("get account by email: %w", err)
	}
	return account, nil
}

// CreateProduct stores a new product listing
func (r *PostgresRepo) CreateProduct(ctx context.Context, product model.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, base_price, image, created_by, created_at, current_highest_bid, bid_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		product.ProductID, product.Name, product.Description, product.BasePrice, product.Image,
		product.CreatedBy, product.CreatedAt, product.CurrentHighestBid, product.BidCount)
	if err != nil {
		return fmt.Errorf("create product %s: %w", product.ProductID, err)
	}
	return nil
}

const productColumns = `id, name, description, base_price, image, created_by, created_at, current_highest_bid, bid_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ProductID, &p.Name, &p.Description, &p.BasePrice, &p.Image,
		&p.CreatedBy, &p.CreatedAt, &p.CurrentHighestBid, &p.BidCount)
	return p, err
}

// GetProduct returns the product with its current bid pointer
func (r *PostgresRepo) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, biddingerrors.ErrProductNotFound)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, err)
	}
	return product, nil
}

// ListProducts returns all products in creation order
func (r *PostgresRepo) ListProducts(ctx context.Context) ([]model.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
}

func (r *PostgresRepo) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// AppendBid records a bid and advances the product's bid pointer in one
// transaction. The product row stays locked until commit.
func (r *PostgresRepo) AppendBid(ctx context.Context, bid model.Bid) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append bid: begin: %w", err)
	}
	defer tx.Rollback()

	var current model.Product
	err = tx.QueryRowContext(ctx,
		`SELECT current_highest_bid, bid_count FROM products WHERE id = $1 FOR UPDATE`,
		bid.ProductID).Scan(&current.CurrentHighestBid, &current.BidCount)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("append bid for product %s: %w", bid.ProductID, biddingerrors.ErrProductNotFound)
	}
	if err != nil {
		return fmt.Errorf("append bid: lock product %s: %w", bid.ProductID, err)
	}

	if bid.SequenceNumber != current.BidCount+1 || !bid.Amount.GreaterThan(current.CurrentHighestBid) {
		return fmt.Errorf("append bid %d for product %s: %w", bid.SequenceNumber, bid.ProductID, biddingerrors.ErrStaleBidState)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bids (id, product_id, bidder_id, amount, placed_at, sequence_number)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		bid.BidID, bid.ProductID, bid.BidderID, bid.Amount, bid.PlacedAt, bid.SequenceNumber)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("append bid %d for product %s: %w", bid.SequenceNumber, bid.ProductID, biddingerrors.ErrStaleBidState)
		}
		return fmt.Errorf("append bid: insert: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE products SET current_highest_bid = $1, bid_count = $2 WHERE id = $3`,
		bid.Amount, bid.SequenceNumber, bid.ProductID)
	if err != nil {
		return fmt.Errorf("append bid: update product %s: %w", bid.ProductID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append bid: commit: %w", err)
	}
	return nil
}

func (r *PostgresRepo) productExists(ctx context.Context, productID string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check product %s: %w", productID, err)
	}
	if !exists {
		return fmt.Errorf("product %s: %w", productID, biddingerrors.ErrProductNotFound)
	}
	return nil
}

const bidColumns = `id, product_id, bidder_id, amount, placed_at, sequence_number`

func scanBid(row rowScanner) (model.Bid, error) {
	var b model.Bid
	err := row.Scan(&b.BidID, &b.ProductID, &b.BidderID, &b.Amount, &b.PlacedAt, &b.SequenceNumber)
	return b, err
}

// GetBidsByProduct returns the bid history for a product ordered by sequence number
func (r *PostgresRepo) GetBidsByProduct(ctx context.Context, productID string) ([]model.Bid, error) {
	if err := r.productExists(ctx, productID); err != nil {
		return nil, fmt.Errorf("get bids: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE product_id = $1 ORDER BY sequence_number`, productID)
	if err != nil {
		return nil, fmt.Errorf("get bids for product %s: %w", productID, err)
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bids: %w", err)
	}
	return bids, nil
}

// GetWinningBid returns the highest bid for a product, which is always the latest one
func (r *PostgresRepo) GetWinningBid(ctx context.Context, productID string) (model.Bid, error) {
	if err := r.productExists(ctx, productID); err != nil {
		return model.Bid{}, fmt.Errorf("get winning bid: %w", err)
	}

	bid, err := scanBid(r.db.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE product_id = $1 ORDER BY sequence_number DESC LIMIT 1`, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("get winning bid for product %s: %w", productID, biddingerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("get winning bid for product %s: %w", productID, err)
	}
	return bid, nil
}

// GetProductsByBidder returns all products a bidder has bid on
func (r *PostgresRepo) GetProductsByBidder(ctx context.Context, bidderID string) ([]model.Product, error) {
	return r.queryProducts(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE id IN (SELECT product_id FROM bids WHERE bidder_id = $1)
		ORDER BY created_at, id`, bidderID)
}
