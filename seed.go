package main

import (
	"context"
	"errors"
	"fmt"

	account "property-bidding/internal/accountService"
	"property-bidding/internal/auth"
	"property-bidding/internal/biddingerrors"
	catalog "property-bidding/internal/catalogService"
	"property-bidding/internal/config"
	model "property-bidding/internal/models"
	"property-bidding/utils"

	"github.com/shopspring/decimal"
)

var demoProducts = []catalog.NewProduct{
	{
		Name:        "Luxury Apartment in City Center",
		Description: "A beautiful 3-bedroom apartment with stunning city views and modern amenities.",
		BasePrice:   decimal.NewFromInt(250000),
		Image:       "https://images.unsplash.com/photo-1515263487990-61b07816b324?auto=format&fit=crop&w=800&q=80",
	},
	{
		Name:        "Beach House Property",
		Description: "A serene beachfront property with direct access to white sandy beaches.",
		BasePrice:   decimal.NewFromInt(350000),
		Image:       "https://images.unsplash.com/photo-1499793983690-e29da59ef1c2?auto=format&fit=crop&w=800&q=80",
	},
	{
		Name:        "Mountain Cabin Retreat",
		Description: "Cozy wooden cabin surrounded by pine trees with breathtaking mountain views.",
		BasePrice:   decimal.NewFromInt(175000),
		Image:       "https://images.unsplash.com/photo-1449158743715-0a90ebb6d2d8?auto=format&fit=crop&w=800&q=80",
	},
}

// prepopulateProducts registers the demo admin and lists the demo properties.
// It does nothing when the admin already exists, so restarts against a
// persistent store do not duplicate listings.
func prepopulateProducts(ctx context.Context, accounts *account.AccountService, products *catalog.CatalogService, seed config.SeedConfig) error {
	admin, err := accounts.Register(ctx, "Administrator", seed.AdminEmail, seed.AdminPassword, model.RoleAdmin)
	if errors.Is(err, biddingerrors.ErrEmailExists) {
		utils.Info("Demo data already present", map[string]any{"admin_email": seed.AdminEmail})
		return nil
	}
	if err != nil {
		return fmt.Errorf("register demo admin: %w", err)
	}

	caller := auth.Identity{AccountID: admin.AccountID, Role: admin.Role}
	for _, p := range demoProducts {
		if _, err := products.CreateProduct(ctx, caller, p); err != nil {
			return fmt.Errorf("list %q: %w", p.Name, err)
		}
	}

	utils.Info("Demo data seeded", map[string]any{
		"admin_email": seed.AdminEmail,
		"products":    len(demoProducts),
	})
	return nil
}
