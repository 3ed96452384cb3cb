// Package mockapi is a local stand-in for the back-office API. It speaks the
// same wire contract and issues tokens shaped like the identity provider's,
// keeping all state in memory.
package mockapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/twy/backoffice/config"
	"github.com/twy/backoffice/models"
	"github.com/twy/backoffice/rbac"
	"github.com/twy/backoffice/repositories/memory"
	"go.uber.org/zap"
)

// Backend bundles the mock API services
type Backend struct {
	Issuer    *TokenIssuer
	Accounts  *Accounts
	Directory *Directory
}

// New wires an empty in-memory backend
func New(cfg config.MockAPIConfig, logger *zap.Logger) *Backend {
	users := memory.NewUserRepository()
	issuer := NewTokenIssuer(cfg.SigningSecret, TokenTTLs{
		Access:  cfg.AccessTokenTTL,
		ID:      cfg.IDTokenTTL,
		Refresh: cfg.RefreshTokenTTL,
	}, nil)
	accounts := NewAccounts(users, memory.NewCredentialRepository(), issuer, logger.Named("accounts"))
	directory := NewDirectory(users, memory.NewBranchRepository(), memory.NewLoadRepository(), accounts, logger.Named("directory"))

	return &Backend{
		Issuer:    issuer,
		Accounts:  accounts,
		Directory: directory,
	}
}

// SeedEmail is the sign-in address of the seeded user holding role
func SeedEmail(role rbac.Role) string {
	local := strings.ReplaceAll(strings.ToLower(string(role)), " ", ".")
	return local + "@backoffice.test"
}

// Seed creates a head office, one confirmed user per role sharing password,
// and a pending load
func (b *Backend) Seed(ctx context.Context, password string) error {
	head := models.NewUser("Hana", "Ortiz", SeedEmail(rbac.RoleHeadOwner), rbac.RoleHeadOwner, nil)
	if err := b.Accounts.Provision(ctx, head, password, true); err != nil {
		return fmt.Errorf("failed to seed %s: %w", head.Email, err)
	}

	branch, err := b.Directory.CreateBranch(ctx, models.BranchForm{Name: "Head Office", Owner: head.ID})
	if err != nil {
		return fmt.Errorf("failed to seed branch: %w", err)
	}
	ref := &models.BranchRef{ID: branch.ID, Name: branch.Name}

	for _, role := range rbac.Roles {
		if role == rbac.RoleHeadOwner {
			continue
		}
		user := models.NewUser("Seed", role.Label(), SeedEmail(role), role, ref)
		if err := b.Accounts.Provision(ctx, user, password, true); err != nil {
			return fmt.Errorf("failed to seed %s: %w", user.Email, err)
		}
	}

	_, err = b.Directory.CreateLoad(ctx, models.LoadDetails{
		Customer:             "Acme Paper",
		ReferenceNumber:      "REF-1001",
		ContactName:          "Sam Lee",
		CarrierRate:          "1850",
		LoadType:             "FTL",
		ServiceType:          "Dry Van",
		ServiceGivenAs:       "Broker",
		Commodity:            "Paper rolls",
		BookedAs:             "Full",
		SoldAs:               "Full",
		Weight:               "42000",
		PickupSelectCarrier:  "Own",
		PickupName:           "Acme Mill",
		PickupAddress:        "1 Mill Rd, Dayton OH",
		DropoffSelectCarrier: "Own",
		DropoffName:          "Acme Depot",
		DropoffAddress:       "9 Main St, Columbus OH",
	})
	if err != nil {
		return fmt.Errorf("failed to seed load: %w", err)
	}
	return nil
}
