package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cartify-api/internal/application/account"
	"github.com/cartify-api/internal/domain"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// defaultSeedAccounts are the development accounts created by `seed`.
var defaultSeedAccounts = []account.ProvisionRequest{
	{Email: "admin@example.com", Password: "adminpassword123", Role: domain.RoleAdmin, FirstName: "Admin", LastName: "User", Verified: true},
	{Email: "customer@example.com", Password: "customerpassword123", Role: domain.RoleCustomer, FirstName: "John", LastName: "Doe", Verified: true},
	{Email: "customer2@example.com", Password: "customerpassword123", Role: domain.RoleCustomer, FirstName: "Jane", LastName: "Smith"},
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create development accounts",
		Long: `Creates an admin and two customer accounts. Running it again resets
their passwords instead of creating duplicates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for store operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, sc *seedConfig) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), sc.timeout)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	accounts, err := newAccountRepo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	svc := account.NewService(account.ServiceDeps{
		Store:     accounts,
		Passwords: newHasher(),
		Logger:    logger,
	})
	return seedAccounts(ctx, svc, defaultSeedAccounts, cmd.OutOrStdout())
}

func seedAccounts(ctx context.Context, svc account.Service, reqs []account.ProvisionRequest, out io.Writer) error {
	for _, req := range reqs {
		a, created, err := svc.Provision(ctx, req)
		if err != nil {
			return oops.Code("SEED_FAILED").With("email", req.Email).Wrap(err)
		}
		verb := "updated"
		if created {
			verb = "created"
		}
		_, _ = fmt.Fprintf(out, "%s %s (%s, id=%s)\n", verb, a.Email, a.Role, a.AccountID)
	}
	return nil
}
