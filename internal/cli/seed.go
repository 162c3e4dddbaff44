package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// SeedResult summarizes what a seed run wrote.
type SeedResult struct {
	Users    int `json:"users"`
	Groups   int `json:"groups"`
	Expenses int `json:"expenses"`
	Payments int `json:"payments"`
}

func (r SeedResult) String() string {
	return fmt.Sprintf("Seeded %d user(s), %d group(s), %d expense(s), %d payment(s)",
		r.Users, r.Groups, r.Expenses, r.Payments)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Write a YAML ledger into the configured store",
		Long: `Write the users, groups, expenses and payments of a YAML ledger into the store
selected by DATA_BACKEND. IDs in the file are kept, so seeding twice conflicts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), rootOpts, args[0], cmd)
		},
	}
}

func runSeed(ctx context.Context, rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	fixture, err := LoadFixture(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	store, err := rootOpts.openStore(ctx, formatter)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := fixture.Apply(ctx, store); err != nil {
		return WrapExitError(ExitFailure, "failed to seed store", err)
	}

	result := SeedResult{Users: len(fixture.Users), Groups: len(fixture.Groups)}
	for _, g := range fixture.Groups {
		result.Expenses += len(g.Expenses)
		result.Payments += len(g.Payments)
	}
	return formatter.Success(result)
}
