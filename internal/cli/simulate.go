package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/currency"

	"github.com/mmynk/splitledger/internal/balance"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

// Simulation is the result of replaying a fixture offline.
type Simulation struct {
	Currency string                    `json:"currency"`
	Plans    []*balance.SettlementPlan `json:"plans"`

	// Overview is set when a viewpoint user was requested.
	Overview   *balance.Overview `json:"overview,omitempty"`
	viewerName string
}

func (s *Simulation) renderText(w io.Writer, unit currency.Unit) {
	for i, plan := range s.Plans {
		if i > 0 {
			fmt.Fprintln(w)
		}
		(*planView)(plan).renderText(w, unit)
	}
	if s.Overview != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Balances for %s\n", s.viewerName)
		(*overviewView)(s.Overview).renderText(w, unit)
	}
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "simulate <fixture.yaml>",
		Short: "Compute settlement plans for a YAML ledger without a database",
		Long: `Load a YAML ledger into an in-memory store and print the settlement plan for
every group, in file order. With --user, also print that user's balances.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), rootOpts, args[0], userID, cmd)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "also show balances from this user's viewpoint")

	return cmd
}

func runSimulate(ctx context.Context, rootOpts *RootOptions, path, userID string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	fixture, err := LoadFixture(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}
	if fixture.Currency != "" {
		unit, err := currency.ParseISO(fixture.Currency)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid fixture currency", err)
		}
		formatter.Currency = unit
	}
	formatter.VerboseLog("Loaded %d user(s) and %d group(s) from %s", len(fixture.Users), len(fixture.Groups), path)

	store := memory.New()
	defer store.Close()
	if err := fixture.Apply(ctx, store); err != nil {
		return WrapExitError(ExitCommandError, "failed to apply fixture", err)
	}

	svc := balance.NewService(store)
	result := &Simulation{Currency: formatter.Currency.String()}
	for _, g := range fixture.Groups {
		plan, err := svc.SettlementPlan(ctx, g.Members[0], g.ID)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to compute settlement plan", err)
		}
		result.Plans = append(result.Plans, plan)
	}

	if userID != "" {
		users, err := store.GetUsersByIDs(ctx, []string{userID})
		if err != nil {
			return WrapExitError(ExitFailure, "failed to look up user", err)
		}
		u, ok := users[userID]
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown user %q", userID))
		}
		result.viewerName = u.Name
		if result.Overview, err = svc.Overview(ctx, userID); err != nil {
			return WrapExitError(ExitFailure, "failed to compute balances", err)
		}
	}

	return formatter.Success(result)
}
