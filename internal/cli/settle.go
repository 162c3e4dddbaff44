package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/balance"
)

// SettleOptions holds flags for the settle command.
type SettleOptions struct {
	UserID  string
	GroupID string
	Detail  bool
}

// NewSettleCommand creates the settle command.
func NewSettleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SettleOptions{}

	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Suggest the payments that settle a group",
		Long: `Collapse a group's ledger into one net position per member and print the
payments that settle it. --detail also prints the net positions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettle(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.UserID, "user", "u", "", "requesting member ID (required)")
	cmd.Flags().StringVarP(&opts.GroupID, "group", "g", "", "group ID (required)")
	cmd.Flags().BoolVar(&opts.Detail, "detail", false, "show net positions next to the payments")

	return cmd
}

func runSettle(ctx context.Context, rootOpts *RootOptions, opts *SettleOptions, cmd *cobra.Command) error {
	if err := requireFlag("user", opts.UserID); err != nil {
		return err
	}
	if err := requireFlag("group", opts.GroupID); err != nil {
		return err
	}

	formatter := rootOpts.formatter(cmd)
	store, err := rootOpts.openStore(ctx, formatter)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := balance.NewService(store)

	if opts.Detail {
		result, err := svc.Simplification(ctx, opts.UserID, opts.GroupID)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to simplify group debts", err)
		}
		return formatter.Success((*simplificationView)(result))
	}

	plan, err := svc.SettlementPlan(ctx, opts.UserID, opts.GroupID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compute settlement plan", err)
	}
	formatter.VerboseLog("%d suggestion(s), %d transaction(s) saved", plan.SimplifiedTransactionCount, plan.TransactionsSaved)
	return formatter.Success((*planView)(plan))
}
