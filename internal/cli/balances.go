package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/balance"
	"github.com/mmynk/splitledger/internal/storage"
)

const dateLayout = "2006-01-02"

// BalancesOptions holds flags for the balances command.
type BalancesOptions struct {
	UserID  string
	GroupID string
	From    string
	To      string
}

// NewBalancesCommand creates the balances command.
func NewBalancesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BalancesOptions{}

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show a user's balances",
		Long: `Show who owes the user and whom the user owes.

Without --group, every active group of the user is listed along with grand totals.
With --group, only that group is shown and --from/--to may restrict the expenses
that are counted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalances(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.UserID, "user", "u", "", "viewpoint user ID (required)")
	cmd.Flags().StringVarP(&opts.GroupID, "group", "g", "", "restrict to one group")
	cmd.Flags().StringVar(&opts.From, "from", "", "first expense date, YYYY-MM-DD (with --group)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last expense date, YYYY-MM-DD (with --group)")

	return cmd
}

func runBalances(ctx context.Context, rootOpts *RootOptions, opts *BalancesOptions, cmd *cobra.Command) error {
	if err := requireFlag("user", opts.UserID); err != nil {
		return err
	}
	if opts.GroupID == "" && (opts.From != "" || opts.To != "") {
		return NewExitError(ExitCommandError, "--from and --to require --group")
	}
	dates, err := parseDateRange(opts.From, opts.To)
	if err != nil {
		return err
	}

	formatter := rootOpts.formatter(cmd)
	store, err := rootOpts.openStore(ctx, formatter)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := balance.NewService(store, balance.WithFanout(rootOpts.config().FanoutLimit))

	if opts.GroupID != "" {
		summary, err := svc.GroupBalance(ctx, opts.UserID, opts.GroupID, dates)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to compute group balance", err)
		}
		return formatter.Success((*groupView)(summary))
	}

	overview, err := svc.Overview(ctx, opts.UserID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compute balances", err)
	}
	formatter.VerboseLog("Computed balances across %d group(s)", len(overview.Groups))
	return formatter.Success((*overviewView)(overview))
}

func parseDateRange(from, to string) (storage.DateRange, error) {
	var dates storage.DateRange
	var err error
	if from != "" {
		if dates.From, err = time.Parse(dateLayout, from); err != nil {
			return dates, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --from %q", from), err)
		}
	}
	if to != "" {
		if dates.To, err = time.Parse(dateLayout, to); err != nil {
			return dates, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --to %q", to), err)
		}
	}
	if !dates.From.IsZero() && !dates.To.IsZero() && dates.To.Before(dates.From) {
		return dates, NewExitError(ExitCommandError, "--to is before --from")
	}
	return dates, nil
}
