package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/balance"
)

// AnalyticsOptions holds flags for the analytics command.
type AnalyticsOptions struct {
	UserID  string
	GroupID string
	Period  string
	AsOf    string
}

// NewAnalyticsCommand creates the analytics command.
func NewAnalyticsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyticsOptions{}

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show spending by category, day and member",
		Long: `Show spending over a trailing period (7d, 30d, 3m or 1y).

With --group, reports one group including what each member paid and consumed.
Without it, reports spending across the user's friend groups.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalytics(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.UserID, "user", "u", "", "viewpoint user ID (required)")
	cmd.Flags().StringVarP(&opts.GroupID, "group", "g", "", "group ID (friend groups when empty)")
	cmd.Flags().StringVarP(&opts.Period, "period", "p", string(balance.PeriodMonth), "trailing period: 7d, 30d, 3m or 1y")
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "last day of the period, YYYY-MM-DD (default today)")

	return cmd
}

func runAnalytics(ctx context.Context, rootOpts *RootOptions, opts *AnalyticsOptions, cmd *cobra.Command) error {
	if err := requireFlag("user", opts.UserID); err != nil {
		return err
	}
	period, err := balance.ParsePeriod(opts.Period)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid --period %q", opts.Period), err)
	}
	svcOpts := []balance.Option{balance.WithFanout(rootOpts.config().FanoutLimit)}
	if opts.AsOf != "" {
		asOf, err := time.Parse(dateLayout, opts.AsOf)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid --as-of %q", opts.AsOf), err)
		}
		svcOpts = append(svcOpts, balance.WithClock(func() time.Time { return asOf }))
	}

	formatter := rootOpts.formatter(cmd)
	store, err := rootOpts.openStore(ctx, formatter)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := balance.NewService(store, svcOpts...)
	if opts.GroupID == "" {
		report, err := svc.FriendsAnalytics(ctx, opts.UserID, period)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to compute friends analytics", err)
		}
		return formatter.Success((*friendsAnalyticsView)(report))
	}

	formatter.VerboseLog("Computing %s analytics for group %s", period, opts.GroupID)
	report, err := svc.GroupAnalytics(ctx, opts.UserID, opts.GroupID, period)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compute group analytics", err)
	}
	return formatter.Success((*groupAnalyticsView)(report))
}
