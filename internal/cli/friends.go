package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/balance"
)

// NewFriendsCommand creates the friends command.
func NewFriendsCommand(rootOpts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Show balances with each friend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFriends(cmd.Context(), rootOpts, userID, cmd)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "viewpoint user ID (required)")

	return cmd
}

func runFriends(ctx context.Context, rootOpts *RootOptions, userID string, cmd *cobra.Command) error {
	if err := requireFlag("user", userID); err != nil {
		return err
	}

	formatter := rootOpts.formatter(cmd)
	store, err := rootOpts.openStore(ctx, formatter)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := balance.NewService(store, balance.WithFanout(rootOpts.config().FanoutLimit))
	friends, err := svc.FriendBalances(ctx, userID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compute friend balances", err)
	}
	return formatter.Success((*friendsView)(friends))
}
