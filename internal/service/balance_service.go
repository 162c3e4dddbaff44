package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/balance"
	"github.com/mmynk/splitledger/internal/middleware"
)

// BalanceService serves read-only balance views for the authenticated user.
type BalanceService struct {
	balances *balance.Service
}

// NewBalanceService creates a BalanceService backed by the given balance assembler.
func NewBalanceService(balances *balance.Service) *BalanceService {
	return &BalanceService{balances: balances}
}

// viewer returns the authenticated user or an Unauthenticated error.
func viewer(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return userID, nil
}

// GetMyBalances returns the caller's balances across all of their groups.
func (s *BalanceService) GetMyBalances(ctx context.Context, req *connect.Request[GetMyBalancesRequest]) (*connect.Response[balance.Overview], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetMyBalances request received", "user_id", userID)

	overview, err := s.balances.Overview(ctx, userID)
	if err != nil {
		slog.Error("GetMyBalances failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetMyBalances successful",
		"user_id", userID,
		"groups", len(overview.Groups),
		"total_balance", overview.TotalBalance.String(),
	)
	return connect.NewResponse(overview), nil
}

// GetGroupBalance returns the caller's pairwise balances inside one group.
func (s *BalanceService) GetGroupBalance(ctx context.Context, req *connect.Request[GetGroupBalanceRequest]) (*connect.Response[balance.GroupSummary], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroupBalance request received", "user_id", userID, "group_id", req.Msg.GroupID)

	dates, err := parseRange(req.Msg.From, req.Msg.To)
	if err != nil {
		return nil, invalidArgument(err)
	}

	summary, err := s.balances.GroupBalance(ctx, userID, req.Msg.GroupID, dates)
	if err != nil {
		slog.Error("GetGroupBalance failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(summary), nil
}

// GetSettlementSuggestions returns the simplified payments that settle a group.
func (s *BalanceService) GetSettlementSuggestions(ctx context.Context, req *connect.Request[GetSettlementSuggestionsRequest]) (*connect.Response[balance.SettlementPlan], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetSettlementSuggestions request received", "user_id", userID, "group_id", req.Msg.GroupID)

	plan, err := s.balances.SettlementPlan(ctx, userID, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetSettlementSuggestions failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetSettlementSuggestions successful",
		"group_id", req.Msg.GroupID,
		"suggestions", plan.SimplifiedTransactionCount,
		"saved", plan.TransactionsSaved,
	)
	return connect.NewResponse(plan), nil
}

// SimplifyGroupDebts returns the group's net positions next to the simplified payments.
func (s *BalanceService) SimplifyGroupDebts(ctx context.Context, req *connect.Request[SimplifyGroupDebtsRequest]) (*connect.Response[balance.Simplification], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("SimplifyGroupDebts request received", "user_id", userID, "group_id", req.Msg.GroupID)

	result, err := s.balances.Simplification(ctx, userID, req.Msg.GroupID)
	if err != nil {
		slog.Error("SimplifyGroupDebts failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(result), nil
}

// GetFriendBalances returns the caller's balance with each friend.
func (s *BalanceService) GetFriendBalances(ctx context.Context, req *connect.Request[GetFriendBalancesRequest]) (*connect.Response[balance.Friends], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetFriendBalances request received", "user_id", userID)

	friends, err := s.balances.FriendBalances(ctx, userID)
	if err != nil {
		slog.Error("GetFriendBalances failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(friends), nil
}

// GetGroupAnalytics returns the group's spending report over a trailing period.
func (s *BalanceService) GetGroupAnalytics(ctx context.Context, req *connect.Request[GetGroupAnalyticsRequest]) (*connect.Response[balance.GroupAnalytics], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroupAnalytics request received", "user_id", userID, "group_id", req.Msg.GroupID, "period", req.Msg.Period)

	period, err := balance.ParsePeriod(req.Msg.Period)
	if err != nil {
		return nil, invalidArgument(err)
	}

	report, err := s.balances.GroupAnalytics(ctx, userID, req.Msg.GroupID, period)
	if err != nil {
		slog.Error("GetGroupAnalytics failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetGroupAnalytics successful",
		"group_id", req.Msg.GroupID,
		"expenses", report.ExpenseCount,
		"total_spending", report.TotalSpending.String(),
	)
	return connect.NewResponse(report), nil
}

// GetFriendsAnalytics returns the caller's spending report across their friend groups.
func (s *BalanceService) GetFriendsAnalytics(ctx context.Context, req *connect.Request[GetFriendsAnalyticsRequest]) (*connect.Response[balance.FriendsAnalytics], error) {
	userID, err := viewer(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetFriendsAnalytics request received", "user_id", userID, "period", req.Msg.Period)

	period, err := balance.ParsePeriod(req.Msg.Period)
	if err != nil {
		return nil, invalidArgument(err)
	}

	report, err := s.balances.FriendsAnalytics(ctx, userID, period)
	if err != nil {
		slog.Error("GetFriendsAnalytics failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(report), nil
}
