package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
)

func TestBalanceViews(t *testing.T) {
	env := setupTestServer(t)
	x := env.user(t, "x")
	y := env.user(t, "y")
	z := env.user(t, "z")
	outsider := env.user(t, "outsider")
	groupID := env.group(t, x, y, z)
	env.equalExpense(t, groupID, x, "90", x, y, z)
	ctx := context.Background()

	t.Run("GetGroupBalance", func(t *testing.T) {
		resp, err := env.balances.GetGroupBalance(ctx, as(t, env, x, &GetGroupBalanceRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("GetGroupBalance failed: %v", err)
		}
		if len(resp.Msg.Balances) != 2 {
			t.Fatalf("expected 2 balances, got %d", len(resp.Msg.Balances))
		}
		for _, b := range resp.Msg.Balances {
			expectAmount(t, b.UserID, b.Balance, "30")
		}
		expectAmount(t, "you are owed", resp.Msg.YouAreOwed, "60")
		expectAmount(t, "total", resp.Msg.TotalBalance, "60")
		if resp.Msg.Balances[0].UserEmail != "y@example.com" {
			t.Errorf("expected display metadata, got %+v", resp.Msg.Balances[0])
		}
	})

	t.Run("GetGroupBalance date range", func(t *testing.T) {
		resp, err := env.balances.GetGroupBalance(ctx, as(t, env, x, &GetGroupBalanceRequest{GroupID: groupID, From: "2024-07-01"}))
		if err != nil {
			t.Fatalf("GetGroupBalance failed: %v", err)
		}
		if len(resp.Msg.Balances) != 0 {
			t.Errorf("expected no balances after the range start, got %d", len(resp.Msg.Balances))
		}

		_, err = env.balances.GetGroupBalance(ctx, as(t, env, x, &GetGroupBalanceRequest{GroupID: groupID, From: "2024-07-01", To: "2024-01-01"}))
		expectCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("GetGroupBalance not a member", func(t *testing.T) {
		_, err := env.balances.GetGroupBalance(ctx, as(t, env, outsider, &GetGroupBalanceRequest{GroupID: groupID}))
		expectCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("GetMyBalances", func(t *testing.T) {
		resp, err := env.balances.GetMyBalances(ctx, as(t, env, y, &GetMyBalancesRequest{}))
		if err != nil {
			t.Fatalf("GetMyBalances failed: %v", err)
		}
		if len(resp.Msg.Groups) != 1 {
			t.Fatalf("expected 1 group, got %d", len(resp.Msg.Groups))
		}
		expectAmount(t, "you owe", resp.Msg.YouOwe, "30")
		expectAmount(t, "total", resp.Msg.TotalBalance, "-30")

		empty, err := env.balances.GetMyBalances(ctx, as(t, env, outsider, &GetMyBalancesRequest{}))
		if err != nil {
			t.Fatalf("GetMyBalances failed: %v", err)
		}
		if len(empty.Msg.Groups) != 0 || !empty.Msg.TotalBalance.IsZero() {
			t.Errorf("expected empty overview, got %+v", empty.Msg)
		}
	})

	t.Run("GetSettlementSuggestions", func(t *testing.T) {
		resp, err := env.balances.GetSettlementSuggestions(ctx, as(t, env, z, &GetSettlementSuggestionsRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("GetSettlementSuggestions failed: %v", err)
		}
		plan := resp.Msg
		if plan.SimplifiedTransactionCount != 2 || len(plan.Suggestions) != 2 {
			t.Fatalf("expected 2 suggestions, got %+v", plan)
		}
		if plan.OriginalTransactionCount != 3 || plan.TransactionsSaved != 1 {
			t.Errorf("expected 3 original and 1 saved, got %d and %d", plan.OriginalTransactionCount, plan.TransactionsSaved)
		}
		first := plan.Suggestions[0]
		if first.FromUserID != y || first.ToUserID != x || first.FromUserName != "y" {
			t.Errorf("unexpected first suggestion: %+v", first)
		}
		expectAmount(t, "first suggestion", first.Amount, "30")
	})

	t.Run("SimplifyGroupDebts", func(t *testing.T) {
		resp, err := env.balances.SimplifyGroupDebts(ctx, as(t, env, x, &SimplifyGroupDebtsRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("SimplifyGroupDebts failed: %v", err)
		}
		if len(resp.Msg.OriginalDebts) != 3 {
			t.Errorf("expected 3 original debts, got %d", len(resp.Msg.OriginalDebts))
		}
		expectAmount(t, "largest creditor", resp.Msg.OriginalDebts[0].Balance, "60")
		if len(resp.Msg.SimplifiedDebts) != 2 {
			t.Errorf("expected 2 simplified debts, got %d", len(resp.Msg.SimplifiedDebts))
		}
	})

	t.Run("SimplifyGroupDebts unknown group", func(t *testing.T) {
		_, err := env.balances.SimplifyGroupDebts(ctx, as(t, env, x, &SimplifyGroupDebtsRequest{GroupID: "missing"}))
		expectCode(t, err, connect.CodeNotFound)
	})
}

func TestGetFriendBalances(t *testing.T) {
	env := setupTestServer(t)
	me := env.user(t, "me")
	bob := env.user(t, "bob")
	cat := env.user(t, "cat")
	ctx := context.Background()

	friendGroup := func(other string) string {
		resp, err := env.ledger.CreateGroup(ctx, as(t, env, me, &CreateGroupRequest{
			Name:          me + " & " + other,
			MemberIDs:     []string{other},
			IsFriendGroup: true,
		}))
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		return resp.Msg.Group.ID
	}
	withBob := friendGroup(bob)
	friendGroup(cat)
	env.equalExpense(t, withBob, bob, "20", me, bob)

	resp, err := env.balances.GetFriendBalances(ctx, as(t, env, me, &GetFriendBalancesRequest{}))
	if err != nil {
		t.Fatalf("GetFriendBalances failed: %v", err)
	}
	if len(resp.Msg.Friends) != 2 {
		t.Fatalf("expected 2 friends, got %d", len(resp.Msg.Friends))
	}
	if resp.Msg.Friends[0].UserID != bob {
		t.Fatalf("expected bob first, got %s", resp.Msg.Friends[0].UserID)
	}
	expectAmount(t, "bob", resp.Msg.Friends[0].Balance, "-10")
	expectAmount(t, "cat", resp.Msg.Friends[1].Balance, "0")
	expectAmount(t, "you owe", resp.Msg.YouOwe, "10")

	_, err = env.ledger.AddMember(ctx, as(t, env, me, &AddMemberRequest{GroupID: withBob, UserID: cat}))
	expectCode(t, err, connect.CodeFailedPrecondition)
}

func TestAnalyticsViews(t *testing.T) {
	env := setupTestServer(t)
	x := env.user(t, "x")
	y := env.user(t, "y")
	outsider := env.user(t, "outsider")
	ctx := context.Background()

	friends, err := env.ledger.CreateGroup(ctx, as(t, env, x, &CreateGroupRequest{
		Name:          "x & y",
		MemberIDs:     []string{y},
		IsFriendGroup: true,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := friends.Msg.Group.ID

	for _, e := range []struct{ amount, category string }{{"40", "food"}, {"20", ""}} {
		_, err := env.ledger.CreateExpense(ctx, as(t, env, x, &CreateExpenseRequest{
			GroupID:   groupID,
			Amount:    e.amount,
			Category:  e.category,
			SplitType: "equal",
			Splits:    []SplitInput{{UserID: x}, {UserID: y}},
		}))
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
	}

	t.Run("GetGroupAnalytics", func(t *testing.T) {
		resp, err := env.balances.GetGroupAnalytics(ctx, as(t, env, y, &GetGroupAnalyticsRequest{GroupID: groupID, Period: "7d"}))
		if err != nil {
			t.Fatalf("GetGroupAnalytics failed: %v", err)
		}
		expectAmount(t, "total", resp.Msg.TotalSpending, "60")
		expectAmount(t, "average", resp.Msg.AverageExpense, "30")
		if resp.Msg.TopCategory != "food" {
			t.Errorf("expected top category food, got %q", resp.Msg.TopCategory)
		}
		if len(resp.Msg.MemberContributions) != 2 {
			t.Fatalf("expected 2 contributions, got %d", len(resp.Msg.MemberContributions))
		}
		expectAmount(t, "x net", resp.Msg.MemberContributions[0].NetContribution, "30")
	})

	t.Run("GetGroupAnalytics errors", func(t *testing.T) {
		_, err := env.balances.GetGroupAnalytics(ctx, as(t, env, x, &GetGroupAnalyticsRequest{GroupID: groupID, Period: "2w"}))
		expectCode(t, err, connect.CodeInvalidArgument)

		_, err = env.balances.GetGroupAnalytics(ctx, as(t, env, outsider, &GetGroupAnalyticsRequest{GroupID: groupID}))
		expectCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("GetFriendsAnalytics", func(t *testing.T) {
		resp, err := env.balances.GetFriendsAnalytics(ctx, as(t, env, x, &GetFriendsAnalyticsRequest{}))
		if err != nil {
			t.Fatalf("GetFriendsAnalytics failed: %v", err)
		}
		if len(resp.Msg.FriendBreakdown) != 1 || resp.Msg.FriendBreakdown[0].FriendID != y {
			t.Fatalf("expected spending with y, got %+v", resp.Msg.FriendBreakdown)
		}
		expectAmount(t, "with y", resp.Msg.FriendBreakdown[0].TotalSpent, "60")
	})
}
