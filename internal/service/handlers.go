package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/balance"
)

const (
	// BalanceServiceName is the fully-qualified name of the balance service.
	BalanceServiceName = "splitledger.v1.BalanceService"
	// LedgerServiceName is the fully-qualified name of the ledger service.
	LedgerServiceName = "splitledger.v1.LedgerService"
)

// Procedure paths, in the "/<service>/<method>" form Connect routes on.
const (
	GetMyBalancesProcedure            = "/" + BalanceServiceName + "/GetMyBalances"
	GetGroupBalanceProcedure          = "/" + BalanceServiceName + "/GetGroupBalance"
	GetSettlementSuggestionsProcedure = "/" + BalanceServiceName + "/GetSettlementSuggestions"
	SimplifyGroupDebtsProcedure       = "/" + BalanceServiceName + "/SimplifyGroupDebts"
	GetFriendBalancesProcedure        = "/" + BalanceServiceName + "/GetFriendBalances"
	GetGroupAnalyticsProcedure        = "/" + BalanceServiceName + "/GetGroupAnalytics"
	GetFriendsAnalyticsProcedure      = "/" + BalanceServiceName + "/GetFriendsAnalytics"

	CreateGroupProcedure         = "/" + LedgerServiceName + "/CreateGroup"
	AddMemberProcedure           = "/" + LedgerServiceName + "/AddMember"
	CreateExpenseProcedure       = "/" + LedgerServiceName + "/CreateExpense"
	DeleteExpenseProcedure       = "/" + LedgerServiceName + "/DeleteExpense"
	RecordPaymentProcedure       = "/" + LedgerServiceName + "/RecordPayment"
	UpdatePaymentStatusProcedure = "/" + LedgerServiceName + "/UpdatePaymentStatus"
)

// handlerOptions puts the JSON codec ahead of caller-supplied options.
func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
}

// NewBalanceServiceHandler builds an HTTP handler serving every BalanceService procedure.
// It returns the path prefix to mount the handler on.
func NewBalanceServiceHandler(svc *BalanceService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(GetMyBalancesProcedure, connect.NewUnaryHandler(GetMyBalancesProcedure, svc.GetMyBalances, opts...))
	mux.Handle(GetGroupBalanceProcedure, connect.NewUnaryHandler(GetGroupBalanceProcedure, svc.GetGroupBalance, opts...))
	mux.Handle(GetSettlementSuggestionsProcedure, connect.NewUnaryHandler(GetSettlementSuggestionsProcedure, svc.GetSettlementSuggestions, opts...))
	mux.Handle(SimplifyGroupDebtsProcedure, connect.NewUnaryHandler(SimplifyGroupDebtsProcedure, svc.SimplifyGroupDebts, opts...))
	mux.Handle(GetFriendBalancesProcedure, connect.NewUnaryHandler(GetFriendBalancesProcedure, svc.GetFriendBalances, opts...))
	mux.Handle(GetGroupAnalyticsProcedure, connect.NewUnaryHandler(GetGroupAnalyticsProcedure, svc.GetGroupAnalytics, opts...))
	mux.Handle(GetFriendsAnalyticsProcedure, connect.NewUnaryHandler(GetFriendsAnalyticsProcedure, svc.GetFriendsAnalytics, opts...))
	return "/" + BalanceServiceName + "/", mux
}

// NewLedgerServiceHandler builds an HTTP handler serving every LedgerService procedure.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(CreateGroupProcedure, connect.NewUnaryHandler(CreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(AddMemberProcedure, connect.NewUnaryHandler(AddMemberProcedure, svc.AddMember, opts...))
	mux.Handle(CreateExpenseProcedure, connect.NewUnaryHandler(CreateExpenseProcedure, svc.CreateExpense, opts...))
	mux.Handle(DeleteExpenseProcedure, connect.NewUnaryHandler(DeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(RecordPaymentProcedure, connect.NewUnaryHandler(RecordPaymentProcedure, svc.RecordPayment, opts...))
	mux.Handle(UpdatePaymentStatusProcedure, connect.NewUnaryHandler(UpdatePaymentStatusProcedure, svc.UpdatePaymentStatus, opts...))
	return "/" + LedgerServiceName + "/", mux
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
}

// BalanceServiceClient calls a remote BalanceService.
type BalanceServiceClient struct {
	getMyBalances            *connect.Client[GetMyBalancesRequest, balance.Overview]
	getGroupBalance          *connect.Client[GetGroupBalanceRequest, balance.GroupSummary]
	getSettlementSuggestions *connect.Client[GetSettlementSuggestionsRequest, balance.SettlementPlan]
	simplifyGroupDebts       *connect.Client[SimplifyGroupDebtsRequest, balance.Simplification]
	getFriendBalances        *connect.Client[GetFriendBalancesRequest, balance.Friends]
	getGroupAnalytics        *connect.Client[GetGroupAnalyticsRequest, balance.GroupAnalytics]
	getFriendsAnalytics      *connect.Client[GetFriendsAnalyticsRequest, balance.FriendsAnalytics]
}

// NewBalanceServiceClient creates a client for the BalanceService at baseURL.
func NewBalanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BalanceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &BalanceServiceClient{
		getMyBalances:            connect.NewClient[GetMyBalancesRequest, balance.Overview](httpClient, baseURL+GetMyBalancesProcedure, opts...),
		getGroupBalance:          connect.NewClient[GetGroupBalanceRequest, balance.GroupSummary](httpClient, baseURL+GetGroupBalanceProcedure, opts...),
		getSettlementSuggestions: connect.NewClient[GetSettlementSuggestionsRequest, balance.SettlementPlan](httpClient, baseURL+GetSettlementSuggestionsProcedure, opts...),
		simplifyGroupDebts:       connect.NewClient[SimplifyGroupDebtsRequest, balance.Simplification](httpClient, baseURL+SimplifyGroupDebtsProcedure, opts...),
		getFriendBalances:        connect.NewClient[GetFriendBalancesRequest, balance.Friends](httpClient, baseURL+GetFriendBalancesProcedure, opts...),
		getGroupAnalytics:        connect.NewClient[GetGroupAnalyticsRequest, balance.GroupAnalytics](httpClient, baseURL+GetGroupAnalyticsProcedure, opts...),
		getFriendsAnalytics:      connect.NewClient[GetFriendsAnalyticsRequest, balance.FriendsAnalytics](httpClient, baseURL+GetFriendsAnalyticsProcedure, opts...),
	}
}

func (c *BalanceServiceClient) GetMyBalances(ctx context.Context, req *connect.Request[GetMyBalancesRequest]) (*connect.Response[balance.Overview], error) {
	return c.getMyBalances.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetGroupBalance(ctx context.Context, req *connect.Request[GetGroupBalanceRequest]) (*connect.Response[balance.GroupSummary], error) {
	return c.getGroupBalance.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetSettlementSuggestions(ctx context.Context, req *connect.Request[GetSettlementSuggestionsRequest]) (*connect.Response[balance.SettlementPlan], error) {
	return c.getSettlementSuggestions.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) SimplifyGroupDebts(ctx context.Context, req *connect.Request[SimplifyGroupDebtsRequest]) (*connect.Response[balance.Simplification], error) {
	return c.simplifyGroupDebts.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetFriendBalances(ctx context.Context, req *connect.Request[GetFriendBalancesRequest]) (*connect.Response[balance.Friends], error) {
	return c.getFriendBalances.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetGroupAnalytics(ctx context.Context, req *connect.Request[GetGroupAnalyticsRequest]) (*connect.Response[balance.GroupAnalytics], error) {
	return c.getGroupAnalytics.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetFriendsAnalytics(ctx context.Context, req *connect.Request[GetFriendsAnalyticsRequest]) (*connect.Response[balance.FriendsAnalytics], error) {
	return c.getFriendsAnalytics.CallUnary(ctx, req)
}

// LedgerServiceClient calls a remote LedgerService.
type LedgerServiceClient struct {
	createGroup         *connect.Client[CreateGroupRequest, CreateGroupResponse]
	addMember           *connect.Client[AddMemberRequest, AddMemberResponse]
	createExpense       *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	deleteExpense       *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	recordPayment       *connect.Client[RecordPaymentRequest, RecordPaymentResponse]
	updatePaymentStatus *connect.Client[UpdatePaymentStatusRequest, UpdatePaymentStatusResponse]
}

// NewLedgerServiceClient creates a client for the LedgerService at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &LedgerServiceClient{
		createGroup:         connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+CreateGroupProcedure, opts...),
		addMember:           connect.NewClient[AddMemberRequest, AddMemberResponse](httpClient, baseURL+AddMemberProcedure, opts...),
		createExpense:       connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+CreateExpenseProcedure, opts...),
		deleteExpense:       connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+DeleteExpenseProcedure, opts...),
		recordPayment:       connect.NewClient[RecordPaymentRequest, RecordPaymentResponse](httpClient, baseURL+RecordPaymentProcedure, opts...),
		updatePaymentStatus: connect.NewClient[UpdatePaymentStatusRequest, UpdatePaymentStatusResponse](httpClient, baseURL+UpdatePaymentStatusProcedure, opts...),
	}
}

func (c *LedgerServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RecordPayment(ctx context.Context, req *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) UpdatePaymentStatus(ctx context.Context, req *connect.Request[UpdatePaymentStatusRequest]) (*connect.Response[UpdatePaymentStatusResponse], error) {
	return c.updatePaymentStatus.CallUnary(ctx, req)
}
