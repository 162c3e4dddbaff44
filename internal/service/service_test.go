package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/balance"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// eventRecorder captures notifications so tests can assert who was told about what.
type eventRecorder struct {
	mu     sync.Mutex
	events map[string][]notify.Kind
}

func (r *eventRecorder) NotifyBalanceChanged(_ context.Context, userID string, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = map[string][]notify.Kind{}
	}
	r.events[userID] = append(r.events[userID], ev.Kind)
	return nil
}

func (r *eventRecorder) kinds(userID string) []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[userID]
}

type testEnv struct {
	ledger   *LedgerServiceClient
	balances *BalanceServiceClient
	store    *sqlite.SQLiteStore
	jwt      *auth.JWTManager
	events   *eventRecorder
}

// setupTestServer serves both services over httptest, backed by a temp SQLite database,
// with the same auth and logging interceptors the server uses.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	events := &eventRecorder{}
	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)

	balancePath, balanceHandler := NewBalanceServiceHandler(NewBalanceService(balance.NewService(store)), interceptors)
	ledgerPath, ledgerHandler := NewLedgerServiceHandler(NewLedgerService(store, events), interceptors)

	mux := http.NewServeMux()
	mux.Handle(balancePath, balanceHandler)
	mux.Handle(ledgerPath, ledgerHandler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		ledger:   NewLedgerServiceClient(http.DefaultClient, server.URL),
		balances: NewBalanceServiceClient(http.DefaultClient, server.URL),
		store:    store,
		jwt:      jwtManager,
		events:   events,
	}
}

// user creates a user directly in the store and returns its ID.
func (e *testEnv) user(t *testing.T, id string) string {
	t.Helper()
	u := &models.User{ID: id, Name: id, Email: id + "@example.com"}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u.ID
}

// as builds a request authenticated as userID.
func as[T any](t *testing.T, e *testEnv, userID string, msg *T) *connect.Request[T] {
	t.Helper()
	token, err := e.jwt.Generate(userID, "")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

// group creates a group owned by members[0] through the API.
func (e *testEnv) group(t *testing.T, members ...string) string {
	t.Helper()
	resp, err := e.ledger.CreateGroup(context.Background(), as(t, e, members[0], &CreateGroupRequest{
		Name:      "Test group",
		MemberIDs: members[1:],
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group.ID
}

// equalExpense records an equal split paid by payer.
func (e *testEnv) equalExpense(t *testing.T, groupID, payer, amount string, participants ...string) string {
	t.Helper()
	splits := make([]SplitInput, len(participants))
	for i, p := range participants {
		splits[i] = SplitInput{UserID: p}
	}
	resp, err := e.ledger.CreateExpense(context.Background(), as(t, e, payer, &CreateExpenseRequest{
		GroupID:     groupID,
		Description: "Dinner",
		Amount:      amount,
		SplitType:   string(models.SplitEqual),
		Date:        "2024-06-01",
		Splits:      splits,
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense.ID
}

func expectCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	if got := connect.CodeOf(err); got != code {
		t.Fatalf("expected code %v, got %v (%v)", code, got, err)
	}
}

func expectAmount(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", name, want, got)
	}
}
