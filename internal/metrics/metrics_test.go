package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRPC("/splitledger.v1.BalanceService/GetGroupBalance", "ok", 3*time.Millisecond)
	m.ObserveRPC("/splitledger.v1.BalanceService/GetGroupBalance", "ok", 5*time.Millisecond)
	m.ObserveRPC("/splitledger.v1.BalanceService/GetGroupBalance", "not_found", time.Millisecond)
	m.ObserveSimplification(2, 1)
	m.ObserveSimplification(1, 3)
	m.ObserveNotification(nil)
	m.ObserveNotification(errors.New("broker down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/splitledger.v1.BalanceService/GetGroupBalance", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/splitledger.v1.BalanceService/GetGroupBalance", "not_found")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.transactionsSave))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("error")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRPC("p", "ok", time.Second)
	m.ObserveComputation("group", time.Second)
	m.ObserveSimplification(1, 1)
	m.ObserveNotification(nil)
}
