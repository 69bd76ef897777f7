package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 辅助函数：读取Counter值
func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

// 辅助函数：读取Gauge值
func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

// 辅助函数：读取Histogram观测次数
func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, o.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestInitMetrics_Idempotent(t *testing.T) {
	InitMetrics()
	first := OrderOperationsTotal
	InitMetrics()

	assert.Same(t, first, OrderOperationsTotal)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, StockConflictsTotal)
}

func TestRecordOrderOperation(t *testing.T) {
	InitMetrics()

	success := OrderOperationsTotal.WithLabelValues("create", ResultSuccess)
	failure := OrderOperationsTotal.WithLabelValues("create", ResultFailure)
	beforeOK, beforeFail := counterValue(t, success), counterValue(t, failure)
	beforeObs := histogramCount(t, OrderOperationDuration.WithLabelValues("create"))

	RecordOrderOperation("create", nil, 20*time.Millisecond)
	RecordOrderOperation("create", nil, 30*time.Millisecond)
	RecordOrderOperation("create", errors.New("库存不足"), time.Millisecond)

	assert.Equal(t, beforeOK+2, counterValue(t, success))
	assert.Equal(t, beforeFail+1, counterValue(t, failure))
	assert.Equal(t, beforeObs+3, histogramCount(t, OrderOperationDuration.WithLabelValues("create")))
}

func TestRecordStockAdjustment(t *testing.T) {
	InitMetrics()

	reserve := StockAdjustmentsTotal.WithLabelValues("reserve")
	ret := StockAdjustmentsTotal.WithLabelValues("return")
	r0, t0 := counterValue(t, reserve), counterValue(t, ret)

	RecordStockAdjustment(-2)
	RecordStockAdjustment(3)
	RecordStockConflict()

	assert.Equal(t, r0+1, counterValue(t, reserve))
	assert.Equal(t, t0+1, counterValue(t, ret))
	assert.GreaterOrEqual(t, counterValue(t, StockConflictsTotal), 1.0)
}

func TestTrackInProgress(t *testing.T) {
	InitMetrics()
	before := gaugeValue(t, HTTPRequestsInProgress)

	done := TrackInProgress()
	assert.Equal(t, before+1, gaugeValue(t, HTTPRequestsInProgress))
	done()
	assert.Equal(t, before, gaugeValue(t, HTTPRequestsInProgress))
}

func TestBreakerAndCache(t *testing.T) {
	InitMetrics()

	SetBreakerState("order-events", 2)
	assert.Equal(t, 2.0, gaugeValue(t, CircuitBreakerState.WithLabelValues("order-events")))

	hit := OrderCacheLookupsTotal.WithLabelValues("hit")
	h0 := counterValue(t, hit)
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	assert.Equal(t, h0+1, counterValue(t, hit))
}
