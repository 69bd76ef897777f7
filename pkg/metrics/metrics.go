// Package metrics 基于Prometheus的指标收集
//
// 指标分四组：HTTP请求、订单流程、Saga/熔断器、消息发布。
// 全部通过promauto注册到默认Registry，由/metrics端点暴露。
//
// 命名规范：
//   - Counter以_total结尾
//   - Histogram以单位结尾（_seconds）
//   - 标签只使用有限取值（operation、result、status），不使用order_id等高基数字段
//
// Record*函数在InitMetrics之前调用时为空操作，单元测试无需初始化指标。
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 结果标签取值
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数，标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时，标签：method、path
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 订单流程指标

	// OrderOperationsTotal 订单操作总数，标签：operation（create/update/remove）、result
	OrderOperationsTotal *prometheus.CounterVec

	// OrderOperationDuration 订单操作耗时，标签：operation
	OrderOperationDuration *prometheus.HistogramVec

	// StockAdjustmentsTotal 库存调整次数，标签：direction（reserve/return）
	StockAdjustmentsTotal *prometheus.CounterVec

	// StockConflictsTotal 库存乐观锁冲突次数（每次重试计一次）
	StockConflictsTotal prometheus.Counter

	// OrderCacheLookupsTotal 订单详情缓存查询，标签：result（hit/miss）
	OrderCacheLookupsTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=HALF_OPEN, 2=OPEN），标签：name
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求数，标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// Saga指标

	// SagaExecutionsTotal Saga执行总数，标签：result
	SagaExecutionsTotal *prometheus.CounterVec

	// SagaExecutionDuration Saga执行耗时
	SagaExecutionDuration prometheus.Histogram

	// SagaCompensationsTotal Saga补偿执行总数
	SagaCompensationsTotal prometheus.Counter

	// 消息发布指标

	// MessagesPublishedTotal 消息发布总数，标签：exchange、routing_key、result
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 初始化所有Prometheus指标，重复调用无副作用
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	OrderOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_operations_total",
			Help: "订单写操作总数",
		},
		[]string{"operation", "result"},
	)

	OrderOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_operation_duration_seconds",
			Help:    "订单写操作耗时（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"operation"},
	)

	StockAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_adjustments_total",
			Help: "库存调整次数",
		},
		[]string{"direction"},
	)

	StockConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_conflicts_total",
			Help: "库存乐观锁冲突次数",
		},
	)

	OrderCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_cache_lookups_total",
			Help: "订单详情缓存查询次数",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=HALF_OPEN, 2=OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	SagaExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_executions_total",
			Help: "Saga执行总数",
		},
		[]string{"result"},
	)

	SagaExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saga_execution_duration_seconds",
			Help:    "Saga执行耗时（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		},
	)

	SagaCompensationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "saga_compensations_total",
			Help: "Saga补偿执行总数",
		},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)
}

// RecordHTTPRequest 记录一次HTTP请求
func RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if HTTPRequestsTotal == nil {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// TrackInProgress 递增进行中的HTTP请求数，返回的函数用于递减
func TrackInProgress() func() {
	if HTTPRequestsInProgress == nil {
		return func() {}
	}
	HTTPRequestsInProgress.Inc()
	return HTTPRequestsInProgress.Dec
}

// RecordOrderOperation 记录一次订单写操作
func RecordOrderOperation(operation string, err error, d time.Duration) {
	if OrderOperationsTotal == nil {
		return
	}
	OrderOperationsTotal.WithLabelValues(operation, resultOf(err)).Inc()
	OrderOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordStockAdjustment 记录一次库存调整，delta<0为预留，>0为归还
func RecordStockAdjustment(delta int) {
	if StockAdjustmentsTotal == nil {
		return
	}
	direction := "return"
	if delta < 0 {
		direction = "reserve"
	}
	StockAdjustmentsTotal.WithLabelValues(direction).Inc()
}

// RecordStockConflict 记录一次乐观锁冲突
func RecordStockConflict() {
	if StockConflictsTotal == nil {
		return
	}
	StockConflictsTotal.Inc()
}

// RecordCacheLookup 记录一次缓存查询
func RecordCacheLookup(hit bool) {
	if OrderCacheLookupsTotal == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	OrderCacheLookupsTotal.WithLabelValues(result).Inc()
}

// SetBreakerState 设置熔断器状态
func SetBreakerState(name string, state int) {
	if CircuitBreakerState == nil {
		return
	}
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordBreakerRequest 记录熔断器请求结果（success/failure/rejected）
func RecordBreakerRequest(name, result string) {
	if CircuitBreakerRequests == nil {
		return
	}
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordSaga 记录一次Saga执行
func RecordSaga(result string, d time.Duration) {
	if SagaExecutionsTotal == nil {
		return
	}
	SagaExecutionsTotal.WithLabelValues(result).Inc()
	SagaExecutionDuration.Observe(d.Seconds())
}

// RecordSagaCompensation 记录一次补偿
func RecordSagaCompensation() {
	if SagaCompensationsTotal == nil {
		return
	}
	SagaCompensationsTotal.Inc()
}

// RecordPublish 记录一次消息发布
func RecordPublish(exchange, routingKey string, err error) {
	if MessagesPublishedTotal == nil {
		return
	}
	MessagesPublishedTotal.WithLabelValues(exchange, routingKey, resultOf(err)).Inc()
}

func resultOf(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
