// Package metrics 提供交易流水线的监控指标
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================================
//                          Prometheus 监控指标
// ============================================================================

const namespace = "expansion"

// Metrics 流水线指标
//
// 每个进程使用独立的 Registry，nil 接收者上的方法均为空操作。
type Metrics struct {
	registry *prometheus.Registry

	stageTransitions *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	failures         *prometheus.CounterVec
	gasUsed          *prometheus.HistogramVec
	rpcDuration      *prometheus.HistogramVec
}

// New 创建并注册全部指标
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		// stageTransitions 阶段迁移次数
		stageTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_transitions_total",
				Help:      "Total number of pipeline stage transitions by stage",
			},
			[]string{"stage"}, // building, signing, submitted, finalized, aborted
		),

		// runDuration 单次运行耗时
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "run_duration_seconds",
				Help:      "Duration of pipeline runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 0.05s ~ 25.6s
			},
			[]string{"shape", "result"},
		),

		// failures 失败次数（按错误类别）
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "failures_total",
				Help:      "Total number of aborted pipeline runs by error kind",
			},
			[]string{"kind"},
		),

		// gasUsed 净 gas 消耗（MIST）
		gasUsed: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "gas_used_mist",
				Help:      "Net gas used by finalized transactions in MIST",
				Buckets:   prometheus.ExponentialBuckets(1e5, 4, 10),
			},
			[]string{"shape"},
		),

		// rpcDuration 账本调用耗时
		rpcDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "request_duration_seconds",
				Help:      "Ledger request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"operation", "result"},
		),
	}
}

// ============================================================================
//                          指标更新函数
// ============================================================================

// ObserveStage 记录阶段迁移
func (m *Metrics) ObserveStage(stage string) {
	if m == nil {
		return
	}
	m.stageTransitions.WithLabelValues(stage).Inc()
}

// ObserveRun 记录一次运行的结果与耗时
func (m *Metrics) ObserveRun(shape string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(shape, result(ok)).Observe(d.Seconds())
}

// ObserveFailure 记录失败类别
func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

// ObserveGas 记录净 gas 消耗（负值按 0 记录）
func (m *Metrics) ObserveGas(shape string, net int64) {
	if m == nil {
		return
	}
	if net < 0 {
		net = 0
	}
	m.gasUsed.WithLabelValues(shape).Observe(float64(net))
}

// ObserveRPC 记录账本调用耗时
func (m *Metrics) ObserveRPC(operation string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(operation, result(ok)).Observe(d.Seconds())
}

// Registry 指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteToTextfile 以文本格式写出全部指标
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}
