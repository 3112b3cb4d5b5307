// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// リポジトリやステージ層から利用する。
type MetricsCollector interface {
	RecordRepositoryRead(backend string)
	RecordRepositoryWrite(backend string)
	RecordRepositoryError(backend string)
	RecordStageFlush()
	RecordStageMerge()
	RecordDecodeError()
	RecordFlushDuration(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	repositoryReads  *prometheus.CounterVec
	repositoryWrites *prometheus.CounterVec
	repositoryErrors *prometheus.CounterVec
	stageFlushes     prometheus.Counter
	stageMerges      prometheus.Counter
	decodeErrors     prometheus.Counter
	flushDuration    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		repositoryReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedvault_repository_reads_total",
			Help: "リポジトリ読み出しの合計数",
		}, []string{"backend"}),
		repositoryWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedvault_repository_writes_total",
			Help: "リポジトリ書き込みの合計数",
		}, []string{"backend"}),
		repositoryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedvault_repository_errors_total",
			Help: "リポジトリ操作失敗の合計数",
		}, []string{"backend"}),
		stageFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedvault_stage_flushes_total",
			Help: "ステージのフラッシュ実行の合計数",
		}),
		stageMerges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedvault_stage_merges_total",
			Help: "読み出し時マージ実行の合計数",
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedvault_decode_errors_total",
			Help: "フィード復号失敗の合計数",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "feedvault_flush_duration_seconds",
			Help:    "ステージのフラッシュ所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.repositoryReads,
		c.repositoryWrites,
		c.repositoryErrors,
		c.stageFlushes,
		c.stageMerges,
		c.decodeErrors,
		c.flushDuration,
	)

	return c
}

// RecordRepositoryRead はリポジトリ読み出しを記録する。
func (c *Collector) RecordRepositoryRead(backend string) {
	c.repositoryReads.WithLabelValues(backend).Inc()
}

// RecordRepositoryWrite はリポジトリ書き込みを記録する。
func (c *Collector) RecordRepositoryWrite(backend string) {
	c.repositoryWrites.WithLabelValues(backend).Inc()
}

// RecordRepositoryError はリポジトリ操作の失敗を記録する。
func (c *Collector) RecordRepositoryError(backend string) {
	c.repositoryErrors.WithLabelValues(backend).Inc()
}

// RecordStageFlush はステージのフラッシュ実行を記録する。
func (c *Collector) RecordStageFlush() {
	c.stageFlushes.Inc()
}

// RecordStageMerge は読み出し時マージの実行を記録する。
func (c *Collector) RecordStageMerge() {
	c.stageMerges.Inc()
}

// RecordDecodeError はフィード復号の失敗を記録する。
func (c *Collector) RecordDecodeError() {
	c.decodeErrors.Inc()
}

// RecordFlushDuration はフラッシュの所要時間を記録する。
func (c *Collector) RecordFlushDuration(duration time.Duration) {
	c.flushDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
