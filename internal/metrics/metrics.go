// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス記録のインターフェース。
// ミドルウェアとサービス層から利用する。
type Recorder interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordTaskUpdate(fieldCount int)
	RecordStoreError(op string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	updateFields prometheus.Histogram
	storeErrors  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_http_requests_total",
			Help: "メソッド・ルート・ステータスコード別のリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskboard_http_request_duration_seconds",
			Help:    "リクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		updateFields: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskboard_task_update_fields",
			Help:    "タスク更新1回あたりの代入数（updatedAtを含む）",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_store_errors_total",
			Help: "操作別のレコードストアエラー数",
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.updateFields,
		c.storeErrors,
	)

	return c
}

// RecordHTTPRequest はリクエストの結果と処理時間を記録する。
// routeにはchiのルートパターンを渡し、IDごとに系列が増えないようにする。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordTaskUpdate は更新指示の代入数を記録する。
func (c *Collector) RecordTaskUpdate(fieldCount int) {
	c.updateFields.Observe(float64(fieldCount))
}

// RecordStoreError はレコードストアのエラーを記録する。
func (c *Collector) RecordStoreError(op string) {
	c.storeErrors.WithLabelValues(op).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないRecorder。
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordTaskUpdate(int)                                 {}
func (Nop) RecordStoreError(string)                              {}

// compile-time interface check
var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
