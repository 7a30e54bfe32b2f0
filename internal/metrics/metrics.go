// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordSignup()
	RecordTaskMutation(action string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
	loginSuccess    prometheus.Counter
	loginFail       prometheus.Counter
	signups         prometheus.Counter
	taskMutations   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmaster_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskmaster_request_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskmaster_login_success_total",
			Help: "サインイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskmaster_login_fail_total",
			Help: "サインイン失敗の合計数",
		}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskmaster_signups_total",
			Help: "アカウント登録の合計数",
		}),
		taskMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmaster_task_mutations_total",
			Help: "操作種別ごとのタスク変更数",
		}, []string{"action"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestDuration,
		c.loginSuccess,
		c.loginFail,
		c.signups,
		c.taskMutations,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordLoginSuccess はサインイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はサインイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordSignup はアカウント登録を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordTaskMutation は操作種別付きでタスク変更を記録する。
func (c *Collector) RecordTaskMutation(action string) {
	c.taskMutations.WithLabelValues(action).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
