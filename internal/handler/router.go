package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/taskmaster/internal/metrics"
	"github.com/hitoshi/taskmaster/internal/middleware"
	"github.com/hitoshi/taskmaster/internal/view"
)

// Pinger はヘルスチェックで使用するストレージ疎通確認のインターフェース。
// sql.DBのPingContextに合わせる。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	SessionStore  middleware.SessionStore
	SessionConfig middleware.SessionConfig
	CSRFConfig    middleware.CSRFConfig
	RateLimiter   *middleware.RateLimiter
	HTTPRecorder  middleware.HTTPRecorder

	// サービス
	AuthService AuthServiceInterface
	TaskService TaskServiceInterface

	// 描画・観測
	View        *view.View
	AuthMetrics AuthMetrics
	TaskMetrics TaskMetrics
	Gatherer    prometheus.Gatherer

	// ヘルスチェック用DB。nilの場合は疎通確認をスキップする
	DB Pinger

	AuthConfig AuthHandlerConfig
}

// NewRouter は全ルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CSRF → Session → RateLimit(General)
//
// /healthと/metricsは運用エンドポイントのため、CSRF・セッション・レート制限の
// 外側に配置する。/loginのPOSTには認証試行専用のレート制限を追加で適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPRecorder))

	// --- 運用エンドポイント ---

	r.Get("/health", healthHandler(deps.DB))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- アプリケーションルート ---

	pageHandler := NewPageHandler(deps.TaskService, deps.AuthService, deps.View, deps.TaskMetrics, deps.AuthConfig)
	authHandler := NewAuthHandler(deps.AuthService, deps.View, deps.AuthMetrics, deps.AuthConfig)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewSessionMiddleware(deps.SessionStore, deps.SessionConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/", pageHandler.Index)
		r.Post("/", pageHandler.Action)

		r.Get("/auth/callback", authHandler.Callback)
		r.Get("/auth/confirmation", authHandler.ConfirmationPage)

		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.LoginMiddleware())
			r.Get("/login", authHandler.LoginPage)
			r.Post("/login", authHandler.LoginAction)
		})
	})

	return r
}

// healthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// DBが渡されていれば2秒タイムアウトで疎通確認を行う。
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				slog.Error("healthcheck failed", slog.String("error", err.Error()))
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck
	}
}
