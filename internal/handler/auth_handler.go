// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskmaster/internal/middleware"
	"github.com/hitoshi/taskmaster/internal/model"
	"github.com/hitoshi/taskmaster/internal/view"
)

const sessionCookieName = "session_id"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string) (*model.ConfirmationToken, error)
	ExchangeCode(ctx context.Context, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AuthMetrics は認証まわりのメトリクス記録インターフェース。
type AuthMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordSignup()
}

// AuthHandlerConfig は認証ハンドラーのCookie設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はログイン・サインアップ・メール確認のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	view    *view.View
	metrics AuthMetrics
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnil許容。
func NewAuthHandler(service AuthServiceInterface, v *view.View, metrics AuthMetrics, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		view:    v,
		metrics: metrics,
		config:  config,
	}
}

// LoginPage はログイン・サインアップフォームを描画する。
// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, view.LoginData{})
}

// LoginAction はログインフォームの送信を処理する。
// POST /login（_action=login|signup）
func (h *AuthHandler) LoginAction(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	switch model.ParseAction(r.PostFormValue("_action")) {
	case model.ActionLogin:
		session, err := h.service.SignIn(r.Context(), email, password)
		if err != nil {
			if h.metrics != nil {
				h.metrics.RecordLoginFailure()
			}
			// 失敗理由はサービスのエラーメッセージをそのまま表示する
			h.renderLogin(w, r, http.StatusUnauthorized, view.LoginData{Error: errorMessage(err)})
			return
		}
		if h.metrics != nil {
			h.metrics.RecordLoginSuccess()
		}
		h.setSessionCookie(w, session.ID)
		http.Redirect(w, r, "/", http.StatusSeeOther)

	case model.ActionSignup:
		if _, err := h.service.SignUp(r.Context(), email, password); err != nil {
			h.renderLogin(w, r, http.StatusUnprocessableEntity, view.LoginData{Error: errorMessage(err)})
			return
		}
		if h.metrics != nil {
			h.metrics.RecordSignup()
		}
		h.renderLogin(w, r, http.StatusOK, view.LoginData{
			Message: "Check your email for the confirmation link",
		})

	default:
		// タスク画面と異なり、ログイン画面では未知のアクションをエラーとして扱う
		h.renderLogin(w, r, http.StatusBadRequest, view.LoginData{Error: "Invalid action"})
	}
}

// Callback はメール確認のワンタイムコードをセッションに交換する。
// GET /auth/callback?code=xxx
// 交換の成否によらず確認完了画面へリダイレクトする。コードやセッションIDは
// レスポンスボディに含めない。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code != "" {
		session, err := h.service.ExchangeCode(r.Context(), code)
		if err != nil {
			slog.Error("failed to exchange confirmation code",
				slog.String("error", err.Error()),
			)
		} else {
			h.setSessionCookie(w, session.ID)
		}
	}
	http.Redirect(w, r, "/auth/confirmation", http.StatusFound)
}

// ConfirmationPage はメール確認完了画面を描画する。
// GET /auth/confirmation
func (h *AuthHandler) ConfirmationPage(w http.ResponseWriter, r *http.Request) {
	if err := h.view.RenderConfirmation(w); err != nil {
		slog.Error("failed to render confirmation page", slog.String("error", err.Error()))
	}
}

// renderLogin はステータスコードとCSRFトークンを付けてログイン画面を描画する。
func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data view.LoginData) {
	data.CSRFToken = middleware.CSRFTokenFromContext(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.view.RenderLogin(w, data); err != nil {
		slog.Error("failed to render login page", slog.String("error", err.Error()))
	}
}

// setSessionCookie はセッションIDをHTTP Only Cookieとして書き込む。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを失効させる。
func clearSessionCookie(w http.ResponseWriter, config AuthHandlerConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// errorMessage はユーザー向けに表示するエラーメッセージを取り出す。
// AppErrorであればそのMessageを、そうでなければ内部詳細を隠した汎用文言を返す。
func errorMessage(err error) string {
	if appErr, ok := model.AsAppError(err); ok {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}
