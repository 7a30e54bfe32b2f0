// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/taskmaster/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// sessionIDContextKey はリクエストコンテキストにセッションIDを格納するためのキー。
var sessionIDContextKey = contextKey("session_id")

// SessionStore はセッションの検索と期限延長に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionStore interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error
}

// SessionConfig はセッションミドルウェアのCookie設定。
type SessionConfig struct {
	MaxAge       int // セッション有効期間（秒）
	CookieSecure bool
	CookieDomain string
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを解決するミドルウェアを返す。
// 解決できた場合はユーザーIDとセッションIDをリクエストコンテキストに注入する。
// Cookieが無い・セッションが無効・ストアがエラーを返す、のいずれも
// 匿名リクエストとして後続に渡す（匿名ビューの描画は各ハンドラーが行う）。
// 書き込み操作の認証拒否はハンドラー側のUserIDFromContextで行う。
//
// セッションの残り有効期間が半分を切っている場合はスライディングリフレッシュを行い、
// 延長後のCookieをレスポンスに書き戻す。呼び出し側が別途Cookieを操作しない限り、
// このミドルウェアがセッションCookieの伝搬点になる。
func NewSessionMiddleware(store SessionStore, config SessionConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := store.FindByID(r.Context(), cookie.Value)
			if err != nil {
				// ストア障害は未ログインと区別しない
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if session == nil {
				next.ServeHTTP(w, r)
				return
			}

			// スライディングリフレッシュ
			maxAge := time.Duration(config.MaxAge) * time.Second
			if time.Until(session.ExpiresAt) < maxAge/2 {
				newExpiry := time.Now().Add(maxAge)
				if err := store.ExtendExpiry(r.Context(), session.ID, newExpiry); err != nil {
					slog.Error("failed to refresh session",
						slog.String("error", err.Error()),
						slog.String("session_id", session.ID),
					)
				} else {
					http.SetCookie(w, &http.Cookie{
						Name:     sessionCookieName,
						Value:    session.ID,
						Path:     "/",
						Domain:   config.CookieDomain,
						MaxAge:   config.MaxAge,
						HttpOnly: true,
						Secure:   config.CookieSecure,
						SameSite: http.SameSiteLaxMode,
					})
				}
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			ctx = context.WithValue(ctx, sessionIDContextKey, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアがセッションを解決できたリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// SessionIDFromContext はリクエストコンテキストからセッションIDを取得する。
func SessionIDFromContext(ctx context.Context) (string, error) {
	sessionID, ok := ctx.Value(sessionIDContextKey).(string)
	if !ok || sessionID == "" {
		return "", fmt.Errorf("session ID not found in context")
	}
	return sessionID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextWithSessionID はコンテキストにセッションIDを注入する。
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}
