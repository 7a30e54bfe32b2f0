package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/taskmaster/internal/model"
)

// --- モック定義 ---

type mockSessionStore struct {
	findByIDFn     func(ctx context.Context, id string) (*model.Session, error)
	extendExpiryFn func(ctx context.Context, id string, expiresAt time.Time) error
	extended       []string
}

func (m *mockSessionStore) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionStore) ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	m.extended = append(m.extended, id)
	if m.extendExpiryFn != nil {
		return m.extendExpiryFn(ctx, id, expiresAt)
	}
	return nil
}

func testConfig() SessionConfig {
	return SessionConfig{MaxAge: 86400, CookieSecure: false, CookieDomain: ""}
}

// nextCapture は後続ハンドラーに届いたコンテキストを記録する。
func nextCapture(gotUserID *string, gotErr *error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := UserIDFromContext(r.Context())
		*gotUserID = id
		*gotErr = err
		w.WriteHeader(http.StatusOK)
	})
}

// --- テスト ---

func TestSessionMiddleware_NoCookie_PassesThroughAnonymous(t *testing.T) {
	store := &mockSessionStore{}
	mw := NewSessionMiddleware(store, testConfig())

	var gotUserID string
	var gotErr error
	handler := mw(nextCapture(&gotUserID, &gotErr))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (anonymous requests are not rejected)", w.Code)
	}
	if gotErr == nil {
		t.Error("UserIDFromContext should fail for anonymous request")
	}
	if gotUserID != "" {
		t.Errorf("userID = %q, want empty", gotUserID)
	}
}

func TestSessionMiddleware_ValidSession_InjectsUserID(t *testing.T) {
	store := &mockSessionStore{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{
				ID:        id,
				UserID:    "user-123",
				ExpiresAt: time.Now().Add(24 * time.Hour),
			}, nil
		},
	}
	mw := NewSessionMiddleware(store, testConfig())

	var gotUserID string
	var gotErr error
	handler := mw(nextCapture(&gotUserID, &gotErr))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-abc"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if gotErr != nil {
		t.Fatalf("UserIDFromContext failed: %v", gotErr)
	}
	if gotUserID != "user-123" {
		t.Errorf("userID = %q, want user-123", gotUserID)
	}
}

func TestSessionMiddleware_StoreError_TreatedAsAnonymous(t *testing.T) {
	// プロバイダ障害と未ログインを区別しないこと
	store := &mockSessionStore{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("connection refused")
		},
	}
	mw := NewSessionMiddleware(store, testConfig())

	var gotUserID string
	var gotErr error
	handler := mw(nextCapture(&gotUserID, &gotErr))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-abc"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if gotErr == nil {
		t.Error("store failure should yield the anonymous branch")
	}
}

func TestSessionMiddleware_ExpiredOrUnknownSession_Anonymous(t *testing.T) {
	store := &mockSessionStore{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil // FindByIDは期限切れをnilで表現する
		},
	}
	mw := NewSessionMiddleware(store, testConfig())

	var gotUserID string
	var gotErr error
	handler := mw(nextCapture(&gotUserID, &gotErr))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "gone"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if gotErr == nil {
		t.Error("unknown session should yield the anonymous branch")
	}
}

func TestSessionMiddleware_SlidingRefresh_RewritesCookie(t *testing.T) {
	// 残り有効期間が半分を切ったセッションはリフレッシュされ、
	// 更新後のCookieがレスポンスに書き戻される
	store := &mockSessionStore{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{
				ID:        id,
				UserID:    "user-123",
				ExpiresAt: time.Now().Add(time.Hour), // 24hのMaxAgeに対して残り1h
			}, nil
		},
	}
	mw := NewSessionMiddleware(store, testConfig())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-abc"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(store.extended) != 1 || store.extended[0] != "sess-abc" {
		t.Errorf("expected ExtendExpiry for sess-abc, got %v", store.extended)
	}

	var refreshed *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" {
			refreshed = c
		}
	}
	if refreshed == nil {
		t.Fatal("expected refreshed session cookie on response")
	}
	if refreshed.Value != "sess-abc" {
		t.Errorf("cookie value = %q, want sess-abc", refreshed.Value)
	}
	if !refreshed.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if refreshed.MaxAge != 86400 {
		t.Errorf("cookie MaxAge = %d, want 86400", refreshed.MaxAge)
	}
}

func TestSessionMiddleware_FreshSession_NoRefresh(t *testing.T) {
	store := &mockSessionStore{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{
				ID:        id,
				UserID:    "user-123",
				ExpiresAt: time.Now().Add(23 * time.Hour),
			}, nil
		},
	}
	mw := NewSessionMiddleware(store, testConfig())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-abc"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(store.extended) != 0 {
		t.Errorf("fresh session should not be refreshed, got %v", store.extended)
	}
}

func TestUserIDFromContext_RoundTrip(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user-42")
	got, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "user-42" {
		t.Errorf("userID = %q, want user-42", got)
	}
}

func TestSessionIDFromContext_RoundTrip(t *testing.T) {
	ctx := ContextWithSessionID(context.Background(), "sess-42")
	got, err := SessionIDFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "sess-42" {
		t.Errorf("sessionID = %q, want sess-42", got)
	}
}

func TestUserIDFromContext_Missing_ReturnsError(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user ID")
	}
}
