package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/taskmaster/internal/middleware"
	"github.com/hitoshi/taskmaster/internal/model"
	"github.com/hitoshi/taskmaster/internal/view"
)

// TaskServiceInterface はページハンドラーが必要とするタスクサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context, userID string) ([]model.Task, error)
	Create(ctx context.Context, userID, title string) (*model.Task, error)
	Toggle(ctx context.Context, userID, taskID string) (*model.Task, error)
	Edit(ctx context.Context, userID, taskID, title string) error
	Delete(ctx context.Context, userID, taskID string) error
}

// TaskMetrics はタスク変更のメトリクス記録インターフェース。
type TaskMetrics interface {
	RecordTaskMutation(action string)
}

// PageHandler はタスク一覧画面のHTTPハンドラー。
// 画面の描画とフォーム送信（_actionディスパッチ）の両方を担う。
type PageHandler struct {
	tasks   TaskServiceInterface
	auth    AuthServiceInterface
	view    *view.View
	metrics TaskMetrics
	config  AuthHandlerConfig
}

// NewPageHandler はPageHandlerを生成する。metricsはnil許容。
func NewPageHandler(tasks TaskServiceInterface, auth AuthServiceInterface, v *view.View, metrics TaskMetrics, config AuthHandlerConfig) *PageHandler {
	return &PageHandler{
		tasks:   tasks,
		auth:    auth,
		view:    v,
		metrics: metrics,
		config:  config,
	}
}

// Index はタスク一覧画面を描画する。
// GET /?edit=<id>
// 匿名リクエストには認証なしのウェルカム画面を返す（タスククエリは発行しない）。
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, http.StatusOK, r.URL.Query().Get("edit"), "")
}

// Action はタスク画面のフォーム送信を処理する。
// POST /（_action=create|toggle|delete|edit|logout）
//
// 成功時はPOST-redirect-GETで/へ303リダイレクトする。
// バリデーションエラーと編集の失敗は一覧画面にインライン表示し、
// それ以外の変更操作の失敗はログに残したうえで一覧を再描画する（従来挙動）。
func (h *PageHandler) Action(w http.ResponseWriter, r *http.Request) {
	action := model.ParseAction(r.PostFormValue("_action"))

	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		switch action {
		case model.ActionCreate, model.ActionToggle, model.ActionDelete,
			model.ActionEdit, model.ActionLogout:
			// 匿名の書き込みは401。ストレージには一切触れない
			h.renderIndex(w, r, http.StatusUnauthorized, "", "")
			return
		}
	}

	if action == model.ActionLogout {
		h.logout(w, r)
		return
	}

	switch action {
	case model.ActionCreate:
		if _, err := h.tasks.Create(r.Context(), userID, r.PostFormValue("title")); err != nil {
			if appErr, ok := model.AsAppError(err); ok && appErr.Category == "validation" {
				h.renderIndex(w, r, http.StatusUnprocessableEntity, "", appErr.Message)
				return
			}
			slog.Error("failed to create task", slog.String("error", err.Error()))
		} else {
			h.recordMutation(action)
		}

	case model.ActionToggle:
		if _, err := h.tasks.Toggle(r.Context(), userID, r.PostFormValue("id")); err != nil {
			slog.Error("failed to toggle task", slog.String("error", err.Error()))
		} else {
			h.recordMutation(action)
		}

	case model.ActionDelete:
		if err := h.tasks.Delete(r.Context(), userID, r.PostFormValue("id")); err != nil {
			slog.Error("failed to delete task", slog.String("error", err.Error()))
		} else {
			h.recordMutation(action)
		}

	case model.ActionEdit:
		taskID := r.PostFormValue("id")
		if err := h.tasks.Edit(r.Context(), userID, taskID, r.PostFormValue("title")); err != nil {
			// 編集の失敗は編集フォームを開いたままインライン表示する
			h.renderIndex(w, r, http.StatusUnprocessableEntity, taskID, errorMessage(err))
			return
		}
		h.recordMutation(action)

	default:
		// 未知のアクションは何も実行せず成功として扱う
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logout はセッションを破棄し、Cookieを失効させて/へリダイレクトする。
func (h *PageHandler) logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := middleware.SessionIDFromContext(r.Context()); err == nil {
		if err := h.auth.Logout(r.Context(), sessionID); err != nil {
			slog.Error("failed to destroy session", slog.String("error", err.Error()))
		}
	}
	clearSessionCookie(w, h.config)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderIndex は現在のセッション状態とストレージの最新状態から一覧画面を描画する。
func (h *PageHandler) renderIndex(w http.ResponseWriter, r *http.Request, status int, editingID, formError string) {
	data := view.IndexData{
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		EditingID: editingID,
		FormError: formError,
	}

	userID, err := middleware.UserIDFromContext(r.Context())
	if err == nil {
		data.Authenticated = true

		if sessionID, err := middleware.SessionIDFromContext(r.Context()); err == nil {
			if user, err := h.auth.GetCurrentUser(r.Context(), sessionID); err == nil && user != nil {
				data.Email = user.Email
			}
		}

		tasks, err := h.tasks.List(r.Context(), userID)
		if err != nil {
			slog.Error("failed to list tasks", slog.String("error", err.Error()))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		data.Tasks = tasks
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.view.RenderIndex(w, data); err != nil {
		slog.Error("failed to render index", slog.String("error", err.Error()))
	}
}

func (h *PageHandler) recordMutation(action model.Action) {
	if h.metrics != nil {
		h.metrics.RecordTaskMutation(string(action))
	}
}
