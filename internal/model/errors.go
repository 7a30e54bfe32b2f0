// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// AppError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type AppError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（画面にそのまま表示される）
	Category string // カテゴリ: auth, validation, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// AsAppError はエラーチェーンからAppErrorを取り出す。
// AppErrorでない場合はnilとfalseを返す。
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInvalidCredential = "INVALID_CREDENTIALS"
	ErrCodeEmailNotConfirmed = "EMAIL_NOT_CONFIRMED"
	ErrCodeEmailTaken        = "EMAIL_TAKEN"
	ErrCodeInvalidCode       = "INVALID_CODE"
	ErrCodeEmptyTitle        = "EMPTY_TITLE"
	ErrCodeTaskNotFound      = "TASK_NOT_FOUND"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
)

// NewUnauthorizedError は未認証エラーを生成する。
// 認証が必要な書き込み操作に匿名リクエストが届いた場合に使用する。
func NewUnauthorizedError() *AppError {
	return &AppError{
		Code:     ErrCodeUnauthorized,
		Message:  "Not authenticated",
		Category: "auth",
		Action:   "Sign in and try again.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレスの存在有無を漏らさないよう、原因は区別しない。
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidCredential,
		Message:  "Invalid login credentials",
		Category: "auth",
		Action:   "Check your email and password.",
	}
}

// NewEmailNotConfirmedError はメール未確認エラーを生成する。
func NewEmailNotConfirmedError() *AppError {
	return &AppError{
		Code:     ErrCodeEmailNotConfirmed,
		Message:  "Email not confirmed",
		Category: "auth",
		Action:   "Open the confirmation link sent to your email.",
	}
}

// NewEmailTakenError は重複登録エラーを生成する。
// プロバイダ由来のメッセージではなく固定の文言に書き換えて返す。
func NewEmailTakenError() *AppError {
	return &AppError{
		Code:     ErrCodeEmailTaken,
		Message:  "An account with this email already exists. Try signing in instead.",
		Category: "auth",
		Action:   "Use the sign in button with this email.",
	}
}

// NewInvalidCodeError は確認コードが無効な場合のエラーを生成する。
// 期限切れ・使用済み・存在しないコードは区別しない。
func NewInvalidCodeError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidCode,
		Message:  "Confirmation code is invalid or has expired",
		Category: "auth",
		Action:   "Sign up again to receive a new confirmation link.",
	}
}

// NewEmptyTitleError はタイトルが空の場合のバリデーションエラーを生成する。
func NewEmptyTitleError() *AppError {
	return &AppError{
		Code:     ErrCodeEmptyTitle,
		Message:  "Title must not be empty",
		Category: "validation",
		Action:   "Enter a task title and try again.",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
// 他ユーザーのタスクIDを指定した場合も同じエラーになる。
func NewTaskNotFoundError(taskID string) *AppError {
	return &AppError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("Task not found: %s", taskID),
		Category: "task",
		Action:   "Reload the page and try again.",
	}
}

// NewInvalidRequestError はリクエスト形式が不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", reason),
		Category: "validation",
		Action:   "Check the submitted form values.",
	}
}
