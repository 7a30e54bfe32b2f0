// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/taskmaster/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// MarkConfirmed はユーザーのメール確認完了日時を記録する。
	MarkConfirmed(ctx context.Context, id string, confirmedAt time.Time) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// ExtendExpiry はセッションの有効期限を延長する（スライディングリフレッシュ）。
	ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// TokenRepository はメール確認用ワンタイムコードの永続化インターフェース。
type TokenRepository interface {
	// Create は確認コードを作成する。
	Create(ctx context.Context, token *model.ConfirmationToken) error
	// FindValidByCode は未消費かつ期限内のコードを取得する。見つからない場合はnilを返す。
	FindValidByCode(ctx context.Context, code string) (*model.ConfirmationToken, error)
	// MarkConsumed はコードを消費済みにする。
	MarkConsumed(ctx context.Context, code string, consumedAt time.Time) error
	// DeleteStale は期限切れまたは消費済みのコードを削除し、削除件数を返す。
	DeleteStale(ctx context.Context) (int64, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
// すべての読み書きはuser_idの等価フィルタでスコープされる。
type TaskRepository interface {
	// ListByUserID はユーザーのタスク一覧をcreated_at降順（新しい順）で返す。
	ListByUserID(ctx context.Context, userID string) ([]model.Task, error)

	// FindByIDAndUserID はタスクIDと所有者IDでタスクを取得する。
	// 他ユーザーのタスクや存在しないIDの場合はnilを返す。
	FindByIDAndUserID(ctx context.Context, id, userID string) (*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// SetCompleted は所有者スコープで完了フラグを書き込む。
	// 対象行が存在しない場合は何もしない。
	SetCompleted(ctx context.Context, id, userID string, completed bool) error

	// UpdateTitle は所有者スコープでタイトルを更新する。
	// 対象行が存在しない場合は何もしない。
	UpdateTitle(ctx context.Context, id, userID, title string) error

	// Delete は所有者スコープでタスクを削除する。
	// 他ユーザーのタスクIDを指定した場合はエラーにならず何もしない。
	Delete(ctx context.Context, id, userID string) error
}
