// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// ConfirmedAtがnilの間はメール確認待ちの状態であり、ログインできない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Confirmed はメール確認が完了しているかどうかを返す。
func (u *User) Confirmed() bool {
	return u.ConfirmedAt != nil
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ConfirmationToken はサインアップ時に発行されるワンタイム確認コードを表す。
// /auth/callback でセッションに交換されると ConsumedAt が設定され、再利用できない。
type ConfirmationToken struct {
	Code       string
	UserID     string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}
