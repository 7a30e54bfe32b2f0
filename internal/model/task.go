// Package model はドメインモデルを定義する。
package model

import "time"

// Task はユーザーが所有するToDoタスクを表す。
// 所有権はuser_idで固定され、ユーザー間で移譲されることはない。
type Task struct {
	ID        string
	UserID    string
	Title     string
	Completed bool
	CreatedAt time.Time
}
