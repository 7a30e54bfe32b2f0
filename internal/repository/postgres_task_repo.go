package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/taskmaster/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
// すべてのクエリはuser_idの等価フィルタを必ず含み、
// 所有者以外の行には読み書きとも到達できない。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// ListByUserID はユーザーのタスク一覧をcreated_at降順（新しい順）で返す。
// タスクが存在しない場合は空スライスを返す。
func (r *PostgresTaskRepo) ListByUserID(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, completed, created_at
		 FROM tasks
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Completed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// FindByIDAndUserID はタスクIDと所有者IDでタスクを取得する。
// 他ユーザーのタスクや存在しないIDの場合はnilを返す。
func (r *PostgresTaskRepo) FindByIDAndUserID(ctx context.Context, id, userID string) (*model.Task, error) {
	task := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, completed, created_at
		 FROM tasks
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&task.ID, &task.UserID, &task.Title, &task.Completed, &task.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, completed, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		task.ID, task.UserID, task.Title, task.Completed, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// SetCompleted は所有者スコープで完了フラグを書き込む。
// 対象行が存在しない場合（他ユーザーのタスク等）は何もしない。
func (r *PostgresTaskRepo) SetCompleted(ctx context.Context, id, userID string, completed bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET completed = $3 WHERE id = $1 AND user_id = $2`,
		id, userID, completed,
	)
	if err != nil {
		return fmt.Errorf("failed to update task completed flag: %w", err)
	}
	return nil
}

// UpdateTitle は所有者スコープでタイトルを更新する。
func (r *PostgresTaskRepo) UpdateTitle(ctx context.Context, id, userID, title string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = $3 WHERE id = $1 AND user_id = $2`,
		id, userID, title,
	)
	if err != nil {
		return fmt.Errorf("failed to update task title: %w", err)
	}
	return nil
}

// Delete は所有者スコープでタスクを削除する。
// 他ユーザーのタスクIDを指定した場合はエラーにならず何もしない。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
