// Package task はタスク管理のドメインロジックを提供する。
// すべての操作は呼び出し元で解決済みのユーザーIDにスコープされ、
// 他ユーザーのタスクには読み書きとも到達できない。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskmaster/internal/model"
	"github.com/hitoshi/taskmaster/internal/repository"
	"github.com/hitoshi/taskmaster/internal/security"
)

// Service はタスクCRUDのサービス層。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer security.InputSanitizerService
}

// NewService はServiceを生成する。
func NewService(taskRepo repository.TaskRepository, sanitizer security.InputSanitizerService) *Service {
	return &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
	}
}

// List はユーザーのタスク一覧をcreated_at降順（新しい順）で返す。
// userIDが空（匿名リクエスト）の場合はクエリを発行せず空リストを返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Task, error) {
	if userID == "" {
		return []model.Task{}, nil
	}

	tasks, err := s.taskRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Create は新規タスクを作成する。completedは常にfalseで開始する。
// タイトルはサニタイズ後に空であればバリデーションエラーを返す。
func (s *Service) Create(ctx context.Context, userID, title string) (*model.Task, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	clean := s.sanitizer.Sanitize(title)
	if clean == "" {
		return nil, model.NewEmptyTitleError()
	}

	t := &model.Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     clean,
		Completed: false,
		CreatedAt: time.Now(),
	}

	if err := s.taskRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.Info("task created",
		slog.String("user_id", userID),
		slog.String("task_id", t.ID),
	)
	return t, nil
}

// Toggle はタスクの完了フラグを反転する。
// フォームから送られてくる現在値は信用せず、ストレージから読み直した値の否定を書き込む。
// 対象が見つからない場合（他ユーザーのタスク等）はTaskNotFoundエラーを返す。
func (s *Service) Toggle(ctx context.Context, userID, taskID string) (*model.Task, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	t, err := s.taskRepo.FindByIDAndUserID(ctx, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}

	next := !t.Completed
	if err := s.taskRepo.SetCompleted(ctx, taskID, userID, next); err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	t.Completed = next
	return t, nil
}

// Edit はタスクのタイトルを更新する。completedは変更しない。
func (s *Service) Edit(ctx context.Context, userID, taskID, title string) error {
	if userID == "" {
		return model.NewUnauthorizedError()
	}

	clean := s.sanitizer.Sanitize(title)
	if clean == "" {
		return model.NewEmptyTitleError()
	}

	t, err := s.taskRepo.FindByIDAndUserID(ctx, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to find task: %w", err)
	}
	if t == nil {
		return model.NewTaskNotFoundError(taskID)
	}

	if err := s.taskRepo.UpdateTitle(ctx, taskID, userID, clean); err != nil {
		return fmt.Errorf("failed to edit task: %w", err)
	}
	return nil
}

// Delete はタスクを削除する。
// 所有者スコープでフィルタされるため、他ユーザーのタスクIDを指定しても
// エラーにならず何も起きない。
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	if userID == "" {
		return model.NewUnauthorizedError()
	}

	if err := s.taskRepo.Delete(ctx, taskID, userID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}
