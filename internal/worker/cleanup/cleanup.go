// Package cleanup は認証データの自動削除ジョブを提供する。
// 期限切れセッションと、消費済みまたは期限切れの確認コードを
// 日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionPurger は期限切れセッションの削除インターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// TokenPurger は不要になった確認コードの削除インターフェース。
type TokenPurger interface {
	DeleteStale(ctx context.Context) (int64, error)
}

// CleanupJob は期限切れ認証データの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessions SessionPurger
	tokens   TokenPurger
	logger   *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionPurger, tokens TokenPurger, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

// Run は期限切れセッションと不要な確認コードを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
// セッション削除が失敗してもコード削除は試行し、エラーはまとめて返す。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	var firstErr error

	deletedSessions, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		firstErr = fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	deletedTokens, err := j.tokens.DeleteStale(ctx)
	if err != nil {
		j.logger.Error("確認コードの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		if firstErr == nil {
			firstErr = fmt.Errorf("確認コードの削除に失敗: %w", err)
		}
	}

	if firstErr != nil {
		return firstErr
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", deletedSessions),
		slog.Int64("deleted_tokens", deletedTokens),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
