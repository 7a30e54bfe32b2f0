package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/taskmaster/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用した確認コードリポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Create は確認コードを作成する。
func (r *PostgresTokenRepo) Create(ctx context.Context, token *model.ConfirmationToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO confirmation_tokens (code, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		token.Code, token.UserID, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create confirmation token: %w", err)
	}
	return nil
}

// FindValidByCode は未消費かつ期限内のコードを取得する。見つからない場合はnilを返す。
func (r *PostgresTokenRepo) FindValidByCode(ctx context.Context, code string) (*model.ConfirmationToken, error) {
	token := &model.ConfirmationToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT code, user_id, expires_at, created_at
		 FROM confirmation_tokens
		 WHERE code = $1 AND consumed_at IS NULL AND expires_at > now()`,
		code,
	).Scan(&token.Code, &token.UserID, &token.ExpiresAt, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find confirmation token: %w", err)
	}

	return token, nil
}

// MarkConsumed はコードを消費済みにする。
func (r *PostgresTokenRepo) MarkConsumed(ctx context.Context, code string, consumedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE confirmation_tokens SET consumed_at = $2 WHERE code = $1`,
		code, consumedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark token consumed: %w", err)
	}
	return nil
}

// DeleteStale は期限切れまたは消費済みのコードを削除し、削除件数を返す。
func (r *PostgresTokenRepo) DeleteStale(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM confirmation_tokens WHERE expires_at <= now() OR consumed_at IS NOT NULL`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale tokens: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
