package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/taskmaster/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findBy(ctx, `SELECT id, email, password_hash, confirmed_at, created_at, updated_at
		 FROM users WHERE id = $1`, id)
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findBy(ctx, `SELECT id, email, password_hash, confirmed_at, created_at, updated_at
		 FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepo) findBy(ctx context.Context, query, arg string) (*model.User, error) {
	user := &model.User{}
	var confirmedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &confirmedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if confirmedAt.Valid {
		user.ConfirmedAt = &confirmedAt.Time
	}

	return user, nil
}

// Create はユーザーを作成する。
// メールアドレスの一意制約に違反した場合はErrDuplicateEmailを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, confirmed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.PasswordHash, user.ConfirmedAt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		// 23505 = unique_violation
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// MarkConfirmed はユーザーのメール確認完了日時を記録する。
func (r *PostgresUserRepo) MarkConfirmed(ctx context.Context, id string, confirmedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET confirmed_at = $2, updated_at = $2 WHERE id = $1`,
		id, confirmedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark user confirmed: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
