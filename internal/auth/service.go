// Package auth はメール・パスワード認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/taskmaster/internal/model"
	"github.com/hitoshi/taskmaster/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge        int           // セッション有効期間（秒）
	ConfirmationTokenTTL time.Duration // 確認コードの有効期間
	BaseURL              string        // 確認リンクの生成に使用する
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokenRepo   repository.TokenRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tokenRepo repository.TokenRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokenRepo:   tokenRepo,
		config:      config,
	}
}

// SignIn はメールアドレスとパスワードを検証し、セッションを発行する。
// ユーザー不在とパスワード不一致は同じエラーにまとめ、アカウントの存在を漏らさない。
// メール未確認のアカウントはログインできない。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if !user.Confirmed() {
		return nil, model.NewEmailNotConfirmedError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user signed in", slog.String("user_id", user.ID))
	return session, nil
}

// SignUp はアカウントを作成し、メール確認用のワンタイムコードを発行する。
// セッションは発行しない。コードが/auth/callbackで交換されるまでログインできない。
// 同一メールアドレスが登録済みの場合は固定文言のエラーを返す。
func (s *Service) SignUp(ctx context.Context, email, password string) (*model.ConfirmationToken, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, model.NewInvalidRequestError("malformed email address")
	}
	if len(password) < 6 {
		return nil, model.NewInvalidRequestError("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	code, err := generateOpaqueID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation code: %w", err)
	}

	token := &model.ConfirmationToken{
		Code:      code,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.config.ConfirmationTokenTTL),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save confirmation token: %w", err)
	}

	// メール配送は対象外。確認リンクはログに出力し、運用側の配送基盤に委ねる。
	slog.Info("new user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", email),
		slog.String("confirmation_url", fmt.Sprintf("%s/auth/callback?code=%s", s.config.BaseURL, code)),
	)

	return token, nil
}

// ExchangeCode はワンタイム確認コードをセッションに交換する。
// コードは一度しか使えず、交換と同時にユーザーのメール確認が完了する。
func (s *Service) ExchangeCode(ctx context.Context, code string) (*model.Session, error) {
	if code == "" {
		return nil, model.NewInvalidCodeError()
	}

	token, err := s.tokenRepo.FindValidByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find confirmation token: %w", err)
	}
	if token == nil {
		return nil, model.NewInvalidCodeError()
	}

	now := time.Now()
	if err := s.tokenRepo.MarkConsumed(ctx, token.Code, now); err != nil {
		return nil, fmt.Errorf("failed to consume confirmation token: %w", err)
	}
	if err := s.userRepo.MarkConfirmed(ctx, token.UserID, now); err != nil {
		return nil, fmt.Errorf("failed to confirm user: %w", err)
	}

	session, err := s.createSession(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("email confirmed", slog.String("user_id", token.UserID))
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateOpaqueID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateOpaqueID は暗号的に安全な不透明IDを生成する。
// セッションIDと確認コードの両方に使用する。
func generateOpaqueID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
