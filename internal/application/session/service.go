package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/donkcry/B--Blog/internal/pkg/id"
	pkgtoken "github.com/donkcry/B--Blog/internal/pkg/token"
)

// Service issues and retires sessions. A session pairs a short-lived JWT
// bearer with an opaque refresh token; the remember flag stretches the
// refresh-token lifetime the way the source form's checkbox stretched the
// cookie.
type Service interface {
	Open(ctx context.Context, account *domain.Account, remember bool) (bearer, refreshToken string, sess *domain.Session, err error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
	Close(ctx context.Context, sessionID string) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Disable(ctx context.Context, sessionID string) error
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
}

type jwtSigner interface {
	Sign(accountID, sessionID string) (string, error)
}

type service struct {
	repo           sessionStore
	accounts       accountStore
	jwtProvider    jwtSigner
	sessionExpiry  time.Duration
	rememberExpiry time.Duration
}

func NewService(repo sessionStore, accounts accountStore, jwtProvider jwtSigner, sessionExpiry, rememberExpiry time.Duration) Service {
	return &service{
		repo:           repo,
		accounts:       accounts,
		jwtProvider:    jwtProvider,
		sessionExpiry:  sessionExpiry,
		rememberExpiry: rememberExpiry,
	}
}

func (s *service) Open(ctx context.Context, account *domain.Account, remember bool) (string, string, *domain.Session, error) {
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", nil, err
	}
	dur := s.sessionExpiry
	if remember {
		dur = s.rememberExpiry
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		AccountID:        account.AccountID,
		Remember:         remember,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(dur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Put(ctx, sess); err != nil {
		return "", "", nil, err
	}
	bearer, err := s.jwtProvider.Sign(account.AccountID, sess.SessionID)
	if err != nil {
		return "", "", nil, err
	}
	sess.Account = account
	return bearer, refreshToken, sess, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.repo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", "", fmt.Errorf("unknown refresh token: %w", domain.ErrUnauthorized)
		}
		return "", "", err
	}
	if !sess.Enable || sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	dur := s.sessionExpiry
	if sess.Remember {
		dur = s.rememberExpiry
	}
	if err := s.repo.RotateRefreshToken(ctx, sess.SessionID, newToken, time.Now().Add(dur).Unix()); err != nil {
		return "", "", err
	}
	bearer, err := s.jwtProvider.Sign(sess.AccountID, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}

func (s *service) Close(ctx context.Context, sessionID string) error {
	return s.repo.Disable(ctx, sessionID)
}

func (s *service) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if a, err := s.accounts.Get(ctx, sess.AccountID); err == nil {
		sess.Account = a
	}
	return sess, nil
}
