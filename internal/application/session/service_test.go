package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}
func (m *mockSessionStore) Disable(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(accountID, sessionID string) (string, error) {
	args := m.Called(accountID, sessionID)
	return args.String(0), args.Error(1)
}

func newTestService(repo *mockSessionStore, accounts *mockAccountStore, jwt *mockJWTSigner) Service {
	return NewService(repo, accounts, jwt, 12*time.Hour, 7*24*time.Hour)
}

// --- Open ---

func TestOpen_RememberStretchesExpiry(t *testing.T) {
	repo := &mockSessionStore{}
	jwt := &mockJWTSigner{}
	account := &domain.Account{AccountID: "acc1"}

	var short, long *domain.Session
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", "acc1", mock.Anything).Return("bearer-token", nil)

	svc := newTestService(repo, nil, jwt)

	_, _, short, err := svc.Open(context.Background(), account, false)
	require.NoError(t, err)
	_, _, long, err = svc.Open(context.Background(), account, true)
	require.NoError(t, err)

	assert.Greater(t, long.RefreshExpiresAt, short.RefreshExpiresAt)
	assert.True(t, long.Remember)
	assert.True(t, short.Enable)
}

func TestOpen_ReturnsBearerAndRefreshToken(t *testing.T) {
	repo := &mockSessionStore{}
	jwt := &mockJWTSigner{}
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)
	jwt.On("Sign", "acc1", mock.Anything).Return("bearer-token", nil)

	svc := newTestService(repo, nil, jwt)
	bearer, refresh, sess, err := svc.Open(context.Background(), &domain.Account{AccountID: "acc1"}, false)

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", bearer)
	assert.NotEmpty(t, refresh)
	assert.Equal(t, "acc1", sess.AccountID)
}

// --- Refresh ---

func liveSession() *domain.Session {
	return &domain.Session{
		SessionID:        "s1",
		AccountID:        "acc1",
		Enable:           true,
		RefreshToken:     "old-token",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	repo := &mockSessionStore{}
	jwt := &mockJWTSigner{}
	repo.On("GetByRefreshToken", mock.Anything, "old-token").Return(liveSession(), nil)
	repo.On("RotateRefreshToken", mock.Anything, "s1", mock.Anything, mock.Anything).Return(nil)
	jwt.On("Sign", "acc1", "s1").Return("new-bearer", nil)

	svc := newTestService(repo, nil, jwt)
	bearer, newToken, err := svc.Refresh(context.Background(), "old-token")

	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "old-token", newToken)
}

func TestRefresh_UnknownToken_IsUnauthorized(t *testing.T) {
	repo := &mockSessionStore{}
	repo.On("GetByRefreshToken", mock.Anything, "bogus").Return(nil, domain.ErrNotFound)

	svc := newTestService(repo, nil, &mockJWTSigner{})
	_, _, err := svc.Refresh(context.Background(), "bogus")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRefresh_DisabledSession_IsUnauthorized(t *testing.T) {
	repo := &mockSessionStore{}
	sess := liveSession()
	sess.Enable = false
	repo.On("GetByRefreshToken", mock.Anything, "old-token").Return(sess, nil)

	svc := newTestService(repo, nil, &mockJWTSigner{})
	_, _, err := svc.Refresh(context.Background(), "old-token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	repo.AssertNotCalled(t, "RotateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_RotateStorageOutage_IsNotUnauthorized(t *testing.T) {
	repo := &mockSessionStore{}
	jwt := &mockJWTSigner{}
	repo.On("GetByRefreshToken", mock.Anything, "old-token").Return(liveSession(), nil)
	// A store outage is not the client's fault; it must not read as a
	// rejected session.
	repo.On("RotateRefreshToken", mock.Anything, "s1", mock.Anything, mock.Anything).Return(domain.ErrStorageUnavailable)

	svc := newTestService(repo, nil, jwt)
	_, _, err := svc.Refresh(context.Background(), "old-token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorageUnavailable))
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRefresh_ExpiredSession_IsUnauthorized(t *testing.T) {
	repo := &mockSessionStore{}
	sess := liveSession()
	sess.RefreshExpiresAt = time.Now().Add(-time.Minute).Unix()
	repo.On("GetByRefreshToken", mock.Anything, "old-token").Return(sess, nil)

	svc := newTestService(repo, nil, &mockJWTSigner{})
	_, _, err := svc.Refresh(context.Background(), "old-token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- Get ---

func TestGet_AttachesAccount(t *testing.T) {
	repo := &mockSessionStore{}
	accounts := &mockAccountStore{}
	repo.On("Get", mock.Anything, "s1").Return(liveSession(), nil)
	accounts.On("Get", mock.Anything, "acc1").Return(&domain.Account{AccountID: "acc1", Username: "kaito"}, nil)

	svc := newTestService(repo, accounts, nil)
	sess, err := svc.Get(context.Background(), "s1")

	require.NoError(t, err)
	require.NotNil(t, sess.Account)
	assert.Equal(t, "kaito", sess.Account.Username)
}
