package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/donkcry/B--Blog/internal/domain"
	jwtinfra "github.com/donkcry/B--Blog/internal/infrastructure/jwt"
	"github.com/donkcry/B--Blog/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAccountSvc struct{ mock.Mock }

func (m *mockAccountSvc) RequestCode(ctx context.Context, email string, purpose domain.Purpose, accountID string) error {
	return m.Called(ctx, email, purpose, accountID).Error(0)
}
func (m *mockAccountSvc) VerifyCode(ctx context.Context, email string, purpose domain.Purpose, code string) error {
	return m.Called(ctx, email, purpose, code).Error(0)
}
func (m *mockAccountSvc) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountSvc) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountSvc) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAccountSvc) ChangePassword(ctx context.Context, accountID string, req domain.ChangePasswordRequest) error {
	return m.Called(ctx, accountID, req).Error(0)
}
func (m *mockAccountSvc) ChangeEmail(ctx context.Context, accountID string, req domain.ChangeEmailRequest) error {
	return m.Called(ctx, accountID, req).Error(0)
}
func (m *mockAccountSvc) Delete(ctx context.Context, accountID string, req domain.DeleteAccountRequest) error {
	return m.Called(ctx, accountID, req).Error(0)
}
func (m *mockAccountSvc) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountSvc) UpdateProfile(ctx context.Context, accountID string, req domain.UpdateProfileRequest) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func withClaims(req *http.Request, accountID, sessionID string) *http.Request {
	claims := &jwtinfra.Claims{AccountID: accountID, SessionID: sessionID}
	return req.WithContext(context.WithValue(req.Context(), middleware.ClaimsKey, claims))
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// --- Register ---

func TestRegister_Created(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Register", mock.Anything, mock.AnythingOfType("domain.RegisterRequest")).
		Return(&domain.Account{AccountID: "acc1", Username: "kaito"}, nil)

	h := NewAccountHandler(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", jsonBody(t, domain.RegisterRequest{
		Username: "kaito", Email: "kaito@qq.com", Password: "secret99", Code: "1234",
	}))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var env AuthEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NotNil(t, env.Account)
	assert.Equal(t, "kaito", env.Account.Username)
}

func TestRegister_FieldErrors_Are422(t *testing.T) {
	svc := &mockAccountSvc{}
	fe := domain.FieldErrors{}
	fe.Add("email", "email already registered")
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, fe)

	h := NewAccountHandler(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", jsonBody(t, domain.RegisterRequest{}))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var env FieldErrorsEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Contains(t, env.Fields, "email")
}

func TestRegister_MalformedBody_Is400(t *testing.T) {
	h := NewAccountHandler(&mockAccountSvc{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.Register(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- ChangePassword / Delete ---

func TestChangePassword_NoClaims_Is401(t *testing.T) {
	h := NewAccountHandler(&mockAccountSvc{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/change-password", jsonBody(t, domain.ChangePasswordRequest{}))
	rr := httptest.NewRecorder()
	h.ChangePassword(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestChangePassword_PassesCallerIdentity(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("ChangePassword", mock.Anything, "acc1", mock.AnythingOfType("domain.ChangePasswordRequest")).Return(nil)

	h := NewAccountHandler(svc, nil)
	req := withClaims(httptest.NewRequest(http.MethodPost, "/v1/accounts/change-password", jsonBody(t, domain.ChangePasswordRequest{
		Code: "123456", NewPassword: "fresh-one",
	})), "acc1", "sess1")
	rr := httptest.NewRecorder()
	h.ChangePassword(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestDelete_InvalidCredentials_Is401(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Delete", mock.Anything, "acc1", mock.Anything).Return(domain.ErrInvalidCredentials)

	h := NewAccountHandler(svc, nil)
	req := withClaims(httptest.NewRequest(http.MethodPost, "/v1/accounts/delete", jsonBody(t, domain.DeleteAccountRequest{
		Password: "wrongpass", Code: "123456",
	})), "acc1", "sess1")
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
