package credential

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}
func (m *mockDirectory) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, destination string, purpose domain.Purpose, code string) error {
	return m.Called(ctx, destination, purpose, code).Error(0)
}

func newValidator(dir *mockDirectory, ver *mockVerifier) *Validator {
	return NewValidator(dir, ver, []string{"qq.com"})
}

func validRequest() domain.RegisterRequest {
	return domain.RegisterRequest{
		Username: "kaito",
		Email:    "kaito@qq.com",
		Password: "secret99",
		Code:     "1234",
	}
}

// --- ValidateRegistration ---

func TestValidateRegistration_MissingFields_ShortCircuit(t *testing.T) {
	dir := &mockDirectory{}
	ver := &mockVerifier{}

	v := newValidator(dir, ver)
	fe, err := v.ValidateRegistration(context.Background(), domain.RegisterRequest{
		Username: "kaito",
		Email:    "not-even-an-email",
	})

	require.NoError(t, err)
	assert.True(t, fe.Has("password"))
	assert.True(t, fe.Has("code"))
	// Presence failures suppress shape checks entirely.
	assert.False(t, fe.Has("email"))
	dir.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
	ver.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateRegistration_ShapeErrorsAggregate(t *testing.T) {
	dir := &mockDirectory{}
	ver := &mockVerifier{}

	v := newValidator(dir, ver)
	fe, err := v.ValidateRegistration(context.Background(), domain.RegisterRequest{
		Username: strings.Repeat("x", 21),
		Email:    "kaito@gmail.com", // well-formed but not allow-listed
		Password: "abc",
		Code:     "12ab",
	})

	require.NoError(t, err)
	assert.True(t, fe.Has("username"))
	assert.True(t, fe.Has("email"))
	assert.True(t, fe.Has("password"))
	assert.True(t, fe.Has("code"))
	// Shape failures stop the run before any store lookup.
	dir.AssertNotCalled(t, "ExistsByUsername", mock.Anything, mock.Anything)
	ver.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateRegistration_DuplicateEmail_SkipsCodeCheck(t *testing.T) {
	dir := &mockDirectory{}
	ver := &mockVerifier{}
	dir.On("ExistsByUsername", mock.Anything, "kaito").Return(false, nil)
	dir.On("ExistsByEmail", mock.Anything, "kaito@qq.com").Return(true, nil)

	v := newValidator(dir, ver)
	fe, err := v.ValidateRegistration(context.Background(), validRequest())

	require.NoError(t, err)
	assert.True(t, fe.Has("email"))
	// The user is told about the duplicate address, never about a wrong code
	// for an address they cannot register.
	ver.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateRegistration_DuplicateUsername(t *testing.T) {
	dir := &mockDirectory{}
	ver := &mockVerifier{}
	dir.On("ExistsByUsername", mock.Anything, "kaito").Return(true, nil)
	dir.On("ExistsByEmail", mock.Anything, "kaito@qq.com").Return(false, nil)

	v := newValidator(dir, ver)
	fe, err := v.ValidateRegistration(context.Background(), validRequest())

	require.NoError(t, err)
	assert.True(t, fe.Has("username"))
	ver.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateRegistration_CodeOutcomes(t *testing.T) {
	cases := []struct {
		name      string
		verifyErr error
		message   string
	}{
		{"expired", domain.ErrCodeExpired, "verification code expired"},
		{"not requested", domain.ErrCodeNotRequested, "no verification code was requested for this email"},
		{"mismatch", domain.ErrCodeMismatch, "verification code incorrect"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := &mockDirectory{}
			ver := &mockVerifier{}
			dir.On("ExistsByUsername", mock.Anything, mock.Anything).Return(false, nil)
			dir.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
			ver.On("Verify", mock.Anything, "kaito@qq.com", domain.PurposeRegister, "1234").Return(tc.verifyErr)

			v := newValidator(dir, ver)
			fe, err := v.ValidateRegistration(context.Background(), validRequest())

			require.NoError(t, err)
			require.True(t, fe.Has("code"))
			assert.Contains(t, fe["code"][0], tc.message)
		})
	}
}

func TestValidateRegistration_HappyPath_ConsumesCode(t *testing.T) {
	dir := &mockDirectory{}
	ver := &mockVerifier{}
	dir.On("ExistsByUsername", mock.Anything, "kaito").Return(false, nil)
	dir.On("ExistsByEmail", mock.Anything, "kaito@qq.com").Return(false, nil)
	ver.On("Verify", mock.Anything, "kaito@qq.com", domain.PurposeRegister, "1234").Return(nil)

	v := newValidator(dir, ver)
	fe, err := v.ValidateRegistration(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Nil(t, fe)
	ver.AssertExpectations(t)
}

func TestValidateRegistration_StoreFailure_IsNotAVerdict(t *testing.T) {
	dir := &mockDirectory{}
	ver := &mockVerifier{}
	dir.On("ExistsByUsername", mock.Anything, mock.Anything).Return(false, errors.New("dynamo down"))

	v := newValidator(dir, ver)
	fe, err := v.ValidateRegistration(context.Background(), validRequest())

	require.Error(t, err)
	assert.Nil(t, fe)
}

// --- ValidateLogin ---

func TestValidateLogin_DoesNotTouchTheDirectory(t *testing.T) {
	dir := &mockDirectory{}
	v := newValidator(dir, nil)

	fe := v.ValidateLogin(domain.LoginRequest{Email: "kaito@qq.com", Password: "secret99"})

	assert.Nil(t, fe)
	dir.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
}

func TestValidateLogin_MissingPassword(t *testing.T) {
	v := newValidator(nil, nil)
	fe := v.ValidateLogin(domain.LoginRequest{Email: "kaito@qq.com"})
	require.NotNil(t, fe)
	assert.True(t, fe.Has("password"))
}

// --- ValidateDestination ---

func TestValidateDestination_RejectsUnlistedProvider(t *testing.T) {
	v := newValidator(nil, nil)
	fe := v.ValidateDestination("kaito@gmail.com")
	require.NotNil(t, fe)
	assert.True(t, fe.Has("email"))
}

func TestValidateDestination_AcceptsListedProvider(t *testing.T) {
	v := newValidator(nil, nil)
	assert.Nil(t, v.ValidateDestination("kaito@qq.com"))
}
