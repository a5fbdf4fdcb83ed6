package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/donkcry/B--Blog/internal/application/credential"
	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/donkcry/B--Blog/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// Service applies account mutations. Every sensitive mutation requires a
// successful code verification for its purpose; the identity of the caller is
// an explicit parameter, never ambient state.
type Service interface {
	// RequestCode applies the per-purpose destination policy and issues a
	// code. accountID is empty for pre-account purposes and required for the
	// authenticated ones.
	RequestCode(ctx context.Context, email string, purpose domain.Purpose, accountID string) error
	// VerifyCode is the standalone check used by multi-step UI flows. It
	// consumes the code on success, like any other verification.
	VerifyCode(ctx context.Context, email string, purpose domain.Purpose, code string) error

	Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, error)
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.Account, error)
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, accountID string, req domain.ChangePasswordRequest) error
	ChangeEmail(ctx context.Context, accountID string, req domain.ChangeEmailRequest) error
	Delete(ctx context.Context, accountID string, req domain.DeleteAccountRequest) error

	Get(ctx context.Context, accountID string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, accountID string, req domain.UpdateProfileRequest) (*domain.Account, error)
}

type accountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
	ChangeEmail(ctx context.Context, accountID, oldEmail, newEmail string) error
	ChangeUsername(ctx context.Context, accountID, oldUsername, newUsername string) error
	HardDelete(ctx context.Context, a *domain.Account) error
}

type sessionStore interface {
	DisableAllForAccount(ctx context.Context, accountID string) error
}

type codeVerifier interface {
	Issue(ctx context.Context, destination string, purpose domain.Purpose, accountID string) error
	Verify(ctx context.Context, destination string, purpose domain.Purpose, code string) error
}

type eventPublisher interface {
	PublishAccountEvent(ctx context.Context, event, accountID string) error
}

type service struct {
	repo      accountStore
	sessions  sessionStore
	verifier  codeVerifier
	validator *credential.Validator
	events    eventPublisher
}

type ServiceDeps struct {
	AccountRepo accountStore
	SessionRepo sessionStore
	Verifier    codeVerifier
	Validator   *credential.Validator
	Events      eventPublisher // optional
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.AccountRepo,
		sessions:  deps.SessionRepo,
		verifier:  deps.Verifier,
		validator: deps.Validator,
		events:    deps.Events,
	}
}

// normalizeEmail lowercases an address so that casing variants of the same
// mailbox hit the same GSI entries, uniqueness markers and code slots.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) RequestCode(ctx context.Context, email string, purpose domain.Purpose, accountID string) error {
	email = normalizeEmail(email)
	if !purpose.Valid() {
		return fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	if fe := s.validator.ValidateDestination(email); fe != nil {
		return fe
	}

	switch purpose {
	case domain.PurposeRegister:
		taken, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrDuplicateEmail
		}

	case domain.PurposeLogin, domain.PurposePasswordReset:
		taken, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if !taken {
			return fmt.Errorf("email not registered: %w", domain.ErrNotFound)
		}

	case domain.PurposePasswordChange, domain.PurposeAccountDeletion:
		a, err := s.requireAccount(ctx, accountID)
		if err != nil {
			return err
		}
		// Codes for these purposes only ever go to the account's own address.
		email = a.Email

	case domain.PurposeEmailChange:
		if _, err := s.requireAccount(ctx, accountID); err != nil {
			return err
		}
		// Destination is the address being adopted. Checked again at commit
		// time inside the email-change transaction.
		taken, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrDuplicateEmail
		}
	}

	return s.verifier.Issue(ctx, email, purpose, accountID)
}

func (s *service) VerifyCode(ctx context.Context, email string, purpose domain.Purpose, code string) error {
	if !purpose.Valid() {
		return fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	return s.verifier.Verify(ctx, normalizeEmail(email), purpose, code)
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, error) {
	req.Email = normalizeEmail(req.Email)
	fe, err := s.validator.ValidateRegistration(ctx, req)
	if err != nil {
		return nil, err
	}
	if fe != nil {
		return nil, fe
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:    id.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Enable:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The storage-layer transaction is the real uniqueness guard; the
	// validator's existence check only produced the friendlier field error.
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, "account.created", a.AccountID)
	return a, nil
}

func (s *service) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.Account, error) {
	req.Email = normalizeEmail(req.Email)
	if fe := s.validator.ValidateLogin(req); fe != nil {
		return nil, fe
	}
	a, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Same answer as a wrong password, so responses don't reveal
			// which addresses hold accounts.
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return a, nil
}

func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if fe := s.validator.ValidateDestination(req.Email); fe != nil {
		return fe
	}
	if fe := s.validator.ValidateNewPassword(req.NewPassword); fe != nil {
		return fe
	}
	a, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if err := s.verifier.Verify(ctx, req.Email, domain.PurposePasswordReset, req.Code); err != nil {
		return err
	}
	return s.setPassword(ctx, a.AccountID, req.NewPassword)
}

func (s *service) ChangePassword(ctx context.Context, accountID string, req domain.ChangePasswordRequest) error {
	a, err := s.requireAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if fe := s.validator.ValidateNewPassword(req.NewPassword); fe != nil {
		return fe
	}
	if err := s.verifier.Verify(ctx, a.Email, domain.PurposePasswordChange, req.Code); err != nil {
		return err
	}
	return s.setPassword(ctx, a.AccountID, req.NewPassword)
}

func (s *service) ChangeEmail(ctx context.Context, accountID string, req domain.ChangeEmailRequest) error {
	req.NewEmail = normalizeEmail(req.NewEmail)
	a, err := s.requireAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if fe := s.validator.ValidateDestination(req.NewEmail); fe != nil {
		return fe
	}
	if err := s.verifier.Verify(ctx, req.NewEmail, domain.PurposeEmailChange, req.Code); err != nil {
		return err
	}
	// Uniqueness is re-checked inside the transaction; the code having been
	// valid does not excuse taking an address someone claimed meanwhile.
	if err := s.repo.ChangeEmail(ctx, a.AccountID, a.Email, req.NewEmail); err != nil {
		return err
	}
	s.publish(ctx, "account.email_changed", a.AccountID)
	return nil
}

func (s *service) Delete(ctx context.Context, accountID string, req domain.DeleteAccountRequest) error {
	a, err := s.requireAccount(ctx, accountID)
	if err != nil {
		return err
	}
	// Deletion demands both the password and a fresh code.
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		return domain.ErrInvalidCredentials
	}
	if err := s.verifier.Verify(ctx, a.Email, domain.PurposeAccountDeletion, req.Code); err != nil {
		return err
	}
	// HardDelete also clears every verification code addressed to the
	// account, in the same transaction.
	if err := s.repo.HardDelete(ctx, a); err != nil {
		return err
	}
	if err := s.sessions.DisableAllForAccount(ctx, a.AccountID); err != nil {
		slog.Warn("could not disable sessions for deleted account", "account_id", a.AccountID, "err", err)
	}
	s.publish(ctx, "account.deleted", a.AccountID)
	return nil
}

func (s *service) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.repo.Get(ctx, accountID)
}

func (s *service) UpdateProfile(ctx context.Context, accountID string, req domain.UpdateProfileRequest) (*domain.Account, error) {
	a, err := s.requireAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if req.Username != nil && *req.Username != a.Username {
		fe := domain.FieldErrors{}
		if n := len([]rune(*req.Username)); n < credential.UsernameMin || n > credential.UsernameMax {
			fe.Add("username", fmt.Sprintf("username must be %d-%d characters", credential.UsernameMin, credential.UsernameMax))
			return nil, fe
		}
		// The marker transaction is the race-safe uniqueness check.
		if err := s.repo.ChangeUsername(ctx, a.AccountID, a.Username, *req.Username); err != nil {
			return nil, err
		}
	}
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, accountID, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, accountID)
}

func (s *service) setPassword(ctx context.Context, accountID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, accountID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return err
	}
	// A changed password retires every outstanding session.
	if err := s.sessions.DisableAllForAccount(ctx, accountID); err != nil {
		slog.Warn("could not disable sessions after password change", "account_id", accountID, "err", err)
	}
	return nil
}

func (s *service) requireAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("authentication required: %w", domain.ErrUnauthorized)
	}
	return s.repo.Get(ctx, accountID)
}

func (s *service) publish(ctx context.Context, event, accountID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAccountEvent(ctx, event, accountID); err != nil {
		slog.Warn("could not publish account event", "event", event, "account_id", accountID, "err", err)
	}
}
