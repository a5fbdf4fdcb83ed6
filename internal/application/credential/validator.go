package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/donkcry/B--Blog/internal/pkg/validate"
)

// Field length bounds, from the product rules: usernames 1-20 runes,
// passwords 6-20.
const (
	UsernameMin = 1
	UsernameMax = 20
	PasswordMin = 6
	PasswordMax = 20
)

// AccountDirectory is the read-only view of the account store the validator
// needs for uniqueness checks.
type AccountDirectory interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// CodeVerifier checks and consumes a verification code.
type CodeVerifier interface {
	Verify(ctx context.Context, destination string, purpose domain.Purpose, code string) error
}

// Validator applies the submission checks in a fixed order so the user sees
// the most relevant error first:
//
//  1. presence: empty required fields fail fast and suppress everything else
//  2. shape: length and format bounds, checked per field and aggregated
//  3. uniqueness: against the account directory, only after shape passed
//  4. code: attempted last, and skipped entirely when the email field
//     already carries an error, so nobody is told to re-check a code for an
//     address they cannot register anyway
type Validator struct {
	accounts       AccountDirectory
	codes          CodeVerifier
	allowedDomains []string
}

func NewValidator(accounts AccountDirectory, codes CodeVerifier, allowedDomains []string) *Validator {
	return &Validator{accounts: accounts, codes: codes, allowedDomains: allowedDomains}
}

// ValidateRegistration runs the full ordering contract over a registration
// submission. A non-empty FieldErrors means the submission is rejected; a
// non-nil error means a transient storage failure, not a validation verdict.
// On full success the registration code has been consumed.
func (v *Validator) ValidateRegistration(ctx context.Context, req domain.RegisterRequest) (domain.FieldErrors, error) {
	fe := domain.FieldErrors{}

	// 1. Presence. Missing fields short-circuit every other check.
	requirePresent(fe, "username", req.Username)
	requirePresent(fe, "email", req.Email)
	requirePresent(fe, "password", req.Password)
	requirePresent(fe, "code", req.Code)
	if !fe.Empty() {
		return fe, nil
	}

	// 2. Shape, aggregated across fields.
	if n := utf8.RuneCountInString(req.Username); n < UsernameMin || n > UsernameMax {
		fe.Add("username", fmt.Sprintf("username must be %d-%d characters", UsernameMin, UsernameMax))
	}
	v.checkEmailShape(fe, req.Email)
	checkPasswordShape(fe, "password", req.Password)
	if !digitCode(req.Code, domain.PurposeRegister.CodeLength()) {
		fe.Add("code", fmt.Sprintf("code must be exactly %d digits", domain.PurposeRegister.CodeLength()))
	}
	if !fe.Empty() {
		return fe, nil
	}

	// 3. Uniqueness, only once shape passed.
	if taken, err := v.accounts.ExistsByUsername(ctx, req.Username); err != nil {
		return nil, err
	} else if taken {
		fe.Add("username", "username already taken")
	}
	if taken, err := v.accounts.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		fe.Add("email", "email already registered")
	}

	// 4. Code verification runs last and only when the email checks are
	// clean. Success consumes the code.
	if !fe.Has("email") && !fe.Has("username") {
		if err := v.codes.Verify(ctx, req.Email, domain.PurposeRegister, req.Code); err != nil {
			switch {
			case errors.Is(err, domain.ErrCodeExpired):
				fe.Add("code", "verification code expired")
			case errors.Is(err, domain.ErrCodeNotRequested):
				fe.Add("code", "no verification code was requested for this email")
			case errors.Is(err, domain.ErrCodeMismatch):
				fe.Add("code", "verification code incorrect")
			default:
				return nil, err
			}
		}
	}

	if fe.Empty() {
		return nil, nil
	}
	return fe, nil
}

// ValidateLogin checks presence and shape of a login submission. Whether the
// email is actually registered is deliberately not checked here: login
// failures collapse into a single ErrInvalidCredentials so responses do not
// reveal which addresses hold accounts.
func (v *Validator) ValidateLogin(req domain.LoginRequest) domain.FieldErrors {
	fe := domain.FieldErrors{}
	requirePresent(fe, "email", req.Email)
	requirePresent(fe, "password", req.Password)
	if !fe.Empty() {
		return fe
	}
	if !validate.Email(req.Email) {
		fe.Add("email", "not a valid email address")
	}
	checkPasswordShape(fe, "password", req.Password)
	if fe.Empty() {
		return nil
	}
	return fe
}

// ValidateNewPassword checks presence and shape of a replacement password.
func (v *Validator) ValidateNewPassword(newPassword string) domain.FieldErrors {
	fe := domain.FieldErrors{}
	requirePresent(fe, "new_password", newPassword)
	if !fe.Empty() {
		return fe
	}
	checkPasswordShape(fe, "new_password", newPassword)
	if fe.Empty() {
		return nil
	}
	return fe
}

// ValidateDestination checks that an address may receive verification codes:
// well-formed and on an allow-listed provider domain.
func (v *Validator) ValidateDestination(email string) domain.FieldErrors {
	fe := domain.FieldErrors{}
	requirePresent(fe, "email", email)
	if !fe.Empty() {
		return fe
	}
	v.checkEmailShape(fe, email)
	if fe.Empty() {
		return nil
	}
	return fe
}

func (v *Validator) checkEmailShape(fe domain.FieldErrors, email string) {
	if !validate.Email(email) {
		fe.Add("email", "not a valid email address")
		return
	}
	if !v.domainAllowed(email) {
		fe.Add("email", fmt.Sprintf("only these email providers are supported: %s", strings.Join(v.allowedDomains, ", ")))
	}
}

func (v *Validator) domainAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	host := strings.ToLower(email[at+1:])
	for _, d := range v.allowedDomains {
		if host == strings.ToLower(strings.TrimSpace(d)) {
			return true
		}
	}
	return false
}

func requirePresent(fe domain.FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		fe.Add(field, field+" is required")
	}
}

func checkPasswordShape(fe domain.FieldErrors, field, password string) {
	if n := len(password); n < PasswordMin || n > PasswordMax {
		fe.Add(field, fmt.Sprintf("password must be %d-%d characters", PasswordMin, PasswordMax))
	}
}

func digitCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
