package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/donkcry/B--Blog/internal/pkg/otp"
)

// Service owns the verification-code lifecycle. Per (destination, purpose)
// key there is at most one live code: issuing stores a fresh one and
// implicitly supersedes whatever was there, verifying checks expiry and value
// and consumes the record on success. Absence of a record is the only
// representation of the consumed/superseded states; expiry is evaluated at
// verify time rather than reaped eagerly.
type Service interface {
	// Issue generates and stores a code for the key and emails it to the
	// destination. A mail failure surfaces as ErrNotificationFailed but the
	// stored code stays valid and the user can retry or request a resend.
	Issue(ctx context.Context, destination string, purpose domain.Purpose, accountID string) error
	// Verify consumes the live code for the key if it matches and is within
	// its TTL. Fails with ErrCodeNotRequested, ErrCodeExpired or
	// ErrCodeMismatch. A mismatch leaves the code in place for retry.
	Verify(ctx context.Context, destination string, purpose domain.Purpose, code string) error
}

type codeStore interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	GetLatest(ctx context.Context, destination string, purpose domain.Purpose) (*domain.VerificationCode, error)
	Delete(ctx context.Context, destination string, purpose domain.Purpose) error
	ConsumeIfMatch(ctx context.Context, destination string, purpose domain.Purpose, code string) error
}

type mailSender interface {
	SendEmail(to, subject, body string) error
}

type service struct {
	codes  codeStore
	mailer mailSender
	now    func() time.Time
}

func NewService(codes codeStore, mailer mailSender) Service {
	return &service{codes: codes, mailer: mailer, now: time.Now}
}

func (s *service) Issue(ctx context.Context, destination string, purpose domain.Purpose, accountID string) error {
	if !purpose.Valid() {
		return fmt.Errorf("unknown purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	code := otp.Digits(purpose.CodeLength())
	now := s.now().UTC()
	v := &domain.VerificationCode{
		Destination: destination,
		Purpose:     purpose,
		AccountID:   accountID,
		Code:        code,
		IssuedAt:    now.Unix(),
		ExpiresAt:   now.Add(domain.CodeTTL).Unix(),
	}
	// The upsert replaces any prior record for the key in one write, which is
	// the "only the latest code is ever valid" rule.
	if err := s.codes.Put(ctx, v); err != nil {
		return err
	}

	subject, body := mailContent(purpose, code)
	if err := s.mailer.SendEmail(destination, subject, body); err != nil {
		slog.Warn("verification mail failed", "destination", destination, "purpose", purpose, "err", err)
		return domain.ErrNotificationFailed
	}
	return nil
}

func (s *service) Verify(ctx context.Context, destination string, purpose domain.Purpose, code string) error {
	v, err := s.codes.GetLatest(ctx, destination, purpose)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCodeNotRequested
		}
		return err
	}
	if v.Expired(s.now().UTC()) {
		// Stale record. Drop it so the slot reads as NoCode afterwards.
		if derr := s.codes.Delete(ctx, destination, purpose); derr != nil {
			slog.Warn("could not delete expired code", "destination", destination, "purpose", purpose, "err", derr)
		}
		return domain.ErrCodeExpired
	}
	if v.Code != code {
		return domain.ErrCodeMismatch
	}
	// Conditional delete closes the race with a concurrent re-issue or a
	// concurrent verify: if the stored value changed since the read, the
	// submitted code no longer belongs to the live record.
	return s.codes.ConsumeIfMatch(ctx, destination, purpose, code)
}

func mailContent(purpose domain.Purpose, code string) (subject, body string) {
	minutes := int(domain.CodeTTL.Minutes())
	switch purpose {
	case domain.PurposeRegister:
		subject = "BL Blog registration code"
	case domain.PurposeLogin, domain.PurposePasswordReset:
		subject = "BL Blog password reset code"
	case domain.PurposePasswordChange:
		subject = "BL Blog password change code"
	case domain.PurposeEmailChange:
		subject = "BL Blog email change code"
	case domain.PurposeAccountDeletion:
		subject = "BL Blog account deletion code"
	default:
		subject = "BL Blog verification code"
	}
	body = fmt.Sprintf("Your verification code is: %s (valid for %d minutes)", code, minutes)
	return subject, body
}
