package domain

import "time"

// Purpose identifies the business reason a verification code was issued.
// It is part of the code's identity key: the store keeps at most one live
// code per (destination, purpose) pair.
type Purpose string

const (
	PurposeRegister        Purpose = "register"
	PurposeLogin           Purpose = "login"
	PurposePasswordReset   Purpose = "password_reset"
	PurposePasswordChange  Purpose = "password_change"
	PurposeEmailChange     Purpose = "email_change"
	PurposeAccountDeletion Purpose = "account_deletion"
)

// AllPurposes lists every known purpose. Account deletion iterates it to
// clear each code slot keyed to the account's email.
var AllPurposes = []Purpose{
	PurposeRegister, PurposeLogin, PurposePasswordReset,
	PurposePasswordChange, PurposeEmailChange, PurposeAccountDeletion,
}

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeRegister, PurposeLogin, PurposePasswordReset,
		PurposePasswordChange, PurposeEmailChange, PurposeAccountDeletion:
		return true
	}
	return false
}

// CodeTTL is how long a verification code stays acceptable after issuance.
// The value is the same for every purpose; expiry is checked at verify time,
// the DynamoDB native TTL on the table is hygiene only.
const CodeTTL = 5 * time.Minute

// CodeLength returns the digit count for codes issued for p. Pre-account
// flows use short codes typed from an email into a public form; flows that
// mutate an existing account use longer ones.
func (p Purpose) CodeLength() int {
	switch p {
	case PurposePasswordChange, PurposeEmailChange, PurposeAccountDeletion:
		return 6
	default:
		return 4
	}
}

// VerificationCode is a single-slot, single-use emailed code.
// PK: destination (email), SK: purpose. AccountID is empty for pre-account
// flows such as registration. ExpiresAt doubles as the DynamoDB item TTL.
type VerificationCode struct {
	Destination string  `json:"destination" dynamodbav:"destination"`
	Purpose     Purpose `json:"purpose" dynamodbav:"purpose"`
	AccountID   string  `json:"account_id,omitempty" dynamodbav:"account_id"`
	Code        string  `json:"-" dynamodbav:"code"`
	IssuedAt    int64   `json:"issued_at" dynamodbav:"issued_at"`   // Unix seconds
	ExpiresAt   int64   `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds, table TTL attribute
}

// Expired reports whether the code is past its TTL at the given instant.
func (v *VerificationCode) Expired(now time.Time) bool {
	return now.Unix() > v.ExpiresAt
}
