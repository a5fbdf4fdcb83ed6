package domain

import "time"

type Account struct {
	AccountID    string    `json:"id" dynamodbav:"account_id"`
	Username     string    `json:"username" dynamodbav:"username"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	FirstName    string    `json:"first_name,omitempty" dynamodbav:"first_name"`
	LastName     string    `json:"last_name,omitempty" dynamodbav:"last_name"`
	AvatarFileID string    `json:"avatar_file_id,omitempty" dynamodbav:"avatar_file_id"`
	Enable       int       `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// RegisterRequest is the registration submission. Length bounds follow the
// product rules: usernames 1-20 runes, passwords 6-20, code exactly 4 digits.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type ChangeEmailRequest struct {
	NewEmail string `json:"new_email"`
	Code     string `json:"code"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}
