package client

import (
	"context"

	"github.com/dmitrijs2005/officehub/internal/client/models"
)

// AuthAPI covers the /auth endpoints. Calls that need an authenticated user
// take the bearer token explicitly.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*models.Identity, error)
	UpdateMe(ctx context.Context, token string, fields models.ProfileUpdate) (*models.Identity, error)
}

// PasswordResetAPI covers the /password-reset endpoints. Emails are sent as
// given; normalization is the caller's job.
type PasswordResetAPI interface {
	CheckEmail(ctx context.Context, email string) (*models.ResetIdentity, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) error
	ResendOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error
}

type Client interface {
	AuthAPI
	PasswordResetAPI
	Close() error
}
