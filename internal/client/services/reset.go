package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/officehub/internal/client/client"
	"github.com/dmitrijs2005/officehub/internal/client/models"
	"github.com/dmitrijs2005/officehub/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const (
	OTPLength         = 4
	MinPasswordLength = 6
)

// ResetStep is a state of the password-reset wizard.
type ResetStep int

const (
	StepEmailEntry ResetStep = iota + 1
	StepIdentityConfirm
	StepOTPEntry
	StepPasswordEntry
	StepComplete
)

var stepInfo = map[ResetStep]struct{ name, title, subtitle string }{
	StepEmailEntry:      {"email", "Forgot Password", "Enter your registered email address"},
	StepIdentityConfirm: {"identity", "Verify Your Identity", "Confirm your account details"},
	StepOTPEntry:        {"otp", "Enter OTP", "Enter the 4-digit OTP sent to your email"},
	StepPasswordEntry:   {"password", "Create New Password", "Create a strong password for your account"},
	StepComplete:        {"complete", "Password Reset Complete", "Your password has been updated successfully"},
}

func (s ResetStep) String() string {
	if i, ok := stepInfo[s]; ok {
		return i.name
	}
	return "unknown"
}

// Number is the 1-based position of the step, for progress displays.
func (s ResetStep) Number() int { return int(s) }

func (s ResetStep) Title() string { return stepInfo[s].title }

func (s ResetStep) Subtitle() string { return stepInfo[s].subtitle }

// TotalResetSteps is the number of wizard steps.
const TotalResetSteps = int(StepComplete)

// User-facing messages.
const (
	msgEmailRequired     = "Please enter your email address"
	msgEmailNotFound     = "Email not found"
	msgFindAccountFailed = "Failed to find account. Please check your email."
	msgOTPSent           = "OTP has been sent to your email address"
	msgSendOTP           = "Failed to send OTP"
	msgSendOTPRetry      = "Failed to send OTP. Please try again."
	msgInvalidOTP        = "Please enter a valid 4-digit OTP"
	msgOTPVerified       = "OTP verified successfully"
	msgVerifyOTP         = "Invalid OTP"
	msgVerifyOTPRetry    = "Failed to verify OTP. Please try again."
	msgOTPResent         = "New OTP has been sent to your email"
	msgResendOTP         = "Failed to resend OTP"
	msgResendOTPRetry    = "Failed to resend OTP. Please try again."
	msgPasswordTooShort  = "Password must be at least 6 characters long"
	msgPasswordMismatch  = "Passwords do not match"
	msgResetPassword     = "Failed to reset password"
	msgResetRetry        = "Failed to reset password. Please try again."
)

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// SanitizeOTP keeps only ASCII digits and caps the result at OTPLength.
func SanitizeOTP(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if b.Len() == OTPLength {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResetState is a snapshot of the wizard for rendering.
type ResetState struct {
	Step     ResetStep
	Email    string
	Identity *models.ResetIdentity
	OTP      string
	Error    string
	Success  string
	Busy     bool
}

// PasswordReset drives the forgot-password flow:
//
//	EmailEntry -> IdentityConfirm -> OTPEntry -> PasswordEntry -> Complete
//
// Each forward transition is gated by one API call; on failure the wizard
// stays where it is and exposes the message in ResetState.Error. The only
// way back is RejectIdentity. At most one call runs at a time: a second
// action while one is in flight returns ErrBusy without touching the network.
type PasswordReset struct {
	api    client.PasswordResetAPI
	logger logging.Logger
	gate   *semaphore.Weighted
	newKey func() string

	mu       sync.Mutex
	step     ResetStep
	email    string
	identity *models.ResetIdentity
	otp      string
	errMsg   string
	okMsg    string
	busy     bool
}

func NewPasswordReset(api client.PasswordResetAPI, logger logging.Logger) *PasswordReset {
	if logger == nil {
		logger = logging.Nop()
	}
	return &PasswordReset{
		api:    api,
		logger: logger.With("component", "password_reset"),
		gate:   semaphore.NewWeighted(1),
		newKey: uuid.NewString,
		step:   StepEmailEntry,
	}
}

func (w *PasswordReset) State() ResetState {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := ResetState{
		Step:    w.step,
		Email:   w.email,
		OTP:     w.otp,
		Error:   w.errMsg,
		Success: w.okMsg,
		Busy:    w.busy,
	}
	if w.identity != nil {
		id := *w.identity
		s.Identity = &id
	}
	return s
}

// begin claims the in-flight slot for an action valid in step want and
// clears both messages. The caller must call end when begin succeeds.
func (w *PasswordReset) begin(want ResetStep) error {
	if !w.gate.TryAcquire(1) {
		return ErrBusy
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != want {
		w.gate.Release(1)
		return ErrWrongStep
	}
	w.errMsg, w.okMsg = "", ""
	w.busy = true
	return nil
}

func (w *PasswordReset) end() {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
	w.gate.Release(1)
}

// fail records a failure. API errors show the server message or fallback;
// anything else (network, timeout, bad payload) shows retry.
func (w *PasswordReset) fail(ctx context.Context, step ResetStep, err error, fallback, retry string) error {
	var apiErr *client.APIError
	msg := retry
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
		if msg == "" {
			msg = fallback
		}
	}
	w.logger.Warn(ctx, "password reset step failed", "step", step.String(), "error", err)
	return w.reject(step, msg, err)
}

func (w *PasswordReset) reject(step ResetStep, msg string, err error) error {
	w.mu.Lock()
	w.errMsg = msg
	w.mu.Unlock()
	return &StepError{Step: step, Message: msg, Err: err}
}

func (w *PasswordReset) callContext(ctx context.Context) context.Context {
	return client.WithIdempotencyKey(ctx, w.newKey())
}

// SubmitEmail looks the account up by email and, when found, moves to
// IdentityConfirm with the returned snapshot.
func (w *PasswordReset) SubmitEmail(ctx context.Context, raw string) error {
	if err := w.begin(StepEmailEntry); err != nil {
		return err
	}
	defer w.end()

	email := NormalizeEmail(raw)
	w.mu.Lock()
	w.email = email
	w.mu.Unlock()

	if email == "" {
		return w.reject(StepEmailEntry, msgEmailRequired, ErrEmailRequired)
	}

	identity, err := w.api.CheckEmail(w.callContext(ctx), email)
	if err != nil {
		return w.fail(ctx, StepEmailEntry, err, msgEmailNotFound, msgFindAccountFailed)
	}

	w.mu.Lock()
	w.identity = identity
	w.step = StepIdentityConfirm
	w.mu.Unlock()
	w.logger.Info(ctx, "account found", "step", StepIdentityConfirm.String())
	return nil
}

// RejectIdentity handles "not my account": back to EmailEntry with the
// identity snapshot and any OTP discarded. The typed email is kept for
// editing.
func (w *PasswordReset) RejectIdentity() error {
	if err := w.begin(StepIdentityConfirm); err != nil {
		return err
	}
	defer w.end()

	w.mu.Lock()
	w.identity = nil
	w.otp = ""
	w.step = StepEmailEntry
	w.mu.Unlock()
	return nil
}

// SendOTP confirms the identity and asks the server to email a code.
func (w *PasswordReset) SendOTP(ctx context.Context) error {
	if err := w.begin(StepIdentityConfirm); err != nil {
		return err
	}
	defer w.end()

	if err := w.api.SendOTP(w.callContext(ctx), NormalizeEmail(w.currentEmail())); err != nil {
		return w.fail(ctx, StepIdentityConfirm, err, msgSendOTP, msgSendOTPRetry)
	}

	w.mu.Lock()
	w.okMsg = msgOTPSent
	w.step = StepOTPEntry
	w.mu.Unlock()
	w.logger.Info(ctx, "otp sent", "step", StepOTPEntry.String())
	return nil
}

// SetOTP replaces the OTP input with its sanitized form and returns it.
// Non-digits are dropped silently and the value is capped at four digits.
// Outside OTPEntry, or while a call is in flight, the input is left as is.
func (w *PasswordReset) SetOTP(raw string) string {
	return w.editOTP(func(string) string { return raw })
}

// TypeOTP appends keys to the current OTP input under the same rules as
// SetOTP.
func (w *PasswordReset) TypeOTP(keys string) string {
	return w.editOTP(func(cur string) string { return cur + keys })
}

func (w *PasswordReset) editOTP(edit func(cur string) string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepOTPEntry || w.busy {
		return w.otp
	}
	w.otp = SanitizeOTP(edit(w.otp))
	return w.otp
}

// VerifyOTP checks the entered code. A code that is not exactly four digits
// is rejected locally without calling the server.
func (w *PasswordReset) VerifyOTP(ctx context.Context) error {
	if err := w.begin(StepOTPEntry); err != nil {
		return err
	}
	defer w.end()

	w.mu.Lock()
	otp, email := w.otp, w.email
	w.mu.Unlock()

	if len(otp) != OTPLength {
		return w.reject(StepOTPEntry, msgInvalidOTP, ErrInvalidOTP)
	}

	if err := w.api.VerifyOTP(w.callContext(ctx), NormalizeEmail(email), otp); err != nil {
		return w.fail(ctx, StepOTPEntry, err, msgVerifyOTP, msgVerifyOTPRetry)
	}

	w.mu.Lock()
	w.okMsg = msgOTPVerified
	w.step = StepPasswordEntry
	w.mu.Unlock()
	w.logger.Info(ctx, "otp verified", "step", StepPasswordEntry.String())
	return nil
}

// ResendOTP requests a new code and clears the current input. The step does
// not change.
func (w *PasswordReset) ResendOTP(ctx context.Context) error {
	if err := w.begin(StepOTPEntry); err != nil {
		return err
	}
	defer w.end()

	if err := w.api.ResendOTP(w.callContext(ctx), NormalizeEmail(w.currentEmail())); err != nil {
		return w.fail(ctx, StepOTPEntry, err, msgResendOTP, msgResendOTPRetry)
	}

	w.mu.Lock()
	w.okMsg = msgOTPResent
	w.otp = ""
	w.mu.Unlock()
	w.logger.Info(ctx, "otp resent")
	return nil
}

// ResetPassword sets the new password. Length and confirmation are checked
// locally first; violations never reach the server.
func (w *PasswordReset) ResetPassword(ctx context.Context, newPassword, confirmPassword string) error {
	if err := w.begin(StepPasswordEntry); err != nil {
		return err
	}
	defer w.end()

	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return w.reject(StepPasswordEntry, msgPasswordTooShort, ErrPasswordTooShort)
	}
	if newPassword != confirmPassword {
		return w.reject(StepPasswordEntry, msgPasswordMismatch, ErrPasswordMismatch)
	}

	err := w.api.ResetPassword(w.callContext(ctx), NormalizeEmail(w.currentEmail()), newPassword, confirmPassword)
	if err != nil {
		return w.fail(ctx, StepPasswordEntry, err, msgResetPassword, msgResetRetry)
	}

	w.mu.Lock()
	w.step = StepComplete
	w.mu.Unlock()
	w.logger.Info(ctx, "password reset complete", "step", StepComplete.String())
	return nil
}

func (w *PasswordReset) currentEmail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.email
}
