package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/officehub/internal/client/client"
	"github.com/dmitrijs2005/officehub/internal/client/models"
	"github.com/dmitrijs2005/officehub/internal/client/services"
	resetui "github.com/dmitrijs2005/officehub/internal/client/tui/reset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResetAPI struct {
	emails    []string
	otps      []string
	verifyErr error
	resetPw   string
}

func (f *fakeResetAPI) CheckEmail(_ context.Context, email string) (*models.ResetIdentity, error) {
	f.emails = append(f.emails, email)
	return &models.ResetIdentity{Name: "Jane Doe", EmployeeID: "EMP26-0001", Email: email, Role: models.RoleIntern}, nil
}
func (f *fakeResetAPI) SendOTP(context.Context, string) error   { return nil }
func (f *fakeResetAPI) ResendOTP(context.Context, string) error { return nil }
func (f *fakeResetAPI) VerifyOTP(_ context.Context, _, otp string) error {
	f.otps = append(f.otps, otp)
	err := f.verifyErr
	f.verifyErr = nil
	return err
}
func (f *fakeResetAPI) ResetPassword(_ context.Context, _, newPassword, _ string) error {
	f.resetPw = newPassword
	return nil
}

func newResetApp(api *fakeResetAPI, auth *fakeAuth, input string) (*App, *bytes.Buffer) {
	a, out := newTestApp(auth, input)
	a.newReset = func() *services.PasswordReset { return services.NewPasswordReset(api, nil) }
	return a, out
}

func joinLines(s ...string) string {
	return strings.Join(s, "\n") + "\n"
}

func TestForgotPassword_LineDriverEndToEnd(t *testing.T) {
	stubPasswords(t, "short", "short", "newpass1", "newpass1", "newpass1")
	api := &fakeResetAPI{verifyErr: &client.APIError{Status: 400, Message: "OTP expired"}}
	auth := &fakeAuth{loginRet: jane}

	a, out := newResetApp(api, auth, joinLines(
		"Jane@Example.com ", // email
		"maybe",             // re-asked
		"y",                 // identity confirmed
		"12",                // too short, local error
		"resend",            // new code
		"1234",              // server rejects
		"1234",              // accepted
		"y",                 // log in now
	))

	require.NoError(t, a.ForgotPassword(context.Background()))

	assert.Equal(t, []string{"jane@example.com"}, api.emails)
	assert.Equal(t, []string{"1234", "1234"}, api.otps)
	assert.Equal(t, "newpass1", api.resetPw)
	assert.Equal(t, "jane@example.com", auth.loginEmail)
	assert.Equal(t, "newpass1", auth.loginPass)

	s := out.String()
	for _, want := range []string{
		"Step 1 of 5: Forgot Password",
		"Employee ID: EMP26-0001",
		"Role:        Employee",
		"OTP has been sent to your email address",
		"Please enter a valid 4-digit OTP",
		"New OTP has been sent to your email",
		"Error: OTP expired",
		"OTP verified successfully",
		"Password must be at least 6 characters long",
		"Step 5 of 5: Password Reset Complete",
		"Password reset complete",
		"Welcome, Jane Doe (Employee)",
	} {
		assert.Contains(t, s, want)
	}
}

func TestForgotPassword_NotMyAccount(t *testing.T) {
	api := &fakeResetAPI{}
	a, out := newResetApp(api, &fakeAuth{}, joinLines("jane@example.com", "n", ""))

	require.NoError(t, a.ForgotPassword(context.Background()))
	assert.Len(t, api.emails, 1)
	assert.Contains(t, out.String(), "Password reset cancelled")
}

func TestForgotPassword_EOFIsReturned(t *testing.T) {
	a, _ := newResetApp(&fakeResetAPI{}, &fakeAuth{}, "")
	require.Error(t, a.ForgotPassword(context.Background()))
}

func TestForgotPassword_UsesTUIWhenInteractive(t *testing.T) {
	orig := runResetTUI
	t.Cleanup(func() { runResetTUI = orig })

	var called bool
	runResetTUI = func(_ context.Context, w *services.PasswordReset) (resetui.Result, error) {
		called = true
		require.NotNil(t, w)
		return resetui.Result{Completed: true, Email: "jane@example.com"}, nil
	}

	auth := &fakeAuth{}
	a, out := newResetApp(&fakeResetAPI{}, auth, "")
	a.forms = true

	require.NoError(t, a.ForgotPassword(context.Background()))
	assert.True(t, called)
	assert.Contains(t, out.String(), "Password reset complete")
	assert.Empty(t, auth.loginEmail)
}

func TestForgotPassword_PipedInputReachesComplete(t *testing.T) {
	pipeStdin(t)
	api := &fakeResetAPI{}
	auth := &fakeAuth{loginRet: jane}

	a, out := newResetApp(api, auth, joinLines(
		"jane@example.com",
		"y",
		"1234",
		"newpass1",
		"newpass1",
		"y",
		"newpass1",
	))

	w := a.newReset()
	res, err := a.runResetLines(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, services.StepComplete, w.State().Step)
	assert.True(t, res.Completed)
	assert.True(t, res.LoginRequested)
	assert.Equal(t, "newpass1", api.resetPw)

	a.newReset = func() *services.PasswordReset { return services.NewPasswordReset(api, nil) }
	a.reader = rdr(joinLines("jane@example.com", "y", "1234", "newpass1", "newpass1", "y", "newpass1"))
	require.NoError(t, a.ForgotPassword(context.Background()))
	assert.Equal(t, "jane@example.com", auth.loginEmail)
	assert.Equal(t, "newpass1", auth.loginPass)
	assert.Contains(t, out.String(), "Welcome, Jane Doe (Employee)")
}

func TestLogin_PipedInputReadsPasswordLine(t *testing.T) {
	pipeStdin(t)
	auth := &fakeAuth{loginRet: jane}
	a, _ := newTestApp(auth, joinLines("jane@example.com", "secret"))

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, "secret", auth.loginPass)
}
