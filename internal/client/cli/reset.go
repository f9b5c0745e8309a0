package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/officehub/internal/client/services"
	resetui "github.com/dmitrijs2005/officehub/internal/client/tui/reset"
	"github.com/dmitrijs2005/officehub/internal/shared"
)

// runResetTUI is a test seam for the bubbletea front end.
var runResetTUI = func(ctx context.Context, w *services.PasswordReset) (resetui.Result, error) {
	return resetui.Run(ctx, w)
}

// ForgotPassword walks the user through the password reset. On a terminal
// the full-screen wizard is used; otherwise a line-based dialog. When the
// reset completes the user may log in right away with the new password.
func (a *App) ForgotPassword(ctx context.Context) error {
	w := a.newReset()

	var (
		res resetui.Result
		err error
	)
	if a.forms {
		res, err = runResetTUI(ctx, w)
	} else {
		res, err = a.runResetLines(ctx, w)
	}
	if err != nil {
		return err
	}

	switch {
	case res.Cancelled:
		a.println("Password reset cancelled")
		return nil
	case !res.Completed:
		return nil
	}

	a.println("Password reset complete. You can now log in with your new password.")
	if !res.LoginRequested {
		return nil
	}
	if a.auth.IsAuthenticated() {
		if err := a.auth.Logout(ctx); err != nil {
			return err
		}
	}
	return a.loginAs(ctx, res.Email)
}

// runResetLines is the line-based front end of the wizard. It prompts for
// whatever the current step needs and reports the wizard's messages after
// every action. An empty email cancels.
func (a *App) runResetLines(ctx context.Context, w *services.PasswordReset) (resetui.Result, error) {
	shown := services.ResetStep(0)

	for {
		st := w.State()
		if st.Step != shown {
			a.printf("\nStep %d of %d: %s\n%s\n", st.Step.Number(), services.TotalResetSteps, st.Step.Title(), st.Step.Subtitle())
			shown = st.Step
		}

		var err error
		switch st.Step {
		case services.StepEmailEntry:
			var email string
			email, err = getSimpleText(a.reader, "Email address (empty to cancel)", a.out)
			if err != nil {
				return resetui.Result{}, err
			}
			if email == "" {
				return resetui.Result{Cancelled: true}, nil
			}
			err = w.SubmitEmail(ctx, email)

		case services.StepIdentityConfirm:
			a.printIdentity(st)
			var answer string
			answer, err = getSimpleText(a.reader, "Is this your account? [y/n]", a.out)
			if err != nil {
				return resetui.Result{}, err
			}
			switch strings.ToLower(strings.TrimSpace(answer)) {
			case "y", "yes":
				err = w.SendOTP(ctx)
			case "n", "no":
				err = w.RejectIdentity()
			default:
				continue
			}

		case services.StepOTPEntry:
			var code string
			code, err = getSimpleText(a.reader, "Enter the 4-digit OTP (or 'resend')", a.out)
			if err != nil {
				return resetui.Result{}, err
			}
			if strings.EqualFold(code, "resend") {
				err = w.ResendOTP(ctx)
			} else {
				w.SetOTP(code)
				err = w.VerifyOTP(ctx)
			}

		case services.StepPasswordEntry:
			var newPw, confirm []byte
			newPw, confirm, err = a.readNewPassword()
			if err != nil {
				return resetui.Result{}, err
			}
			err = w.ResetPassword(ctx, string(newPw), string(confirm))
			shared.WipeByteArray(newPw)
			shared.WipeByteArray(confirm)

		case services.StepComplete:
			answer, err := getSimpleText(a.reader, "Log in now? [y/n]", a.out)
			if err != nil {
				return resetui.Result{}, err
			}
			return resetui.Result{Completed: true, Email: st.Email, LoginRequested: confirmed(answer)}, nil
		}

		a.reportStep(w.State(), err)
	}
}

func (a *App) readNewPassword() (newPw, confirm []byte, err error) {
	newPw, err = getPassword(a.reader, a.out, "New password")
	if err != nil {
		return nil, nil, err
	}
	confirm, err = getPassword(a.reader, a.out, "Confirm password")
	if err != nil {
		shared.WipeByteArray(newPw)
		return nil, nil, err
	}
	return newPw, confirm, nil
}

func (a *App) printIdentity(st services.ResetState) {
	if st.Identity == nil {
		return
	}
	a.printf("  Name:        %s\n", st.Identity.Name)
	a.printf("  Employee ID: %s\n", st.Identity.EmployeeID)
	a.printf("  Email:       %s\n", st.Identity.Email)
	a.printf("  Role:        %s\n", st.Identity.Role.DisplayName())
}

// reportStep prints the outcome of the last wizard action.
func (a *App) reportStep(st services.ResetState, err error) {
	switch {
	case st.Error != "":
		a.println("Error:", st.Error)
	case st.Success != "":
		a.println(st.Success)
	case err != nil && !errors.Is(err, services.ErrWrongStep):
		a.println("Error:", err.Error())
	}
}
