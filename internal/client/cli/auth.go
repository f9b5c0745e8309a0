package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/officehub/internal/client/models"
	"github.com/dmitrijs2005/officehub/internal/client/services"
	"github.com/dmitrijs2005/officehub/internal/shared"
)

// getSimpleText, getTextWithDefault and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText      = GetSimpleText
	getTextWithDefault = GetTextWithDefault
	getPassword        = GetPassword
)

// Login prompts for credentials and starts a session.
func (a *App) Login(ctx context.Context) error {
	return a.loginAs(ctx, "")
}

// loginAs logs in, prompting only for what is missing. email may be
// pre-filled, e.g. after a password reset.
func (a *App) loginAs(ctx context.Context, email string) error {
	var (
		password []byte
		err      error
	)

	if a.forms {
		c := credentials{Email: email}
		if err := runForm(loginForm(&c)); err != nil {
			return err
		}
		email, password = c.Email, []byte(c.Password)
	} else {
		if email == "" {
			email, err = getSimpleText(a.reader, "Enter email", a.out)
			if err != nil {
				return err
			}
		}
		password, err = getPassword(a.reader, a.out, "Enter password")
		if err != nil {
			return err
		}
	}
	defer shared.WipeByteArray(password)

	identity, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	a.printf("Welcome, %s (%s)\n", identity.Name, identity.Role.DisplayName())
	return nil
}

// Register prompts for the new account's details and signs the user in.
//
// The password is asked twice; a mismatch is reported without calling the
// server.
func (a *App) Register(ctx context.Context) error {
	req, err := a.registrationInput()
	if err != nil {
		return err
	}

	identity, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}

	a.printf("Account created. Welcome, %s (%s)\n", identity.Name, identity.Role.DisplayName())
	return nil
}

func (a *App) registrationInput() (models.RegisterRequest, error) {
	if a.forms {
		in := registration{Role: string(models.RoleIntern)}
		if err := runForm(registerForm(&in)); err != nil {
			return models.RegisterRequest{}, err
		}
		return in.request(), nil
	}

	var in registration
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Full name", &in.Name},
		{"Email", &in.Email},
	}
	for _, f := range fields {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return models.RegisterRequest{}, err
		}
		*f.dst = v
	}

	pw, err := getPassword(a.reader, a.out, "Password")
	if err != nil {
		return models.RegisterRequest{}, err
	}
	defer shared.WipeByteArray(pw)
	confirm, err := getPassword(a.reader, a.out, "Confirm password")
	if err != nil {
		return models.RegisterRequest{}, err
	}
	defer shared.WipeByteArray(confirm)
	if string(pw) != string(confirm) {
		return models.RegisterRequest{}, services.ErrPasswordMismatch
	}
	in.Password = string(pw)

	optional := []struct {
		prompt string
		def    string
		dst    *string
	}{
		{"Role (intern/employee)", string(models.RoleIntern), &in.Role},
		{"Department (optional)", "", &in.Department},
		{"Position (optional)", "", &in.Position},
		{"Phone (optional)", "", &in.Phone},
	}
	for _, f := range optional {
		v, err := getTextWithDefault(a.reader, f.prompt, f.def, a.out)
		if err != nil {
			return models.RegisterRequest{}, err
		}
		*f.dst = v
	}

	return in.request(), nil
}

// Logout ends the session. The local session is cleared even when the
// server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.println("Logged out")
	return nil
}

// WhoAmI prints the signed-in identity, optionally reloading it from the
// server first.
func (a *App) WhoAmI(ctx context.Context, refresh bool) error {
	if !a.auth.IsAuthenticated() {
		a.println("Not logged in")
		return nil
	}

	if refresh {
		if _, err := a.auth.Refresh(ctx); err != nil {
			return err
		}
	}

	id, _ := a.auth.Current()
	rows := [][2]string{
		{"Name", id.Name},
		{"Email", id.Email},
		{"Role", id.Role.DisplayName()},
		{"Employee ID", id.EmployeeCode()},
		{"Department", id.Department},
		{"Position", id.Position},
		{"Phone", id.Phone},
		{"Status", id.Status},
	}
	for _, r := range rows {
		if r[1] != "" {
			a.printf("%-12s %s\n", r[0]+":", r[1])
		}
	}
	if at, ok := a.auth.SavedAt(); ok {
		a.printf("%-12s %s\n", "Signed in:", at.Local().Format("2006-01-02 15:04"))
	}
	if exp, ok := services.TokenExpiry(a.auth.Token()); ok {
		a.printf("%-12s %s\n", "Session:", "expires "+exp.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// Profile edits the signed-in user's profile. Only fields that differ from
// the current values are sent.
func (a *App) Profile(ctx context.Context) error {
	cur, ok := a.auth.Current()
	if !ok {
		return services.ErrNotAuthenticated
	}

	in := profileFrom(cur)
	if a.forms {
		if err := runForm(profileForm(&in)); err != nil {
			return err
		}
	} else {
		fields := []struct {
			prompt   string
			dst      *string
			optional bool
		}{
			{"Name", &in.Name, false},
			{"Email", &in.Email, false},
			{"Phone", &in.Phone, true},
			{"Department", &in.Department, true},
			{"Position", &in.Position, true},
		}
		a.println("Press Enter to keep a value, or enter " + clearMarker + " to clear an optional one.")
		for _, f := range fields {
			v, err := getTextWithDefault(a.reader, f.prompt, *f.dst, a.out)
			if err != nil {
				return err
			}
			if f.optional && v == clearMarker {
				v = ""
			}
			*f.dst = v
		}
	}

	changes := profileChanges(cur, in)
	if changes.IsEmpty() {
		a.println("Nothing to update")
		return nil
	}

	if _, err := a.auth.UpdateProfile(ctx, changes); err != nil {
		return err
	}
	a.println("Profile updated")
	return nil
}

func profileFrom(id models.Identity) models.ProfileUpdate {
	return models.ProfileUpdate{
		Name:       id.Name,
		Email:      id.Email,
		Phone:      id.Phone,
		Department: id.Department,
		Position:   id.Position,
	}
}

// clearMarker entered at a line prompt erases an optional profile field.
const clearMarker = "-"

// profileChanges keeps the fields of in that differ from cur. Optional
// fields emptied by the user are listed in Cleared.
func profileChanges(cur models.Identity, in models.ProfileUpdate) models.ProfileUpdate {
	var out models.ProfileUpdate
	pick := func(old, val string) string {
		val = strings.TrimSpace(val)
		if val == old {
			return ""
		}
		return val
	}
	clearable := func(name, old, val string) string {
		val = strings.TrimSpace(val)
		if val == "" && old != "" {
			out.Cleared = append(out.Cleared, name)
			return ""
		}
		return pick(old, val)
	}

	out.Name = pick(cur.Name, in.Name)
	out.Email = pick(cur.Email, in.Email)
	out.Phone = clearable(models.FieldPhone, cur.Phone, in.Phone)
	out.Department = clearable(models.FieldDepartment, cur.Department, in.Department)
	out.Position = clearable(models.FieldPosition, cur.Position, in.Position)
	return out
}
