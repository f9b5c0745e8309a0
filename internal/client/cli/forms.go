package cli

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dmitrijs2005/officehub/internal/client/models"
	"github.com/dmitrijs2005/officehub/internal/client/services"
)

// runForm is a test seam around (*huh.Form).Run.
var runForm = func(f *huh.Form) error { return f.Run() }

type credentials struct {
	Email    string
	Password string
}

type registration struct {
	Name       string
	Email      string
	Password   string
	Confirm    string
	Role       string
	Department string
	Position   string
	Phone      string
}

func (r registration) request() models.RegisterRequest {
	return models.RegisterRequest{
		Name:       strings.TrimSpace(r.Name),
		Email:      strings.TrimSpace(r.Email),
		Password:   r.Password,
		Role:       models.Role(strings.ToLower(strings.TrimSpace(r.Role))),
		Department: strings.TrimSpace(r.Department),
		Position:   strings.TrimSpace(r.Position),
		Phone:      strings.TrimSpace(r.Phone),
	}
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return errors.New("enter a valid email address")
	}
	return nil
}

func validatePassword(s string) error {
	if len([]rune(s)) < services.MinPasswordLength {
		return errors.New("must be at least 6 characters")
	}
	return nil
}

func loginForm(c *credentials) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&c.Email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&c.Password).
				Validate(validateRequired),
		).Title("Log in").
			Description("Sign in to the employee hub"),
	)
}

func registerForm(r *registration) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Full name").Value(&r.Name).Validate(validateRequired),
			huh.NewInput().Title("Email").Value(&r.Email).Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&r.Password).
				Validate(validatePassword),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&r.Confirm).
				Validate(func(s string) error {
					if s != r.Password {
						return services.ErrPasswordMismatch
					}
					return nil
				}),
		).Title("Create account"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Role").
				Options(
					huh.NewOption("Intern", string(models.RoleIntern)),
					huh.NewOption("Employee", string(models.RoleEmployee)),
				).
				Value(&r.Role),
			huh.NewInput().Title("Department").Value(&r.Department),
			huh.NewInput().Title("Position").Value(&r.Position),
			huh.NewInput().Title("Phone").Value(&r.Phone),
		).Title("Work details").
			Description("Optional, can be changed later"),
	)
}

func profileForm(p *models.ProfileUpdate) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&p.Name).Validate(validateRequired),
			huh.NewInput().Title("Email").Value(&p.Email).Validate(validateEmail),
			huh.NewInput().Title("Phone").Value(&p.Phone),
			huh.NewInput().Title("Department").Value(&p.Department),
			huh.NewInput().Title("Position").Value(&p.Position),
		).Title("Edit profile"),
	)
}
