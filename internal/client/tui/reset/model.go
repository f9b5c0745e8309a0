// Package reset is the terminal UI for the forgot-password flow. The model
// only renders services.PasswordReset state and forwards key presses to it;
// every rule about steps and messages lives in the service.
package reset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dmitrijs2005/officehub/internal/client/services"
)

// Result describes how the user left the wizard.
type Result struct {
	Completed      bool
	Cancelled      bool
	LoginRequested bool
	Email          string
}

// stepDoneMsg is delivered when an API-backed wizard action returns.
type stepDoneMsg struct {
	err error
}

// Model is a bubbletea model around a PasswordReset wizard.
type Model struct {
	ctx    context.Context
	wizard *services.PasswordReset

	email   textinput.Model
	otp     textinput.Model
	newPw   textinput.Model
	confirm textinput.Model
	spinner spinner.Model

	pending bool
	width   int
	result  Result
}

func New(ctx context.Context, wizard *services.PasswordReset) *Model {
	email := textinput.New()
	email.Placeholder = "you@company.com"
	email.CharLimit = 254
	email.Width = 40
	email.Focus()

	otp := textinput.New()
	otp.Placeholder = "0000"
	otp.CharLimit = 32
	otp.Width = services.OTPLength + 1

	newPw := textinput.New()
	newPw.Placeholder = "new password"
	newPw.EchoMode = textinput.EchoPassword
	newPw.Width = 40

	confirm := textinput.New()
	confirm.Placeholder = "confirm password"
	confirm.EchoMode = textinput.EchoPassword
	confirm.Width = 40

	return &Model{
		ctx:     ctx,
		wizard:  wizard,
		email:   email,
		otp:     otp,
		newPw:   newPw,
		confirm: confirm,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Result returns the outcome once the program has exited.
func (m *Model) Result() Result {
	return m.result
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepDoneMsg:
		m.pending = false
		return m, m.syncInputs()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (msg.Type == tea.KeyEsc && !m.pending) {
			m.result.Cancelled = true
			return m, tea.Quit
		}
		// input is ignored while a request is in flight
		if m.pending {
			return m, nil
		}
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.wizard.State()

	switch st.Step {
	case services.StepEmailEntry:
		if msg.Type == tea.KeyEnter {
			email := m.email.Value()
			return m, m.call(func(ctx context.Context) error { return m.wizard.SubmitEmail(ctx, email) })
		}

	case services.StepIdentityConfirm:
		switch msg.String() {
		case "y", "enter":
			return m, m.call(m.wizard.SendOTP)
		case "n":
			_ = m.wizard.RejectIdentity()
			return m, m.syncInputs()
		}
		return m, nil

	case services.StepOTPEntry:
		switch msg.String() {
		case "enter":
			return m, m.call(m.wizard.VerifyOTP)
		case "ctrl+r":
			return m, m.call(m.wizard.ResendOTP)
		}
		model, cmd := m.forward(msg)
		m.otp.SetValue(m.wizard.SetOTP(m.otp.Value()))
		return model, cmd

	case services.StepPasswordEntry:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			return m, m.togglePasswordFocus()
		case "enter":
			if m.newPw.Focused() {
				return m, m.togglePasswordFocus()
			}
			newPw, confirm := m.newPw.Value(), m.confirm.Value()
			return m, m.call(func(ctx context.Context) error { return m.wizard.ResetPassword(ctx, newPw, confirm) })
		}

	case services.StepComplete:
		switch msg.String() {
		case "l":
			m.result.LoginRequested = true
			fallthrough
		case "enter", "q":
			m.result.Completed = true
			m.result.Email = st.Email
			return m, tea.Quit
		}
		return m, nil
	}

	return m.forward(msg)
}

// call runs fn off the update loop and reports back with stepDoneMsg.
func (m *Model) call(fn func(ctx context.Context) error) tea.Cmd {
	m.pending = true
	ctx := m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return stepDoneMsg{err: fn(ctx)}
	})
}

func (m *Model) togglePasswordFocus() tea.Cmd {
	if m.newPw.Focused() {
		m.newPw.Blur()
		return m.confirm.Focus()
	}
	m.confirm.Blur()
	return m.newPw.Focus()
}

// syncInputs focuses the input that belongs to the current step.
func (m *Model) syncInputs() tea.Cmd {
	st := m.wizard.State()

	m.email.Blur()
	m.otp.Blur()
	m.newPw.Blur()
	m.confirm.Blur()

	switch st.Step {
	case services.StepEmailEntry:
		return m.email.Focus()
	case services.StepOTPEntry:
		m.otp.SetValue(st.OTP)
		return m.otp.Focus()
	case services.StepPasswordEntry:
		if m.confirm.Value() != "" && m.newPw.Value() != "" {
			return m.confirm.Focus()
		}
		return m.newPw.Focus()
	}
	return nil
}

func (m *Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.email.Focused():
		m.email, cmd = m.email.Update(msg)
	case m.otp.Focused():
		m.otp, cmd = m.otp.Update(msg)
	case m.newPw.Focused():
		m.newPw, cmd = m.newPw.Update(msg)
	case m.confirm.Focused():
		m.confirm, cmd = m.confirm.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model
func (m *Model) View() string {
	st := m.wizard.State()
	var sb strings.Builder

	sb.WriteString(renderProgress(st.Step))
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render(st.Step.Title()))
	sb.WriteString("\n")
	sb.WriteString(subtitleStyle.Render(st.Step.Subtitle()))
	sb.WriteString("\n")

	switch st.Step {
	case services.StepEmailEntry:
		sb.WriteString("Email address\n")
		sb.WriteString(m.email.View())
	case services.StepIdentityConfirm:
		sb.WriteString(renderIdentity(st))
		sb.WriteString("\n\nIs this your account?")
	case services.StepOTPEntry:
		fmt.Fprintf(&sb, "Code sent to %s\n", st.Email)
		sb.WriteString(m.otp.View())
	case services.StepPasswordEntry:
		sb.WriteString("New password\n")
		sb.WriteString(m.newPw.View())
		sb.WriteString("\nConfirm password\n")
		sb.WriteString(m.confirm.View())
	case services.StepComplete:
		sb.WriteString(successStyle.Render("You can now log in with your new password."))
	}
	sb.WriteString("\n\n")

	if m.pending {
		sb.WriteString(m.spinner.View() + " Please wait...\n")
	} else if st.Error != "" {
		sb.WriteString(errorStyle.Render(st.Error) + "\n")
	} else if st.Success != "" {
		sb.WriteString(successStyle.Render(st.Success) + "\n")
	}

	sb.WriteString(helpStyle.Render(helpFor(st.Step)))
	return panelStyle.Render(sb.String())
}

func renderProgress(step services.ResetStep) string {
	dots := make([]string, 0, services.TotalResetSteps)
	for i := 1; i <= services.TotalResetSteps; i++ {
		switch {
		case i < step.Number():
			dots = append(dots, stepDone)
		case i == step.Number():
			dots = append(dots, stepCurrent)
		default:
			dots = append(dots, stepTodo)
		}
	}
	return fmt.Sprintf("Step %d of %d  %s", step.Number(), services.TotalResetSteps, strings.Join(dots, " "))
}

func renderIdentity(st services.ResetState) string {
	if st.Identity == nil {
		return ""
	}
	rows := [][2]string{
		{"Name", st.Identity.Name},
		{"Employee ID", st.Identity.EmployeeID},
		{"Email", st.Identity.Email},
		{"Role", st.Identity.Role.DisplayName()},
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r[0])+valueStyle.Render(r[1]))
	}
	return strings.Join(lines, "\n")
}

func helpFor(step services.ResetStep) string {
	switch step {
	case services.StepIdentityConfirm:
		return "y/enter: send code • n: not my account • esc: cancel"
	case services.StepOTPEntry:
		return "enter: verify • ctrl+r: resend code • esc: cancel"
	case services.StepPasswordEntry:
		return "tab: switch field • enter: reset password • esc: cancel"
	case services.StepComplete:
		return "l: log in now • enter: done"
	default:
		return "enter: continue • esc: cancel"
	}
}

// Run shows the wizard until the user finishes or cancels it.
func Run(ctx context.Context, wizard *services.PasswordReset, opts ...tea.ProgramOption) (Result, error) {
	final, err := tea.NewProgram(New(ctx, wizard), opts...).Run()
	if err != nil {
		return Result{}, err
	}
	m, ok := final.(*Model)
	if !ok {
		return Result{}, errors.New("unexpected model returned by program")
	}
	return m.Result(), nil
}
