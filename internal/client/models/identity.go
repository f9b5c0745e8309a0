// Package models defines the records exchanged with the hub API and cached
// locally by the client.
package models

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Role is the account role assigned by the server.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleIntern   Role = "intern"
)

// DisplayName renders the role for people. Interns are presented as
// employees; other roles are capitalized.
func (r Role) DisplayName() string {
	if r == RoleIntern {
		return "Employee"
	}
	s := string(r)
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Identity is the authenticated principal as returned by /auth endpoints.
type Identity struct {
	MongoID    string `json:"_id,omitempty"`
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	InternID   string `json:"internId,omitempty"`
	EmployeeID string `json:"employeeId,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Status     string `json:"status,omitempty"`
	StartDate  string `json:"startDate,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// Identifier returns the server identifier, whichever form the API used.
func (i Identity) Identifier() string {
	if i.ID != "" {
		return i.ID
	}
	return i.MongoID
}

// EmployeeCode returns the human facing employee number (e.g. EMP26-0001).
func (i Identity) EmployeeCode() string {
	if i.EmployeeID != "" {
		return i.EmployeeID
	}
	return i.InternID
}

// ResetIdentity is the account snapshot returned by the password-reset
// email check and shown to the user for confirmation.
type ResetIdentity struct {
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
}

// AuthResult is the outcome of a successful login or registration.
type AuthResult struct {
	Token    string
	Identity Identity
}

// RegisterRequest carries the fields of a new account.
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       Role   `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Optional profile fields that may be cleared.
const (
	FieldPhone      = "phone"
	FieldDepartment = "department"
	FieldPosition   = "position"
	FieldAvatar     = "avatar"
)

// ProfileUpdate lists the profile fields a user may change. Empty fields are
// left untouched by the server; fields named in Cleared are sent as "" so
// the server erases them.
type ProfileUpdate struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Avatar     string `json:"avatar,omitempty"`

	Cleared []string `json:"-"`
}

// IsEmpty reports whether no field is set or cleared.
func (p ProfileUpdate) IsEmpty() bool {
	return strings.TrimSpace(p.Name+p.Email+p.Phone+p.Department+p.Position+p.Avatar) == "" &&
		len(p.Cleared) == 0
}

func (p ProfileUpdate) MarshalJSON() ([]byte, error) {
	type fields ProfileUpdate
	b, err := json.Marshal(fields(p))
	if err != nil || len(p.Cleared) == 0 {
		return b, err
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for _, f := range p.Cleared {
		if _, set := m[f]; !set {
			m[f] = ""
		}
	}
	return json.Marshal(m)
}
