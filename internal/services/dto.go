package services

import (
	"net/mail"
	"strings"

	"github.com/desertthunder/flix/internal/models"
)

// Credentials is the body of POST /login.
type Credentials struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return newValidationError("Username is required")
	}
	if c.Password == "" {
		return newValidationError("Password is required")
	}
	return nil
}

// RegisterRequest is the body of POST /users. Birthday is YYYY-MM-DD and may be empty.
type RegisterRequest struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
	Email    string `json:"Email"`
	Birthday string `json:"Birthday,omitempty"`
}

func (r *RegisterRequest) Validate() error {
	if err := (Credentials{Username: r.Username, Password: r.Password}).Validate(); err != nil {
		return err
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	birthday, err := normalizeBirthday(r.Birthday)
	if err != nil {
		return err
	}
	r.Birthday = birthday
	return nil
}

// UpdateUserRequest is the body of PUT /users/{username}.
//
// An empty Password leaves the stored password unchanged.
type UpdateUserRequest struct {
	Username string `json:"Username"`
	Password string `json:"Password,omitempty"`
	Email    string `json:"Email"`
	Birthday string `json:"Birthday,omitempty"`
}

// UpdateFromUser fills an [UpdateUserRequest] with the editable fields of u.
func UpdateFromUser(u models.User) UpdateUserRequest {
	return UpdateUserRequest{
		Username: u.Username,
		Email:    u.Email,
		Birthday: u.Birthday.String(),
	}
}

func (r *UpdateUserRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return newValidationError("Username is required")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	birthday, err := normalizeBirthday(r.Birthday)
	if err != nil {
		return err
	}
	r.Birthday = birthday
	return nil
}

// LoginResponse is the body returned by POST /login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (r *LoginResponse) validate() error {
	if r.Token == "" {
		return newValidationError("login response is missing token")
	}
	if r.User == nil {
		return newValidationError("login response is missing user")
	}
	return validateUser(r.User)
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return newValidationError("Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return newValidationError("Email %q is not a valid address", email)
	}
	return nil
}

func normalizeBirthday(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return "", newValidationError("Birthday must be YYYY-MM-DD")
	}
	return d.String(), nil
}

func validateUser(u *models.User) error {
	if u == nil || u.Username == "" {
		return newValidationError("user document is missing Username")
	}
	return nil
}

func validateMovie(m *models.Movie) error {
	if m.ID == "" {
		return newValidationError("movie document is missing _id")
	}
	if m.Title == "" {
		return newValidationError("movie %s is missing Title", m.ID)
	}
	return nil
}
