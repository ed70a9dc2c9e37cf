package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
)

const minPasswordLength = 7

// User is an account record. PasswordHash, Tokens and Avatar are never
// rendered to clients.
type User struct {
	ID           id.UserID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Tokens       []string  `json:"-"`
	Avatar       []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasAvatar reports whether an avatar blob is stored.
func (u *User) HasAvatar() bool {
	return len(u.Avatar) > 0
}

// HasToken reports whether token is in the active set.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Tokens = append([]string(nil), u.Tokens...)
	if u.Avatar != nil {
		c.Avatar = append([]byte(nil), u.Avatar...)
	}
	return &c
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName trims name and rejects an empty result.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return name, nil
}

// ValidateEmail normalizes email and checks its shape.
func ValidateEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !govalidator.IsEmail(email) {
		return "", dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	return email, nil
}

// ValidatePassword enforces minimum strength. The password is not trimmed
// before storage, only for the length check.
func ValidatePassword(password string) error {
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 7 characters")
	}
	if strings.Contains(strings.ToLower(password), "password") {
		return dErrors.New(dErrors.CodeValidation, `password cannot contain "password"`)
	}
	return nil
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate normalizes Name and Email in place.
func (r *SignupRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	name, err := ValidateName(r.Name)
	if err != nil {
		return err
	}
	email, err := ValidateEmail(r.Email)
	if err != nil {
		return err
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	r.Name = name
	r.Email = email
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate only checks presence; shape errors would leak which half of the
// credential pair is wrong.
func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r.Email = NormalizeEmail(r.Email)
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// ProfilePatch holds the fields a profile update may change. Nil means
// untouched.
type ProfilePatch struct {
	Name     *string
	Email    *string
	Password *string
	Avatar   []byte
	// ClearAvatar is set when the patch carries "avatar": null.
	ClearAvatar bool
	hasAvatar   bool
}

// HasAvatar reports whether the patch touches the avatar.
func (p *ProfilePatch) HasAvatar() bool {
	return p.hasAvatar
}

// Empty reports whether the patch changes nothing.
func (p *ProfilePatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && !p.hasAvatar
}

var allowedProfileFields = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"avatar":   true,
}

// ParseProfilePatch checks every key against the allow-list before decoding
// any value, so an unsupported key rejects the whole patch. Values are
// validated and normalized.
func ParseProfilePatch(raw map[string]json.RawMessage) (*ProfilePatch, error) {
	for key := range raw {
		if !allowedProfileFields[key] {
			return nil, dErrors.New(dErrors.CodeValidation, "unsupported field: "+key)
		}
	}

	patch := &ProfilePatch{}
	if v, ok := raw["name"]; ok {
		s, err := decodeString("name", v)
		if err != nil {
			return nil, err
		}
		name, err := ValidateName(s)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if v, ok := raw["email"]; ok {
		s, err := decodeString("email", v)
		if err != nil {
			return nil, err
		}
		email, err := ValidateEmail(s)
		if err != nil {
			return nil, err
		}
		patch.Email = &email
	}
	if v, ok := raw["password"]; ok {
		s, err := decodeString("password", v)
		if err != nil {
			return nil, err
		}
		if err := ValidatePassword(s); err != nil {
			return nil, err
		}
		patch.Password = &s
	}
	if v, ok := raw["avatar"]; ok {
		patch.hasAvatar = true
		if string(v) == "null" {
			patch.ClearAvatar = true
		} else {
			// []byte decodes from a base64 JSON string.
			var blob []byte
			if err := json.Unmarshal(v, &blob); err != nil {
				return nil, dErrors.New(dErrors.CodeValidation, "avatar must be base64 encoded")
			}
			patch.Avatar = blob
		}
	}
	return patch, nil
}

func decodeString(field string, v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", dErrors.New(dErrors.CodeValidation, field+" must be a string")
	}
	return s, nil
}

// Apply writes the patch onto user. passwordHash replaces the stored hash
// when the patch carries a password.
func (p *ProfilePatch) Apply(user *User, passwordHash string, now time.Time) {
	if p.Name != nil {
		user.Name = *p.Name
	}
	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.Password != nil {
		user.PasswordHash = passwordHash
	}
	if p.hasAvatar {
		if p.ClearAvatar {
			user.Avatar = nil
		} else {
			user.Avatar = p.Avatar
		}
	}
	user.UpdatedAt = now
}
