package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const RoleUser = "user"

type User struct {
	ID    string
	Email string
	Name  string
	Hash  []byte
	Role  string
}

// NewUser is a registration request after validation. Password is plain text
// and is hashed by the store.
type NewUser struct {
	ID       string
	Email    string
	Name     string
	Password string
	Role     string
}

type UserStore interface {
	Create(ctx context.Context, u NewUser) error
	Verify(ctx context.Context, email, password string) (User, error)
	Ping(ctx context.Context) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizePassword(password string) string {
	return strings.TrimSpace(password)
}
