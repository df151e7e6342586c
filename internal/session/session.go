package session

import (
	"encoding/json"
	"fmt"

	"github.com/zombor/billed/internal/errs"
)

// UserKey is the entry the logged-in user is kept under
const UserKey = "user"

// TypeEmployee is the user type allowed to submit bills
const TypeEmployee = "Employee"

// Store is a persisted string-keyed session store
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// User is the logged-in user
type User struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

// Login records user as the current session user
func Login(store Store, user User) error {
	if user.Email == "" {
		return errs.NewValidationError("email is required")
	}
	if user.Type == "" {
		user.Type = TypeEmployee
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshaling user: %w", err)
	}
	if err := store.Set(UserKey, data); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// CurrentUser returns the session user. It fails with a NotFoundError when
// nobody is logged in.
func CurrentUser(store Store) (User, error) {
	var user User
	data, err := store.Get(UserKey)
	if err != nil {
		return user, err
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return user, fmt.Errorf("unmarshaling user: %w", err)
	}
	return user, nil
}

// Logout forgets the session user
func Logout(store Store) error {
	return store.Delete(UserKey)
}
