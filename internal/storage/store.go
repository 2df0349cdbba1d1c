package storage

import "errors"

// ErrNotFound is returned when no user has the requested ID.
var ErrNotFound = errors.New("user not found")

// User is a single user record.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserStore defines the interface for storing and retrieving users.
type UserStore interface {
	// List returns all users ordered by ID.
	List() []User

	// Get retrieves a user by ID. Returns ErrNotFound if it does not exist.
	Get(id int) (User, error)

	// Create stores a new user and returns it with its assigned ID.
	Create(name, email string) (User, error)

	// Update replaces the name and email of an existing user.
	Update(id int, name, email string) (User, error)

	// Delete removes a user by ID. Returns ErrNotFound if it does not exist.
	Delete(id int) error

	// Count returns the number of stored users.
	Count() int
}

// Store operation names reported to a LatencyObserver.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpCount  = "count"
)
