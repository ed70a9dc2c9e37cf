// Package domain holds typed identifiers shared across modules.
//
// Each ID is a distinct named type over uuid.UUID so a TaskID can never be
// passed where a UserID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "taskmanager/pkg/domain-errors"
)

type (
	UserID uuid.UUID
	TaskID uuid.UUID
)

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewTaskID returns a fresh random task ID.
func NewTaskID() TaskID { return TaskID(uuid.New()) }

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id TaskID) String() string { return uuid.UUID(id).String() }
func (id TaskID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParseUserID parses s at a trust boundary. Empty, malformed and nil UUIDs are
// rejected with CodeInvalidInput.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

// ParseTaskID parses s with the same rules as ParseUserID.
func ParseTaskID(s string) (TaskID, error) {
	u, err := parseUUID(s, "task ID")
	return TaskID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "user ID")
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id TaskID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *TaskID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "task ID")
	if err != nil {
		return err
	}
	*id = TaskID(u)
	return nil
}
