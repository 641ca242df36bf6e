package directory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a username or group name has no match on the
// remote instance.
var ErrNotFound = errors.New("not found")

// User is a user account as the remote directory reports it. The directory
// service owns these; this tool only reads them or asks for create/delete.
type User struct {
	ID              int
	Username        string
	Email           string
	Name            string
	State           string
	IsAdmin         bool
	External        bool
	CurrentSignInAt *time.Time
	LastSignInAt    *time.Time
	CreatedAt       *time.Time
}

// Group is a user group on the remote instance.
type Group struct {
	ID   int
	Name string
	Path string
}

// SSHKey is one public key registered on a user account.
type SSHKey struct {
	ID    int
	Title string
	Key   string
}

// NewUser carries the fields for a create request. ResetPassword makes the
// instance send its own onboarding mail instead of us inventing a password.
type NewUser struct {
	Username      string
	Name          string
	Email         string
	Organization  string
	Location      string
	ResetPassword bool
}

// Directory is the capability set this tool needs from a remote user
// directory. Implementations block until the remote call returns.
type Directory interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, newUser NewUser) (User, error)
	DeleteUser(ctx context.Context, id int) error

	ListGroups(ctx context.Context) ([]Group, error)
	GetGroupByName(ctx context.Context, name string) (Group, error)
	ListGroupMembers(ctx context.Context, groupID int) ([]User, error)
	AddGroupMember(ctx context.Context, groupID, userID int, level AccessLevel) error

	ListSSHKeys(ctx context.Context, userID int) ([]SSHKey, error)
}
