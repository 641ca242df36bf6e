package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/gitlabtools/gitlab-users/glusers/directory"
)

type memberAdd struct {
	groupID int
	userID  int
	level   directory.AccessLevel
}

// fakeDirectory is an in-memory Directory for workflow tests.
type fakeDirectory struct {
	users   []directory.User
	groups  []directory.Group
	members map[int][]directory.User
	keys    map[int][]directory.SSHKey

	createErr    error
	addMemberErr error

	created      []directory.NewUser
	deletedIDs   []int
	addedMembers []memberAdd
	nextID       int
}

func (f *fakeDirectory) ListUsers(ctx context.Context) ([]directory.User, error) {
	return f.users, nil
}

func (f *fakeDirectory) GetUserByUsername(ctx context.Context, username string) (directory.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return directory.User{}, fmt.Errorf("username %s: %w", username, directory.ErrNotFound)
}

func (f *fakeDirectory) CreateUser(ctx context.Context, newUser directory.NewUser) (directory.User, error) {
	if f.createErr != nil {
		return directory.User{}, f.createErr
	}
	f.created = append(f.created, newUser)
	f.nextID++
	return directory.User{
		ID:       1000 + f.nextID,
		Username: newUser.Username,
		Name:     newUser.Name,
		Email:    newUser.Email,
		State:    "active",
	}, nil
}

func (f *fakeDirectory) DeleteUser(ctx context.Context, id int) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeDirectory) ListGroups(ctx context.Context) ([]directory.Group, error) {
	return f.groups, nil
}

func (f *fakeDirectory) GetGroupByName(ctx context.Context, name string) (directory.Group, error) {
	for _, g := range f.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return directory.Group{}, fmt.Errorf("group %s: %w", name, directory.ErrNotFound)
}

func (f *fakeDirectory) ListGroupMembers(ctx context.Context, groupID int) ([]directory.User, error) {
	return f.members[groupID], nil
}

func (f *fakeDirectory) AddGroupMember(ctx context.Context, groupID, userID int, level directory.AccessLevel) error {
	if f.addMemberErr != nil {
		return f.addMemberErr
	}
	f.addedMembers = append(f.addedMembers, memberAdd{groupID: groupID, userID: userID, level: level})
	return nil
}

func (f *fakeDirectory) ListSSHKeys(ctx context.Context, userID int) ([]directory.SSHKey, error) {
	return f.keys[userID], nil
}

// failingReader fails the test if anything tries to read from it. Used to
// prove dry runs never reach the confirmation prompt.
type failingReader struct {
	t *testing.T
}

func (r failingReader) Read(p []byte) (int, error) {
	r.t.Errorf("Unexpected read from stdin")
	return 0, fmt.Errorf("unexpected read")
}

func strPtr(s string) *string { return &s }
