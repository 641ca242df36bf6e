package directory

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// GitLab implements Directory against the GitLab REST API v4 through the
// official client.
type GitLab struct {
	client *gitlab.Client
}

// GitLabOptions are the connection parameters from the python-gitlab config
// section in use.
type GitLabOptions struct {
	URL       string
	Token     string
	SSLVerify bool
	Timeout   time.Duration
}

func NewGitLab(opts GitLabOptions) (*GitLab, error) {
	httpClient := &http.Client{Timeout: opts.Timeout}
	if !opts.SSLVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := gitlab.NewClient(opts.Token,
		gitlab.WithBaseURL(opts.URL),
		gitlab.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client for %s: %w", opts.URL, err)
	}

	return &GitLab{client: client}, nil
}

// IsAPIError reports whether err is a GitLab API response error (as opposed
// to a transport failure or a local error).
func IsAPIError(err error) bool {
	var respErr *gitlab.ErrorResponse
	return errors.As(err, &respErr)
}

func (d *GitLab) ListUsers(ctx context.Context) ([]User, error) {
	opt := &gitlab.ListUsersOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}

	var all []User
	for {
		users, resp, err := d.client.Users.ListUsers(opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing users: %w", err)
		}
		for _, u := range users {
			all = append(all, convertUser(u))
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	log.WithField("count", len(all)).Debug("Fetched users")

	return all, nil
}

func (d *GitLab) GetUserByUsername(ctx context.Context, username string) (User, error) {
	opt := &gitlab.ListUsersOptions{Username: gitlab.Ptr(username)}
	users, _, err := d.client.Users.ListUsers(opt, gitlab.WithContext(ctx))
	if err != nil {
		return User{}, fmt.Errorf("looking up username %s: %w", username, err)
	}
	if len(users) == 0 {
		return User{}, fmt.Errorf("username %s: %w", username, ErrNotFound)
	}
	return convertUser(users[0]), nil
}

func (d *GitLab) CreateUser(ctx context.Context, newUser NewUser) (User, error) {
	opt := &gitlab.CreateUserOptions{
		Username:      gitlab.Ptr(newUser.Username),
		Name:          gitlab.Ptr(newUser.Name),
		Email:         gitlab.Ptr(newUser.Email),
		ResetPassword: gitlab.Ptr(newUser.ResetPassword),
	}
	if newUser.Organization != "" {
		opt.Organization = gitlab.Ptr(newUser.Organization)
	}
	if newUser.Location != "" {
		opt.Location = gitlab.Ptr(newUser.Location)
	}

	created, _, err := d.client.Users.CreateUser(opt, gitlab.WithContext(ctx))
	if err != nil {
		return User{}, fmt.Errorf("creating user %s: %w", newUser.Username, err)
	}
	return convertUser(created), nil
}

func (d *GitLab) DeleteUser(ctx context.Context, id int) error {
	if _, err := d.client.Users.DeleteUser(id, gitlab.WithContext(ctx)); err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	return nil
}

func (d *GitLab) ListGroups(ctx context.Context) ([]Group, error) {
	opt := &gitlab.ListGroupsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}

	var all []Group
	for {
		groups, resp, err := d.client.Groups.ListGroups(opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing groups: %w", err)
		}
		for _, g := range groups {
			all = append(all, Group{ID: g.ID, Name: g.Name, Path: g.Path})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return all, nil
}

func (d *GitLab) GetGroupByName(ctx context.Context, name string) (Group, error) {
	opt := &gitlab.ListGroupsOptions{Search: gitlab.Ptr(name)}
	groups, _, err := d.client.Groups.ListGroups(opt, gitlab.WithContext(ctx))
	if err != nil {
		return Group{}, fmt.Errorf("searching group %s: %w", name, err)
	}
	// Search matches substrings; require the exact name.
	for _, g := range groups {
		if g.Name == name {
			return Group{ID: g.ID, Name: g.Name, Path: g.Path}, nil
		}
	}
	return Group{}, fmt.Errorf("group %s: %w", name, ErrNotFound)
}

func (d *GitLab) ListGroupMembers(ctx context.Context, groupID int) ([]User, error) {
	opt := &gitlab.ListGroupMembersOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}

	var members []User
	for {
		page, resp, err := d.client.Groups.ListGroupMembers(groupID, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing members of group %d: %w", groupID, err)
		}
		for _, m := range page {
			// Membership entries carry a reduced field set; callers
			// cross-reference the full user list by ID when they need more.
			members = append(members, User{
				ID:       m.ID,
				Username: m.Username,
				Name:     m.Name,
				State:    m.State,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return members, nil
}

func (d *GitLab) AddGroupMember(ctx context.Context, groupID, userID int, level AccessLevel) error {
	opt := &gitlab.AddGroupMemberOptions{
		UserID:      gitlab.Ptr(userID),
		AccessLevel: gitlab.Ptr(gitlab.AccessLevelValue(level)),
	}
	if _, _, err := d.client.GroupMembers.AddGroupMember(groupID, opt, gitlab.WithContext(ctx)); err != nil {
		return fmt.Errorf("adding user %d to group %d: %w", userID, groupID, err)
	}
	return nil
}

func (d *GitLab) ListSSHKeys(ctx context.Context, userID int) ([]SSHKey, error) {
	opt := &gitlab.ListSSHKeysForUserOptions{PerPage: 100}
	keys, _, err := d.client.Users.ListSSHKeysForUser(userID, opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing ssh keys of user %d: %w", userID, err)
	}

	var out []SSHKey
	for _, k := range keys {
		out = append(out, SSHKey{ID: k.ID, Title: k.Title, Key: k.Key})
	}
	return out, nil
}

func convertUser(u *gitlab.User) User {
	return User{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Name:            u.Name,
		State:           u.State,
		IsAdmin:         u.IsAdmin,
		External:        u.External,
		CurrentSignInAt: u.CurrentSignInAt,
		LastSignInAt:    u.LastSignInAt,
		CreatedAt:       u.CreatedAt,
	}
}
