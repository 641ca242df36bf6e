package workflow

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitlabtools/gitlab-users/glusers/directory"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func activityUsers() []directory.User {
	return []directory.User{
		{ID: 1, Username: "fresh", Name: "Fresh", Email: "fresh@example.com", State: "active",
			CurrentSignInAt: timePtr(now.Add(-10 * 24 * time.Hour))},
		{ID: 2, Username: "stale", Name: "Stale", Email: "stale@example.com", State: "active",
			CurrentSignInAt: timePtr(now.Add(-2 * 365 * 24 * time.Hour))},
		{ID: 3, Username: "never", Name: "Never", Email: "never@example.com", State: "active"},
		{ID: 4, Username: "frozen", Name: "Frozen", Email: "frozen@example.com", State: "blocked",
			CurrentSignInAt: timePtr(now.Add(-5 * 24 * time.Hour))},
	}
}

func TestClassifyActivity(t *testing.T) {
	b := ClassifyActivity(activityUsers(), now)

	require.Len(t, b.NeverSignIn, 1)
	assert.Equal(t, "never", b.NeverSignIn[0].Username)

	require.Len(t, b.OldSignIn, 1)
	assert.Equal(t, "stale", b.OldSignIn[0].Username)

	// Stale is a subset of already-signed-in.
	require.Len(t, b.AlreadySignIn, 2)
	assert.Equal(t, "fresh", b.AlreadySignIn[0].Username)
	assert.Equal(t, "stale", b.AlreadySignIn[1].Username)

	require.Len(t, b.Active, 1)
	assert.Equal(t, "fresh", b.Active[0].Username)
}

func TestClassifyActivityIgnoresBlockedUsers(t *testing.T) {
	b := ClassifyActivity(activityUsers(), now)

	for _, bucket := range [][]directory.User{b.OldSignIn, b.NeverSignIn, b.AlreadySignIn, b.Active} {
		for _, u := range bucket {
			if u.State != "active" {
				t.Errorf("User %s with state %q must not be bucketed", u.Username, u.State)
			}
		}
	}
}

func TestClassifyActivityBoundaryIsStrict(t *testing.T) {
	exactly := []directory.User{
		{ID: 1, Username: "edge", State: "active", CurrentSignInAt: timePtr(now.Add(-staleAfter))},
	}

	b := ClassifyActivity(exactly, now)
	assert.Empty(t, b.OldSignIn, "a sign-in exactly 365 days old is still recent")
	require.Len(t, b.Active, 1)
}

func newTestLister(fake *fakeDirectory, out *bytes.Buffer) *Lister {
	return &Lister{Dir: fake, Out: out, Now: func() time.Time { return now }}
}

func TestListAllUsersText(t *testing.T) {
	fake := &fakeDirectory{users: activityUsers()}
	var out bytes.Buffer

	err := newTestLister(fake, &out).Run(context.Background(), ListOptions{Selector: All()})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Fresh <fresh@example.com>")
	assert.Contains(t, out.String(), "Frozen <frozen@example.com>")
}

func TestListUserInfoDecorations(t *testing.T) {
	fake := &fakeDirectory{users: activityUsers()[:1]}
	var out bytes.Buffer

	err := newTestLister(fake, &out).Run(context.Background(), ListOptions{
		Selector:       All(),
		ShowUsername:   true,
		ShowSignInDate: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "@fresh Fresh <fresh@example.com> (2024-05-22)")
}

func TestListEmailOnly(t *testing.T) {
	fake := &fakeDirectory{users: activityUsers()[:1]}
	var out bytes.Buffer

	err := newTestLister(fake, &out).Run(context.Background(), ListOptions{Selector: All(), EmailOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "fresh@example.com\n", out.String())
}

func TestListUnusedText(t *testing.T) {
	fake := &fakeDirectory{users: activityUsers()}
	var out bytes.Buffer

	err := newTestLister(fake, &out).Run(context.Background(), ListOptions{Selector: All(), Activity: ActivityUnused})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "Users whose last connexion is older than 1 year:")
	assert.Contains(t, s, "Stale <stale@example.com>")
	assert.Contains(t, s, "Users who never signed in:")
	assert.Contains(t, s, "Never <never@example.com>")
	assert.NotContains(t, s, "Fresh <fresh@example.com>")
}

func TestListCSVOutput(t *testing.T) {
	fake := &fakeDirectory{users: activityUsers()[:1]}
	var out bytes.Buffer

	err := newTestLister(fake, &out).Run(context.Background(), ListOptions{Selector: All(), CSVOut: true})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `Username,E-mail,"Name",State,isAdmin,isExternal,LastSignInAt,CreatedAt`, lines[0])
	assert.Equal(t, `fresh,fresh@example.com,"Fresh",active,false,false,,`, lines[1])
}

func TestListCSVWithActivityFilter(t *testing.T) {
	fake := &fakeDirectory{users: activityUsers()}
	var out bytes.Buffer

	err := newTestLister(fake, &out).Run(context.Background(), ListOptions{
		Selector: All(),
		Activity: ActivityUnused,
		CSVOut:   true,
	})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "stale,")
	assert.Contains(t, s, "never,")
	assert.NotContains(t, s, "fresh,")
}

func TestListByGroup(t *testing.T) {
	users := activityUsers()
	fake := &fakeDirectory{
		users:  users,
		groups: []directory.Group{{ID: 7, Name: "research", Path: "research"}},
		members: map[int][]directory.User{
			// Reduced membership record; the lister rehydrates by ID.
			7: {{ID: 1, Username: "fresh", Name: "Fresh", State: "active"}},
		},
	}
	var out bytes.Buffer

	err := newTestLister(fake, &out).Run(context.Background(), ListOptions{Selector: ByGroup("research")})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Group research (1 members):")
	assert.Contains(t, out.String(), "Fresh <fresh@example.com>")
}

func TestListByUnknownGroup(t *testing.T) {
	fake := &fakeDirectory{
		users:  activityUsers(),
		groups: []directory.Group{{ID: 7, Name: "research", Path: "research"}},
	}
	var out bytes.Buffer

	err := newTestLister(fake, &out).Run(context.Background(), ListOptions{Selector: ByGroup("ghosts")})
	require.ErrorIs(t, err, directory.ErrNotFound)

	assert.Contains(t, out.String(), "No group matching ghosts found.")
	assert.Contains(t, out.String(), " - research")
}

func TestListByUsername(t *testing.T) {
	fake := &fakeDirectory{users: activityUsers()}
	var out bytes.Buffer

	err := newTestLister(fake, &out).Run(context.Background(), ListOptions{Selector: ByUsername("stale")})
	require.NoError(t, err)
	assert.Equal(t, "Stale <stale@example.com>\n", out.String())
}

func TestListByUnknownUsername(t *testing.T) {
	fake := &fakeDirectory{users: activityUsers()}
	var out bytes.Buffer

	err := newTestLister(fake, &out).Run(context.Background(), ListOptions{Selector: ByUsername("ghost")})
	require.ErrorIs(t, err, directory.ErrNotFound)

	assert.Contains(t, out.String(), "username ghost not found in GitLab.")
	assert.Contains(t, out.String(), "Existing usernames (4):")
}

func TestListGroups(t *testing.T) {
	fake := &fakeDirectory{groups: []directory.Group{
		{ID: 7, Name: "research", Path: "research"},
		{ID: 9, Name: "ops", Path: "infra/ops"},
	}}
	var out bytes.Buffer

	err := newTestLister(fake, &out).ListGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7: research (research)\n9: ops (infra/ops)\n", out.String())
}
