package workflow

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gitlabtools/gitlab-users/glusers/directory"
)

// Activity selects which activity bucket a listing reports.
type Activity int

const (
	ActivityNone     Activity = iota
	ActivityUnused            // never signed in, or stale for over a year
	ActivitySignedIn          // signed in at least once
	ActivityActive            // signed in within the last year
)

const staleAfter = 365 * 24 * time.Hour

// ListOptions control the listing workflow's filtering and rendering. CSVOut
// and the text display toggles are mutually exclusive at the CLI layer.
type ListOptions struct {
	Selector       Selector
	Activity       Activity
	EmailOnly      bool
	ShowUsername   bool
	ShowSignInDate bool
	CSVOut         bool
}

// Lister prints users from the remote directory. Now is replaceable so the
// 365-day activity boundary is testable.
type Lister struct {
	Dir directory.Directory
	Out io.Writer
	Now func() time.Time
}

func NewLister(dir directory.Directory, out io.Writer) *Lister {
	return &Lister{Dir: dir, Out: out, Now: time.Now}
}

// ActivityBuckets is the four-way partition of the user set by sign-in
// history. Only accounts in state "active" are bucketed at all; OldSignIn is
// a subset of AlreadySignIn.
type ActivityBuckets struct {
	OldSignIn     []directory.User
	NeverSignIn   []directory.User
	AlreadySignIn []directory.User
	Active        []directory.User
}

// ClassifyActivity partitions users by last sign-in relative to now. The
// staleness boundary is strict: a sign-in exactly 365 days old still counts
// as recent.
func ClassifyActivity(users []directory.User, now time.Time) ActivityBuckets {
	var b ActivityBuckets
	cutoff := now.Add(-staleAfter)

	for _, u := range users {
		if u.State != "active" {
			continue
		}
		if u.CurrentSignInAt == nil {
			b.NeverSignIn = append(b.NeverSignIn, u)
			continue
		}
		b.AlreadySignIn = append(b.AlreadySignIn, u)
		if u.CurrentSignInAt.Before(cutoff) {
			b.OldSignIn = append(b.OldSignIn, u)
		} else {
			b.Active = append(b.Active, u)
		}
	}
	return b
}

// Run fetches the selected users once and renders them as text or CSV.
func (l *Lister) Run(ctx context.Context, opts ListOptions) error {
	users, header, err := l.selectUsers(ctx, opts.Selector)
	if err != nil {
		return err
	}
	if header != "" {
		fmt.Fprintln(l.Out, header)
	}

	if opts.CSVOut {
		return l.printCSV(users, opts)
	}
	return l.printText(users, opts)
}

func (l *Lister) printText(users []directory.User, opts ListOptions) error {
	switch opts.Activity {
	case ActivityUnused:
		b := ClassifyActivity(users, l.Now())
		fmt.Fprintln(l.Out, "  Users whose last connexion is older than 1 year:")
		for _, u := range b.OldSignIn {
			fmt.Fprintln(l.Out, userInfo(u, opts))
		}
		fmt.Fprintln(l.Out, "  Users who never signed in:")
		for _, u := range b.NeverSignIn {
			fmt.Fprintln(l.Out, userInfo(u, opts))
		}
	case ActivitySignedIn:
		b := ClassifyActivity(users, l.Now())
		fmt.Fprintln(l.Out, "  Users who have already signed in:")
		for _, u := range b.AlreadySignIn {
			fmt.Fprintln(l.Out, userInfo(u, opts))
		}
	case ActivityActive:
		b := ClassifyActivity(users, l.Now())
		fmt.Fprintf(l.Out, "  Active users (last connection < 1 year) [%d]:\n", len(b.Active))
		for _, u := range b.Active {
			fmt.Fprintln(l.Out, userInfo(u, opts))
		}
	default:
		for _, u := range users {
			fmt.Fprintln(l.Out, userInfo(u, opts))
		}
	}
	return nil
}

func (l *Lister) printCSV(users []directory.User, opts ListOptions) error {
	fmt.Fprintln(l.Out, `Username,E-mail,"Name",State,isAdmin,isExternal,LastSignInAt,CreatedAt`)

	selected := users
	switch opts.Activity {
	case ActivityUnused:
		b := ClassifyActivity(users, l.Now())
		selected = append(append([]directory.User{}, b.OldSignIn...), b.NeverSignIn...)
	case ActivitySignedIn:
		selected = ClassifyActivity(users, l.Now()).AlreadySignIn
	case ActivityActive:
		selected = ClassifyActivity(users, l.Now()).Active
	}

	for _, u := range selected {
		fmt.Fprintln(l.Out, csvUserLine(u))
	}
	return nil
}

// ListGroups prints every group on the instance.
func (l *Lister) ListGroups(ctx context.Context) error {
	groups, err := l.Dir.ListGroups(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		fmt.Fprintf(l.Out, "%d: %s (%s)\n", g.ID, g.Name, g.Path)
	}
	return nil
}

// selectUsers resolves a selector to concrete users, fetching the full user
// set once. Group members come back with a reduced field set, so they are
// rehydrated from the full listing by ID. The returned header, when
// non-empty, is printed before the users.
func (l *Lister) selectUsers(ctx context.Context, sel Selector) ([]directory.User, string, error) {
	all, err := l.Dir.ListUsers(ctx)
	if err != nil {
		return nil, "", err
	}

	switch sel.Kind {
	case SelectUser:
		for _, u := range all {
			if u.Username == sel.Name {
				return []directory.User{u}, "", nil
			}
		}
		fmt.Fprintf(l.Out, "username %s not found in GitLab.\n", sel.Name)
		fmt.Fprintln(l.Out, listUsernames(all))
		return nil, "", fmt.Errorf("username %s: %w", sel.Name, directory.ErrNotFound)

	case SelectGroup:
		group, err := l.Dir.GetGroupByName(ctx, sel.Name)
		if err != nil {
			if groups, lerr := l.Dir.ListGroups(ctx); lerr == nil {
				fmt.Fprintf(l.Out, "No group matching %s found.\n", sel.Name)
				fmt.Fprintln(l.Out, listGroupNames(groups))
			}
			return nil, "", err
		}
		members, err := l.Dir.ListGroupMembers(ctx, group.ID)
		if err != nil {
			return nil, "", err
		}

		byID := make(map[int]directory.User, len(all))
		for _, u := range all {
			byID[u.ID] = u
		}
		users := make([]directory.User, 0, len(members))
		for _, m := range members {
			if full, ok := byID[m.ID]; ok {
				users = append(users, full)
			} else {
				log.WithField("id", m.ID).Debug("Group member missing from user listing")
				users = append(users, m)
			}
		}
		header := fmt.Sprintf("  Group %s (%d members):", group.Name, len(users))
		return users, header, nil

	default:
		return all, "", nil
	}
}

func userInfo(u directory.User, opts ListOptions) string {
	if opts.EmailOnly {
		return u.Email
	}
	info := fmt.Sprintf("%s <%s>", u.Name, u.Email)
	if opts.ShowUsername {
		info = fmt.Sprintf("@%s ", u.Username) + info
	}
	if opts.ShowSignInDate {
		info = fmt.Sprintf("%s (%s)", info, signInDate(u))
	}
	return info
}

func signInDate(u directory.User) string {
	if u.CurrentSignInAt == nil {
		return "never"
	}
	return u.CurrentSignInAt.Format("2006-01-02")
}

func csvUserLine(u directory.User) string {
	return strings.Join([]string{
		u.Username,
		u.Email,
		`"` + u.Name + `"`,
		u.State,
		strconv.FormatBool(u.IsAdmin),
		strconv.FormatBool(u.External),
		formatDate(u.LastSignInAt),
		formatDate(u.CreatedAt),
	}, ",")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func listUsernames(users []directory.User) string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	sort.Strings(names)

	msg := fmt.Sprintf("Existing usernames (%d):", len(names))
	for _, name := range names {
		msg += fmt.Sprintf("\n - %s", name)
	}
	return msg
}

func listGroupNames(groups []directory.Group) string {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	sort.Strings(names)

	msg := fmt.Sprintf("Existing groups (%d):", len(names))
	for _, name := range names {
		msg += fmt.Sprintf("\n - %s", name)
	}
	return msg
}
