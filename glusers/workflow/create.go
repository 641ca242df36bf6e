package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/go-playground/validator/v10"
	multierror "github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/gitlabtools/gitlab-users/glusers/csvio"
	"github.com/gitlabtools/gitlab-users/glusers/directory"
)

var (
	warnTag   = color.New(color.FgYellow).Sprint("WARNING:")
	dryRunTag = color.New(color.FgCyan).Sprint("[DRY RUN]")
)

// isRecoverableRemote reports whether a group-membership error can be
// downgraded to a warning. Errors that carry an API response (the server
// answered) are; transport failures are not.
func isRecoverableRemote(err error) bool {
	return errors.Is(err, directory.ErrNotFound) || directory.IsAPIError(err)
}

// Creator runs the CSV-driven account creation batch. One bad record never
// aborts the rest of the file; remote transport failures do.
type Creator struct {
	Dir      directory.Directory
	Out      io.Writer
	DryRun   bool
	AdminURL string // base URL used in the create-the-group-yourself hint

	validate *validator.Validate
}

func NewCreator(dir directory.Directory, out io.Writer, dryRun bool) *Creator {
	return &Creator{
		Dir:      dir,
		Out:      out,
		DryRun:   dryRun,
		validate: validator.New(),
	}
}

// pending is one record that passed every pre-flight check.
type pending struct {
	record directory.NewUser
	group  *directory.Group
	level  directory.AccessLevel
}

// Run checks and creates each record in order. The returned error aggregates
// per-record failures for the exit code; the narration on Out is the product
// output.
func (c *Creator) Run(ctx context.Context, records []csvio.UserRecord) error {
	users, err := c.Dir.ListUsers(ctx)
	if err != nil {
		return err
	}
	groups, err := c.Dir.ListGroups(ctx)
	if err != nil {
		return err
	}

	usernames := make(map[string]bool, len(users))
	emails := make(map[string]bool, len(users))
	names := make(map[string]bool, len(users))
	for _, u := range users {
		usernames[u.Username] = true
		emails[u.Email] = true
		names[u.Name] = true
	}
	groupsByName := make(map[string]directory.Group, len(groups))
	for _, g := range groups {
		groupsByName[g.Name] = g
	}

	var result *multierror.Error
	for _, rec := range records {
		p, err := c.check(rec, usernames, emails, names, groupsByName)
		if err != nil {
			fmt.Fprintf(c.Out, "\n%s user %s will not be created\n\n", warnTag, rec.Username)
			result = multierror.Append(result, err)
			continue
		}

		if c.DryRun {
			fmt.Fprintf(c.Out, "%s Would create user: %s <%s>\n", dryRunTag, p.record.Username, p.record.Email)
			continue
		}

		if err := c.create(ctx, p); err != nil {
			return multierror.Append(result, err)
		}

		// New accounts count for the remaining records' uniqueness checks.
		usernames[p.record.Username] = true
		emails[p.record.Email] = true
		names[p.record.Name] = true
	}

	return result.ErrorOrNil()
}

// check runs the pre-flight for one record: structural validation, access
// level recognition, group existence, and username/email/name uniqueness.
func (c *Creator) check(
	rec csvio.UserRecord,
	usernames, emails, names map[string]bool,
	groupsByName map[string]directory.Group,
) (pending, error) {
	fmt.Fprintln(c.Out, "Checking...")
	fmt.Fprintln(c.Out, describeRecord(rec))

	var failures []string
	fail := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintln(c.Out, msg)
		failures = append(failures, msg)
	}

	if err := c.validate.Struct(rec); err != nil {
		fail("invalid record: %v", err)
	}

	p := pending{
		record: directory.NewUser{
			Username:      rec.Username,
			Name:          rec.Name,
			Email:         rec.Email,
			ResetPassword: true, // the instance sends the onboarding mail
		},
	}
	if rec.Organization != nil {
		p.record.Organization = *rec.Organization
	}
	if rec.Location != nil {
		p.record.Location = *rec.Location
	}

	if rec.Group != nil && *rec.Group != "" {
		if rec.AccessLevel == nil || *rec.AccessLevel == "" {
			fail("group %s requested without an access level", *rec.Group)
		} else if level, err := directory.ParseAccessLevel(*rec.AccessLevel); err != nil {
			fail("wrong access level: %s for group %s", *rec.AccessLevel, *rec.Group)
		} else if group, ok := groupsByName[*rec.Group]; !ok {
			fail("Group %q does not exist.", *rec.Group)
			if c.AdminURL != "" {
				fmt.Fprintf(c.Out, "Create it using GitLab using this link: %s/admin/groups/new\n", c.AdminURL)
			}
		} else {
			p.group = &group
			p.level = level
		}
	}

	uniqueness := []struct {
		field string
		value string
		taken map[string]bool
	}{
		{"Username", rec.Username, usernames},
		{"Email", rec.Email, emails},
		{"Name", rec.Name, names},
	}
	for _, u := range uniqueness {
		if u.value != "" && u.taken[u.value] {
			fail("%s %s already used", u.field, u.value)
		}
	}

	if len(failures) > 0 {
		return pending{}, fmt.Errorf("user %s: %s", rec.Username, failures[0])
	}
	fmt.Fprintln(c.Out, "... OK")
	return p, nil
}

// create issues the remote mutations for a checked record. Group-membership
// failures the server answered are warnings; anything else is fatal.
func (c *Creator) create(ctx context.Context, p pending) error {
	fmt.Fprintln(c.Out, "Creating...")
	created, err := c.Dir.CreateUser(ctx, p.record)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "    User %s created\n", created.Username)
	log.WithFields(log.Fields{"username": created.Username, "id": created.ID}).Debug("User created")

	if p.group == nil {
		return nil
	}

	fmt.Fprintln(c.Out, "Adding to group...")
	if err := c.Dir.AddGroupMember(ctx, p.group.ID, created.ID, p.level); err != nil {
		if isRecoverableRemote(err) {
			fmt.Fprintf(c.Out, "%s Could not add to group %s: %v\n", warnTag, p.group.Name, err)
			return nil
		}
		return err
	}
	fmt.Fprintf(c.Out, "    User %s added to group %s\n", created.Username, p.group.Name)
	return nil
}

// describeRecord renders one record the way the checking narration shows it.
func describeRecord(rec csvio.UserRecord) string {
	value := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}

	out := rec.Name
	out += fmt.Sprintf("\n    %-12s : %s", "username", rec.Username)
	out += fmt.Sprintf("\n    %-12s : %s", "email", rec.Email)
	out += fmt.Sprintf("\n    %-12s : %s", "organization", value(rec.Organization))
	out += fmt.Sprintf("\n    %-12s : %s", "location", value(rec.Location))
	if rec.Group != nil && *rec.Group != "" {
		out += fmt.Sprintf("\n    %-12s : %s (as %s)", "group", *rec.Group, value(rec.AccessLevel))
	}
	return out
}
