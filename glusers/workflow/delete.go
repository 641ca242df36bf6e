package workflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	multierror "github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/gitlabtools/gitlab-users/glusers/directory"
	"github.com/gitlabtools/gitlab-users/glusers/prompt"
)

// Deleter removes accounts by username. Every deletion is preceded either by
// an explicit confirmation or by the dry-run no-op; there is no forced path.
// One buffered reader spans the whole batch so piped answers line up with
// their prompts.
type Deleter struct {
	Dir    directory.Directory
	Out    io.Writer
	DryRun bool

	in *bufio.Reader
}

func NewDeleter(dir directory.Directory, in io.Reader, out io.Writer, dryRun bool) *Deleter {
	return &Deleter{Dir: dir, Out: out, DryRun: dryRun, in: bufio.NewReader(in)}
}

// Run processes usernames in order. Unknown usernames are warnings; lookup or
// delete transport failures abort the run.
func (d *Deleter) Run(ctx context.Context, usernames []string) error {
	var result *multierror.Error

	for _, username := range usernames {
		user, err := d.Dir.GetUserByUsername(ctx, username)
		if errors.Is(err, directory.ErrNotFound) {
			fmt.Fprintf(d.Out, "%s user %s does not exist\n", warnTag, username)
			fmt.Fprintf(d.Out, "%s user %s will not be deleted\n", warnTag, username)
			result = multierror.Append(result, err)
			continue
		}
		if err != nil {
			return multierror.Append(result, err)
		}

		if d.DryRun {
			fmt.Fprintf(d.Out, "%s Would delete user: %s\n", dryRunTag, username)
			continue
		}

		fmt.Fprintf(d.Out, "User %s:\n", user.Username)
		fmt.Fprintf(d.Out, "    Name: %s\n", user.Name)
		fmt.Fprintf(d.Out, "    Email: %s\n", user.Email)

		confirmed, err := prompt.Confirm(d.in, d.Out, "Delete?", false)
		if err != nil {
			return multierror.Append(result, err)
		}
		if !confirmed {
			fmt.Fprintf(d.Out, "    User %s not deleted\n", username)
			continue
		}

		if err := d.Dir.DeleteUser(ctx, user.ID); err != nil {
			return multierror.Append(result, err)
		}
		fmt.Fprintf(d.Out, "    User %s deleted\n", username)
		log.WithFields(log.Fields{"username": username, "id": user.ID}).Debug("User deleted")
	}

	return result.ErrorOrNil()
}
