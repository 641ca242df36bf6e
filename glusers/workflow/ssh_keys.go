package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/gitlabtools/gitlab-users/glusers/directory"
)

// DefaultKeyDir is where exported public keys land, relative to the working
// directory.
const DefaultKeyDir = "ssh_keys"

// KeyExporter writes each selected user's first registered SSH public key to
// <KeyDir>/<username>.pub. In dry-run mode keys are still fetched, parsed
// and tallied, but nothing touches the filesystem.
type KeyExporter struct {
	Dir    directory.Directory
	Out    io.Writer
	KeyDir string
	DryRun bool
}

func NewKeyExporter(dir directory.Directory, out io.Writer, dryRun bool) *KeyExporter {
	return &KeyExporter{Dir: dir, Out: out, KeyDir: DefaultKeyDir, DryRun: dryRun}
}

// Run exports keys for the selected users and prints the tally. Users whose
// stored key does not parse as an authorized key are counted as keyless.
func (e *KeyExporter) Run(ctx context.Context, sel Selector) error {
	lister := &Lister{Dir: e.Dir, Out: e.Out}
	users, _, err := lister.selectUsers(ctx, sel)
	if err != nil {
		return err
	}

	if !e.DryRun {
		if err := os.MkdirAll(e.KeyDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", e.KeyDir, err)
		}
	}

	var keyless []directory.User
	for _, user := range users {
		keys, err := e.Dir.ListSSHKeys(ctx, user.ID)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			keyless = append(keyless, user)
			continue
		}

		key := keys[0]
		pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(key.Key))
		if err != nil {
			fmt.Fprintf(e.Out, "%s key %q of user %s does not parse: %v\n", warnTag, key.Title, user.Username, err)
			keyless = append(keyless, user)
			continue
		}

		path := filepath.Join(e.KeyDir, user.Username+".pub")
		if e.DryRun {
			fmt.Fprintf(e.Out, "%s Would write %s\n", dryRunTag, path)
			continue
		}
		if err := os.WriteFile(path, []byte(key.Key+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(e.Out, "%s <%s> %s\n", user.Name, user.Email, ssh.FingerprintSHA256(pub))
		log.WithFields(log.Fields{"username": user.Username, "path": path}).Debug("Exported key")
	}

	fmt.Fprintln(e.Out, "--")
	fmt.Fprintf(e.Out, "%d/%d users has an ssh key.\n", len(users)-len(keyless), len(users))
	if len(keyless) > 0 {
		fmt.Fprintln(e.Out, "--")
		fmt.Fprintln(e.Out, "The following users has no ssh key:")
		fmt.Fprintln(e.Out)
		for _, u := range keyless {
			fmt.Fprintf(e.Out, "%s <%s>\n", u.Name, u.Email)
		}
		fmt.Fprintln(e.Out, "--")
	}
	return nil
}
