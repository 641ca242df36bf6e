// Package cli wires the command tree: configuration discovery, the GitLab
// connection, and one cobra command per operation.
package cli

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gitlabtools/gitlab-users/glusers/config"
	"github.com/gitlabtools/gitlab-users/glusers/directory"
)

type rootOptions struct {
	gitlabID string
	dryRun   bool
	debug    bool
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "gitlab-users",
		Short:         "List GitLab users information and automate user account creation and deletion",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(opts.debug)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.gitlabID, "gitlab", "",
		"Configuration section of ~/.python-gitlab.cfg to use. Defaults to the [global] default section.")
	cmd.PersistentFlags().BoolVarP(&opts.dryRun, "dry-run", "n", false,
		"Show what would be done without creating or deleting anything")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug log level")

	cmd.AddCommand(
		newListUsersCmd(&opts),
		newListGroupsCmd(&opts),
		newExportUsersCmd(&opts),
		newCreateFromCSVCmd(&opts),
		newDeleteFromCSVCmd(&opts),
		newDeleteUserCmd(&opts),
		newExportSSHKeysCmd(&opts),
	)
	return cmd
}

func configureLogging(debug bool) {
	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(log.DebugLevel)
		log.Debug("Debug mode enabled")
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// openDirectory resolves the python-gitlab configuration and opens the API
// connection. Configuration problems are fatal and point at the setup docs.
func openDirectory(opts *rootOptions) (directory.Directory, *config.Config, error) {
	path, err := config.Locate()
	if err != nil {
		return nil, nil, fmt.Errorf("%w\nCheck python-gitlab configuration on %s", err, config.SetupDocsURL)
	}

	cfg, err := config.Load(path, opts.gitlabID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w\nCheck python-gitlab configuration on %s", err, config.SetupDocsURL)
	}

	if cfg.Token == "" {
		cfg.Token, err = readToken(cfg.URL)
		if err != nil {
			return nil, nil, err
		}
	}

	dir, err := directory.NewGitLab(directory.GitLabOptions{
		URL:       cfg.URL,
		Token:     cfg.Token,
		SSLVerify: cfg.SSLVerify,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return dir, cfg, nil
}

// readToken prompts for a private token with no echo when the config section
// has none. Requires an interactive terminal.
func readToken(url string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no private_token configured for %s and stdin is not a terminal", url)
	}

	fmt.Fprintf(os.Stderr, "Enter the private token for %s: ", url)
	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading private token: %w", err)
	}
	return string(tokenBytes), nil
}
