package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gitlabtools/gitlab-users/glusers/csvio"
	"github.com/gitlabtools/gitlab-users/glusers/workflow"
)

func newDeleteFromCSVCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-from-csv <file>",
		Short: "Delete users listed in a CSV or text file (usernames in the first column)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usernames, err := csvio.ReadUsernames(args[0])
			if err != nil {
				return err
			}

			dir, _, err := openDirectory(root)
			if err != nil {
				return err
			}

			deleter := workflow.NewDeleter(dir, os.Stdin, os.Stdout, root.dryRun)
			return deleter.Run(cmd.Context(), usernames)
		},
	}
}

func newDeleteUserCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <username>",
		Short: "Delete a single user by username, with confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _, err := openDirectory(root)
			if err != nil {
				return err
			}

			deleter := workflow.NewDeleter(dir, os.Stdin, os.Stdout, root.dryRun)
			return deleter.Run(cmd.Context(), args[:1])
		},
	}
}
