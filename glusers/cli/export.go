package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitlabtools/gitlab-users/glusers/csvio"
	"github.com/gitlabtools/gitlab-users/glusers/workflow"
)

func newExportUsersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export-users <file>",
		Short: "Export all users to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _, err := openDirectory(root)
			if err != nil {
				return err
			}

			users, err := dir.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			file, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			if err := csvio.WriteUsers(file, users); err != nil {
				return fmt.Errorf("writing %s: %w", args[0], err)
			}
			fmt.Printf("Exported %d users to %s\n", len(users), args[0])
			return nil
		},
	}
}

func newExportSSHKeysCmd(root *rootOptions) *cobra.Command {
	var groupName string

	cmd := &cobra.Command{
		Use:   "export-ssh-keys [username]",
		Short: "Export users' SSH public keys to ssh_keys/<username>.pub",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _, err := openDirectory(root)
			if err != nil {
				return err
			}

			selector := workflow.All()
			if groupName != "" {
				selector = workflow.ByGroup(groupName)
			} else if len(args) == 1 {
				selector = workflow.ByUsername(args[0])
			}

			return workflow.NewKeyExporter(dir, os.Stdout, root.dryRun).Run(cmd.Context(), selector)
		},
	}

	cmd.Flags().StringVarP(&groupName, "group", "g", "", "Restrict to members of this group")
	return cmd
}
