package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gitlabtools/gitlab-users/glusers/csvio"
	"github.com/gitlabtools/gitlab-users/glusers/workflow"
)

func newCreateFromCSVCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-from-csv <file>",
		Short: "Create users from a CSV file",
		Long: "Create users from a CSV file with the format:\n" +
			"  username,name,email,[organization],[location],[group],[access_level]\n" +
			"Lines starting with # are ignored. Records requesting a group must name a\n" +
			"recognized access level (guest, reporter, developer, maintainer, owner).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := csvio.ReadNewUsers(args[0])
			if err != nil {
				return err
			}

			dir, cfg, err := openDirectory(root)
			if err != nil {
				return err
			}

			creator := workflow.NewCreator(dir, os.Stdout, root.dryRun)
			creator.AdminURL = cfg.URL
			return creator.Run(cmd.Context(), records)
		},
	}
}
