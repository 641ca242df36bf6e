package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gitlabtools/gitlab-users/glusers/workflow"
)

func newListUsersCmd(root *rootOptions) *cobra.Command {
	var (
		emailOnly      bool
		showUsername   bool
		showSignInDate bool
		unused         bool
		signIn         bool
		active         bool
		groupName      string
		userName       string
		csvOut         bool
	)

	cmd := &cobra.Command{
		Use:   "list-users",
		Short: "List users, optionally filtered by group, username or activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _, err := openDirectory(root)
			if err != nil {
				return err
			}

			selector := workflow.All()
			if groupName != "" {
				selector = workflow.ByGroup(groupName)
			} else if userName != "" {
				selector = workflow.ByUsername(userName)
			}

			activity := workflow.ActivityNone
			switch {
			case unused:
				activity = workflow.ActivityUnused
			case signIn:
				activity = workflow.ActivitySignedIn
			case active:
				activity = workflow.ActivityActive
			}

			lister := workflow.NewLister(dir, os.Stdout)
			return lister.Run(cmd.Context(), workflow.ListOptions{
				Selector:       selector,
				Activity:       activity,
				EmailOnly:      emailOnly,
				ShowUsername:   showUsername,
				ShowSignInDate: showSignInDate,
				CSVOut:         csvOut,
			})
		},
	}

	cmd.Flags().BoolVar(&emailOnly, "email-only", false, "Display only e-mail addresses")
	cmd.Flags().BoolVar(&showUsername, "username", false, "Display username as @username")
	cmd.Flags().BoolVar(&showSignInDate, "sign-in-date", false, "Display last sign-in date")
	cmd.Flags().BoolVar(&unused, "unused", false, "List unused accounts (stale or never signed in)")
	cmd.Flags().BoolVar(&signIn, "sign-in", false, "List only users that have already signed in")
	cmd.Flags().BoolVar(&active, "active", false, "List users whose last sign-in is within a year")
	cmd.Flags().StringVarP(&groupName, "group", "g", "", "Restrict to members of this group")
	cmd.Flags().StringVarP(&userName, "user", "u", "", "Restrict to a single username")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Render as CSV instead of text")

	cmd.MarkFlagsMutuallyExclusive("unused", "sign-in", "active")
	cmd.MarkFlagsMutuallyExclusive("group", "user", "csv")

	return cmd
}

func newListGroupsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list-groups",
		Short: "List all groups on the GitLab instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _, err := openDirectory(root)
			if err != nil {
				return err
			}
			return workflow.NewLister(dir, os.Stdout).ListGroups(cmd.Context())
		},
	}
}
