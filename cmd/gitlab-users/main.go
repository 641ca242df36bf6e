package main

import "github.com/gitlabtools/gitlab-users/glusers/cli"

func main() {
	cli.Execute()
}
