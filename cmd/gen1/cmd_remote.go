package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gen1/internal/actions"
	"gen1/internal/core"
	"gen1/internal/session"
)

func (a *app) pushCmd() *cobra.Command {
	var message, branch string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push the project to the configured GitHub repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemote(cmd, &actions.Push{Header: actions.Header{Action: actions.KindPush}, Message: message, Branch: branch})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch (default: config branch)")
	return cmd
}

func (a *app) pullCmd() *cobra.Command {
	var branch string
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Replace the project files with the configured GitHub branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemote(cmd, &actions.Pull{Header: actions.Header{Action: actions.KindPull}, Branch: branch})
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch (default: config branch)")
	return cmd
}

func (a *app) runRemote(cmd *cobra.Command, action actions.Action) error {
	return a.withSession(cmd.Context(), func(sess *session.Session) error {
		res := a.executor(sess).Execute(cmd.Context(), action, core.OriginUser)
		if !res.Success {
			return res.Err
		}
		summary, _ := res.Metadata["summary"].(string)
		fmt.Fprintf(a.out, "%s %s %v\n", res.Label, res.Target, summary)
		return nil
	})
}
