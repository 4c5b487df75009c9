package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gen1/internal/store"
)

func (a *app) projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage stored projects",
	}

	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(kv store.KV) error {
				p, err := kv.CreateProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Created project %s (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(kv store.KV) error {
				projects, err := kv.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				if len(projects) == 0 {
					fmt.Fprintln(a.out, "No projects found.")
					return nil
				}
				fmt.Fprintln(a.out, strings.Repeat("─", 60))
				for _, p := range projects {
					fmt.Fprintf(a.out, "  %-20s %s  rev %d  %s\n", p.Name, p.ID, p.Revision, p.CreatedAt.Format("2006-01-02 15:04"))
				}
				fmt.Fprintln(a.out, strings.Repeat("─", 60))
				fmt.Fprintf(a.out, "Total: %d projects\n", len(projects))
				return nil
			})
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}
