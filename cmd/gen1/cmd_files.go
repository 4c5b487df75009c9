package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gen1/internal/blocks"
	"gen1/internal/session"
	"gen1/internal/vfs"
)

func (a *app) lsCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "Print the project tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *session.Session) error {
				fmt.Fprintln(a.out, strings.TrimRight(sess.Files().Tree(depth), "\n"))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", vfs.DefaultTreeDepth, "Maximum tree depth")
	return cmd
}

func (a *app) catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat PATH",
		Short: "Print a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *session.Session) error {
				content, err := sess.Files().Read(args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(a.out, content)
				if !strings.HasSuffix(content, "\n") {
					fmt.Fprintln(a.out)
				}
				return nil
			})
		},
	}
}

func (a *app) blockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "block PATH LOGIC_NAME",
		Short: "Print a marked logic block of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *session.Session) error {
				content, err := sess.Files().Read(args[0])
				if err != nil {
					return err
				}
				b, err := blocks.FindBlock(content, args[1], vfs.Base(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s (lines %d-%d)\n", dimStyle.Render(b.Name), b.StartLine+1, b.EndLine+1)
				fmt.Fprintln(a.out, strings.Trim(b.Body, "\n"))
				return nil
			})
		},
	}
}
