package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gen1/internal/articulation"
	"gen1/internal/core"
	"gen1/internal/session"
)

func (a *app) applyCmd() *cobra.Command {
	var user bool
	cmd := &cobra.Command{
		Use:   "apply [file|-]",
		Short: "Parse and execute an assistant response",
		Long: `Reads an assistant response from a file, or from stdin when the argument
is "-" or missing, and executes its actions in order. Text, operation
results and feedback are appended to the project conversation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withSession(ctx, func(sess *session.Session) error {
				exec := a.executor(sess)
				if user {
					return a.applyAsUser(ctx, exec, raw)
				}
				report, err := exec.ProcessResponse(ctx, raw)
				if err != nil {
					return err
				}
				a.printReport(report)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "Mark the actions user-initiated (no feedback recorded)")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// applyAsUser executes the actions of raw as user-initiated. Text segments
// are not logged and parse errors are only reported.
func (a *app) applyAsUser(ctx context.Context, exec *core.Executor, raw string) error {
	parsed := articulation.NewParser(nil).Parse(raw)
	report := &core.Report{}
	for _, seg := range parsed.Segments {
		switch {
		case seg.IsAction():
			report.Results = append(report.Results, exec.Execute(ctx, seg.Action, core.OriginUser))
		case seg.Type == articulation.SegmentError:
			report.ParseErrors++
			fmt.Fprintf(a.out, "%s %s\n", errorStyle.Render("skip"), seg.ErrorMessage)
		}
	}
	a.printReport(report)
	return nil
}

func (a *app) printReport(r *core.Report) {
	for _, res := range r.Results {
		if res.Success {
			fmt.Fprintf(a.out, "%s %s %s\n", successStyle.Render("ok  "), res.Kind, res.Target)
			continue
		}
		fmt.Fprintf(a.out, "%s %s %s: %v\n", errorStyle.Render("fail"), res.Kind, res.Target, res.Err)
	}
	fmt.Fprintf(a.out, "%d action(s), %d failed, %d parse error(s)\n", len(r.Results), len(r.Failed()), r.ParseErrors)
	if r.HasSpeech {
		fmt.Fprintf(a.out, "%s %s\n", dimStyle.Render("speech:"), r.Speech)
	}
}
