package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"gen1/internal/conversation"
	"gen1/internal/session"
)

func (a *app) historyCmd() *cobra.Command {
	var style string
	var width int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Render the visible conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := glamour.NewTermRenderer(
				glamour.WithStandardStyle(style),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return fmt.Errorf("create renderer: %w", err)
			}
			return a.withSession(cmd.Context(), func(sess *session.Session) error {
				msgs := sess.Log().Rendered()
				if len(msgs) == 0 {
					fmt.Fprintln(a.out, "No messages yet.")
					return nil
				}
				for _, m := range msgs {
					header := fmt.Sprintf("%s · %s · %s", m.Sender, m.Type, m.Timestamp.Local().Format("2006-01-02 15:04:05"))
					fmt.Fprintln(a.out, dimStyle.Render(header))
					out, err := renderer.Render(historyBody(m))
					if err != nil {
						return err
					}
					fmt.Fprintln(a.out, strings.TrimRight(out, "\n"))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&style, "style", "notty", "glamour style (dark, light, notty, ...)")
	cmd.Flags().IntVar(&width, "width", 100, "Word wrap width")
	return cmd
}

// historyBody is the markdown shown for m. Text keeps its original
// markdown, other HTML bodies are reduced to text.
func historyBody(m conversation.Message) string {
	switch {
	case m.Type == conversation.TypeText && m.ContentForAI != "":
		return m.ContentForAI
	case m.IsHTML:
		return conversation.TextContent(m.DisplayContent)
	}
	return m.DisplayContent
}

func (a *app) replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Print the history as the model receives it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(sess *session.Session) error {
				for _, turn := range sess.Log().Replay() {
					fmt.Fprintf(a.out, "%s: %s\n", turn.Role, turn.Text)
				}
				return nil
			})
		},
	}
}
