package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/prospect"
)

var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "Chat with the strategy assistant",
	Long: "Starts an interactive conversation with the business description as context. " +
		"Enter an empty line or 'exit' to stop.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		paths, _ := cmd.Flags().GetStringSlice("file")
		update, _ := cmd.Flags().GetBool("update-context")
		lang, _ := cmd.Flags().GetString("lang")

		files, err := readContextFiles(paths)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		return runAssist(ctx, env.Service, cmd.InOrStdin(), cmd.OutOrStdout(), prospect.AssistInput{
			Files:         files,
			Language:      lang,
			UpdateContext: update,
		})
	},
}

// runAssist reads one message per line and prints each reply. Files are sent
// with the first message only.
func runAssist(ctx context.Context, svc *prospect.Service, in io.Reader, out io.Writer, base prospect.AssistInput) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var history []model.Message
	files := base.Files
	for {
		_, _ = fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		msg := strings.TrimSpace(scanner.Text())
		if msg == "" || msg == "exit" {
			break
		}

		res, err := svc.Assist(ctx, prospect.AssistInput{
			History:       history,
			Message:       msg,
			Files:         files,
			Language:      base.Language,
			UpdateContext: base.UpdateContext,
		})
		if err != nil {
			return eris.Wrap(err, "assist")
		}
		files = nil
		history = res.Transcript

		_, _ = fmt.Fprintln(out, res.Reply.Value)
		if res.Reply.Err != nil {
			fmt.Fprintf(os.Stderr, "assistant error: %v\n", res.Reply.Err)
		}
	}
	return eris.Wrap(scanner.Err(), "assist: read input")
}

// readContextFiles returns each file as a named block.
func readContextFiles(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, eris.Wrapf(err, "assist: read %s", p)
		}
		out = append(out, fmt.Sprintf("[FILE: %s]\n%s\n[/FILE]", filepath.Base(p), data))
	}
	return out, nil
}

func init() {
	assistCmd.Flags().StringSlice("file", nil, "file to attach to the first message (repeatable)")
	assistCmd.Flags().Bool("update-context", false, "replace the business description with the conversation after each reply")
	assistCmd.Flags().String("lang", "", "reply language (default from config)")
	rootCmd.AddCommand(assistCmd)
}
