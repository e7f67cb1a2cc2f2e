package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/model"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and edit the working session",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the step, active project and lead counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		leads, _ := cmd.Flags().GetBool("leads")

		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		s := env.Workspace.Session()
		if asJSON {
			return printJSON(cmd.OutOrStdout(), s)
		}
		formatSession(cmd.OutOrStdout(), s)
		if leads && len(s.Leads) > 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			formatLeads(cmd.OutOrStdout(), s.Leads)
		}
		return nil
	},
}

var sessionStepCmd = &cobra.Command{
	Use:   "step <step>",
	Short: "Move the session to a workflow step",
	Long:  "Valid steps: MODE_SELECT, CONTEXT, DISCOVERY, WEB_AUDIT, OUTREACH.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		step, err := model.ParseStep(strings.ToUpper(args[0]))
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		return eris.Wrap(env.Workspace.SetStep(ctx, step), "session step")
	},
}

var sessionContextCmd = &cobra.Command{
	Use:   "context [text]",
	Short: "Set the business description, or append files to it",
	Long: "Replaces the business description with the argument, or with stdin when no argument is given. " +
		"With --file, each file is appended as a named block instead.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		files, _ := cmd.Flags().GetStringSlice("file")

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		if len(files) > 0 {
			for _, path := range files {
				data, err := os.ReadFile(path)
				if err != nil {
					return eris.Wrapf(err, "session context: read %s", path)
				}
				if err := env.Workspace.AppendContextFile(ctx, filepath.Base(path), string(data)); err != nil {
					return eris.Wrap(err, "session context")
				}
			}
			fmt.Fprintf(os.Stderr, "Appended %d files.\n", len(files))
			return nil
		}

		var text string
		if len(args) == 1 {
			text = args[0]
		} else {
			text, err = readInput(cmd.InOrStdin(), "")
			if err != nil {
				return err
			}
		}
		return eris.Wrap(env.Workspace.SetBusinessContext(ctx, strings.TrimSpace(text)), "session context")
	},
}

func init() {
	sessionShowCmd.Flags().Bool("json", false, "print the session as JSON")
	sessionShowCmd.Flags().Bool("leads", false, "also list the active leads")
	sessionContextCmd.Flags().StringSlice("file", nil, "file to append to the business description (repeatable)")

	sessionCmd.AddCommand(sessionShowCmd, sessionStepCmd, sessionContextCmd)
	rootCmd.AddCommand(sessionCmd)
}
