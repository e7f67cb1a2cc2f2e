package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/outreach"
)

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Inspect and edit email drafts",
}

// -- email show --

var emailShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Print a lead's draft and its refinement history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		history, _ := cmd.Flags().GetBool("history")

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		d, err := env.Service.EmailDraft(args[0])
		if err != nil {
			return eris.Wrap(err, "email show")
		}
		if history {
			formatHistory(cmd.OutOrStdout(), d.History)
			return nil
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), d.Email)
		return err
	},
}

// -- email set --

var emailSetCmd = &cobra.Command{
	Use:   "set <lead-id>",
	Short: "Replace a lead's draft with edited text",
	Long:  "Reads the new draft from --file, or from stdin when --file is '-' or omitted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path, _ := cmd.Flags().GetString("file")

		text, err := readInput(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Service.EditEmail(ctx, args[0], text); err != nil {
			return eris.Wrap(err, "email set")
		}
		fmt.Fprintln(os.Stderr, "Draft updated.")
		return nil
	},
}

// -- refine --

var refineCmd = &cobra.Command{
	Use:   "refine <lead-id> <instruction...>",
	Short: "Rewrite a lead's draft following an instruction",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Service.Refine(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return eris.Wrap(err, "refine")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), lead.GeneratedEmail)
		return err
	},
}

// -- send --

var sendCmd = &cobra.Command{
	Use:   "send <lead-id>",
	Short: "Send a lead's draft and mark the lead contacted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		to, _ := cmd.Flags().GetString("to")
		subject, _ := cmd.Flags().GetString("subject")
		token, _ := cmd.Flags().GetString("token")

		env, err := initEnv(ctx, "send")
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Service.Send(ctx, args[0], outreach.Request{
			Credential: token,
			To:         to,
			Subject:    subject,
		})
		if err != nil {
			if errors.Is(err, outreach.ErrNeedsAuthorization) {
				fmt.Fprintln(os.Stderr, "Mail authorization required: set gmail.access_token or pass --token.")
			}
			return eris.Wrap(err, "send")
		}
		if to == "" {
			to = lead.ContactEmail()
		}
		fmt.Fprintf(os.Stderr, "Sent to %s (%s).\n", to, lead.ComplianceStatus)
		formatLead(cmd.OutOrStdout(), lead)
		return nil
	},
}

// formatHistory writes a refinement history as ROLE: text blocks.
func formatHistory(out io.Writer, msgs []model.Message) {
	for i, m := range msgs {
		if i > 0 {
			_, _ = fmt.Fprintln(out, "---")
		}
		label := strings.ToUpper(string(m.Role))
		if m.ID == model.InitMessageID {
			label = "DRAFT"
		}
		_, _ = fmt.Fprintf(out, "%s [%s]\n%s\n", label, m.Timestamp.Format("2006-01-02 15:04"), m.Text)
	}
}

// readInput reads path, or in when path is empty or "-".
func readInput(in io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", eris.Wrap(err, "read input")
	}
	return string(data), nil
}

func init() {
	emailShowCmd.Flags().Bool("history", false, "print the refinement history instead of the draft")
	emailSetCmd.Flags().String("file", "", "file holding the new draft (default stdin)")
	emailCmd.AddCommand(emailShowCmd, emailSetCmd)

	sendCmd.Flags().String("to", "", "recipient (default: contact email found by analysis)")
	sendCmd.Flags().String("subject", "", "subject (default from outreach.default_subject)")
	sendCmd.Flags().String("token", "", "mail credential overriding the configured one")

	rootCmd.AddCommand(emailCmd, refineCmd, sendCmd)
}
