package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/prospect"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [lead-id]",
	Short: "Audit, score and draft an email for leads",
	Long: "Runs the per-lead flow: website audit when missing, deep analysis, then a first email draft. " +
		"Pass a lead id, or --all to process every active lead with bounded concurrency.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		all, _ := cmd.Flags().GetBool("all")
		onlyNew, _ := cmd.Flags().GetBool("only-new")
		reaudit, _ := cmd.Flags().GetBool("reaudit")
		lang, _ := cmd.Flags().GetString("lang")

		if all == (len(args) == 1) {
			return eris.New("analyze: pass a lead id or --all")
		}

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		opts := prospect.AnalyzeOptions{Language: lang, ReAudit: reaudit}
		out := cmd.OutOrStdout()

		if !all {
			lead, res, err := env.Service.Analyze(ctx, args[0], opts)
			if err != nil {
				return eris.Wrap(err, "analyze")
			}
			formatEnrichment(os.Stderr, lead.ID, res)
			formatLead(out, lead)
			return nil
		}

		results, err := env.Service.AnalyzeAll(ctx, onlyNew, opts)
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", r.LeadID, r.Err)
				continue
			}
			formatEnrichment(os.Stderr, r.LeadID, r.Enrichment)
		}
		zap.L().Info("analyze complete",
			zap.Int("leads", len(results)),
			zap.Int("failed", failed),
		)
		formatLeads(out, env.Workspace.Leads())
		return err
	},
}

var reauditCmd = &cobra.Command{
	Use:   "reaudit <lead-id>",
	Short: "Run the website audit again for a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		lang, _ := cmd.Flags().GetString("lang")

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Service.ReAudit(ctx, args[0], lang)
		if err != nil {
			return eris.Wrap(err, "reaudit")
		}
		formatLead(cmd.OutOrStdout(), lead)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Bool("all", false, "analyze every active lead")
	analyzeCmd.Flags().Bool("only-new", false, "with --all, skip leads already analyzed")
	analyzeCmd.Flags().Bool("reaudit", false, "discard cached audit reports and audit again")
	analyzeCmd.Flags().String("lang", "", "output language (default from config)")

	reauditCmd.Flags().String("lang", "", "output language (default from config)")

	rootCmd.AddCommand(analyzeCmd, reauditCmd)
}
