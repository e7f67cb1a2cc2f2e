package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/prospect"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find local businesses in a sector and location",
	Long:  "Runs the discovery stage and stores the leads in the active project, or in a new project when none is active.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sector, _ := cmd.Flags().GetString("sector")
		location, _ := cmd.Flags().GetString("location")
		strategy, _ := cmd.Flags().GetString("strategy")
		hiring, _ := cmd.Flags().GetBool("hiring-only")
		lang, _ := cmd.Flags().GetString("lang")

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.Discover(ctx, prospect.DiscoverInput{
			Sector:     sector,
			Location:   location,
			Strategy:   strategy,
			HiringOnly: hiring,
			Language:   lang,
		})
		if err != nil {
			return eris.Wrap(err, "discover")
		}
		if len(res.Leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		zap.L().Info("discovery complete",
			zap.Int("leads", len(res.Leads)),
			zap.String("project_id", res.Project.ID),
		)
		formatLeads(cmd.OutOrStdout(), res.Leads)
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Audit a single website and store it as a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		lang, _ := cmd.Flags().GetString("lang")

		env, err := initEnv(ctx, "pipeline")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.Audit(ctx, args[0], lang)
		if err != nil {
			return eris.Wrap(err, "audit")
		}
		for _, l := range res.Leads {
			formatLead(cmd.OutOrStdout(), l)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().String("sector", "", "business sector to search (required)")
	discoverCmd.Flags().String("location", "", "city or area to search (required)")
	discoverCmd.Flags().String("strategy", "", "free-text targeting strategy")
	discoverCmd.Flags().Bool("hiring-only", false, "only businesses with visible hiring signals")
	discoverCmd.Flags().String("lang", "", "output language (default from config)")
	_ = discoverCmd.MarkFlagRequired("sector")
	_ = discoverCmd.MarkFlagRequired("location")

	auditCmd.Flags().String("lang", "", "output language (default from config)")

	rootCmd.AddCommand(discoverCmd, auditCmd)
}
