package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/export"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage saved prospecting projects",
}

// -- project list --

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved projects, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		projects := env.Workspace.Projects()
		if asJSON {
			return printJSON(cmd.OutOrStdout(), projects)
		}
		if len(projects) == 0 {
			fmt.Fprintln(os.Stderr, "No projects found.")
			return nil
		}
		formatProjects(cmd.OutOrStdout(), projects, env.Workspace.Session().CurrentProjectID)
		return nil
	},
}

// -- project create --

var projectCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a project, optionally from the current leads",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fromSession, _ := cmd.Flags().GetBool("from-session")

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		leads := env.Workspace.Leads()
		if !fromSession {
			leads = nil
		}
		p, err := env.Workspace.CreateProject(ctx, name, leads)
		if err != nil {
			return eris.Wrap(err, "project create")
		}
		fmt.Fprintf(os.Stderr, "Created project %s (%s) with %d leads.\n", p.Name, p.ID, len(p.Leads))
		return nil
	},
}

// -- project load --

var projectLoadCmd = &cobra.Command{
	Use:   "load <project-id>",
	Short: "Make a project active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.Workspace.LoadProject(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "project load")
		}
		fmt.Fprintf(os.Stderr, "Loaded %s.\n", p.Name)
		formatLeads(cmd.OutOrStdout(), p.Leads)
		return nil
	},
}

// -- project discard --

var projectDiscardCmd = &cobra.Command{
	Use:   "discard <project-id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Workspace.DiscardProject(ctx, args[0]); err != nil {
			return eris.Wrap(err, "project discard")
		}
		fmt.Fprintln(os.Stderr, "Project discarded.")
		return nil
	},
}

// -- project close --

var projectCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Deactivate the current project and clear the leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		return eris.Wrap(env.Workspace.CloseProject(ctx), "project close")
	},
}

// -- project export --

var projectExportCmd = &cobra.Command{
	Use:   "export [project-id]",
	Short: "Write a project's leads to a file",
	Long:  "Exports the given project, or the active one, as json, yaml, csv or xlsx.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer env.Close()

		id := env.Workspace.Session().CurrentProjectID
		if len(args) == 1 {
			id = args[0]
		}
		if id == "" {
			return eris.New("project export: no active project, pass a project id")
		}
		p, err := env.Workspace.Project(id)
		if err != nil {
			return eris.Wrap(err, "project export")
		}

		if outPath == "-" {
			return export.Write(cmd.OutOrStdout(), p, f)
		}
		if outPath == "" {
			outPath = export.FileName(p, f)
		}
		file, err := os.Create(outPath)
		if err != nil {
			return eris.Wrapf(err, "project export: create %s", outPath)
		}
		if err := export.Write(file, p, f); err != nil {
			_ = file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return eris.Wrapf(err, "project export: close %s", outPath)
		}

		zap.L().Info("project exported",
			zap.String("project_id", p.ID),
			zap.String("path", outPath),
			zap.Int("leads", len(p.Leads)),
		)
		return nil
	},
}

// -- project import --

var projectImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create a project from a csv, xlsx or json lead list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]
		name, _ := cmd.Flags().GetString("name")

		file, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "project import: open %s", path)
		}
		defer file.Close() //nolint:errcheck

		leads, err := export.ReadLeads(file, export.FormatOf(path), uuid.NewString)
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			return eris.Errorf("project import: no leads in %s", path)
		}

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		if name == "" {
			name = trimExt(filepath.Base(path))
		}
		p, err := env.Workspace.CreateProject(ctx, name, leads)
		if err != nil {
			return eris.Wrap(err, "project import")
		}
		fmt.Fprintf(os.Stderr, "Imported %d leads into %s (%s).\n", len(p.Leads), p.Name, p.ID)
		return nil
	},
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

func init() {
	projectListCmd.Flags().Bool("json", false, "print projects as JSON")
	projectCreateCmd.Flags().Bool("from-session", false, "copy the current leads into the project")
	projectExportCmd.Flags().String("format", "json", "output format: json, yaml, csv or xlsx")
	projectExportCmd.Flags().String("out", "", "output path, '-' for stdout (default derived from the project name)")
	projectImportCmd.Flags().String("name", "", "project name (default the file name)")

	projectCmd.AddCommand(
		projectListCmd,
		projectCreateCmd,
		projectLoadCmd,
		projectDiscardCmd,
		projectCloseCmd,
		projectExportCmd,
		projectImportCmd,
	)
	rootCmd.AddCommand(projectCmd)
}
