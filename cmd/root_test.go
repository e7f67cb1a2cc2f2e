package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func subcommandNames(c *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	for _, sub := range c.Commands() {
		names[sub.Name()] = true
	}
	return names
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(rootCmd)

	expected := []string{
		"discover", "audit", "analyze", "reaudit", "email", "refine",
		"send", "project", "session", "assist", "serve",
	}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "prospect-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestDiscoverCommand_RequiredFlags(t *testing.T) {
	for _, name := range []string{"sector", "location"} {
		flag := discoverCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "discover should have --%s flag", name)
		assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
	}
	for _, name := range []string{"strategy", "hiring-only", "lang"} {
		assert.NotNil(t, discoverCmd.Flags().Lookup(name), "discover should have --%s flag", name)
	}
}

func TestAuditCommand_Args(t *testing.T) {
	assert.Error(t, auditCmd.Args(auditCmd, nil))
	assert.NoError(t, auditCmd.Args(auditCmd, []string{"example.com"}))
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, name := range []string{"all", "only-new", "reaudit", "lang"} {
		flag := analyzeCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "analyze should have --%s flag", name)
	}
	assert.Equal(t, "false", analyzeCmd.Flags().Lookup("all").DefValue)
	assert.Error(t, analyzeCmd.Args(analyzeCmd, []string{"a", "b"}))
}

func TestRefineCommand_Args(t *testing.T) {
	assert.Error(t, refineCmd.Args(refineCmd, []string{"lead-1"}))
	assert.NoError(t, refineCmd.Args(refineCmd, []string{"lead-1", "shorter", "please"}))
}

func TestSendCommand_Flags(t *testing.T) {
	for _, name := range []string{"to", "subject", "token"} {
		assert.NotNil(t, sendCmd.Flags().Lookup(name), "send should have --%s flag", name)
	}
}

func TestEmailCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(emailCmd)
	assert.True(t, names["show"])
	assert.True(t, names["set"])
	assert.NotNil(t, emailShowCmd.Flags().Lookup("history"))
	assert.NotNil(t, emailSetCmd.Flags().Lookup("file"))
}

func TestProjectCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(projectCmd)
	for _, name := range []string{"list", "create", "load", "discard", "close", "export", "import"} {
		assert.True(t, names[name], "project should have subcommand %q", name)
	}
}

func TestProjectExportCommand_Flags(t *testing.T) {
	flag := projectExportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "json", flag.DefValue)
	assert.NotNil(t, projectExportCmd.Flags().Lookup("out"))
}

func TestSessionCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(sessionCmd)
	for _, name := range []string{"show", "step", "context"} {
		assert.True(t, names[name], "session should have subcommand %q", name)
	}
	assert.NotNil(t, sessionContextCmd.Flags().Lookup("file"))
}

func TestAssistCommand_Flags(t *testing.T) {
	for _, name := range []string{"file", "update-context", "lang"} {
		assert.NotNil(t, assistCmd.Flags().Lookup(name), "assist should have --%s flag", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestTrimExt(t *testing.T) {
	assert.Equal(t, "leads", trimExt("leads.csv"))
	assert.Equal(t, "leads.v2", trimExt("leads.v2.xlsx"))
	assert.Equal(t, "leads", trimExt("leads"))
}
