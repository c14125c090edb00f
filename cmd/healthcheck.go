package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/provider"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthReport counts check outcomes while printing them
type healthReport struct {
	out      io.Writer
	failures int
	warnings int
}

func (r *healthReport) step(n int, title string) {
	fmt.Fprintln(r.out, infoStyle.Render(fmt.Sprintf("Step %d: %s...", n, title)))
}

func (r *healthReport) ok(msg string) {
	fmt.Fprintln(r.out, successStyle.Render("✅ "+msg))
}

func (r *healthReport) warn(msg string) {
	r.warnings++
	fmt.Fprintln(r.out, warningStyle.Render("⚠️  "+msg))
}

func (r *healthReport) fail(msg string, err error) {
	r.failures++
	fmt.Fprintln(r.out, errorStyle.Render("❌ "+msg+":"), err)
}

func (r *healthReport) detail(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(r.out, "   "+format+"\n", args...)
	}
}

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, provider access and the sync store",
	Long: `Check the health of agentsync by verifying:
  • Configuration loading
  • Local session roots (gemini, claude)
  • Provider credentials for cloud providers
  • KV store access
  • Machine id

Run with --verbose to see paths and per-provider details.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := &healthReport{out: cmd.OutOrStdout()}
		ctx := cmd.Context()

		fmt.Fprintln(r.out, sectionStyle.Render("🔍 agentsync Health Check"))
		fmt.Fprintln(r.out)

		r.step(1, "Loading configuration")
		a, err := loadApp()
		if err != nil {
			r.fail("Failed to load configuration", err)
			return fmt.Errorf("health check failed: %w", err)
		}
		r.ok("Configuration loaded")
		r.detail("Config file: %s", a.cfg.Paths.ConfigFile())
		r.detail("State dir: %s", a.cfg.Paths.StateDir)
		r.detail("Providers: %v", a.cfg.Providers)
		fmt.Fprintln(r.out)

		r.step(2, "Checking providers")
		for _, adapter := range a.registry.Enabled(a.cfg.Providers) {
			checkProvider(r, a.cfg, adapter)
		}
		fmt.Fprintln(r.out)

		r.step(3, "Checking KV store")
		store, closeFn, err := a.openStore()
		if err != nil {
			r.fail("KV store unavailable", err)
		} else {
			keys, err := store.ListKeys(ctx, "", 1)
			closeFn()
			if err != nil {
				r.fail("KV store not reachable", err)
			} else {
				r.ok(fmt.Sprintf("KV store reachable (%s)", a.cfg.KV.Backend))
				r.detail("Sample keys: %d", len(keys))
			}
		}
		if a.cfg.KV.Backend == internal.KVBackendSQLite {
			r.detail("Database: %s", a.cfg.KV.Path)
		}
		fmt.Fprintln(r.out)

		r.step(4, "Checking machine id")
		switch {
		case a.cfg.MachineID != "":
			r.ok("Machine id configured: " + a.cfg.MachineID)
		case fileExists(a.cfg.Paths.MachineIDFile()):
			r.ok("Machine id persisted")
			r.detail("File: %s", a.cfg.Paths.MachineIDFile())
		default:
			r.warn("Machine id not generated yet (run `agentsync machine-id`)")
		}
		fmt.Fprintln(r.out)

		fmt.Fprintln(r.out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(r.out)
		if r.failures > 0 {
			fmt.Fprintln(r.out, errorStyle.Render(fmt.Sprintf("❌ Health check failed (%d failure(s), %d warning(s))", r.failures, r.warnings)))
			return fmt.Errorf("health check failed: %d check(s) failed", r.failures)
		}
		if r.warnings > 0 {
			fmt.Fprintln(r.out, warningStyle.Render(fmt.Sprintf("⚠️  Health check passed with %d warning(s)", r.warnings)))
			return nil
		}
		fmt.Fprintln(r.out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

// checkProvider reports whether a provider has what it needs to list
// agents. Missing credentials are warnings since the aggregator skips
// such providers.
func checkProvider(r *healthReport, cfg *internal.Config, adapter provider.Adapter) {
	p := adapter.Provider()
	switch p {
	case internal.ProviderGemini:
		roots := append([]string{cfg.Gemini.Root}, cfg.Gemini.ExtraRoots...)
		found := 0
		for _, root := range roots {
			if internal.DirExists(root) {
				found++
			}
			r.detail("gemini root: %s", root)
		}
		if found == 0 {
			r.warn("gemini: no session root found")
			return
		}
		r.ok(fmt.Sprintf("gemini: %d session root(s) found", found))
	case internal.ProviderClaude:
		r.detail("claude root: %s", cfg.Claude.Root)
		if !internal.DirExists(cfg.Claude.Root) && cfg.Claude.APIKey == "" {
			r.warn("claude: no session root and no API key")
			return
		}
		r.ok("claude: available")
	default:
		if apiKey(cfg, p) == "" {
			r.warn(fmt.Sprintf("%s: API key not configured", p))
			return
		}
		r.ok(fmt.Sprintf("%s: API key configured", p))
	}
}

func apiKey(cfg *internal.Config, p internal.Provider) string {
	switch p {
	case internal.ProviderCursor:
		return cfg.Cursor.APIKey
	case internal.ProviderCodex:
		return cfg.Codex.APIKey
	case internal.ProviderJules:
		return cfg.Jules.APIKey
	case internal.ProviderClaude:
		return cfg.Claude.APIKey
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
