package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/datawhisper/datawhisper-cli/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetails bool
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

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, local state and the backend",
	Long: `Check the health of datawhisper by verifying:
  • Configuration resolution
  • Local session state accessibility
  • Backend reachability (/health)

This command is useful for debugging connection issues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 DataWhisper Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Resolving configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckDetails {
			path := configPath
			if path == "" {
				path = internal.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err != nil {
				path += " (not present, using defaults)"
			}
			fmt.Fprintf(out, "   Config file: %s\n", path)
			fmt.Fprintf(out, "   API: %s%s\n", cfg.APIBaseURL, cfg.APIPrefix)
			fmt.Fprintf(out, "   Timeout: %s\n", cfg.Timeout)
		}
		fmt.Fprintln(out)

		// Step 2: Local state
		fmt.Fprintln(out, infoStyle.Render("Step 2: Opening session state..."))
		a, err := openApp(cmd)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to open session state:"), err)
			return err
		}
		defer a.Close()
		fmt.Fprintln(out, successStyle.Render("✅ Session state accessible"))
		if healthcheckDetails {
			fmt.Fprintf(out, "   Database: %s\n", a.kv.Path())
		}
		if sess, ok := a.store.Current(); ok {
			fmt.Fprintf(out, "   Active session: %s (%s)\n", sess.SessionID, sess.Filename)
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  No active session"))
		}
		fmt.Fprintln(out)

		// Step 3: Backend
		fmt.Fprintln(out, infoStyle.Render("Step 3: Contacting backend..."))
		status, err := a.workflow.Health(cmd.Context())
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Backend unreachable:"), internal.UserMessage(err))
			fmt.Fprintln(out)
			fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Backend status: %s", status.Status)))
		if healthcheckDetails {
			fmt.Fprintf(out, "   App: %s\n", status.App)
			fmt.Fprintf(out, "   Environment: %s\n", status.Env)
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
}
