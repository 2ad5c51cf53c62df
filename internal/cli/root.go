package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/homeharvest/internal/app"
	"github.com/law-makers/homeharvest/internal/config"
	"github.com/law-makers/homeharvest/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "homeharvest",
	Short: "Search and normalize real-estate listings across providers",
	Long: `HomeHarvest queries realtor.com, redfin and zillow for listings in a
location and merges them into one deduplicated table.

Results are written as CSV, Excel, JSON, YAML, HTML or Markdown.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on any error.
// This is called by main.main().
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		p := ui.For(os.Stderr)
		fmt.Fprintf(os.Stderr, "%s %v\n", p.Error("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd)

	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.HTTPTimeout)
		defer cancel()
		_ = a.Close(ctx)
		SetApp(cmd, nil)
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
}

// customHelpFunc provides a colorized help output
func customHelpFunc(cmd *cobra.Command, args []string) {
	w := os.Stdout
	p := ui.For(w)

	fmt.Fprintf(w, "\n%s\n", p.Paint(ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name())))
	if cmd.Short != "" {
		fmt.Fprintf(w, "%s\n", cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", cmd.Long)
	}

	printUsage(w, p, cmd)

	if cmd.HasExample() {
		fmt.Fprintf(w, "\n%s\n", p.Paint(ui.ColorBold+ui.ColorWhite, "Examples"))
		for _, line := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
				fmt.Fprintln(w)
			case strings.HasPrefix(trimmed, "#"):
				fmt.Fprintf(w, "  %s\n", p.Paint(ui.ColorDim, trimmed))
			default:
				fmt.Fprintf(w, "  %s\n", p.Paint(ui.ColorGreen, "$ "+trimmed))
			}
		}
	}

	printCommands(w, p, cmd)

	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintf(w, "\n%s\n", p.Paint(ui.ColorBold+ui.ColorWhite, "Flags"))
		printFlagsTo(w, p, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		fmt.Fprintf(w, "\n%s\n", p.Paint(ui.ColorBold+ui.ColorWhite, "Global Flags"))
		printFlagsTo(w, p, cmd.InheritedFlags().FlagUsages())
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n%s\n", p.Paint(ui.ColorDim,
			fmt.Sprintf("Use \"%s <command> --help\" for more information about a command.", cmd.CommandPath())))
	}
	fmt.Fprintln(w)
}

// customUsageFunc provides a colorized usage output
func customUsageFunc(cmd *cobra.Command) error {
	w := os.Stderr
	p := ui.For(w)

	printUsage(w, p, cmd)
	printCommands(w, p, cmd)
	if cmd.HasAvailableLocalFlags() {
		fmt.Fprintf(w, "\n%s\n", p.Paint(ui.ColorBold+ui.ColorWhite, "Flags"))
		printFlagsTo(w, p, cmd.LocalFlags().FlagUsages())
	}
	fmt.Fprintf(w, "\n%s\n", p.Paint(ui.ColorDim,
		fmt.Sprintf("Use \"%s --help\" for more information.", cmd.CommandPath())))
	return nil
}

func printUsage(w io.Writer, p ui.Palette, cmd *cobra.Command) {
	fmt.Fprintf(w, "\n%s\n", p.Paint(ui.ColorBold+ui.ColorWhite, "Usage"))
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s\n", p.Paint(ui.ColorCyan, cmd.UseLine()))
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s %s %s\n",
			p.Paint(ui.ColorCyan, cmd.CommandPath()),
			p.Paint(ui.ColorYellow, "<command>"),
			p.Paint(ui.ColorDim, "[flags]"))
	}
}

func printCommands(w io.Writer, p ui.Palette, cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	fmt.Fprintf(w, "\n%s\n", p.Paint(ui.ColorBold+ui.ColorWhite, "Commands"))

	maxLen := 0
	var available []*cobra.Command
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			available = append(available, c)
			maxLen = max(maxLen, len(c.Name()))
		}
	}
	for _, c := range available {
		padding := strings.Repeat(" ", maxLen-len(c.Name())+2)
		fmt.Fprintf(w, "  %s%s%s\n", p.Paint(ui.ColorCyan, c.Name()), padding, p.Paint(ui.ColorDim, c.Short))
	}
}

// printFlagsTo prints pflag usages with the flag names highlighted
func printFlagsTo(w io.Writer, p ui.Palette, flagUsages string) {
	lines := strings.Split(flagUsages, "\n")

	maxFlagLen := 28
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "-") {
			flagPart, _, _ := strings.Cut(trimmed, "  ")
			maxFlagLen = max(maxFlagLen, len(strings.TrimSpace(flagPart)))
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			// Continuation line
			fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", maxFlagLen+4), p.Paint(ui.ColorDim, trimmed))
			continue
		}

		flagPart, descPart, found := strings.Cut(trimmed, "  ")
		flagPart = strings.TrimSpace(flagPart)
		if !found {
			fmt.Fprintf(w, "  %s\n", p.Paint(ui.ColorGreen, flagPart))
			continue
		}
		padding := strings.Repeat(" ", maxFlagLen-len(flagPart)+2)
		fmt.Fprintf(w, "  %s%s%s\n", p.Paint(ui.ColorGreen, flagPart), padding, p.Paint(ui.ColorDim, strings.TrimSpace(descPart)))
	}
}
