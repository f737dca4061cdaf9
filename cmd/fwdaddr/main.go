// Package main provides the fwdaddr CLI, which derives forwarding addresses
// for ICP accounts offline from the compiled-in trust anchors.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/klingon-exchange/forwarding-address/internal/anchor"
	"github.com/klingon-exchange/forwarding-address/internal/config"
	"github.com/klingon-exchange/forwarding-address/internal/forwarding"
	"github.com/klingon-exchange/forwarding-address/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

var (
	baseStyle  = lipgloss.NewStyle().Margin(0, 0, 1, 2) //nolint:mnd
	errorStyle = baseStyle.
			Foreground(lipgloss.Color(completeColor("#FF4444", "196", "9"))).
			Padding(0, 1) //nolint:mnd
)

// app is the state shared by subcommands once the root has loaded config.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	deriver *forwarding.Deriver

	configPath string
	env        anchor.Environment
	logLevel   string
	lowercase  bool
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "fwdaddr",
		Short: "Derive EVM forwarding addresses for ICP accounts",
		Long: `Derive EVM forwarding addresses for ICP accounts.

Each ICRC account or ledger account identifier maps to exactly one EVM
address per environment. The address is derived from the environment's
root public key alone, so anyone can recompute and check it offline.`,
		Example: `  fwdaddr icrc 5okwm-giaaa-aaaar-qbn6a-cai --env local
  fwdaddr icrc 5okwm-giaaa-aaaar-qbn6a-cai --subaccount 1122...3132
  fwdaddr account 'k2t6j-...-6ae-6cc627i.1'
  fwdaddr account-id 67ea9046...f22f --env testnet
  fwdaddr verify 0x52d3bA7321Af4d539cE460bf51312F12781A5980 --principal 5okwm-giaaa-aaaar-qbn6a-cai --env local`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file path (default: "+config.DefaultDataDir+"/"+config.ConfigFileName+")")
	flags.Var(&a.env, "env", "Environment: mainnet, testnet or local (default from config)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&a.lowercase, "lowercase", false, "Print addresses in lowercase instead of EIP-55 case")
	flags.BoolVar(&a.jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newICRCCmd(a),
		newAccountCmd(a),
		newAccountIDCmd(a),
		newVerifyCmd(a),
		newAnchorsCmd(),
		newConfigCmd(a),
		newVersionCmd(),
		newManCmd(rootCmd),
		newCompletionCmd(rootCmd),
	)
	return rootCmd
}

// setup loads config, applies flag overrides and builds the deriver.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.Load(a.configPath)
	} else {
		cfg, err = config.LoadConfig(config.DefaultDataDir)
	}
	if err != nil {
		return err
	}

	// CLI flags take precedence over the config file.
	flags := cmd.Flags()
	if flags.Changed("env") {
		cfg.Environment = a.env
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("lowercase") {
		cfg.Output.Lowercase = a.lowercase
	}
	if flags.Changed("json") && a.jsonOutput {
		cfg.Output.Format = "json"
	}
	a.cfg = cfg

	a.log = logging.New(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	logging.SetDefault(a.log)

	a.deriver, err = forwarding.NewDeriver(&forwarding.Config{
		Logger:    a.log,
		Lowercase: cfg.Output.Lowercase,
	})
	if err != nil {
		return err
	}
	a.log.Debug("Config loaded", "environment", cfg.Environment, "format", cfg.Output.Format)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "fwdaddr %s (commit: %s)\n", version, commit)
			return err
		},
	}
}

func newManCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "man",
		Args:   cobra.NoArgs,
		Short:  "generate man pages",
		Hidden: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			manPage, err := mcobra.NewManPage(1, rootCmd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), manPage.Build(roff.NewDocument()))
			return err
		},
	}
}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for fwdaddr.

Bash:
  $ source <(fwdaddr completion bash)

Zsh:
  $ fwdaddr completion zsh > "${fpath[1]}/_fwdaddr"

Fish:
  $ fwdaddr completion fish | source

PowerShell:
  PS> fwdaddr completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unknown shell: %s", args[0])
			}
		},
	}
}

// completeColor picks the color variant supported by the terminal.
func completeColor(truecolor, ansi256, ansi string) string {
	//nolint: exhaustive
	switch lipgloss.ColorProfile() {
	case termenv.TrueColor:
		return truecolor
	case termenv.ANSI256:
		return ansi256
	}
	return ansi
}

// printError writes err to w, styled when w is a terminal.
func printError(w io.Writer, err error) {
	msg := "Error: " + err.Error()
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		msg = errorStyle.Render(msg)
	}
	fmt.Fprintln(w, msg)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
