package viewer

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/WASasquatch/ComfyUI-Viewer/internal/version"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/config"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/hoststate"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/registry"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/views"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	// Initialize custom template formatting functions
	initTemplateFormatting()

	var (
		verbosity int
		cfgPath   string
	)

	rootCmd := &cobra.Command{
		Use:     "viewer",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand given: show help but exit non-zero.
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", MsgFlagConfig)

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	// Add all commands
	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newViewsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// loadConfig resolves the --config flag and loads the configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	return config.Load(path)
}

// readContent reads from the file argument, or stdin when the argument
// is missing or "-".
func readContent(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInvalidInput, "read stdin")
		}
		return string(raw), nil
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "read %s", args[0])
	}
	return string(raw), nil
}

// buildRegistry builds the view registry honoring the configured
// manifest.
func buildRegistry(cfg *config.Config) (registry.Registry, error) {
	return views.NewRegistryFor(cfg.Views.Manifest)
}

// buildStore opens the configured state store. The returned cleanup
// must run when the command finishes.
func buildStore(cfg *config.Config) (types.StateStore, func(), error) {
	if cfg.State.Store == config.StoreSQLite {
		store, err := hoststate.OpenSQLite(cfg.State.ResolvedSQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return hoststate.NewMemoryStore(), func() {}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "viewer version %s\n", version.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		GroupID:               "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
