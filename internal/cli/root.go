// Package cli implements the authflow command.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-authflow/internal/config"
	"github.com/goliatone/go-authflow/pkg/flows"
	"github.com/goliatone/go-authflow/pkg/i18n"
	"github.com/goliatone/go-authflow/pkg/prompt"
	pkgerrors "github.com/pkg/errors"
)

// Version is set at build time via ldflags.
var Version = "dev"

// promptDriver is the driver used by the run command. Tests override it.
var promptDriver prompt.PromptDriver

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	localizer i18n.Localizer
	store     *flows.Store
}

// NewRootCommand builds the authflow command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	var (
		configFile string
		envFile    string
	)

	root := &cobra.Command{
		Use:   "authflow",
		Short: "Run and inspect multi-step verification forms",
		Long: `authflow drives the login, registration and password reset flows in a
terminal against a simulated backend, and exposes the validation rules
used by those flows.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.Options{
				ConfigFile: configFile,
				EnvFile:    envFile,
				Flags:      cmd.Flags(),
			})
			if err != nil {
				return err
			}
			logger, err := cfg.Log.Build()
			if err != nil {
				return err
			}
			store, err := loadStore(cfg.FlowsDir)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			a.localizer = i18n.NewLocalizer(cfg.Locale)
			a.store = store
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.Version = Version
	root.SetVersionTemplate("authflow version {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./authflow.yaml)")
	pf.StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before reading AUTHFLOW_* variables")
	pf.String("locale", config.DefaultLocale, "message locale (zh-CN, en)")
	pf.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.Bool("dev", false, "use a development logger")
	pf.String("flows-dir", "", "directory of flow definitions replacing the embedded ones")

	root.AddCommand(
		newRunCommand(a),
		newFlowsCommand(a),
		newValidateCommand(a),
		newStrengthCommand(a),
		newDeactivateCommand(a),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func loadStore(dir string) (*flows.Store, error) {
	if dir == "" {
		return flows.Default()
	}
	store, err := flows.LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "load flows from %s", dir)
	}
	if store.Empty() {
		return nil, pkgerrors.Errorf("no flow definitions in %s", dir)
	}
	return store, nil
}
