package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"RfpIntel/internal/app"
	"RfpIntel/internal/config"
	"RfpIntel/internal/logging"
)

// BuildFunc assembles the application for one command run.
type BuildFunc func(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app.Application, error)

// Options customize the command tree. Zero values use the real config
// loader, app.New and stdout.
type Options struct {
	Out        io.Writer
	LoadConfig func() config.Config
	Build      BuildFunc
}

type runtime struct {
	opts       Options
	configPath string
	logLevel   string
}

// NewRootCommand builds the rfpintel command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	if opts.Build == nil {
		opts.Build = app.New
	}
	rt := &runtime{opts: opts}

	root := &cobra.Command{
		Use:   "rfpintel",
		Short: "RFP document intelligence pipeline",
		Long: `rfpintel ingests RFP documents from object storage, extracts a cover sheet
and summary for each, and derives compliance and feasibility artifacts on demand.`,
		SilenceUsage: true,
	}
	if opts.Out != nil {
		root.SetOut(opts.Out)
		root.SetErr(opts.Out)
	}

	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "path to YAML config (overrides RFPINTEL_CONFIG)")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "debug|info|warn|error")

	root.AddCommand(
		newProcessCommand(rt),
		newServeCommand(rt),
		newResolveCommand(rt),
		newAskCommand(rt),
		newExportCommand(rt),
		newMigrateCommand(rt),
	)
	return root
}

func (rt *runtime) config() config.Config {
	if rt.configPath != "" {
		_ = os.Setenv("RFPINTEL_CONFIG", rt.configPath)
	}
	cfg := rt.opts.LoadConfig()
	if rt.logLevel != "" {
		cfg.Logging.Level = rt.logLevel
	}
	return cfg
}

func (rt *runtime) logger(cfg config.Config, cmd *cobra.Command) *slog.Logger {
	return logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
}

// application loads config and builds the app; callers must Close it.
func (rt *runtime) application(cmd *cobra.Command) (*app.Application, config.Config, error) {
	cfg := rt.config()
	a, err := rt.opts.Build(cmd.Context(), cfg, rt.logger(cfg, cmd))
	if err != nil {
		return nil, cfg, err
	}
	return a, cfg, nil
}
