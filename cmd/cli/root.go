package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pfline/internal/config"
	"pfline/internal/data"
	"pfline/internal/logging"
	"pfline/internal/series"
	"pfline/internal/stamps"
)

type rootOptions struct {
	configPath string
	logLevel   string
	timezone   string
	bound      string
}

// cliContext carries the loaded configuration through the command tree.
type cliContext struct {
	cfg    *config.Config
	logger *zap.Logger
	loc    *time.Location
	bound  stamps.Bound
}

type cliContextKey struct{}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "pfline",
		Short: "Resample and reconcile energy portfolio time series",
		Long: "pfline converts power, energy, price and revenue series between frequencies\n" +
			"and builds consistent portfolio line tables from partial input.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cc, err := initContext(opts)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cc := getContext(cmd); cc != nil {
				_ = cc.logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (default: built-in defaults)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")
	pf.StringVar(&opts.timezone, "tz", "", "timezone of CSV timestamps; overrides calendar.timezone")
	pf.StringVar(&opts.bound, "bound", "left", "whether CSV timestamps mark period starts (left) or ends (right)")

	cmd.AddCommand(
		newChangeFreqCmd(),
		newTableCmd(),
		newPricesCmd(),
	)
	return cmd
}

func initContext(opts *rootOptions) (*cliContext, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.timezone != "" {
		cfg.Calendar.Timezone = opts.timezone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: "console"})
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Calendar.Location()
	if err != nil {
		return nil, err
	}
	bound, err := stamps.ParseBound(opts.bound)
	if err != nil {
		return nil, err
	}
	return &cliContext{cfg: cfg, logger: logger, loc: loc, bound: bound}, nil
}

func getContext(cmd *cobra.Command) *cliContext {
	if cmd.Context() == nil {
		return nil
	}
	cc, _ := cmd.Context().Value(cliContextKey{}).(*cliContext)
	return cc
}

// readFrame reads a CSV frame using the calendar settings.
func (cc *cliContext) readFrame(path string) (series.Frame, error) {
	return data.ReadFrameCSVFile(path, stamps.Options{
		Bound:    cc.bound,
		Freq:     stamps.Freq(cc.cfg.Calendar.Freq),
		Location: cc.loc,
	})
}

// writeFrame writes f to path, or to stdout when path is empty or "-".
func writeFrame(cmd *cobra.Command, path string, f series.Frame) error {
	if path == "" || path == "-" {
		return data.WriteFrameCSV(cmd.OutOrStdout(), f)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return data.WriteFrameCSVFile(path, f)
}

func stderr(cmd *cobra.Command) io.Writer { return cmd.ErrOrStderr() }
