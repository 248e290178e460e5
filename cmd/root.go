package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tilesweep/internal/config"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:          "tilesweep",
	Short:        "tilesweep - find missing and broken tiles in XYZ tile directories",
	Long:         "tilesweep walks a z/x/y tile pyramid and reports tiles that are probably missing from the grid, or images with long runs of a uniform color.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cmd); err != nil {
			return err
		}
		logger, err := newLogger(config.LoadLog(v))
		if err != nil {
			return err
		}
		cmd.SetContext(logger.WithContext(cmd.Context()))
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	defaults := config.DefaultLog()
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", defaults.Level, "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", defaults.Format, "log format: console or json")
}

// initConfig layers flags over TILESWEEP_* environment variables over the
// optional config file. Keys are the flag names.
func initConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	v.SetEnvPrefix("TILESWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v.BindPFlags(cmd.Flags())
}

func newLogger(cfg config.Log) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("%w: log-level: %v", config.ErrInvalid, err)
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger(), nil
	case "console", "":
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
	default:
		return zerolog.Nop(), fmt.Errorf("%w: unknown log format %q", config.ErrInvalid, cfg.Format)
	}
}
