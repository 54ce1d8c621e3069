package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"homemoney/internal/client"
	"homemoney/internal/config"
	"homemoney/internal/dateformat"
	"homemoney/internal/log"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:               "homemoney",
		Short:             "Household expense tracker",
		Long:              "homemoney records household expenses through the homemoney API and charts them per month.",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/homemoney/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (default: API_BASE_URL or http://localhost:3010/api)")
	rootCmd.PersistentFlags().String("locale", "", "locale for dates and month labels (default: detected from LANG)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("locale", rootCmd.PersistentFlags().Lookup("locale"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(dashCmd())
	rootCmd.AddCommand(chartCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(formatCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "homemoney"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("HOMEMONEY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// settings merges the environment configuration with config file values and
// flags, which win.
func settings() (*config.Config, error) {
	cfg := config.Load()
	if v := viper.GetString("api_url"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.LogLevel = v
	}
	if v := viper.GetDuration("refresh_interval"); v > 0 {
		cfg.RefreshInterval = v
	}
	if v := viper.GetString("redis_url"); v != "" {
		cfg.RedisURL = v
	}
	if v := viper.GetString("amqp_url"); v != "" {
		cfg.AMQPURL = v
	}

	cfg.Locale = resolveLocale(viper.GetString("locale"), cfg.Locale, os.Getenv("LANG"))

	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveLocale picks the first non-empty source, normalised to a supported
// locale.
func resolveLocale(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return dateformat.DetectLocale(c)
		}
	}
	return dateformat.DetectLocale("")
}

// newLogger writes to w, which is stderr for one-shot commands.
func newLogger(cfg *config.Config, w io.Writer) *log.Logger {
	return log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    w,
	})
}

func newAPIClient(cfg *config.Config, logger *log.Logger) *client.Client {
	return client.New(cfg.APIBaseURL, client.WithLogger(logger))
}
