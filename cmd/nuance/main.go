// Package main provides the Nuance CLI: the journaling API server and a console interview.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nuance/internal/config"
	"nuance/internal/logger"
	"nuance/internal/version"
)

var (
	configFile string
	logLevel   string
	logFile    string
	logFormat  string

	v   *viper.Viper
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nuance",
	Short: "Nuance - guided journaling for English learners",
	Long: `Nuance interviews you about your mood in a few short turns, then turns the
conversation into a polished English article with writing corrections.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./nuance.yaml or ~/.config/nuance/nuance.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append logs to this file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text|json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig runs before every subcommand. Flags override file and environment values.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	v = config.New(configFile)
	flags := map[string]string{
		"log.level":  "log-level",
		"log.file":   "log-file",
		"log.format": "log-format",
	}
	for key, flag := range flags {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("error binding %s flag: %w", flag, err)
			}
		}
	}

	var err error
	cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	if err := logger.Configure(cfg.Log.Level, cfg.Log.File, cfg.Log.Format); err != nil {
		return fmt.Errorf("error configuring logger: %w", err)
	}
	logger.Debug("Configuration loaded", "version", version.Version, "provider", cfg.LLM.Provider, "config_file", v.ConfigFileUsed())
	return nil
}
