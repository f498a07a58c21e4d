package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tasknest/go-task-export/internal/logging"
	"github.com/tasknest/go-task-export/services/exporter/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "taskexport",
	Short:        "Task export ETL: snapshots the to-do task store as versioned JSON",
	SilenceUsage: true,
}

// Execute is the entry point called from cmd/taskexport/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: ./taskexport.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug | info | warn | error")
	bindFlag("log_level", rootCmd.PersistentFlags(), "log-level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.SetConfigName("taskexport")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(home + "/.taskexport")
		viper.AddConfigPath("/etc/taskexport")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "error reading config file:", err)
			os.Exit(1)
		}
	} else {
		fmt.Fprintln(os.Stderr, "config:", viper.ConfigFileUsed())
	}
}

// buildLogger wires the combined stdout + day-file logger for a command.
// The returned close func must run before process exit.
func buildLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	logger, closeLogs, err := logging.New(cfg.LogDir, cfg.LogLevel, "taskexport")
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	return logger, closeLogs, nil
}

func bindFlag(viperKey string, fs *pflag.FlagSet, flagName string) {
	if err := viper.BindPFlag(viperKey, fs.Lookup(flagName)); err != nil {
		panic(fmt.Sprintf("bindFlag %q → %q: %v", flagName, viperKey, err))
	}
}
