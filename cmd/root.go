package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fab",
	Short: "Register controller blueprints and construct them against an HTML page",
	Long: `fab keeps a registry of named controller blueprints, declared in a YAML
manifest, and builds controllers from them: each controller gets an element
from the page, an optional model, an initializer and a delegated event map.

Quick Start:
  fab init                          Write .fab.yml and fab.yml
  fab list                          List declared blueprints
  fab construct counter             Build a controller and print its element
  fab trigger counter click -t .inc Dispatch an event and print the result
  fab serve                         Serve the factory over a websocket`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .fab.yml, can also use FAB_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig picks the config file: --config, then FAB_CONFIG_FILE, then
// .fab.yml in the working directory. FAB_<SECTION>_<KEY> variables
// override file values.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("FAB_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".fab")
	}

	viper.SetEnvPrefix("FAB")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// a missing or unreadable file leaves the defaults in place
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
