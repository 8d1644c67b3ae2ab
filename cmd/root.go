package mctoolscmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OwenCochell/mctools/config"
)

var (
	version        = "v0.1.0"
	defaultCfgPath = "/etc/mcmonitor"
	configPath     string
)

var rootCmd = &cobra.Command{
	Use:           "mcmonitor",
	Short:         "Monitor Minecraft servers over RCON, Query and Server List Ping",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// RootCmd returns the root command for tests.
func RootCmd() *cobra.Command {
	return rootCmd
}

func mainConfigPath() string {
	return filepath.Join(configPath, config.MainConfigFileName)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultCfgPath, "directory holding "+config.MainConfigFileName)
}
